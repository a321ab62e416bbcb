package transaction_test

import (
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestTransactionHash(t *testing.T) {
	t.Log("Given the need to hash a transaction without its signature.")
	{
		t.Logf("\tWhen building a reward transaction.")
		{
			tx := transaction.NewReward(5, "minerAddress", 50)

			if tx.Hash != tx.ComputeHash() {
				t.Fatalf("\t%s\tShould produce a hash that matches ComputeHash.", failed)
			}
			t.Logf("\t%s\tShould produce a hash that matches ComputeHash.", success)

			std := transaction.NewStandard(5,
				[]transaction.Input{{OutputHash: "deadbeef", OutputIndex: 0}},
				[]transaction.Output{{Amount: 50, Address: "minerAddress"}},
			)
			std.Inputs[0].Signature = "anything"
			if std.Hash != std.ComputeHash() {
				t.Fatalf("\t%s\tShould not change the hash when only the signature changes.", failed)
			}
			t.Logf("\t%s\tShould not change the hash when only the signature changes.", success)
		}
	}
}

func TestSignAndVerify(t *testing.T) {
	t.Log("Given the need to sign and verify a standard transaction.")
	{
		spender, err := crypto.NewKeyPair()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a spender key pair: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a spender key pair.", success)

		receiver, err := crypto.NewKeyPair()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a receiver key pair: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a receiver key pair.", success)

		in := transaction.Input{OutputHash: "deadbeef", OutputIndex: 0}
		out := transaction.Output{Amount: 25, Address: receiver.Address()}

		tx := transaction.NewStandard(1, []transaction.Input{in}, []transaction.Output{out})

		if err := tx.SignInput(0, spender); err != nil {
			t.Fatalf("\t%s\tShould be able to sign input 0: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign input 0.", success)

		utxo := transaction.NewUTXOSet()
		utxo.Add(transaction.OutputRef{Hash: "deadbeef", Index: 0}, transaction.Output{
			Amount:  25,
			Address: spender.Address(),
		})

		if err := transaction.ValidateBlock([]transaction.Transaction{
			transaction.NewReward(0, spender.Address(), 50),
			tx,
		}, 0, utxo, 50); err != nil {
			t.Fatalf("\t%s\tShould validate a correctly signed, balanced transaction: %s", failed, err)
		}
		t.Logf("\t%s\tShould validate a correctly signed, balanced transaction.", success)
	}
}

func TestValidateBlockRejectsUnbalanced(t *testing.T) {
	t.Log("Given the need to reject a transaction whose outputs don't equal its inputs.")
	{
		spender, err := crypto.NewKeyPair()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a spender key pair: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a spender key pair.", success)

		utxo := transaction.NewUTXOSet()
		utxo.Add(transaction.OutputRef{Hash: "deadbeef", Index: 0}, transaction.Output{
			Amount:  25,
			Address: spender.Address(),
		})

		in := transaction.Input{OutputHash: "deadbeef", OutputIndex: 0}
		out := transaction.Output{Amount: 10, Address: spender.Address()}
		tx := transaction.NewStandard(1, []transaction.Input{in}, []transaction.Output{out})

		if err := tx.SignInput(0, spender); err != nil {
			t.Fatalf("\t%s\tShould be able to sign input 0: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign input 0.", success)

		err = transaction.ValidateBlock([]transaction.Transaction{
			transaction.NewReward(0, spender.Address(), 50),
			tx,
		}, 0, utxo, 50)
		if err == nil {
			t.Fatalf("\t%s\tShould reject a transaction where inputs don't equal outputs.", failed)
		}
		t.Logf("\t%s\tShould reject a transaction where inputs don't equal outputs.", success)
	}
}

func TestApplyUpdatesUTXOSet(t *testing.T) {
	t.Log("Given the need to fold an accepted transaction into the UTXO set.")
	{
		spender, err := crypto.NewKeyPair()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a spender key pair: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a spender key pair.", success)

		receiver, err := crypto.NewKeyPair()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to generate a receiver key pair: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to generate a receiver key pair.", success)

		utxo := transaction.NewUTXOSet()
		ref := transaction.OutputRef{Hash: "deadbeef", Index: 0}
		utxo.Add(ref, transaction.Output{Amount: 25, Address: spender.Address()})

		tx := transaction.NewStandard(1,
			[]transaction.Input{{OutputHash: "deadbeef", OutputIndex: 0}},
			[]transaction.Output{{Amount: 25, Address: receiver.Address()}},
		)

		transaction.Apply(tx, utxo)

		if _, ok := utxo.Lookup(ref); ok {
			t.Fatalf("\t%s\tShould spend the referenced output.", failed)
		}
		t.Logf("\t%s\tShould spend the referenced output.", success)

		newRef := transaction.OutputRef{Hash: tx.Hash, Index: 0}
		if _, ok := utxo.Lookup(newRef); !ok {
			t.Fatalf("\t%s\tShould add the new output as unspent.", failed)
		}
		t.Logf("\t%s\tShould add the new output as unspent.", success)
	}
}
