package transaction_test

import (
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

func TestUTXOSetOrdering(t *testing.T) {
	t.Log("Given the need to list unspent outputs in block-then-output order.")
	{
		utxo := transaction.NewUTXOSet()

		refs := []transaction.OutputRef{
			{Hash: "block0tx0", Index: 0},
			{Hash: "block1tx0", Index: 0},
			{Hash: "block1tx0", Index: 1},
		}

		for _, ref := range refs {
			utxo.Add(ref, transaction.Output{Amount: 10, Address: "addr"})
		}

		got := utxo.List()
		if len(got) != len(refs) {
			t.Fatalf("\t%s\tShould list every unspent output: got %d, exp %d", failed, len(got), len(refs))
		}
		t.Logf("\t%s\tShould list every unspent output.", success)

		for i, ref := range refs {
			if got[i] != ref {
				t.Fatalf("\t%s\tShould preserve insertion order at position %d: got %v, exp %v", failed, i, got[i], ref)
			}
		}
		t.Logf("\t%s\tShould preserve insertion order.", success)

		if err := utxo.Spend(refs[1]); err != nil {
			t.Fatalf("\t%s\tShould be able to spend an unspent output: %s", failed, err)
		}
		t.Logf("\t%s\tShould be able to spend an unspent output.", success)

		if _, ok := utxo.Lookup(refs[1]); ok {
			t.Fatalf("\t%s\tShould no longer find a spent output.", failed)
		}
		t.Logf("\t%s\tShould no longer find a spent output.", success)

		if err := utxo.Spend(refs[1]); err == nil {
			t.Fatalf("\t%s\tShould reject spending an already-spent output.", failed)
		}
		t.Logf("\t%s\tShould reject spending an already-spent output.", success)

		remaining := utxo.List()
		if len(remaining) != 2 {
			t.Fatalf("\t%s\tShould have two outputs remaining: got %d", failed, len(remaining))
		}
		t.Logf("\t%s\tShould have two outputs remaining.", success)
	}
}
