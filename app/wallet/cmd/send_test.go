package cmd

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/crypto"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_SendSpendsOwnedUnspentOutputsAndPostsTheTransaction(t *testing.T) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("setup: %s", err)
	}
	other, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("setup: %s", err)
	}

	unspent := []transaction.UnspentOutput{
		{OutputRef: transaction.OutputRef{Hash: "aaa", Index: 0}, Output: transaction.Output{Amount: 100, Address: kp.Address()}},
		{OutputRef: transaction.OutputRef{Hash: "bbb", Index: 0}, Output: transaction.Output{Amount: 50, Address: other.Address()}},
	}

	var posted transaction.Transaction
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/transactions/unspent":
			json.NewEncoder(w).Encode(unspent)
		case "/v1/transactions":
			json.NewDecoder(r.Body).Decode(&posted)
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request: %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	if err := send(srv.URL, kp, other.Address(), 40); err != nil {
		t.Fatalf("%s\tShould send successfully when the wallet owns sufficient unspent outputs: %s", failed, err)
	}
	t.Logf("%s\tShould send successfully when the wallet owns sufficient unspent outputs.", success)

	if len(posted.Inputs) != 1 || posted.Inputs[0].OutputHash != "aaa" {
		t.Fatalf("%s\tShould spend only the wallet's own unspent output, got inputs %+v", failed, posted.Inputs)
	}
	t.Logf("%s\tShould spend only the wallet's own unspent output.", success)

	if len(posted.Outputs) != 2 || posted.Outputs[0].Amount != 40 || posted.Outputs[1].Amount != 60 {
		t.Fatalf("%s\tShould split the spent output into the payment and the change, got %+v", failed, posted.Outputs)
	}
	t.Logf("%s\tShould split the spent output into the payment and the change.", success)

	if posted.Inputs[0].Signature == "" {
		t.Fatalf("%s\tShould sign the spent input.", failed)
	}
	t.Logf("%s\tShould sign the spent input.", success)
}

func Test_SendFailsOnInsufficientFunds(t *testing.T) {
	kp, err := crypto.NewKeyPair()
	if err != nil {
		t.Fatalf("setup: %s", err)
	}

	unspent := []transaction.UnspentOutput{
		{OutputRef: transaction.OutputRef{Hash: "aaa", Index: 0}, Output: transaction.Output{Amount: 10, Address: kp.Address()}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(unspent)
	}))
	defer srv.Close()

	if err := send(srv.URL, kp, "someone-else", 100); err == nil {
		t.Fatalf("%s\tShould refuse to send more than the wallet's spendable balance.", failed)
	}
	t.Logf("%s\tShould refuse to send more than the wallet's spendable balance.", success)
}
