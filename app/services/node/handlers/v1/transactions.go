package v1

import (
	"context"
	"net/http"

	v1 "github.com/ardanlabs/blocknode/business/web/v1"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
	"github.com/ardanlabs/blocknode/foundation/web"
)

// ListUnspentTransactions handles GET /transactions/unspent.
func (h Handlers) ListUnspentTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	unspent, err := h.State.ListUnspentTransactions()
	if err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, unspent, http.StatusOK)
}

// AddTransaction handles POST /transactions: the body is a full
// transaction object, admitted into the mempool on success.
func (h Handlers) AddTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var tx transaction.Transaction
	if err := web.Decode(r, &tx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := h.State.AddTransaction(tx); err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// ListUnconfirmedTransactions handles GET /transactions/unconfirmed.
func (h Handlers) ListUnconfirmedTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs, err := h.State.ListUnconfirmedTransactions()
	if err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}
