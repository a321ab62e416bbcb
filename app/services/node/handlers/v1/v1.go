// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/ardanlabs/blocknode/foundation/blockchain/state"
	"github.com/ardanlabs/blocknode/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Routes binds every documented path twice — once under the v1 group and
// once at the root, since the spec names the routes without a version
// prefix — plus the earlier-form paths kept as aliases for backward
// compatibility with the basic variant.
func Routes(app *web.App, cfg Config) {
	hdl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	for _, group := range []string{version, ""} {
		app.Handle(http.MethodGet, group, "/blocks", hdl.ListBlocks)
		app.Handle(http.MethodPost, group, "/blocks", hdl.AddBlock)
		app.Handle(http.MethodGet, group, "/peers", hdl.ListPeers)
		app.Handle(http.MethodPost, group, "/peers", hdl.AddPeer)
		app.Handle(http.MethodGet, group, "/transactions/unspent", hdl.ListUnspentTransactions)
		app.Handle(http.MethodPost, group, "/transactions", hdl.AddTransaction)
		app.Handle(http.MethodGet, group, "/transactions/unconfirmed", hdl.ListUnconfirmedTransactions)
	}

	app.Handle(http.MethodPost, "", "/add-block", hdl.AddBlock)
	app.Handle(http.MethodGet, "", "/list-blocks", hdl.ListBlocks)
	app.Handle(http.MethodPost, "", "/add-peer", hdl.AddPeer)
}
