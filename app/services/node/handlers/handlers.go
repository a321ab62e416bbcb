// Package handlers wires the HTTP surface of the node: the versioned
// JSON API, the WebSocket upgrade endpoint, and the debug endpoints
// polled by whatever process supervises it.
package handlers

import (
	"context"
	"expvar"
	"net/http"
	"net/http/pprof"
	"os"

	"github.com/ardanlabs/blocknode/app/services/node/handlers/debug/checkgrp"
	v1 "github.com/ardanlabs/blocknode/app/services/node/handlers/v1"
	"github.com/ardanlabs/blocknode/business/web/mid"
	"github.com/ardanlabs/blocknode/foundation/blockchain/state"
	"github.com/ardanlabs/blocknode/foundation/web"
	"go.uber.org/zap"
)

// MuxConfig contains all the mandatory systems required by handlers.
type MuxConfig struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
}

// APIMux constructs the http.Handler serving the JSON API. The
// peer-to-peer WebSocket upgrade endpoint is not part of it; WebsocketMux
// serves that.
func APIMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Metrics(),
		mid.Cors("*"),
		mid.Panics(),
	)

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return nil
	}
	app.Handle(http.MethodOptions, "", "/*", h, mid.Cors("*"))

	v1.Routes(app, v1.Config{
		Log:   cfg.Log,
		State: cfg.State,
	})

	return app
}

// WebsocketMux constructs the http.Handler serving only the
// peer-to-peer WebSocket upgrade endpoint, bound separately from the
// JSON API per the node's --websocket-host/--websocket-port flags.
func WebsocketMux(cfg MuxConfig) http.Handler {
	app := web.NewApp(
		cfg.Shutdown,
		mid.Logger(cfg.Log),
		mid.Errors(cfg.Log),
		mid.Panics(),
	)

	hdl := v1.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, "", "/ws", hdl.Websocket)

	return app
}

// DebugStandardLibraryMux registers the standard library's own debug
// routes into a fresh mux, bypassing http.DefaultServeMux so an imported
// package can never register a handler into this process without our
// knowledge.
func DebugStandardLibraryMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/vars", expvar.Handler())

	return mux
}

// DebugMux registers the standard library debug routes plus this node's
// own readiness/liveness checks.
func DebugMux(build string, log *zap.SugaredLogger, st *state.State) http.Handler {
	mux := DebugStandardLibraryMux()

	cgh := checkgrp.Handlers{
		Build: build,
		Log:   log,
		State: st,
	}
	mux.HandleFunc("/debug/readiness", cgh.Readiness)
	mux.HandleFunc("/debug/liveness", cgh.Liveness)

	return mux
}
