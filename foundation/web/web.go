// Package web provides a thin, testable layer on top of httptreemux: a
// context-aware handler signature, an ordered middleware chain, and
// graceful-shutdown plumbing, matching the conventions handlers across
// this service are written against.
package web

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/dimfeld/httptreemux/v5"
	"github.com/google/uuid"
)

// Handler is the signature every application handler implements. An
// error return is translated into an HTTP response by the Errors
// middleware; handlers themselves never write an error response
// directly.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

// Middleware wraps a Handler with cross-cutting behavior (logging,
// recovery, request IDs) and returns the wrapped Handler.
type Middleware func(Handler) Handler

// App is the root of the request pipeline: an httptreemux router plus the
// middleware chain applied to every route registered on it.
type App struct {
	mux      *httptreemux.ContextMux
	shutdown chan os.Signal
	mw       []Middleware
}

// NewApp constructs an App. shutdown receives a signal when a handler
// reports an unrecoverable error via NewShutdownError, so main can begin
// a graceful shutdown instead of limping along in a broken state.
func NewApp(shutdown chan os.Signal, mw ...Middleware) *App {
	return &App{
		mux:      httptreemux.NewContextMux(),
		shutdown: shutdown,
		mw:       mw,
	}
}

// SignalShutdown sends a shutdown signal to main, used when an
// integrity issue is identified that requires the service to terminate.
func (a *App) SignalShutdown() {
	a.shutdown <- syscall.SIGTERM
}

// Handle registers handler under group/path for method, wrapping it with
// the App's own middleware and then any route-specific middleware, so
// route middleware runs closest to the handler.
func (a *App) Handle(method string, group string, path string, handler Handler, mw ...Middleware) {
	handler = wrapMiddleware(mw, handler)
	handler = wrapMiddleware(a.mw, handler)

	h := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		v := Values{
			TraceID: uuid.NewString(),
			Now:     time.Now(),
		}
		ctx = context.WithValue(ctx, valuesKey, &v)

		if err := handler(ctx, w, r); err != nil {
			if IsShutdown(err) {
				a.SignalShutdown()
			}
			return
		}
	}

	finalPath := path
	if group != "" {
		finalPath = "/" + group + path
	}

	a.mux.Handle(method, finalPath, h)
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// wrapMiddleware applies mw to handler in reverse declaration order, so
// the first middleware in the slice runs first at request time.
func wrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if mw[i] != nil {
			handler = mw[i](handler)
		}
	}
	return handler
}

// Param returns the named path parameter for the request's matched
// route, or the empty string if it wasn't present.
func Param(r *http.Request, key string) string {
	m := httptreemux.ContextParams(r.Context())
	return m[key]
}
