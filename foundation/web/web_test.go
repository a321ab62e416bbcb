package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/ardanlabs/blocknode/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_HandleRunsMiddlewareInOrder(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string

	mw := func(name string) web.Middleware {
		return func(next web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return next(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app1"), mw("app2"))

	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		order = append(order, "handler")
		return web.Respond(ctx, w, map[string]string{"ok": "true"}, http.StatusOK)
	}

	app.Handle(http.MethodGet, "v1", "/widgets", h, mw("route"))

	req := httptest.NewRequest(http.MethodGet, "/v1/widgets", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	want := []string{"app1", "app2", "route", "handler"}
	if len(order) != len(want) {
		t.Fatalf("%s\tShould run every middleware plus the handler exactly once, got %v", failed, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("%s\tShould run app middleware before route middleware before the handler, got %v want %v",
				failed, order, want)
		}
	}
	t.Logf("%s\tShould run app middleware, then route middleware, then the handler, in that order.", success)

	if w.Code != http.StatusOK {
		t.Fatalf("%s\tShould write the handler's status code, got %d", failed, w.Code)
	}
	t.Logf("%s\tShould write the handler's status code.", success)
}

func Test_ParamReturnsPathVariable(t *testing.T) {
	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown)

	var got string
	h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		got = web.Param(r, "id")
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
	app.Handle(http.MethodGet, "v1", "/widgets/:id", h)

	req := httptest.NewRequest(http.MethodGet, "/v1/widgets/42", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)

	if got != "42" {
		t.Fatalf("%s\tShould resolve the :id path parameter from the matched route, got %q", failed, got)
	}
	t.Logf("%s\tShould resolve a path parameter from the matched route.", success)
}

func Test_SignalShutdownOnlyOnShutdownError(t *testing.T) {
	shutdown := make(chan os.Signal, 1)
	app := web.NewApp(shutdown)

	ordinary := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return errors.New("ordinary failure")
	}
	app.Handle(http.MethodGet, "", "/ordinary", ordinary)

	req := httptest.NewRequest(http.MethodGet, "/ordinary", nil)
	app.ServeHTTP(httptest.NewRecorder(), req)

	select {
	case <-shutdown:
		t.Fatalf("%s\tShould not signal shutdown for an ordinary handler error.", failed)
	default:
	}
	t.Logf("%s\tShould not signal shutdown for an ordinary handler error.", success)

	fatal := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity violation")
	}
	app.Handle(http.MethodGet, "", "/fatal", fatal)

	req2 := httptest.NewRequest(http.MethodGet, "/fatal", nil)
	app.ServeHTTP(httptest.NewRecorder(), req2)

	select {
	case <-shutdown:
		t.Logf("%s\tShould signal shutdown when a handler returns a shutdown error.", success)
	default:
		t.Fatalf("%s\tShould signal shutdown when a handler returns a shutdown error.", failed)
	}
}
