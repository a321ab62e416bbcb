package mid

import (
	"context"
	"expvar"
	"net/http"

	"github.com/ardanlabs/blocknode/foundation/web"
)

var (
	requests = expvar.NewInt("requests")
	errors   = expvar.NewInt("errors")
	panics   = expvar.NewInt("panics")
)

// Metrics publishes running request/error counters under /debug/vars via
// the expvar package, matching whatever the process already exposes for
// its own runtime stats.
func Metrics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			requests.Add(1)

			err := handler(ctx, w, r)
			if err != nil {
				errors.Add(1)
			}

			return err
		}

		return h
	}

	return m
}
