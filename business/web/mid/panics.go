package mid

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ardanlabs/blocknode/foundation/web"
)

// Panics recovers from a panic inside the handler chain and turns it into
// an ordinary error, so Errors can log it and respond instead of crashing
// the process.
func Panics() web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {
			defer func() {
				if rec := recover(); rec != nil {
					err = fmt.Errorf("panic: %v\n%s", rec, debug.Stack())
				}
			}()

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
