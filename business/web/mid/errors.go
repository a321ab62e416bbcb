package mid

import (
	"context"
	"net/http"

	v1 "github.com/ardanlabs/blocknode/business/web/v1"
	"github.com/ardanlabs/blocknode/foundation/web"
	"go.uber.org/zap"
)

// Errors turns a Handler's returned error into a JSON error response: a
// RequestError carries its own status code, anything else is logged and
// reported as a 500. A shutdown error is passed through unchanged so
// web.App can act on it after the response has gone out.
func Errors(log *zap.SugaredLogger) web.Middleware {

	m := func(handler web.Handler) web.Handler {

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if err := handler(ctx, w, r); err != nil {
				v, verr := web.GetValues(ctx)
				traceID := ""
				if verr == nil {
					traceID = v.TraceID
				}

				log.Errorw("request error", "traceid", traceID, "method", r.Method, "path", r.URL.Path, "ERROR", err)

				status := http.StatusInternalServerError
				message := "internal server error"

				if re := v1.GetRequestError(err); re != nil {
					status = re.Status
					message = re.Err.Error()
				}

				if rerr := web.RespondError(ctx, w, status, message); rerr != nil {
					return rerr
				}

				if web.IsShutdown(err) {
					return err
				}
			}

			return nil
		}

		return h
	}

	return m
}
