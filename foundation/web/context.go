package web

import (
	"context"
	"errors"
	"time"
)

// ctxKey is a private type for values stored in a request context, so
// they can't collide with keys set by other packages.
type ctxKey int

const valuesKey ctxKey = 1

// Values carries request-scoped metadata set by App.Handle before a
// handler runs, and updated by handlers that know the final status code.
type Values struct {
	TraceID    string
	Now        time.Time
	StatusCode int
}

// GetValues returns the Values stored in ctx by App.Handle.
func GetValues(ctx context.Context) (*Values, error) {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return nil, errors.New("web value missing from context")
	}
	return v, nil
}

// GetTraceID returns the trace id stored in ctx, or "00000000-0000-0000-0000-000000000000" if none is present.
func GetTraceID(ctx context.Context) string {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return "00000000-0000-0000-0000-000000000000"
	}
	return v.TraceID
}

// SetStatusCode records the status code a handler is about to write, so
// logging middleware can report it after the handler returns.
func SetStatusCode(ctx context.Context, statusCode int) error {
	v, ok := ctx.Value(valuesKey).(*Values)
	if !ok {
		return errors.New("web value missing from context")
	}
	v.StatusCode = statusCode
	return nil
}
