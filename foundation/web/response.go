package web

import (
	"context"
	"encoding/json"
	"net/http"
)

// Respond marshals data as JSON and writes it with statusCode. A nil
// data with StatusNoContent writes no body at all.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	if err := SetStatusCode(ctx, statusCode); err != nil {
		return err
	}

	if statusCode == http.StatusNoContent || data == nil {
		w.WriteHeader(statusCode)
		return nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	if _, err := w.Write(jsonData); err != nil {
		return err
	}

	return nil
}

// RespondError writes err as a JSON error response. Handlers don't call
// this directly; the Errors middleware does after a Handler returns an
// error.
func RespondError(ctx context.Context, w http.ResponseWriter, statusCode int, message string) error {
	return Respond(ctx, w, struct {
		Error string `json:"error"`
	}{Error: message}, statusCode)
}
