// Package checkgrp maintains the readiness and liveness endpoints polled
// by whatever process supervises this node.
package checkgrp

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/ardanlabs/blocknode/foundation/blockchain/state"
	"go.uber.org/zap"
)

// Handlers manages the set of check endpoints.
type Handlers struct {
	Build string
	Log   *zap.SugaredLogger
	State *state.State
}

// Readiness reports whether the in-memory chain revalidates cleanly from
// genesis. It checks nothing else, and a node whose chain is still empty
// reports not ready.
func (h Handlers) Readiness(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	statusCode := http.StatusOK

	if !h.State.ChainValid() {
		status = "chain failed revalidation"
		statusCode = http.StatusInternalServerError
	}

	data := struct {
		Status string `json:"status"`
	}{Status: status}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Log.Errorw("readiness", "ERROR", err)
	}
}

// Liveness reports the process is up; it never depends on chain state,
// so it can't be taken down by a bad block arriving on the wire.
func (h Handlers) Liveness(w http.ResponseWriter, r *http.Request) {
	host, err := os.Hostname()
	if err != nil {
		host = "unavailable"
	}

	data := struct {
		Status string `json:"status"`
		Build  string `json:"build"`
		Host   string `json:"host"`
	}{
		Status: "up",
		Build:  h.Build,
		Host:   host,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Log.Errorw("liveness", "ERROR", err)
	}
}
