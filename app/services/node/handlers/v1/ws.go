package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	v1 "github.com/ardanlabs/blocknode/business/web/v1"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
)

// errMissingPeerAddr is returned when a dialer's handshake omits the
// host/port query parameters identifying its own listening address.
var errMissingPeerAddr = errors.New("websocket handshake missing host/port query parameters")

// Websocket handles GET /ws: it upgrades the HTTP connection and hands
// the resulting session to the orchestrator, which owns it from then on.
// The dialer's advertised listening host/port travels as query
// parameters, since the upgrade request itself arrives from an ephemeral
// client port that isn't useful to remember.
func (h Handlers) Websocket(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	host := r.URL.Query().Get("host")
	port := r.URL.Query().Get("port")
	if host == "" || port == "" {
		return v1.NewRequestError(errMissingPeerAddr, http.StatusBadRequest)
	}

	portNum, err := parsePort(port)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	conn, err := peer.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	sess := peer.Accept(peer.New(host, portNum), conn, h.Log)
	h.State.AcceptPeer(sess)

	return nil
}

func parsePort(s string) (int, error) {
	return strconv.Atoi(s)
}
