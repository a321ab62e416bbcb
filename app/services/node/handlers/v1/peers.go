package v1

import (
	"context"
	"net/http"

	v1 "github.com/ardanlabs/blocknode/business/web/v1"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/web"
)

// peerView is the wire shape of a single peer entry.
type peerView struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// addPeerRequest is the body of POST /peers and its /add-peer alias.
type addPeerRequest struct {
	Host string `json:"host" validate:"required"`
	Port int    `json:"port" validate:"required"`
}

// ListPeers handles GET /peers.
func (h Handlers) ListPeers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	peers := h.State.ListPeers()

	views := make([]peerView, len(peers))
	for i, p := range peers {
		views[i] = peerView{Host: p.Host, Port: p.Port}
	}

	return web.Respond(ctx, w, views, http.StatusOK)
}

// AddPeer handles POST /peers and its /add-peer alias: it opens a
// session to the referenced peer and returns once the handshake has been
// initiated.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req addPeerRequest
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	p := peer.New(req.Host, req.Port)

	if err := h.State.AddPeer(p); err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, peerView{Host: p.Host, Port: p.Port}, http.StatusOK)
}
