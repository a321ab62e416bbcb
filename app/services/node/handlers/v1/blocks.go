package v1

import (
	"context"
	"net/http"

	v1 "github.com/ardanlabs/blocknode/business/web/v1"
	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/state"
	"github.com/ardanlabs/blocknode/foundation/web"
	"go.uber.org/zap"
)

// Handlers groups the set of handler methods bound to the v1 routes.
// State is the single orchestrator every handler delegates to; handlers
// themselves hold no chain state of their own.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// blocksResponse is the body of GET /blocks.
type blocksResponse struct {
	Blocks []blockchain.Block `json:"blocks"`
	Length int                `json:"length"`
	Valid  bool               `json:"valid"`
}

// ListBlocks handles GET /blocks and its /list-blocks alias.
func (h Handlers) ListBlocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks := h.State.ListBlocks()

	resp := blocksResponse{
		Blocks: blocks,
		Length: len(blocks),
		Valid:  h.State.ChainValid(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddBlock handles POST /blocks and its /add-block alias: the body is a
// bare Data value (string or transaction list), from which the
// orchestrator builds and, in proof-of-work mode, mines the next block.
func (h Handlers) AddBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var data blockchain.Data
	if err := web.Decode(r, &data); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	index, prevHash := h.State.NextSlot()

	zeroBits := h.State.RequiredZeroBits(index)
	block, ok := blockchain.MineCandidate(ctx, index, prevHash, data, zeroBits)
	if !ok {
		return v1.NewRequestError(blockchain.ErrStaleIndex, http.StatusConflict)
	}

	if err := h.State.AddBlock(block); err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}
