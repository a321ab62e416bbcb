package peer

import (
	"encoding/json"
	"fmt"

	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// MessageType identifies the kind of a gossip frame.
type MessageType string

// Set of known message types. These are exactly the frames exchanged
// between peers over a session.
const (
	MsgQueryLatestBlock    MessageType = "QUERY_LATEST_BLOCK"
	MsgQueryAllBlocks      MessageType = "QUERY_ALL_BLOCKS"
	MsgResponseLatestBlock MessageType = "RESPONSE_LATEST_BLOCK"
	MsgResponseAllBlocks   MessageType = "RESPONSE_ALL_BLOCKS"

	// MsgTransaction propagates a mempool-admitted transaction to the rest
	// of the mesh. The base wire schema only names the four block
	// messages; a full-mesh node still needs to gossip transactions, so
	// this extends the schema the same way RESPONSE_LATEST_BLOCK is used
	// as an unsolicited broadcast.
	MsgTransaction MessageType = "TRANSACTION"
)

// Message is the single JSON shape exchanged over a session, one value per
// WebSocket frame. Block, Blocks and Transaction are only populated for
// the message types that carry them.
type Message struct {
	Type        MessageType              `json:"type"`
	Block       *blockchain.Block        `json:"block,omitempty"`
	Blocks      []blockchain.Block       `json:"blocks,omitempty"`
	Transaction *transaction.Transaction `json:"transaction,omitempty"`
}

// QueryLatestBlock builds a request for the peer's head block.
func QueryLatestBlock() Message {
	return Message{Type: MsgQueryLatestBlock}
}

// QueryAllBlocks builds a request for the peer's full chain.
func QueryAllBlocks() Message {
	return Message{Type: MsgQueryAllBlocks}
}

// ResponseLatestBlock builds a reply (or unsolicited broadcast) carrying
// the local head block.
func ResponseLatestBlock(block blockchain.Block) Message {
	return Message{Type: MsgResponseLatestBlock, Block: &block}
}

// ResponseAllBlocks builds a reply carrying the full local chain.
func ResponseAllBlocks(blocks []blockchain.Block) Message {
	return Message{Type: MsgResponseAllBlocks, Blocks: blocks}
}

// NewTransactionMessage wraps a mempool-admitted transaction for gossip.
func NewTransactionMessage(tx transaction.Transaction) Message {
	return Message{Type: MsgTransaction, Transaction: &tx}
}

// Marshal encodes the message to its wire form.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal decodes a wire frame into a Message.
func Unmarshal(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("unmarshal peer message: %w", err)
	}
	return m, nil
}
