// Package blockchain implements the block and chain model: the immutable,
// hash-linked ledger every other subsystem (proof-of-work, the transaction
// and UTXO bookkeeping, and the peer gossip layer) reads and extends.
package blockchain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ardanlabs/blocknode/foundation/blockchain/pow"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// DataKind distinguishes the two shapes a block's payload may take on the
// wire: a bare string (the basic variant) or an ordered transaction list
// (the transaction variant).
type DataKind int

// Set of known data kinds.
const (
	KindString DataKind = iota
	KindTransactions
)

// Data is the tagged variant carried by a block. Validation and hashing
// dispatch on Kind; the wire format distinguishes by the JSON type of the
// field instead of an explicit tag.
type Data struct {
	Kind         DataKind
	Text         string
	Transactions []transaction.Transaction
}

// NewStringData constructs a basic-variant payload.
func NewStringData(text string) Data {
	return Data{Kind: KindString, Text: text}
}

// NewTransactionData constructs a transaction-variant payload.
func NewTransactionData(txs []transaction.Transaction) Data {
	return Data{Kind: KindTransactions, Transactions: txs}
}

// MarshalJSON renders the payload as a bare string or a transaction array
// depending on its kind, matching the wire format.
func (d Data) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case KindTransactions:
		return json.Marshal(d.Transactions)
	default:
		return json.Marshal(d.Text)
	}
}

// UnmarshalJSON detects the kind from the shape of the incoming JSON value.
func (d *Data) UnmarshalJSON(raw []byte) error {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		d.Kind = KindString
		d.Text = text
		d.Transactions = nil
		return nil
	}

	var txs []transaction.Transaction
	if err := json.Unmarshal(raw, &txs); err != nil {
		return fmt.Errorf("data is neither a string nor a transaction list: %w", err)
	}

	d.Kind = KindTransactions
	d.Text = ""
	d.Transactions = txs
	return nil
}

// stamp returns the canonical string representation of the payload used
// when computing the owning block's hash.
func (d Data) stamp() string {
	if d.Kind == KindTransactions {
		var sb []byte
		for _, tx := range d.Transactions {
			sb = append(sb, tx.Hash...)
		}
		return string(sb)
	}

	return d.Text
}

// =============================================================================

// Block is an immutable unit of the ledger: an index, a timestamp, the
// payload, the hash of its predecessor, the nonce used to satisfy
// proof-of-work (always zero when mining is disabled), and its own hash.
type Block struct {
	Index        uint64 `json:"index"`
	Timestamp    int64  `json:"timestamp"`
	Data         Data   `json:"data"`
	PreviousHash string `json:"previous_hash"`
	Nonce        uint64 `json:"nonce"`
	Hash         string `json:"hash"`
}

// computeHash recomputes the block's hash from its other fields: the hex
// SHA-256 of the concatenation of the stringified index, timestamp,
// previous hash, nonce and payload, in that declared order.
func (b Block) computeHash() string {
	var sb []byte
	sb = append(sb, strconv.FormatUint(b.Index, 10)...)
	sb = append(sb, strconv.FormatInt(b.Timestamp, 10)...)
	sb = append(sb, b.PreviousHash...)
	sb = append(sb, strconv.FormatUint(b.Nonce, 10)...)
	sb = append(sb, b.Data.stamp()...)

	sum := sha256.Sum256(sb)
	return hex.EncodeToString(sum[:])
}

// IsGenesis reports whether this block is fit to be the first block of a
// chain: index 0, carrying the genesis sentinel as its previous hash.
func (b Block) IsGenesis() bool {
	return b.Index == 0 && b.PreviousHash == GenesisPreviousHash
}

// leadingZeroBits returns the number of leading zero bits in the block's
// hash, interpreted as a big-endian bit string.
func (b Block) leadingZeroBits() int {
	return pow.LeadingZeroBitsHex(b.Hash)
}

// miningCandidate adapts a Block to pow.Candidate. It exists because Block
// already carries its hash as a field named Hash.
type miningCandidate struct {
	block *Block
}

func (m miningCandidate) Hash() string {
	return m.block.Hash
}

func (m miningCandidate) SetNonce(nonce uint64) {
	m.block.Nonce = nonce
	m.block.Hash = m.block.computeHash()
}
