package blockchain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ardanlabs/blocknode/foundation/blockchain/pow"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// Set of errors returned by Append. These map directly onto the error
// kinds described for block validation.
var (
	ErrStaleIndex      = errors.New("stale index")
	ErrBadPreviousHash = errors.New("bad previous hash")
	ErrBadHash         = errors.New("bad hash")
	ErrBadProofOfWork  = errors.New("bad proof of work")
	ErrBadTimestamp    = errors.New("bad timestamp")
	ErrBadTransactions = errors.New("bad transactions")
	ErrEmptyChain      = errors.New("chain is empty")
)

// Config carries the fixed, immutable parameters a Chain needs in order to
// validate blocks: whether proof-of-work and transactions are enabled, and
// the parameters each subsystem needs when it is.
type Config struct {
	ProofOfWorkEnabled  bool
	PowTarget           pow.Target
	TransactionsEnabled bool
	RewardAmount        uint64
}

// Chain is the in-memory, ordered sequence of accepted blocks, empty
// until its first block is accepted. It is safe for concurrent use; all
// mutation happens through Append and Replace.
type Chain struct {
	mu     sync.RWMutex
	blocks []Block
	cfg    Config
}

// New constructs an empty Chain: no blocks, not even genesis. The first
// block it ever accepts — via Append or Replace — becomes genesis, index
// 0, carrying whatever data the caller submitted.
func New(cfg Config) *Chain {
	return &Chain{cfg: cfg}
}

// Length returns the number of blocks the chain has accepted.
func (c *Chain) Length() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return uint64(len(c.blocks))
}

// Empty reports whether the chain has accepted a block yet. A Chain
// built by New is empty until its first Append or Replace.
func (c *Chain) Empty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.blocks) == 0
}

// NextSlot returns the index and previous hash the next block accepted
// by this chain must carry: (0, GenesisPreviousHash) while the chain is
// still empty, or one past the current head otherwise. Callers building
// a candidate block — the miner, the HTTP add-block handler — use this
// so the candidate they produce always targets the slot Append will
// actually demand.
func (c *Chain) NextSlot() (index uint64, previousHash string) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return 0, GenesisPreviousHash
	}

	head := c.blocks[len(c.blocks)-1]
	return head.Index + 1, head.Hash
}

// Head returns the most recently accepted block.
func (c *Chain) Head() (Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.blocks) == 0 {
		return Block{}, ErrEmptyChain
	}

	return c.blocks[len(c.blocks)-1], nil
}

// AllBlocks returns a copy of every block in the chain, in order.
func (c *Chain) AllBlocks() []Block {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cpy := make([]Block, len(c.blocks))
	copy(cpy, c.blocks)
	return cpy
}

// TimestampAt and Length (already defined) let pow.Target compute the
// retarget windows directly against a live chain.
func (c *Chain) TimestampAt(index uint64) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if index >= uint64(len(c.blocks)) {
		return 0
	}
	return c.blocks[index].Timestamp
}

// RequiredZeroBits returns the number of leading zero bits a block at
// index must carry to satisfy proof-of-work, recomputed from the chain's
// own timestamps exactly as validateSuccessor does. Callers building a
// candidate block (the miner, the HTTP add-block handler) use this so the
// block they produce is never rejected by their own chain's Append.
func (c *Chain) RequiredZeroBits(index uint64) int {
	if !c.cfg.ProofOfWorkEnabled {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	return pow.RequiredZeroBits(c.cfg.PowTarget.Difficulty(index, blockTimestamps(c.blocks)))
}

// Valid revalidates every block in the chain from genesis.
func (c *Chain) Valid() bool {
	c.mu.RLock()
	blocks := make([]Block, len(c.blocks))
	copy(blocks, c.blocks)
	c.mu.RUnlock()

	_, err := validateChain(blocks, c.cfg)
	return err == nil
}

// Append validates block against the current head — or, if the chain is
// still empty, validates it as a candidate genesis block — and, if it
// passes, extends the chain. utxo is consulted (and, on success,
// updated) when transactions are enabled.
func (c *Chain) Append(block Block, utxo *transaction.UTXOSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		if err := validateGenesis(block, c.cfg, utxo); err != nil {
			return err
		}
	} else {
		parent := c.blocks[len(c.blocks)-1]
		if err := validateSuccessor(block, parent, c.cfg, len(c.blocks), blockTimestamps(c.blocks), utxo); err != nil {
			return err
		}
	}

	if c.cfg.TransactionsEnabled && utxo != nil {
		applyTransactions(block, utxo)
	}

	c.blocks = append(c.blocks, block)
	return nil
}

// CumulativeWork returns the total proof-of-work the chain represents,
// the sum over every block of 2^leadingZeroBits(hash). It is only
// meaningful when proof-of-work is enabled.
func (c *Chain) CumulativeWork() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var work float64
	for _, b := range c.blocks {
		work += workFor(b.leadingZeroBits())
	}
	return work
}

func workFor(zeroBits int) float64 {
	w := 1.0
	for i := 0; i < zeroBits; i++ {
		w *= 2
	}
	return w
}

// Replace atomically swaps in a foreign chain iff it is strictly longer than
// the current chain (and, with proof-of-work enabled, also represents
// greater cumulative work) and passes full validation from genesis. It returns
// whether the swap took place and, on success, the rebuilt UTXO set.
func (c *Chain) Replace(blocks []Block, buildUTXO func([]Block) (*transaction.UTXOSet, error)) (bool, *transaction.UTXOSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isBetterChain(blocks) {
		return false, nil, nil
	}

	utxo, err := validateChain(blocks, c.cfg)
	if err != nil {
		return false, nil, err
	}

	if buildUTXO != nil {
		built, err := buildUTXO(blocks)
		if err != nil {
			return false, nil, err
		}
		utxo = built
	}

	c.blocks = blocks
	return true, utxo, nil
}

func (c *Chain) isBetterChain(candidate []Block) bool {
	if len(candidate) <= len(c.blocks) {
		return false
	}

	if !c.cfg.ProofOfWorkEnabled {
		return true
	}

	var candidateWork, currentWork float64
	for _, b := range candidate {
		candidateWork += workFor(b.leadingZeroBits())
	}
	for _, b := range c.blocks {
		currentWork += workFor(b.leadingZeroBits())
	}

	return candidateWork > currentWork
}

// =============================================================================

// validateChain revalidates blocks from genesis, returning the UTXO set
// accumulated along the way when transactions are enabled.
func validateChain(blocks []Block, cfg Config) (*transaction.UTXOSet, error) {
	if len(blocks) == 0 {
		return nil, ErrEmptyChain
	}

	var utxo *transaction.UTXOSet
	if cfg.TransactionsEnabled {
		utxo = transaction.NewUTXOSet()
	}

	if err := validateGenesis(blocks[0], cfg, utxo); err != nil {
		return nil, fmt.Errorf("block 0: %w", err)
	}
	if cfg.TransactionsEnabled {
		applyTransactions(blocks[0], utxo)
	}

	for i := 1; i < len(blocks); i++ {
		if err := validateSuccessor(blocks[i], blocks[i-1], cfg, i, blockTimestamps(blocks[:i]), utxo); err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}

		if cfg.TransactionsEnabled {
			applyTransactions(blocks[i], utxo)
		}
	}

	return utxo, nil
}

// validateGenesis checks that block is fit to be the first block of an
// otherwise empty chain: index 0, the genesis sentinel previous hash, a
// correctly recomputed hash, proof-of-work against the chain's untouched
// initial difficulty (no retarget window can have closed yet), and, if
// transactions are enabled, a self-consistent reward against an empty
// UTXO set — there is no preceding block to have funded anything else.
func validateGenesis(block Block, cfg Config, utxo *transaction.UTXOSet) error {
	if block.Index != 0 {
		return ErrStaleIndex
	}

	if block.PreviousHash != GenesisPreviousHash {
		return ErrBadPreviousHash
	}

	if block.Hash != block.computeHash() {
		return ErrBadHash
	}

	if cfg.ProofOfWorkEnabled {
		required := pow.RequiredZeroBits(cfg.PowTarget.Difficulty(0, blockTimestamps(nil)))
		if block.leadingZeroBits() < required {
			return ErrBadProofOfWork
		}
	}

	if cfg.TransactionsEnabled {
		if block.Data.Kind != KindTransactions {
			return ErrBadTransactions
		}
		if err := transaction.ValidateBlock(block.Data.Transactions, block.Index, utxo, cfg.RewardAmount); err != nil {
			return fmt.Errorf("%w: %s", ErrBadTransactions, err)
		}
	}

	return nil
}

// validateSuccessor checks that block is a valid successor of parent at
// the given index, re-hashing it, checking proof-of-work if enabled, and
// re-verifying every transaction against utxo if transactions are enabled.
// preceding is every already-accepted block up to and including parent,
// the view the retarget algorithm needs to recompute the expected
// difficulty from the chain's own timestamps.
func validateSuccessor(block, parent Block, cfg Config, index int, preceding pow.BlockTimestamps, utxo *transaction.UTXOSet) error {
	if block.Index != uint64(index) {
		return ErrStaleIndex
	}

	if block.PreviousHash != parent.Hash {
		return ErrBadPreviousHash
	}

	if block.Timestamp < parent.Timestamp {
		return ErrBadTimestamp
	}

	if block.Hash != block.computeHash() {
		return ErrBadHash
	}

	if cfg.ProofOfWorkEnabled {
		required := pow.RequiredZeroBits(cfg.PowTarget.Difficulty(block.Index, preceding))
		if block.leadingZeroBits() < required {
			return ErrBadProofOfWork
		}
	}

	if cfg.TransactionsEnabled {
		if block.Data.Kind != KindTransactions {
			return ErrBadTransactions
		}
		if err := transaction.ValidateBlock(block.Data.Transactions, block.Index, utxo, cfg.RewardAmount); err != nil {
			return fmt.Errorf("%w: %s", ErrBadTransactions, err)
		}
	}

	return nil
}

// applyTransactions folds block's transactions into utxo: producing new
// outputs and spending referenced ones.
func applyTransactions(block Block, utxo *transaction.UTXOSet) {
	for _, tx := range block.Data.Transactions {
		transaction.Apply(tx, utxo)
	}
}

// blockTimestamps adapts a plain block slice to pow.BlockTimestamps without
// taking Chain's lock, so it can be used both by validateChain (which owns
// no lock) and by Append/Replace (which already hold Chain's write lock).
type blockTimestamps []Block

func (bs blockTimestamps) TimestampAt(index uint64) int64 {
	if index >= uint64(len(bs)) {
		return 0
	}
	return bs[index].Timestamp
}

func (bs blockTimestamps) Length() uint64 {
	return uint64(len(bs))
}

// MineCandidate constructs the next block for index/previousHash/data,
// timestamped with the current time, and runs the proof-of-work search
// against it, honoring ctx cancellation. With zeroBits 0 no search runs.
func MineCandidate(ctx context.Context, index uint64, previousHash string, data Data, zeroBits int) (Block, bool) {
	block := Block{
		Index:        index,
		Timestamp:    time.Now().UnixMilli(),
		Data:         data,
		PreviousHash: previousHash,
	}
	block.Hash = block.computeHash()

	if zeroBits == 0 {
		return block, true
	}

	_, _, ok := pow.Search(ctx, miningCandidate{block: &block}, zeroBits)
	return block, ok
}
