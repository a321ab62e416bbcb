// Package state implements the node orchestrator: the sole writer of the
// chain, UTXO set, mempool and peer registry. Every mutation, whether it
// originates from an HTTP request, an inbound peer message, or the
// background miner, is dispatched through a single FIFO command queue so
// the node's invariants hold at every observation point.
package state

import (
	"context"
	"sync"

	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
	"go.uber.org/zap"
)

// Config carries everything State needs to run: the chain parameters, the
// node's own advertised listening address (so it never dials itself), and
// whether the background miner should run at all.
type Config struct {
	Chain         blockchain.Config
	Self          peer.Peer
	MiningEnabled bool
	MinerAddress  string
}

// command is one unit of work dequeued and run to completion, in order,
// by the single dispatch goroutine. It is the mechanism behind every
// exported mutating method: the caller builds a closure that writes its
// result into variables it captures, and submit enqueues it and blocks
// until it has run — giving callers a synchronous API on top of a
// serialized queue.
type command func()

// State is the node orchestrator.
type State struct {
	log *zap.SugaredLogger
	cfg Config

	chain   *blockchain.Chain
	utxo    *transaction.UTXOSet
	mempool *transaction.Mempool
	peers   *peer.Set

	mu       sync.Mutex
	sessions map[peer.Peer]*peer.Session

	commands chan command
	shut     chan struct{}
	wg       sync.WaitGroup

	minerMu     sync.Mutex
	minerCancel context.CancelFunc
}

// New constructs a State with an empty chain and starts its background
// workers: the command dispatcher, and, if enabled, the miner. The chain
// itself stays empty until its first block — genesis — is mined or
// submitted.
func New(log *zap.SugaredLogger, cfg Config) *State {
	s := &State{
		log:      log,
		cfg:      cfg,
		chain:    blockchain.New(cfg.Chain),
		peers:    peer.NewSet(),
		sessions: make(map[peer.Peer]*peer.Session),
		commands: make(chan command, 64),
		shut:     make(chan struct{}),
	}

	if cfg.Chain.TransactionsEnabled {
		s.utxo = transaction.NewUTXOSet()
		s.mempool = transaction.NewMempool()
	}

	s.wg.Add(1)
	go s.dispatch()

	if cfg.MiningEnabled {
		s.wg.Add(1)
		go s.runMiner()
	}

	return s
}

// Shutdown stops the dispatcher, the miner, and every peer session
// cooperatively: no new work is accepted, but in-flight commands finish.
func (s *State) Shutdown() {
	s.cancelMining()
	close(s.shut)
	s.wg.Wait()

	s.mu.Lock()
	for _, sess := range s.sessions {
		sess.Close()
	}
	s.mu.Unlock()
}

// dispatch is the single goroutine that owns chain/UTXO/mempool mutation.
// It is the concrete realization of the "single-threaded cooperative
// dispatch" requirement: every command runs to completion before the next
// is even looked at.
func (s *State) dispatch() {
	defer s.wg.Done()

	for {
		select {
		case cmd := <-s.commands:
			cmd()
		case <-s.shut:
			return
		}
	}
}

// submit enqueues cmd and blocks until the dispatcher has run it to
// completion, turning the async queue into a synchronous call for
// whichever exported method built the command.
func (s *State) submit(fn func()) {
	done := make(chan struct{})
	cmd := command(func() {
		defer close(done)
		fn()
	})

	select {
	case s.commands <- cmd:
	case <-s.shut:
		return
	}

	select {
	case <-done:
	case <-s.shut:
	}
}

// Self returns this node's own advertised peer identity.
func (s *State) Self() peer.Peer {
	return s.cfg.Self
}

// =============================================================================

func (s *State) cancelMining() {
	s.minerMu.Lock()
	defer s.minerMu.Unlock()

	if s.minerCancel != nil {
		s.minerCancel()
		s.minerCancel = nil
	}
}

func (s *State) registerMiningContext() context.Context {
	s.minerMu.Lock()
	defer s.minerMu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	s.minerCancel = cancel
	return ctx
}

// signalNewHead preempts any in-flight mining search: the spec requires
// the search to abandon and restart whenever a block with a greater or
// equal index is appended out from under it.
func (s *State) signalNewHead() {
	s.cancelMining()
}

// =============================================================================

// fmtHash returns a short form of a block's hash for log lines.
func fmtHash(b blockchain.Block) string {
	if len(b.Hash) < 8 {
		return b.Hash
	}
	return b.Hash[:8]
}
