package state

import (
	"fmt"

	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// ListBlocks returns every block in the chain, in order. Reads never
// block on the command queue; the chain guards its own slice with a
// read-write lock.
func (s *State) ListBlocks() []blockchain.Block {
	return s.chain.AllBlocks()
}

// ListPeers returns every known peer.
func (s *State) ListPeers() []peer.Peer {
	return s.peers.Copy(peer.Peer{})
}

// ListUnspentTransactions returns the UTXO set in block-then-output
// order, the first entry of the first accepted block (always a reward)
// first. It returns an error if transactions are not enabled. Unlike
// ListBlocks, this runs through the command queue: UTXOSet holds plain
// maps with no lock of its own, and the dispatcher goroutine both
// mutates it in place and reassigns it wholesale on chain replacement,
// so a read taken outside the queue could race either one.
func (s *State) ListUnspentTransactions() ([]transaction.UnspentOutput, error) {
	var entries []transaction.UnspentOutput
	var err error

	s.submit(func() {
		if s.utxo == nil {
			err = fmt.Errorf("transactions are not enabled on this node")
			return
		}
		entries = s.utxo.ListEntries()
	})

	return entries, err
}

// ListUnconfirmedTransactions returns every transaction currently sitting
// in the mempool, in arrival order. Routed through the command queue for
// the same reason as ListUnspentTransactions: Mempool's maps carry no
// lock of their own.
func (s *State) ListUnconfirmedTransactions() ([]transaction.Transaction, error) {
	var txs []transaction.Transaction
	var err error

	s.submit(func() {
		if s.mempool == nil {
			err = fmt.Errorf("transactions are not enabled on this node")
			return
		}
		txs = s.mempool.List()
	})

	return txs, err
}

// ChainValid revalidates the chain from genesis.
func (s *State) ChainValid() bool {
	return s.chain.Valid()
}

// NextSlot returns the index and previous hash the next block added to
// this node — by the miner or a direct HTTP submission — must carry.
func (s *State) NextSlot() (index uint64, previousHash string) {
	return s.chain.NextSlot()
}

// RequiredZeroBits returns the proof-of-work difficulty a candidate block
// at index must satisfy, recomputed from the live chain's own timestamps.
// Callers building a candidate block outside the miner worker (the HTTP
// handler accepting a direct POST /blocks submission) use this so both
// paths target the same retargeted difficulty the chain will check on
// Append, rather than the fixed value it started at.
func (s *State) RequiredZeroBits(index uint64) int {
	return s.chain.RequiredZeroBits(index)
}
