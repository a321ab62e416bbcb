package state

import (
	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// Broadcast sends msg to every connected peer session except the one
// belonging to except (the zero Peer value excludes nothing).
func (s *State) Broadcast(msg peer.Message, except peer.Peer) {
	s.mu.Lock()
	sessions := make([]*peer.Session, 0, len(s.sessions))
	for p, sess := range s.sessions {
		if p == except {
			continue
		}
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()

	for _, sess := range sessions {
		if err := sess.Send(msg); err != nil {
			s.log.Infow("broadcast send failed", "peer", sess.Peer().Addr(), "error", err)
		}
	}
}

// HandlePeerMessage is the sole entry point for messages arriving over a
// peer session. It is safe to call concurrently from many session
// goroutines: every branch that mutates state does so through the command
// queue, and reads of the chain are taken under the chain's own lock.
func (s *State) HandlePeerMessage(from peer.Peer, msg peer.Message) {
	switch msg.Type {
	case peer.MsgQueryLatestBlock:
		s.handleQueryLatestBlock(from)

	case peer.MsgQueryAllBlocks:
		s.handleQueryAllBlocks(from)

	case peer.MsgResponseLatestBlock:
		s.handleResponseLatestBlock(from, msg)

	case peer.MsgResponseAllBlocks:
		s.handleResponseAllBlocks(from, msg)

	case peer.MsgTransaction:
		s.handleTransaction(from, msg)

	default:
		s.log.Infow("dropped peer message of unknown type", "peer", from.Addr(), "type", msg.Type)
	}
}

func (s *State) sessionFor(p peer.Peer) (*peer.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[p]
	return sess, ok
}

func (s *State) handleQueryLatestBlock(from peer.Peer) {
	head, err := s.chain.Head()
	if err != nil {
		return
	}

	sess, ok := s.sessionFor(from)
	if !ok {
		return
	}

	if err := sess.Send(peer.ResponseLatestBlock(head)); err != nil {
		s.log.Infow("reply to QUERY_LATEST_BLOCK failed", "peer", from.Addr(), "error", err)
	}
}

func (s *State) handleQueryAllBlocks(from peer.Peer) {
	sess, ok := s.sessionFor(from)
	if !ok {
		return
	}

	if err := sess.Send(peer.ResponseAllBlocks(s.chain.AllBlocks())); err != nil {
		s.log.Infow("reply to QUERY_ALL_BLOCKS failed", "peer", from.Addr(), "error", err)
	}
}

// handleResponseLatestBlock implements the reconciliation algorithm: a
// directly appendable head is appended and re-broadcast; anything else
// (behind, conflicting, or too far ahead) triggers a QUERY_ALL_BLOCKS so
// the sender's full chain can be evaluated for replacement. An empty
// local chain handles the same way against a remote genesis block —
// there is no head to compare against, only the genesis slot itself.
func (s *State) handleResponseLatestBlock(from peer.Peer, msg peer.Message) {
	if msg.Block == nil {
		return
	}
	remote := *msg.Block

	index, prevHash := s.chain.NextSlot()

	switch {
	case remote.Index == index && remote.PreviousHash == prevHash:
		if err := s.addBlockFromPeer(remote, from); err != nil {
			s.log.Infow("rejected appendable block from peer", "peer", from.Addr(), "error", err)
			s.queryAllBlocks(from)
			return
		}
		s.log.Infow("appended block from peer", "peer", from.Addr(), "hash", fmtHash(remote))

	default:
		s.queryAllBlocks(from)
	}
}

func (s *State) queryAllBlocks(from peer.Peer) {
	sess, ok := s.sessionFor(from)
	if !ok {
		return
	}

	if err := sess.Send(peer.QueryAllBlocks()); err != nil {
		s.log.Infow("QUERY_ALL_BLOCKS send failed", "peer", from.Addr(), "error", err)
	}
}

// handleResponseAllBlocks implements the chain-replacement half of
// reconciliation: a foreign chain is accepted only if it is strictly
// longer (and, with PoW on, also has greater cumulative work) and passes
// full validation from genesis. Anything else is dropped silently.
func (s *State) handleResponseAllBlocks(from peer.Peer, msg peer.Message) {
	if len(msg.Blocks) == 0 {
		return
	}

	var replaced bool
	var newHead blockchain.Block

	s.submit(func() {
		ok, rebuilt, err := s.chain.Replace(msg.Blocks, s.rebuildUTXO)
		if err != nil {
			s.log.Infow("dropped invalid chain from peer", "peer", from.Addr(), "error", err)
			return
		}
		if !ok {
			return
		}

		if rebuilt != nil {
			s.utxo = rebuilt
			s.mempool = rebuildMempoolAfterReplace(s.mempool, s.utxo)
		}

		s.signalNewHead()
		replaced = true
		newHead, _ = s.chain.Head()
	})

	if replaced {
		s.log.Infow("replaced chain from peer", "peer", from.Addr(), "length", len(msg.Blocks))
		s.Broadcast(peer.ResponseLatestBlock(newHead), peer.Peer{})
	}
}

func (s *State) handleTransaction(from peer.Peer, msg peer.Message) {
	if msg.Transaction == nil || s.utxo == nil || s.mempool == nil {
		return
	}

	s.submit(func() {
		if err := s.mempool.Add(*msg.Transaction, s.utxo); err != nil {
			s.log.Infow("dropped invalid transaction from peer", "peer", from.Addr(), "error", err)
			return
		}

		s.Broadcast(peer.NewTransactionMessage(*msg.Transaction), from)
	})
}

// rebuildUTXO replays a candidate chain's transactions from genesis to
// produce the UTXO set Replace should adopt alongside the new blocks.
func (s *State) rebuildUTXO(blocks []blockchain.Block) (*transaction.UTXOSet, error) {
	if !s.cfg.Chain.TransactionsEnabled {
		return nil, nil
	}

	utxo := transaction.NewUTXOSet()
	for _, b := range blocks {
		for _, tx := range b.Data.Transactions {
			transaction.Apply(tx, utxo)
		}
	}
	return utxo, nil
}

// rebuildMempoolAfterReplace drops every pending transaction that the new
// chain's UTXO set can no longer fund, preserving the rest in their
// original arrival order.
func rebuildMempoolAfterReplace(old *transaction.Mempool, utxo *transaction.UTXOSet) *transaction.Mempool {
	fresh := transaction.NewMempool()
	if old == nil {
		return fresh
	}

	for _, tx := range old.List() {
		_ = fresh.Add(tx, utxo)
	}
	return fresh
}
