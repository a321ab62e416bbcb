package state

import (
	"fmt"

	"github.com/ardanlabs/blocknode/foundation/blockchain"
	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"github.com/ardanlabs/blocknode/foundation/blockchain/transaction"
)

// AddBlock validates and, on success, appends block to the chain. It is
// the path used by every locally-originated block — HTTP-submitted or
// freshly mined — so the resulting broadcast excludes no one.
func (s *State) AddBlock(block blockchain.Block) error {
	return s.addBlock(block, peer.Peer{})
}

// addBlockFromPeer is the peer-gossip counterpart of AddBlock: it appends
// block the same way, but excludes from — the peer that sent it — from
// the rebroadcast, since that peer already has this block.
func (s *State) addBlockFromPeer(block blockchain.Block, from peer.Peer) error {
	return s.addBlock(block, from)
}

// addBlock is the single path by which a block — whether HTTP-submitted,
// peer-gossiped, or freshly mined — enters the chain, so every caller
// observes the same FIFO ordering guarantee described for the
// orchestrator. except names the peer (if any) the resulting broadcast
// must skip, since that peer already has this block.
func (s *State) addBlock(block blockchain.Block, except peer.Peer) error {
	var err error

	s.submit(func() {
		err = s.chain.Append(block, s.utxo)
		if err != nil {
			return
		}

		if s.mempool != nil {
			s.mempool.RemoveAccepted(block.Data.Transactions)
		}

		s.signalNewHead()

		head, headErr := s.chain.Head()
		if headErr == nil {
			s.Broadcast(peer.ResponseLatestBlock(head), except)
		}
	})

	return err
}

// AddPeer dials a new peer, performs the handshake, and registers the
// resulting session. The receiving side records the reverse direction
// symmetrically when it accepts the inbound connection, so each pair
// ends up with exactly one logical link.
func (s *State) AddPeer(p peer.Peer) error {
	if p == s.cfg.Self {
		return fmt.Errorf("cannot add self as a peer")
	}

	if !s.peers.Add(p) {
		return nil
	}

	sess, err := peer.Dial(p, s.cfg.Self, s.log)
	if err != nil {
		s.peers.Remove(p)
		return fmt.Errorf("adding peer %s: %w", p.Addr(), err)
	}

	s.registerSession(sess)

	go func() {
		sess.Run(func(sess *peer.Session, msg peer.Message) {
			s.HandlePeerMessage(sess.Peer(), msg)
		})
		s.dropSession(p)
	}()

	if err := sess.Send(peer.QueryLatestBlock()); err != nil {
		s.log.Infow("peer handshake query failed", "peer", p.Addr(), "error", err)
	}

	return nil
}

// AcceptPeer registers an inbound, already-upgraded session from a peer
// that dialed this node. It mirrors AddPeer's bookkeeping without dialing
// out, and is invoked by the HTTP/WebSocket adapter after the upgrade.
func (s *State) AcceptPeer(sess *peer.Session) {
	s.peers.Add(sess.Peer())
	s.registerSession(sess)

	go func() {
		sess.Run(func(sess *peer.Session, msg peer.Message) {
			s.HandlePeerMessage(sess.Peer(), msg)
		})
		s.dropSession(sess.Peer())
	}()
}

func (s *State) registerSession(sess *peer.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sess.Peer()] = sess
}

func (s *State) dropSession(p peer.Peer) {
	s.mu.Lock()
	delete(s.sessions, p)
	s.mu.Unlock()

	s.peers.Remove(p)
	s.log.Infow("peer session closed", "peer", p.Addr())
}

// AddTransaction validates tx against the current UTXO set and mempool
// projection, admits it, and broadcasts it to every peer.
func (s *State) AddTransaction(tx transaction.Transaction) error {
	var err error

	s.submit(func() {
		if s.utxo == nil || s.mempool == nil {
			err = fmt.Errorf("transactions are not enabled on this node")
			return
		}

		err = s.mempool.Add(tx, s.utxo)
		if err != nil {
			return
		}

		s.Broadcast(peer.NewTransactionMessage(tx), peer.Peer{})
	})

	return err
}
