// Package peer maintains the set of known remote nodes and the persistent
// WebSocket session used to gossip with each of them.
package peer

import (
	"fmt"
	"sync"
)

// Peer identifies a remote node by the (host, port) of its WebSocket
// listening endpoint.
type Peer struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// New constructs a Peer value.
func New(host string, port int) Peer {
	return Peer{Host: host, Port: port}
}

// Addr returns the peer's dialable host:port address.
func (p Peer) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// Match reports whether this peer is the one listening on host:port.
func (p Peer) Match(host string, port int) bool {
	return p.Host == host && p.Port == port
}

// =============================================================================

// Set is the registry of known peers, keyed by their address so each
// logical link is recorded once regardless of which side dialed.
type Set struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewSet constructs an empty peer registry.
func NewSet() *Set {
	return &Set{
		set: make(map[Peer]struct{}),
	}
}

// Add records a peer. It reports whether the peer was new.
func (s *Set) Add(p Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.set[p]; exists {
		return false
	}

	s.set[p] = struct{}{}
	return true
}

// Remove drops a peer from the registry.
func (s *Set) Remove(p Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.set, p)
}

// Copy returns every known peer except, if non-zero, the one matching
// exclude.
func (s *Set) Copy(exclude Peer) []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var peers []Peer
	for p := range s.set {
		if p != exclude {
			peers = append(peers, p)
		}
	}

	return peers
}

// Len reports how many peers are currently known.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.set)
}
