package peer

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler is invoked once per inbound message, in arrival order, on the
// session's own goroutine. It must not block for long; the caller is
// expected to hand the message straight to the orchestrator's queue.
type Handler func(*Session, Message)

// Upgrader upgrades an inbound HTTP request to a WebSocket session. It is
// a thin, package-local wrapper so callers never need to import
// gorilla/websocket directly.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Session is one persistent, bidirectional WebSocket link to a peer.
// Writes are funneled through a single goroutine so concurrent senders
// never race on the underlying connection, matching the requirement that
// a session owns exactly one logical link regardless of which side
// dialed.
type Session struct {
	peer Peer
	conn *websocket.Conn
	log  *zap.SugaredLogger

	send chan Message
	done chan struct{}

	closeOnce sync.Once
}

// Dial opens an outbound session to p and performs the initiator side of
// the handshake (nothing beyond the WebSocket upgrade itself; the first
// QUERY_LATEST_BLOCK is sent by the caller once the session is running).
// self is this node's own advertised listening address, carried as query
// parameters so the accepting side can record the reverse direction under
// the address p would actually be reached at, not the ephemeral source
// port the TCP connection arrives from.
func Dial(p Peer, self Peer, log *zap.SugaredLogger) (*Session, error) {
	q := url.Values{}
	q.Set("host", self.Host)
	q.Set("port", strconv.Itoa(self.Port))

	u := url.URL{Scheme: "ws", Host: p.Addr(), Path: "/ws", RawQuery: q.Encode()}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial peer %s: %w", p.Addr(), err)
	}

	return newSession(p, conn, log), nil
}

// Accept wraps an already-upgraded connection from the receiving side of
// a handshake. remote is the peer's advertised listening address, carried
// in the handshake's initial query parameters by the dialer.
func Accept(remote Peer, conn *websocket.Conn, log *zap.SugaredLogger) *Session {
	return newSession(remote, conn, log)
}

func newSession(p Peer, conn *websocket.Conn, log *zap.SugaredLogger) *Session {
	return &Session{
		peer: p,
		conn: conn,
		log:  log,
		send: make(chan Message, 16),
		done: make(chan struct{}),
	}
}

// Peer returns the remote endpoint this session talks to.
func (s *Session) Peer() Peer {
	return s.peer
}

// Send queues msg for delivery. It never blocks on network I/O; Send
// returns ErrClosed if the session has already shut down.
func (s *Session) Send(msg Message) error {
	select {
	case <-s.done:
		return fmt.Errorf("session %s: %w", s.peer.Addr(), ErrClosed)
	default:
	}

	select {
	case s.send <- msg:
		return nil
	case <-s.done:
		return fmt.Errorf("session %s: %w", s.peer.Addr(), ErrClosed)
	}
}

// Run drives the session until it closes: one goroutine services the send
// channel, the calling goroutine reads inbound frames and dispatches them
// to handle. Run returns when the connection closes or ctx-independent
// shutdown is requested via Close.
func (s *Session) Run(handle Handler) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writeLoop()
	}()

	s.readLoop(handle)
	s.Close()
	wg.Wait()
}

func (s *Session) writeLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				return
			}
			raw, err := msg.Marshal()
			if err != nil {
				s.log.Errorw("peer session marshal", "peer", s.peer.Addr(), "error", err)
				continue
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				s.log.Infow("peer session write failed", "peer", s.peer.Addr(), "error", err)
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) readLoop(handle Handler) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.log.Infow("peer session closed", "peer", s.peer.Addr(), "error", err)
			return
		}

		msg, err := Unmarshal(raw)
		if err != nil {
			s.log.Infow("peer session dropped malformed frame", "peer", s.peer.Addr(), "error", err)
			continue
		}

		handle(s, msg)
	}
}

// Close shuts the session down cooperatively: the write loop stops
// dispatching and the underlying socket is closed. Close is safe to call
// more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}

// ErrClosed is returned by Send once a session has shut down.
var ErrClosed = fmt.Errorf("session closed")
