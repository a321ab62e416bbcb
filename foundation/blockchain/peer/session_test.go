package peer_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
	"go.uber.org/zap"
)

func discardLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	return zap.NewNop().Sugar()
}

func Test_DialAndAcceptExchangeMessages(t *testing.T) {
	log := discardLogger(t)

	var serverPeer peer.Peer
	acceptedCh := make(chan *peer.Session, 1)

	srv := httptest.NewUnstartedServer(nil)
	srv.Config.Handler = newTestMux(t, log, &serverPeer, acceptedCh)
	srv.Start()
	defer srv.Close()

	self := peer.New("127.0.0.1", 9999)
	remote := parseHTTPTestPeer(t, srv.URL)

	client, err := peer.Dial(remote, self, log)
	if err != nil {
		t.Fatalf("%s\tShould dial the server's websocket endpoint: %s", failed, err)
	}
	defer client.Close()
	t.Logf("%s\tShould dial the server's websocket endpoint.", success)

	var server *peer.Session
	select {
	case server = <-acceptedCh:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s\tShould accept the inbound handshake within the timeout.", failed)
	}
	defer server.Close()

	if serverPeer != self {
		t.Fatalf("%s\tShould record the dialer's own advertised address, got %v want %v", failed, serverPeer, self)
	}
	t.Logf("%s\tShould record the dialer's own advertised address via the handshake query parameters.", success)

	received := make(chan peer.Message, 1)
	go server.Run(func(_ *peer.Session, msg peer.Message) {
		received <- msg
	})
	go client.Run(func(*peer.Session, peer.Message) {})

	if err := client.Send(peer.QueryLatestBlock()); err != nil {
		t.Fatalf("%s\tShould queue a message for delivery: %s", failed, err)
	}

	select {
	case msg := <-received:
		if msg.Type != peer.MsgQueryLatestBlock {
			t.Fatalf("%s\tShould deliver the message type unchanged, got %s", failed, msg.Type)
		}
		t.Logf("%s\tShould deliver a sent message to the other side of the session.", success)
	case <-time.After(2 * time.Second):
		t.Fatalf("%s\tShould deliver a sent message within the timeout.", failed)
	}
}

func Test_SendAfterCloseReturnsErrClosed(t *testing.T) {
	log := discardLogger(t)

	var serverPeer peer.Peer
	acceptedCh := make(chan *peer.Session, 1)

	srv := httptest.NewUnstartedServer(nil)
	srv.Config.Handler = newTestMux(t, log, &serverPeer, acceptedCh)
	srv.Start()
	defer srv.Close()

	self := peer.New("127.0.0.1", 9998)
	remote := parseHTTPTestPeer(t, srv.URL)

	client, err := peer.Dial(remote, self, log)
	if err != nil {
		t.Fatalf("setup: %s", err)
	}

	go client.Run(func(*peer.Session, peer.Message) {})

	client.Close()
	client.Close() // must not panic

	if err := client.Send(peer.QueryLatestBlock()); err == nil {
		t.Fatalf("%s\tShould refuse to queue a message once the session is closed.", failed)
	}
	t.Logf("%s\tShould refuse to queue a message once the session is closed, and tolerate a repeated Close.", success)
}

// newTestMux wires an httptest.Server's handler to upgrade every request on
// /ws, record the dialer's advertised address from the handshake query
// parameters, and publish the resulting session.
func newTestMux(t *testing.T, log *zap.SugaredLogger, gotPeer *peer.Peer, acceptedCh chan *peer.Session) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		host := r.URL.Query().Get("host")
		port, _ := strconv.Atoi(r.URL.Query().Get("port"))
		remote := peer.New(host, port)

		conn, err := peer.Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %s", err)
			return
		}

		*gotPeer = remote
		acceptedCh <- peer.Accept(remote, conn, log)
	}
}

func parseHTTPTestPeer(t *testing.T, rawURL string) peer.Peer {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse test server url: %s", err)
	}

	host, portStr, found := strings.Cut(u.Host, ":")
	if !found {
		t.Fatalf("test server url missing port: %s", rawURL)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse test server port: %s", err)
	}

	return peer.New(host, port)
}
