package peer_test

import (
	"testing"

	"github.com/ardanlabs/blocknode/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name: "basic",
			peers: []peer.Peer{
				peer.New("host1", 9000),
				peer.New("host2", 9000),
				peer.New("host3", 9000),
			},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewSet()

			for _, p := range tst.peers {
				if !ps.Add(p) {
					t.Fatalf("Test %s:\tShould be able to add a new peer.", tst.name)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould reject adding the same peer twice.", tst.name)
			}

			peers := ps.Copy(peer.Peer{})
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back all known peers.", tst.name)
			}

			peers = ps.Copy(tst.peers[1])
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould exclude the given peer.", tst.name)
			}

			ps.Remove(tst.peers[2])
			if ps.Len() != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}
