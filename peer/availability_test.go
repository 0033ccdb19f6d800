package peer

import (
	"testing"

	"swarmshare/p2p-share/pkg/directory"
)

func TestBuildAvailability(t *testing.T) {
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 1}},
		{IP: "10.0.0.2", Port: 6000, Chunks: []uint32{1, 2, 3}},
	}

	avail := BuildAvailability(peers, 4)

	if len(avail[0]) != 1 || avail[0][0].IP != "10.0.0.1" {
		t.Errorf("chunk 0 candidates = %v", avail[0])
	}
	if len(avail[1]) != 2 {
		t.Errorf("chunk 1 candidates = %v", avail[1])
	}
	// Peer order as received must be preserved.
	if avail[1][0].IP != "10.0.0.1" || avail[1][1].IP != "10.0.0.2" {
		t.Errorf("chunk 1 order = %v", avail[1])
	}
	if len(avail[2]) != 1 || len(avail[3]) != 1 {
		t.Errorf("chunks 2/3 candidates = %v / %v", avail[2], avail[3])
	}
}

func TestBuildAvailabilityDropsOutOfRange(t *testing.T) {
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 7, 99}},
	}

	avail := BuildAvailability(peers, 2)

	if len(avail[0]) != 1 {
		t.Errorf("chunk 0 candidates = %v", avail[0])
	}
	if len(avail) != 1 {
		t.Errorf("out-of-range chunks indexed: %v", avail)
	}
}

func TestBuildAvailabilityCollapsesDuplicates(t *testing.T) {
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0}},
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 1}},
		{IP: "10.0.0.1", Port: 6001, Chunks: []uint32{0}}, // different port, kept
	}

	avail := BuildAvailability(peers, 2)

	if len(avail[0]) != 2 {
		t.Errorf("chunk 0 candidates = %v", avail[0])
	}
	// The second advertisement of 10.0.0.1:6000 was dropped whole.
	if len(avail[1]) != 0 {
		t.Errorf("chunk 1 candidates = %v", avail[1])
	}
}

func TestBuildAvailabilityEmptyPeers(t *testing.T) {
	avail := BuildAvailability(nil, 4)
	if len(avail) != 0 {
		t.Errorf("availability = %v", avail)
	}
}
