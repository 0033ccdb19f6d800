package peer

import (
	"math/rand"
	"testing"

	"swarmshare/p2p-share/pkg/directory"
)

func TestPlanOneTaskPerChunk(t *testing.T) {
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 1, 2, 3}},
	}
	avail := BuildAvailability(peers, 4)

	tasks, unresolved := Plan(avail, 4, rand.New(rand.NewSource(1)))

	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v", unresolved)
	}
	if len(tasks) != 4 {
		t.Fatalf("tasks = %d, want 4", len(tasks))
	}

	seen := make(map[uint32]int)
	for _, task := range tasks {
		seen[task.ChunkID]++
		if task.Peer.IP != "10.0.0.1" {
			t.Errorf("chunk %d assigned to %s", task.ChunkID, task.Peer.IP)
		}
	}
	for id := uint32(0); id < 4; id++ {
		if seen[id] != 1 {
			t.Errorf("chunk %d has %d tasks", id, seen[id])
		}
	}
}

func TestPlanRespectsAvailability(t *testing.T) {
	// Peer A has {0,1}, peer B has {1,2,3}: chunk 0 must go to A,
	// chunks 2 and 3 to B, chunk 1 to either.
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 1}},
		{IP: "10.0.0.2", Port: 6000, Chunks: []uint32{1, 2, 3}},
	}
	avail := BuildAvailability(peers, 4)

	for seed := int64(0); seed < 20; seed++ {
		tasks, unresolved := Plan(avail, 4, rand.New(rand.NewSource(seed)))
		if len(unresolved) != 0 || len(tasks) != 4 {
			t.Fatalf("seed %d: tasks=%d unresolved=%v", seed, len(tasks), unresolved)
		}

		byChunk := make(map[uint32]string)
		for _, task := range tasks {
			byChunk[task.ChunkID] = task.Peer.IP
		}

		if byChunk[0] != "10.0.0.1" {
			t.Errorf("seed %d: chunk 0 assigned to %s", seed, byChunk[0])
		}
		if byChunk[2] != "10.0.0.2" || byChunk[3] != "10.0.0.2" {
			t.Errorf("seed %d: chunks 2/3 assigned to %s/%s", seed, byChunk[2], byChunk[3])
		}
		if byChunk[1] != "10.0.0.1" && byChunk[1] != "10.0.0.2" {
			t.Errorf("seed %d: chunk 1 assigned to %s", seed, byChunk[1])
		}
	}
}

func TestPlanReportsUnresolvableChunks(t *testing.T) {
	peers := []directory.PeerAdvertisement{
		{IP: "10.0.0.1", Port: 6000, Chunks: []uint32{0, 2}},
	}
	avail := BuildAvailability(peers, 4)

	tasks, unresolved := Plan(avail, 4, rand.New(rand.NewSource(1)))

	if len(tasks) != 2 {
		t.Errorf("tasks = %d, want 2", len(tasks))
	}
	if len(unresolved) != 2 || unresolved[0] != 1 || unresolved[1] != 3 {
		t.Errorf("unresolved = %v, want [1 3]", unresolved)
	}
}

func TestPlanSpreadsLoadRoughlyEvenly(t *testing.T) {
	// Three peers all advertising every chunk. Selection is independent
	// per chunk, so shares are only roughly equal; check loose bounds.
	const numPeers = 3
	const numChunks = 900

	all := make([]uint32, numChunks)
	for i := range all {
		all[i] = uint32(i)
	}
	var peers []directory.PeerAdvertisement
	for i := 0; i < numPeers; i++ {
		peers = append(peers, directory.PeerAdvertisement{
			IP: "10.0.0.1", Port: uint16(6000 + i), Chunks: all,
		})
	}
	avail := BuildAvailability(peers, numChunks)

	load := make(map[uint16]int)
	tasks, unresolved := Plan(avail, numChunks, rand.New(rand.NewSource(42)))
	if len(unresolved) != 0 {
		t.Fatalf("unresolved = %v", unresolved)
	}
	for _, task := range tasks {
		load[task.Peer.Port]++
	}

	for port, count := range load {
		// Expect ~300 each; allow a wide band for randomness.
		if count < 200 || count > 400 {
			t.Errorf("peer %d assigned %d chunks, want roughly %d", port, count, numChunks/numPeers)
		}
	}
}
