package peer

import (
	"math/rand"

	"swarmshare/p2p-share/pkg/directory"
	"swarmshare/p2p-share/pkg/logger"
)

// DownloadTask assigns one chunk to one source peer.
type DownloadTask struct {
	Peer    directory.PeerAdvertisement
	ChunkID uint32
}

// Plan assigns each chunk to exactly one peer chosen uniformly at random
// from its candidates. Random single-peer selection spreads load across
// the swarm without tracking per-peer state, and guarantees no chunk is
// fetched twice in the primary pass. Chunks with no candidates emit no
// task and are returned as unresolved.
func Plan(avail AvailabilityMap, numChunks uint32, rng *rand.Rand) (tasks []DownloadTask, unresolved []uint32) {
	for id := uint32(0); id < numChunks; id++ {
		candidates := avail[id]
		if len(candidates) == 0 {
			logger.Sugar.Warnf("[Planner] no peers available for chunk %d", id)
			unresolved = append(unresolved, id)
			continue
		}

		tasks = append(tasks, DownloadTask{
			Peer:    candidates[rng.Intn(len(candidates))],
			ChunkID: id,
		})
	}
	return tasks, unresolved
}
