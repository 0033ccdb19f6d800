package peer

import (
	"swarmshare/p2p-share/pkg/directory"
	"swarmshare/p2p-share/pkg/logger"
)

// AvailabilityMap maps each chunk id to the peers advertising it, in the
// order the tracker returned them. Built fresh per download attempt and
// never persisted.
type AvailabilityMap map[uint32][]directory.PeerAdvertisement

// BuildAvailability indexes the tracker's peer list by chunk. Duplicate
// (ip, port) advertisements are collapsed to the first occurrence.
// Chunk ids at or beyond numChunks come from stale or misbehaving
// advertisements and are silently dropped; the index is best-effort.
func BuildAvailability(peers []directory.PeerAdvertisement, numChunks uint32) AvailabilityMap {
	avail := make(AvailabilityMap)
	seen := make(map[string]bool)

	for _, p := range peers {
		addr := p.Addr()
		if seen[addr] {
			logger.Sugar.Debugf("[Availability] dropping duplicate advertisement for %s", addr)
			continue
		}
		seen[addr] = true

		for _, id := range p.Chunks {
			if id >= numChunks {
				continue
			}
			avail[id] = append(avail[id], p)
		}
	}
	return avail
}
