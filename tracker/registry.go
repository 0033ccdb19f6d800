package tracker

import (
	"sync"

	"swarmshare/p2p-share/pkg/directory"
)

type fileEntry struct {
	name  string
	size  uint64
	peers []directory.PeerAdvertisement // registration order preserved
}

// Registry is the in-memory file/peer index behind the tracker API. It
// lives for the process lifetime; nothing is persisted.
type Registry struct {
	mu    sync.RWMutex
	files map[string]*fileEntry // file hash -> entry
}

func NewRegistry() *Registry {
	return &Registry{files: make(map[string]*fileEntry)}
}

// Register records a peer's chunk set for a file, creating the file
// entry on first sight. Re-registering an existing (ip, port) replaces
// that peer's chunk set in place rather than adding a second entry.
// It reports the resulting peer count and whether the peer already
// existed.
func (r *Registry) Register(req directory.RegisterRequest) (peersCount int, updated bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.files[req.FileHash]
	if !ok {
		entry = &fileEntry{name: req.FileName, size: req.FileSize}
		r.files[req.FileHash] = entry
	}

	ad := directory.PeerAdvertisement{IP: req.IP, Port: req.Port, Chunks: req.Chunks}
	for i, p := range entry.peers {
		if p.IP == ad.IP && p.Port == ad.Port {
			entry.peers[i] = ad
			return len(entry.peers), true
		}
	}

	entry.peers = append(entry.peers, ad)
	return len(entry.peers), false
}

// LookupByName finds a file entry by file name.
func (r *Registry) LookupByName(name string) (*directory.LookupResponse, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for hash, entry := range r.files {
		if entry.name == name {
			peers := make([]directory.PeerAdvertisement, len(entry.peers))
			copy(peers, entry.peers)
			return &directory.LookupResponse{
				FileHash: hash,
				FileName: entry.name,
				FileSize: entry.size,
				Peers:    peers,
			}, true
		}
	}
	return nil, false
}

// Files returns a summary of every registered file.
func (r *Registry) Files() []directory.FileSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]directory.FileSummary, 0, len(r.files))
	for hash, entry := range r.files {
		out = append(out, directory.FileSummary{
			FileHash:   hash,
			FileName:   entry.name,
			FileSize:   entry.size,
			PeersCount: len(entry.peers),
		})
	}
	return out
}

// PeerCount reports how many peers advertise the given file.
func (r *Registry) PeerCount(fileHash string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, ok := r.files[fileHash]; ok {
		return len(entry.peers)
	}
	return 0
}
