// Package peer implements both sides of the chunk swarm data plane: the
// chunk server that answers byte-range requests for hosted files, and
// the downloader that plans, fetches, retries, and verifies a file from
// whatever peers advertise its chunks.
package peer

import (
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"swarmshare/p2p-share/pkg/chunker"
	"swarmshare/p2p-share/pkg/config"
	"swarmshare/p2p-share/pkg/directory"
	"swarmshare/p2p-share/pkg/logger"
)

// Node is one peer process: it can share files (register + serve) and
// download files by name through the tracker.
type Node struct {
	cfg     config.Peer
	table   *HostedFileTable
	server  *ChunkServer
	tracker *directory.Client
	localIP string

	mu        sync.Mutex
	shared    map[string]*chunker.FileDescriptor // hash -> descriptor
	downloads map[string]DownloadStatus          // hash -> last outcome
}

func NewNode(cfg config.Peer, localIP string) *Node {
	table := NewHostedFileTable()
	return &Node{
		cfg:       cfg,
		table:     table,
		server:    NewChunkServer(cfg.ListenAddr, table, cfg.MaxInflightRequests),
		tracker:   directory.NewClient(cfg.TrackerURL),
		localIP:   localIP,
		shared:    make(map[string]*chunker.FileDescriptor),
		downloads: make(map[string]DownloadStatus),
	}
}

// Start brings up the chunk server. Only a bind failure is fatal.
func (n *Node) Start() error {
	return n.server.Start()
}

func (n *Node) Stop() {
	n.server.Stop()
}

// listenPort extracts the serving port, resolving port 0 to whatever
// the listener actually bound.
func (n *Node) listenPort() (uint16, error) {
	addr := n.server.Addr()
	if addr == nil {
		_, portStr, err := net.SplitHostPort(n.cfg.ListenAddr)
		if err != nil {
			return 0, fmt.Errorf("invalid listen address %s: %w", n.cfg.ListenAddr, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			return 0, fmt.Errorf("invalid listen port %s: %w", portStr, err)
		}
		return uint16(port), nil
	}
	return uint16(addr.(*net.TCPAddr).Port), nil
}

// Share computes the descriptor of a local file, registers every chunk
// with the tracker, and begins serving it by path. The file is never
// loaded into memory; the chunk server reads ranges lazily per request.
func (n *Node) Share(path string) (*chunker.FileDescriptor, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	desc, err := chunker.Describe(abs)
	if err != nil {
		return nil, err
	}
	logger.Sugar.Infof("[Peer] sharing %s: hash=%s size=%d chunks=%d",
		desc.Name, desc.Hash, desc.Size, desc.NumChunks)

	if err := n.register(desc); err != nil {
		return nil, err
	}

	n.table.Add(desc.Hash, abs)
	n.mu.Lock()
	n.shared[desc.Hash] = desc
	n.mu.Unlock()

	return desc, nil
}

// register announces the full chunk set of a file to the tracker.
func (n *Node) register(desc *chunker.FileDescriptor) error {
	port, err := n.listenPort()
	if err != nil {
		return err
	}

	chunks := make([]uint32, desc.NumChunks)
	for i := range chunks {
		chunks[i] = uint32(i)
	}

	_, err = n.tracker.Register(directory.RegisterRequest{
		FileName: desc.Name,
		FileHash: desc.Hash,
		FileSize: desc.Size,
		Chunks:   chunks,
		IP:       n.localIP,
		Port:     port,
	})
	if err != nil {
		return fmt.Errorf("tracker registration failed for %s: %w", desc.Name, err)
	}
	return nil
}

// Download locates a file by name and runs the full pipeline:
// availability index, random load-balanced plan, concurrent primary
// fetch, sequential retry, assembly, verification. On success the node
// re-registers as a seeder of the downloaded file.
func (n *Node) Download(fileName string) (*DownloadResult, error) {
	meta, err := n.tracker.Lookup(fileName)
	if err != nil {
		return nil, err
	}
	if len(meta.Peers) == 0 {
		return nil, fmt.Errorf("no peers advertise %s", fileName)
	}
	if meta.FileHash == "" {
		return nil, fmt.Errorf("tracker returned no content hash for %s", fileName)
	}

	d := NewDownloader(meta, DownloadOptions{
		DownloadDir:  n.cfg.DownloadDir,
		Parallel:     n.cfg.MaxParallelFetches,
		FetchTimeout: time.Duration(n.cfg.FetchTimeoutSecs) * time.Second,
		ShowProgress: true,
	})

	result, err := d.Run()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.downloads[meta.FileHash] = result.Status
	n.mu.Unlock()

	if result.Status == StatusComplete {
		n.seedDownloaded(meta, result.Path)
	}
	return result, nil
}

// seedDownloaded turns a completed download into a new share so the
// swarm gains a seeder. Best-effort: a failed re-registration doesn't
// degrade the download result.
func (n *Node) seedDownloaded(meta *directory.LookupResponse, path string) {
	desc := &chunker.FileDescriptor{
		Name:      meta.FileName,
		Hash:      meta.FileHash,
		Size:      meta.FileSize,
		NumChunks: chunker.NumChunks(meta.FileSize),
	}
	if err := n.register(desc); err != nil {
		logger.Sugar.Warnf("[Peer] failed to register as seeder for %s: %v", meta.FileName, err)
		return
	}
	n.table.Add(desc.Hash, path)
	logger.Sugar.Infof("[Peer] now seeding %s", meta.FileName)
}

// GetStatus renders a human-readable summary for the interactive shell.
func (n *Node) GetStatus() string {
	n.mu.Lock()
	defer n.mu.Unlock()

	status := fmt.Sprintf("Peer serving on: %s\n", n.cfg.ListenAddr)
	status += fmt.Sprintf("Tracker: %s\n", n.cfg.TrackerURL)
	status += fmt.Sprintf("Hosted files: %d\n", n.table.Len())
	for _, hash := range n.table.Hashes() {
		if desc, ok := n.shared[hash]; ok {
			status += fmt.Sprintf(" - %s (hash: %s) size=%d bytes\n", desc.Name, hash, desc.Size)
		} else {
			status += fmt.Sprintf(" - hash: %s\n", hash)
		}
	}
	if len(n.downloads) > 0 {
		status += fmt.Sprintf("Downloads: %d\n", len(n.downloads))
		for hash, st := range n.downloads {
			status += fmt.Sprintf(" - %s: %s\n", hash, st)
		}
	}
	return status
}
