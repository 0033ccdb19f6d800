package peer

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sort"
	"sync"
	"time"

	"swarmshare/p2p-share/pkg/chunker"
	"swarmshare/p2p-share/pkg/logger"
	"swarmshare/p2p-share/pkg/monitor"
	"swarmshare/p2p-share/pkg/protocol"
)

// connDeadline bounds every inbound connection's whole request/response
// exchange so a stalled client cannot pin a handler slot forever.
const connDeadline = 30 * time.Second

// HostedFileTable maps a content hash to the absolute path the file is
// served from. Reads vastly outnumber writes: entries are added when a
// share is registered and never removed while the process runs.
type HostedFileTable struct {
	mu    sync.RWMutex
	files map[string]string
}

func NewHostedFileTable() *HostedFileTable {
	return &HostedFileTable{files: make(map[string]string)}
}

// Add registers a file path under its content hash.
func (t *HostedFileTable) Add(hash, path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files[hash] = path
}

// Lookup resolves a content hash to the backing path.
func (t *HostedFileTable) Lookup(hash string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	path, ok := t.files[hash]
	return path, ok
}

// Hashes returns the hosted content hashes in sorted order.
func (t *HostedFileTable) Hashes() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.files))
	for h := range t.files {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

func (t *HostedFileTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.files)
}

// ChunkServer serves single-chunk requests over TCP. Each accepted
// connection gets its own goroutine; a fixed-size semaphore bounds how
// many run at once so a connection flood cannot grow goroutines without
// limit. Chunks are read lazily per request with a positioned read, so
// whole files are never resident in memory.
type ChunkServer struct {
	addr     string
	table    *HostedFileTable
	listener net.Listener
	sem      chan struct{}
	quitCh   chan struct{}
	once     sync.Once
}

func NewChunkServer(addr string, table *HostedFileTable, maxInflight int) *ChunkServer {
	if maxInflight <= 0 {
		maxInflight = 64
	}
	return &ChunkServer{
		addr:   addr,
		table:  table,
		sem:    make(chan struct{}, maxInflight),
		quitCh: make(chan struct{}),
	}
}

// Start binds the listening socket and begins accepting in the
// background. Bind failure is the only fatal error; per-request failures
// never stop the accept loop.
func (s *ChunkServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind chunk server on %s: %w", s.addr, err)
	}
	s.listener = ln

	logger.Sugar.Infof("[ChunkServer] listening for chunk requests on %s", ln.Addr())
	go s.acceptLoop()
	return nil
}

// Addr returns the bound listen address. Useful when the configured
// port was 0.
func (s *ChunkServer) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *ChunkServer) Stop() {
	s.once.Do(func() {
		close(s.quitCh)
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})
}

func (s *ChunkServer) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.quitCh:
				return
			default:
				logger.Sugar.Errorf("[ChunkServer] accept error: %v", err)
				continue
			}
		}

		s.sem <- struct{}{}
		go func(c net.Conn) {
			defer func() { <-s.sem }()
			s.handleConn(c)
		}(conn)
	}
}

// handleConn performs one request/response exchange and closes the
// connection. Every failure path answers with a textual error; nothing
// here may take down the accept loop.
func (s *ChunkServer) handleConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(connDeadline))

	remote := conn.RemoteAddr()

	req, err := protocol.ReadRequest(conn)
	if err != nil {
		logger.Sugar.Warnf("[ChunkServer] invalid request from %s: %v", remote, err)
		if errors.Is(err, protocol.ErrMalformedRequest) {
			_ = protocol.WriteError(conn, "Invalid request")
		} else {
			_ = protocol.WriteError(conn, "Server error")
		}
		return
	}

	payload, err := s.readChunkFromDisk(req)
	if err != nil {
		logger.Sugar.Warnf("[ChunkServer] request from %s failed: hash=%s chunk=%d err=%v",
			remote, req.FileHash, req.ChunkID, err)
		_ = protocol.WriteError(conn, errorReason(err))
		return
	}

	if err := protocol.WriteChunk(conn, payload); err != nil {
		logger.Sugar.Warnf("[ChunkServer] failed to send chunk %d to %s: %v", req.ChunkID, remote, err)
		return
	}

	monitor.RecordServed(int64(len(payload)))
	logger.Sugar.Infof("[ChunkServer] sent chunk %d (%d bytes) to %s", req.ChunkID, len(payload), remote)
}

// serveErr carries the reply text for an expected per-request failure,
// distinct from internal errors that reply "Server error".
type serveErr struct {
	reason string
}

func (e *serveErr) Error() string { return e.reason }

func errorReason(err error) string {
	var se *serveErr
	if errors.As(err, &se) {
		return se.reason
	}
	return "Server error"
}

// readChunkFromDisk validates the request against the current on-disk
// state and reads just the requested byte range.
func (s *ChunkServer) readChunkFromDisk(req protocol.Request) ([]byte, error) {
	path, ok := s.table.Lookup(req.FileHash)
	if !ok {
		return nil, &serveErr{reason: "File not found"}
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	size := uint64(info.Size())

	// Validated against the file's current size, never clamped.
	if req.ChunkID >= chunker.NumChunks(size) {
		return nil, &serveErr{reason: "Chunk out of range"}
	}

	offset, length := chunker.Range(req.ChunkID, size)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	payload := make([]byte, length)
	if _, err := f.ReadAt(payload, int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read chunk %d: %w", req.ChunkID, err)
	}
	return payload, nil
}
