package peer

import (
	"fmt"
	"net"
	"time"

	"swarmshare/p2p-share/pkg/chunker"
	"swarmshare/p2p-share/pkg/monitor"
	"swarmshare/p2p-share/pkg/protocol"
)

// fetchChunk downloads one chunk from one peer over a fresh connection.
// The timeout covers the whole exchange: dial, request write, and framed
// response read. Any failure, timeout included, is a per-task error for
// the caller to retry elsewhere, never a fatal condition.
func fetchChunk(addr, fileHash string, chunkID uint32, timeout time.Duration) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	req := protocol.Request{FileHash: fileHash, ChunkID: chunkID}
	if err := protocol.WriteRequest(conn, req); err != nil {
		return nil, fmt.Errorf("failed to send request to %s: %w", addr, err)
	}

	payload, err := protocol.ReadChunk(conn, chunker.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %d from %s: %w", chunkID, addr, err)
	}

	monitor.RecordFetched(int64(len(payload)))
	return payload, nil
}
