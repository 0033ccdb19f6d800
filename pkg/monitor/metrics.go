package monitor

import (
	"runtime"
	"sync/atomic"
	"time"

	"swarmshare/p2p-share/pkg/logger"
)

// Metrics holds transfer counters for a peer process. Served covers the
// chunk server side, fetched covers the downloader side.
type Metrics struct {
	BytesServed   int64
	ChunksServed  int64
	BytesFetched  int64
	ChunksFetched int64
	// Process start time
	Start time.Time
}

// Global metrics instance
var Global = &Metrics{
	Start: time.Now(),
}

// RecordServed counts one chunk sent to a remote peer.
func RecordServed(bytes int64) {
	atomic.AddInt64(&Global.BytesServed, bytes)
	atomic.AddInt64(&Global.ChunksServed, 1)
}

// RecordFetched counts one chunk received from a remote peer.
func RecordFetched(bytes int64) {
	atomic.AddInt64(&Global.BytesFetched, bytes)
	atomic.AddInt64(&Global.ChunksFetched, 1)
}

// Snapshot returns the current counter values.
func Snapshot() (bytesServed, chunksServed, bytesFetched, chunksFetched int64) {
	return atomic.LoadInt64(&Global.BytesServed),
		atomic.LoadInt64(&Global.ChunksServed),
		atomic.LoadInt64(&Global.BytesFetched),
		atomic.LoadInt64(&Global.ChunksFetched)
}

// LogPeriodic logs runtime metrics at the specified interval
func LogPeriodic(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		bytesServed, chunksServed, bytesFetched, chunksFetched := Snapshot()
		elapsed := time.Since(Global.Start).Seconds()
		var throughput float64
		if elapsed > 0 {
			throughput = float64(bytesServed+bytesFetched) / elapsed / 1024 / 1024
		}

		logger.Sugar.Infof("[Metrics] Goroutines=%d | HeapAlloc=%dMB | Throughput=%.2fMB/s | Served=%d | Fetched=%d",
			runtime.NumGoroutine(),
			m.HeapAlloc/1024/1024,
			throughput,
			chunksServed,
			chunksFetched,
		)
	}
}
