package peer

import (
	"sync"
	"time"
)

// ChunkState represents the download state of a single chunk.
type ChunkState int

const (
	ChunkPending ChunkState = iota
	ChunkDownloading
	ChunkCompleted
	ChunkFailed
	ChunkRetrying
)

func (s ChunkState) String() string {
	switch s {
	case ChunkPending:
		return "pending"
	case ChunkDownloading:
		return "downloading"
	case ChunkCompleted:
		return "completed"
	case ChunkFailed:
		return "failed"
	case ChunkRetrying:
		return "retrying"
	default:
		return "unknown"
	}
}

// ChunkProgress tracks a single chunk.
type ChunkProgress struct {
	ID         uint32
	State      ChunkState
	PeerAddr   string
	BytesTotal uint64
}

// DownloadTracker tracks the progress of one file download across the
// primary pass and the retry pass.
type DownloadTracker struct {
	mu          sync.RWMutex
	FileHash    string
	FileName    string
	FileSize    uint64
	TotalChunks uint32
	Chunks      map[uint32]*ChunkProgress
	StartTime   time.Time
	EndTime     time.Time

	bytesDone uint64

	// Speed calculation
	lastBytes    uint64
	lastTime     time.Time
	currentSpeed float64 // bytes/sec

	failedChunks uint32
	retryCount   uint32
}

func NewDownloadTracker(fileHash, fileName string, fileSize uint64, totalChunks uint32) *DownloadTracker {
	return &DownloadTracker{
		FileHash:    fileHash,
		FileName:    fileName,
		FileSize:    fileSize,
		TotalChunks: totalChunks,
		Chunks:      make(map[uint32]*ChunkProgress),
		StartTime:   time.Now(),
		lastTime:    time.Now(),
	}
}

// InitChunks seeds every chunk in pending state with its byte size.
func (dt *DownloadTracker) InitChunks(chunkSizes map[uint32]uint64) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	for id, size := range chunkSizes {
		dt.Chunks[id] = &ChunkProgress{
			ID:         id,
			State:      ChunkPending,
			BytesTotal: size,
		}
	}
}

// StartChunk marks a chunk as being fetched from the given peer.
func (dt *DownloadTracker) StartChunk(id uint32, peerAddr string) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	if chunk, ok := dt.Chunks[id]; ok {
		chunk.State = ChunkDownloading
		chunk.PeerAddr = peerAddr
	}
}

// CompleteChunk marks a chunk as done and counts its bytes.
func (dt *DownloadTracker) CompleteChunk(id uint32) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	if chunk, ok := dt.Chunks[id]; ok && chunk.State != ChunkCompleted {
		chunk.State = ChunkCompleted
		dt.bytesDone += chunk.BytesTotal
	}
}

// FailChunk marks a chunk as failed in the primary pass.
func (dt *DownloadTracker) FailChunk(id uint32) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	if chunk, ok := dt.Chunks[id]; ok {
		chunk.State = ChunkFailed
		dt.failedChunks++
	}
}

// RetryChunk marks a failed chunk as being retried against another peer.
func (dt *DownloadTracker) RetryChunk(id uint32, peerAddr string) {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	if chunk, ok := dt.Chunks[id]; ok {
		chunk.State = ChunkRetrying
		chunk.PeerAddr = peerAddr
	}
	dt.retryCount++
}

// UpdateSpeed recomputes the rolling transfer speed.
func (dt *DownloadTracker) UpdateSpeed() float64 {
	dt.mu.Lock()
	defer dt.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(dt.lastTime).Seconds()

	if elapsed >= 0.5 {
		bytesDiff := dt.bytesDone - dt.lastBytes
		dt.currentSpeed = float64(bytesDiff) / elapsed
		dt.lastBytes = dt.bytesDone
		dt.lastTime = now
	}
	return dt.currentSpeed
}

// Progress reports completed/total chunks, current speed, and failures.
func (dt *DownloadTracker) Progress() (completed, total uint32, speed float64, failed uint32) {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	for _, chunk := range dt.Chunks {
		if chunk.State == ChunkCompleted {
			completed++
		}
	}
	return completed, dt.TotalChunks, dt.currentSpeed, dt.failedChunks
}

// BytesDone returns the bytes counted as downloaded so far.
func (dt *DownloadTracker) BytesDone() uint64 {
	dt.mu.RLock()
	defer dt.mu.RUnlock()
	return dt.bytesDone
}

// ETA estimates the remaining time at the current speed.
func (dt *DownloadTracker) ETA() time.Duration {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	remaining := int64(dt.FileSize) - int64(dt.bytesDone)
	if dt.currentSpeed <= 0 || remaining <= 0 {
		return 0
	}
	return time.Duration(float64(remaining)/dt.currentSpeed) * time.Second
}

// IsComplete reports whether every chunk has completed.
func (dt *DownloadTracker) IsComplete() bool {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	if len(dt.Chunks) == 0 {
		return false
	}
	for _, chunk := range dt.Chunks {
		if chunk.State != ChunkCompleted {
			return false
		}
	}
	return true
}

// MarkComplete stamps the end time.
func (dt *DownloadTracker) MarkComplete() {
	dt.mu.Lock()
	defer dt.mu.Unlock()
	dt.EndTime = time.Now()
}

// Elapsed returns the wall time of the download so far.
func (dt *DownloadTracker) Elapsed() time.Duration {
	dt.mu.RLock()
	defer dt.mu.RUnlock()

	if !dt.EndTime.IsZero() {
		return dt.EndTime.Sub(dt.StartTime)
	}
	return time.Since(dt.StartTime)
}
