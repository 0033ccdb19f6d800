package peer

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"swarmshare/p2p-share/pkg/chunker"
	"swarmshare/p2p-share/pkg/directory"
	"swarmshare/p2p-share/pkg/logger"
)

// DownloadStatus is the terminal state of one download attempt.
type DownloadStatus int

const (
	// StatusComplete: the file was assembled and its hash matched.
	StatusComplete DownloadStatus = iota
	// StatusIncomplete: chunks were still missing after the retry pass;
	// no file was written.
	StatusIncomplete
	// StatusCorruptDiscarded: the assembled file failed verification and
	// was deleted.
	StatusCorruptDiscarded
)

func (s DownloadStatus) String() string {
	switch s {
	case StatusComplete:
		return "complete"
	case StatusIncomplete:
		return "incomplete"
	case StatusCorruptDiscarded:
		return "corrupt-discarded"
	default:
		return "unknown"
	}
}

// DownloadResult is the outcome surfaced to the caller.
type DownloadResult struct {
	Status        DownloadStatus
	Path          string
	Size          uint64
	MissingChunks []uint32
}

// DownloadOptions tune one download run.
type DownloadOptions struct {
	DownloadDir  string
	Parallel     int           // simultaneous chunk transfers in the primary pass
	FetchTimeout time.Duration // per-socket timeout, counts as task failure
	ShowProgress bool
	// Rand drives peer selection; nil means time-seeded.
	Rand *rand.Rand
}

// Downloader executes one download: plan, concurrent primary fetch,
// sequential retry, assembly, verification. The slot buffer is owned
// exclusively by the downloader for the run; the only synchronization it
// needs is the first-writer-wins rule per slot.
type Downloader struct {
	fileHash  string
	fileName  string
	fileSize  uint64
	numChunks uint32
	avail     AvailabilityMap
	opts      DownloadOptions

	mu    sync.Mutex
	slots [][]byte

	tracker *DownloadTracker
}

// fetchJob is one planned chunk transfer, run on the worker pool. On
// success it delivers its bytes straight into the slot buffer.
type fetchJob struct {
	d    *Downloader
	task DownloadTask
}

func (j *fetchJob) Execute() error {
	addr := j.task.Peer.Addr()
	j.d.tracker.StartChunk(j.task.ChunkID, addr)

	data, err := fetchChunk(addr, j.d.fileHash, j.task.ChunkID, j.d.opts.FetchTimeout)
	if err != nil {
		return err
	}
	j.d.deliver(j.task.ChunkID, data)
	return nil
}

// NewDownloader builds a downloader from a tracker lookup. The chunk
// count is derived from the size the tracker reported; peer-supplied
// counts are never trusted.
func NewDownloader(meta *directory.LookupResponse, opts DownloadOptions) *Downloader {
	if opts.Parallel <= 0 {
		opts.Parallel = 10
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 10 * time.Second
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	numChunks := chunker.NumChunks(meta.FileSize)
	return &Downloader{
		fileHash:  meta.FileHash,
		fileName:  meta.FileName,
		fileSize:  meta.FileSize,
		numChunks: numChunks,
		avail:     BuildAvailability(meta.Peers, numChunks),
		opts:      opts,
		slots:     make([][]byte, numChunks),
		tracker:   NewDownloadTracker(meta.FileHash, meta.FileName, meta.FileSize, numChunks),
	}
}

// deliver fills a slot under the first-writer-wins rule; duplicate
// deliveries for an already-filled slot are discarded.
func (d *Downloader) deliver(id uint32, data []byte) {
	d.mu.Lock()
	duplicate := d.slots[id] != nil
	if !duplicate {
		d.slots[id] = data
	}
	d.mu.Unlock()

	if duplicate {
		logger.Sugar.Debugf("[Downloader] discarding duplicate delivery for chunk %d", id)
		return
	}
	d.tracker.CompleteChunk(id)
}

func (d *Downloader) hasSlot(id uint32) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slots[id] != nil
}

// Run executes the download and returns its terminal state. Only
// assembly-stage I/O failures surface as errors; per-chunk transfer
// failures are absorbed into the Incomplete result.
func (d *Downloader) Run() (*DownloadResult, error) {
	tasks, unresolved := Plan(d.avail, d.numChunks, d.opts.Rand)
	logger.Sugar.Infof("[Downloader] plan for %s: %d tasks, %d unresolvable chunks",
		d.fileName, len(tasks), len(unresolved))

	chunkSizes := make(map[uint32]uint64, d.numChunks)
	for id := uint32(0); id < d.numChunks; id++ {
		_, length := chunker.Range(id, d.fileSize)
		chunkSizes[id] = length
	}
	d.tracker.InitChunks(chunkSizes)

	var renderer *ProgressRenderer
	if d.opts.ShowProgress {
		renderer = NewProgressRenderer(d.tracker, true)
		go renderer.Start()
		defer renderer.StopAndWait()
	}

	failed := d.primaryPass(tasks)
	d.retryPass(failed)

	result, err := d.assemble()
	if err != nil {
		return nil, err
	}
	if renderer != nil && result.Status != StatusComplete {
		renderer.RenderError(fmt.Errorf("download %s: %s", d.fileName, result.Status))
	}
	return result, nil
}

// primaryPass runs every planned task on a bounded worker pool, draining
// results in completion order. It returns the chunk ids whose task
// failed.
func (d *Downloader) primaryPass(tasks []DownloadTask) []uint32 {
	pool := NewWorkerPool(d.opts.Parallel)
	pool.Start()

	go func() {
		for _, task := range tasks {
			pool.Submit(&fetchJob{d: d, task: task})
		}
		pool.Stop()
	}()

	var failed []uint32
	for result := range pool.Results() {
		job := result.Job.(*fetchJob)
		if result.Err != nil {
			logger.Sugar.Warnf("[Downloader] chunk %d failed from %s: %v",
				job.task.ChunkID, job.task.Peer.Addr(), result.Err)
			d.tracker.FailChunk(job.task.ChunkID)
			failed = append(failed, job.task.ChunkID)
		}
	}
	<-pool.Done()
	return failed
}

// retryPass walks the failed chunks sequentially, trying each remaining
// candidate peer in index order until one delivers. Unlike the primary
// pass this is deliberately neither load-balanced nor concurrent: it
// resolves stragglers without re-triggering pool contention.
func (d *Downloader) retryPass(failed []uint32) {
	for _, id := range failed {
		if d.hasSlot(id) {
			continue
		}
		for _, candidate := range d.avail[id] {
			addr := candidate.Addr()
			d.tracker.RetryChunk(id, addr)

			data, err := fetchChunk(addr, d.fileHash, id, d.opts.FetchTimeout)
			if err != nil {
				logger.Sugar.Warnf("[Downloader] retry of chunk %d from %s failed: %v", id, addr, err)
				continue
			}
			d.deliver(id, data)
			logger.Sugar.Infof("[Downloader] retry resolved chunk %d via %s", id, addr)
			break
		}
	}
}

// assemble checks completeness, writes the file, and verifies the hash.
// A hash mismatch deletes the file: partial or corrupt output never
// survives.
func (d *Downloader) assemble() (*DownloadResult, error) {
	var missing []uint32
	d.mu.Lock()
	for id := uint32(0); id < d.numChunks; id++ {
		if d.slots[id] == nil {
			missing = append(missing, id)
		}
	}
	d.mu.Unlock()

	if len(missing) > 0 {
		logger.Sugar.Errorf("[Downloader] download of %s incomplete, missing chunks: %v", d.fileName, missing)
		return &DownloadResult{Status: StatusIncomplete, MissingChunks: missing}, nil
	}

	if err := os.MkdirAll(d.opts.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download dir: %w", err)
	}
	path := filepath.Join(d.opts.DownloadDir, d.fileHash)

	if err := d.writeFile(path); err != nil {
		return nil, err
	}

	gotHash, err := chunker.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to verify %s: %w", path, err)
	}

	if gotHash != d.fileHash {
		logger.Sugar.Errorf("[Downloader] hash mismatch for %s: expected %s got %s, discarding",
			d.fileName, d.fileHash, gotHash)
		_ = os.Remove(path)
		return &DownloadResult{Status: StatusCorruptDiscarded}, nil
	}

	d.tracker.MarkComplete()
	logger.Sugar.Infof("[Downloader] %s verified and saved to %s (%d bytes in %s)",
		d.fileName, path, d.fileSize, d.tracker.Elapsed().Round(time.Millisecond))
	return &DownloadResult{Status: StatusComplete, Path: path, Size: d.fileSize}, nil
}

func (d *Downloader) writeFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	d.mu.Lock()
	defer d.mu.Unlock()
	for id := uint32(0); id < d.numChunks; id++ {
		if _, err := w.Write(d.slots[id]); err != nil {
			return fmt.Errorf("failed to write chunk %d: %w", id, err)
		}
	}
	return w.Flush()
}
