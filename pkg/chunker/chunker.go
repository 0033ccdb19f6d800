package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChunkSize is the fixed chunk size used by every peer and the tracker.
// It is a deployment-wide constant, not negotiated per transfer; chunk
// counts only agree across the swarm because everyone uses the same value.
const ChunkSize = 1024 * 1024 // 1MB

// FileDescriptor identifies a shareable file. It is recomputed
// independently by every party that needs it: a downloader derives the
// chunk count from the size reported by the tracker and never trusts a
// peer-supplied count.
type FileDescriptor struct {
	Name      string
	Hash      string // hex SHA-1 over the full byte stream
	Size      uint64
	NumChunks uint32
}

// NumChunks returns ceil(size / ChunkSize).
func NumChunks(size uint64) uint32 {
	return uint32((size + ChunkSize - 1) / ChunkSize)
}

// Range returns the byte range [offset, offset+length) covered by the
// given chunk within a file of the given size. The last chunk may be
// shorter than ChunkSize.
func Range(id uint32, size uint64) (offset, length uint64) {
	offset = uint64(id) * ChunkSize
	if offset >= size {
		return offset, 0
	}
	length = ChunkSize
	if offset+length > size {
		length = size - offset
	}
	return offset, length
}

// HashReader computes the hex SHA-1 digest of r, reading in ChunkSize
// pieces so memory stays O(ChunkSize) regardless of input size.
func HashReader(r io.Reader) (string, error) {
	h := sha1.New()
	buf := make([]byte, ChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("hash read failed: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashFile computes the hex SHA-1 digest of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return HashReader(f)
}

// Describe computes the full descriptor for the file at path.
func Describe(path string) (*FileDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	hash, err := HashFile(path)
	if err != nil {
		return nil, err
	}

	size := uint64(info.Size())
	return &FileDescriptor{
		Name:      filepath.Base(path),
		Hash:      hash,
		Size:      size,
		NumChunks: NumChunks(size),
	}, nil
}
