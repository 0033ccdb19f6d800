package chunker

import (
	"bytes"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestNumChunks(t *testing.T) {
	cases := []struct {
		size uint64
		want uint32
	}{
		{0, 0},
		{1, 1},
		{ChunkSize - 1, 1},
		{ChunkSize, 1},
		{ChunkSize + 1, 2},
		// 3.5MB file -> 4 chunks of 1MB, 1MB, 1MB, 0.5MB
		{3*ChunkSize + ChunkSize/2, 4},
	}

	for _, c := range cases {
		if got := NumChunks(c.size); got != c.want {
			t.Errorf("NumChunks(%d) = %d, want %d", c.size, got, c.want)
		}
	}
}

func TestRangePartitionsFile(t *testing.T) {
	// Chunk ranges must cover [0, size) exactly, no gap, no overlap.
	sizes := []uint64{1, ChunkSize, ChunkSize + 1, 3*ChunkSize + ChunkSize/2, 5 * ChunkSize}

	for _, size := range sizes {
		var next uint64
		for id := uint32(0); id < NumChunks(size); id++ {
			offset, length := Range(id, size)
			if offset != next {
				t.Fatalf("size=%d chunk=%d: offset %d, want %d", size, id, offset, next)
			}
			if length == 0 {
				t.Fatalf("size=%d chunk=%d: zero-length chunk", size, id)
			}
			if id < NumChunks(size)-1 && length != ChunkSize {
				t.Fatalf("size=%d chunk=%d: interior chunk has length %d", size, id, length)
			}
			next = offset + length
		}
		if next != size {
			t.Fatalf("size=%d: chunks cover %d bytes", size, next)
		}
	}
}

func TestRangeLastChunkShort(t *testing.T) {
	size := uint64(3*ChunkSize + ChunkSize/2)
	_, length := Range(3, size)
	if length != ChunkSize/2 {
		t.Fatalf("last chunk length = %d, want %d", length, ChunkSize/2)
	}
}

func TestHashReaderMatchesSHA1(t *testing.T) {
	data := make([]byte, 2*ChunkSize+777)
	rand.Read(data)

	want := sha1.Sum(data)
	got, err := HashReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if got != hex.EncodeToString(want[:]) {
		t.Fatalf("hash mismatch: got %s", got)
	}
	if len(got) != 40 {
		t.Fatalf("digest length = %d, want 40", len(got))
	}
}

func TestDescribe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.bin")

	data := make([]byte, ChunkSize+123)
	rand.Read(data)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	desc, err := Describe(path)
	if err != nil {
		t.Fatal(err)
	}

	if desc.Name != "sample.bin" {
		t.Errorf("name = %q", desc.Name)
	}
	if desc.Size != uint64(len(data)) {
		t.Errorf("size = %d, want %d", desc.Size, len(data))
	}
	if desc.NumChunks != 2 {
		t.Errorf("chunks = %d, want 2", desc.NumChunks)
	}

	want := sha1.Sum(data)
	if desc.Hash != hex.EncodeToString(want[:]) {
		t.Errorf("hash mismatch: got %s", desc.Hash)
	}
}

func TestDescribeDirectory(t *testing.T) {
	if _, err := Describe(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}
