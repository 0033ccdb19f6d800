package peer

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"swarmshare/p2p-share/pkg/chunker"
)

// writeTestFile creates a random file of the given size and returns its
// path and descriptor.
func writeTestFile(t *testing.T, size int) (string, *chunker.FileDescriptor, []byte) {
	t.Helper()
	data := make([]byte, size)
	rand.Read(data)

	path := filepath.Join(t.TempDir(), "hosted.bin")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	desc, err := chunker.Describe(path)
	if err != nil {
		t.Fatal(err)
	}
	return path, desc, data
}

// startTestServer serves the given hash->path table on a loopback port.
func startTestServer(t *testing.T, files map[string]string) (addr string) {
	t.Helper()
	table := NewHostedFileTable()
	for hash, path := range files {
		table.Add(hash, path)
	}

	srv := NewChunkServer("127.0.0.1:0", table, 16)
	if err := srv.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(srv.Stop)
	return srv.Addr().String()
}

func TestServeChunkRoundTrip(t *testing.T) {
	path, desc, data := writeTestFile(t, 2*chunker.ChunkSize+1000)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	for id := uint32(0); id < desc.NumChunks; id++ {
		got, err := fetchChunk(addr, desc.Hash, id, 5*time.Second)
		if err != nil {
			t.Fatalf("chunk %d: %v", id, err)
		}
		offset, length := chunker.Range(id, desc.Size)
		if !bytes.Equal(got, data[offset:offset+length]) {
			t.Fatalf("chunk %d payload mismatch", id)
		}
	}
}

func TestServeLastChunkShort(t *testing.T) {
	path, desc, _ := writeTestFile(t, chunker.ChunkSize+chunker.ChunkSize/2)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	got, err := fetchChunk(addr, desc.Hash, 1, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != chunker.ChunkSize/2 {
		t.Fatalf("last chunk = %d bytes, want %d", len(got), chunker.ChunkSize/2)
	}
}

// rawRequest sends a raw request line and returns everything the server
// writes back.
func rawRequest(t *testing.T, addr, line string) []byte {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	if _, err := io.WriteString(conn, line); err != nil {
		t.Fatal(err)
	}
	reply, err := io.ReadAll(conn)
	if err != nil {
		t.Fatal(err)
	}
	return reply
}

func TestServeUnknownHash(t *testing.T) {
	path, desc, _ := writeTestFile(t, 1000)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	reply := rawRequest(t, addr, "GET_CHUNK deadbeefdeadbeefdeadbeefdeadbeefdeadbeef 0\n")

	// An error reply is a bare ASCII string: no 4-byte length prefix.
	if !bytes.HasPrefix(reply, []byte("ERROR: ")) {
		t.Fatalf("reply = %q, want error string", reply)
	}
}

func TestServeChunkOutOfRange(t *testing.T) {
	path, desc, _ := writeTestFile(t, 1000) // 1 chunk
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	reply := rawRequest(t, addr, fmt.Sprintf("GET_CHUNK %s 1\n", desc.Hash))
	if !bytes.HasPrefix(reply, []byte("ERROR: ")) {
		t.Fatalf("reply = %q, want error string", reply)
	}
}

func TestServeMalformedRequest(t *testing.T) {
	path, desc, _ := writeTestFile(t, 1000)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	for _, line := range []string{"HELLO\n", "GET_CHUNK onlyhash\n", "GET_CHUNK h x\n"} {
		reply := rawRequest(t, addr, line)
		if !bytes.HasPrefix(reply, []byte("ERROR: ")) {
			t.Fatalf("line %q: reply = %q, want error string", line, reply)
		}
	}
}

func TestServeSurvivesBadRequests(t *testing.T) {
	// A bad request must not take the server down for later clients.
	path, desc, data := writeTestFile(t, 1000)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	rawRequest(t, addr, "garbage\n")

	got, err := fetchChunk(addr, desc.Hash, 0, 5*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("payload mismatch after bad request")
	}
}

func TestServeConcurrentRequests(t *testing.T) {
	path, desc, data := writeTestFile(t, 3*chunker.ChunkSize)
	addr := startTestServer(t, map[string]string{desc.Hash: path})

	errCh := make(chan error, 30)
	for i := 0; i < 30; i++ {
		go func(i int) {
			id := uint32(i % int(desc.NumChunks))
			got, err := fetchChunk(addr, desc.Hash, id, 5*time.Second)
			if err != nil {
				errCh <- err
				return
			}
			offset, length := chunker.Range(id, desc.Size)
			if !bytes.Equal(got, data[offset:offset+length]) {
				errCh <- fmt.Errorf("chunk %d payload mismatch", id)
				return
			}
			errCh <- nil
		}(i)
	}

	for i := 0; i < 30; i++ {
		if err := <-errCh; err != nil {
			t.Fatal(err)
		}
	}
}
