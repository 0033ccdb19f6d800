// Package protocol implements the peer-to-peer chunk wire format: a
// single ASCII request line answered by one length-prefixed binary
// payload. Each request uses a fresh connection; nothing is pipelined,
// which keeps per-connection state trivial and isolates a stalled peer
// to its own connection.
package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CmdGetChunk is the only request command.
const CmdGetChunk = "GET_CHUNK"

// MaxRequestLine caps the request read. A legitimate request is a short
// fixed line; anything longer is rejected without further reading.
const MaxRequestLine = 1024

// errPrefix starts every server error reply. Error replies carry no
// length prefix.
const errPrefix = "ERROR: "

var (
	ErrMalformedRequest = errors.New("malformed request line")
	ErrShortResponse    = errors.New("response ended before length prefix")
	ErrOversizedFrame   = errors.New("announced frame exceeds maximum payload size")
)

// Request asks a peer for one chunk of one file.
type Request struct {
	FileHash string
	ChunkID  uint32
}

// WriteRequest sends the request line. The trailing newline delimits the
// line for readers that poll the connection in pieces.
func WriteRequest(w io.Writer, req Request) error {
	_, err := fmt.Fprintf(w, "%s %s %d\n", CmdGetChunk, req.FileHash, req.ChunkID)
	return err
}

// ReadRequest reads and parses one request line, reading at most
// MaxRequestLine bytes. Lines terminated by EOF instead of a newline are
// accepted, matching clients that close their write side after the
// request.
func ReadRequest(r io.Reader) (Request, error) {
	br := bufio.NewReaderSize(io.LimitReader(r, MaxRequestLine), MaxRequestLine)
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return Request{}, fmt.Errorf("failed to read request: %w", err)
	}
	if err == io.EOF && len(line) == MaxRequestLine {
		// Hit the cap without a newline.
		return Request{}, ErrMalformedRequest
	}

	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != CmdGetChunk {
		return Request{}, ErrMalformedRequest
	}

	chunkID, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return Request{}, ErrMalformedRequest
	}

	return Request{FileHash: fields[1], ChunkID: uint32(chunkID)}, nil
}

// WriteChunk frames the payload as a 4-byte unsigned big-endian length
// followed by the raw bytes.
func WriteChunk(w io.Writer, payload []byte) error {
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(payload)))
	if _, err := w.Write(prefix[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadChunk reads one framed payload. Once the 4-byte prefix parses, the
// next N bytes are treated as binary unconditionally; there is no
// sniffing for error strings. An announced length above maxPayload is
// rejected before any allocation, which also makes an unframed
// "ERROR: ..." reply fail immediately (its first four bytes decode to an
// absurd length) instead of stalling until the socket deadline.
func ReadChunk(r io.Reader, maxPayload uint32) ([]byte, error) {
	var prefix [4]byte
	if _, err := io.ReadFull(r, prefix[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrShortResponse, err)
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n > maxPayload {
		return nil, ErrOversizedFrame
	}

	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("short chunk payload: %w", err)
	}
	return payload, nil
}

// WriteError sends a human-readable error reply with no length prefix.
func WriteError(w io.Writer, reason string) error {
	_, err := io.WriteString(w, errPrefix+reason)
	return err
}
