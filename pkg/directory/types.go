// Package directory defines the JSON surface of the tracker and the
// peer-side client for it.
package directory

// PeerAdvertisement is one peer known to host some or all chunks of a
// file. The tracker hands these out as a snapshot; peers only consume
// them.
type PeerAdvertisement struct {
	IP     string   `json:"ip"`
	Port   uint16   `json:"port"`
	Chunks []uint32 `json:"chunks"`
}

// Addr returns the dialable host:port of the peer.
func (p PeerAdvertisement) Addr() string {
	return joinHostPort(p.IP, p.Port)
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	FileName string   `json:"file_name"`
	FileHash string   `json:"file_hash"`
	FileSize uint64   `json:"file_size"`
	Chunks   []uint32 `json:"chunks"`
	IP       string   `json:"ip"`
	Port     uint16   `json:"port"`
}

// RegisterResponse is the success body of POST /register.
type RegisterResponse struct {
	Message    string `json:"message"`
	FileHash   string `json:"file_hash"`
	PeersCount int    `json:"peers_count"`
}

// LookupResponse is the success body of GET /lookup.
type LookupResponse struct {
	FileHash string              `json:"file_hash"`
	FileName string              `json:"file_name"`
	FileSize uint64              `json:"file_size"`
	Peers    []PeerAdvertisement `json:"peers"`
}

// FileSummary is one entry of the GET /files debug listing.
type FileSummary struct {
	FileHash   string `json:"file_hash"`
	FileName   string `json:"file_name"`
	FileSize   uint64 `json:"file_size"`
	PeersCount int    `json:"peers_count"`
}

// FilesResponse is the body of GET /files.
type FilesResponse struct {
	Files []FileSummary `json:"files"`
}

// ErrorResponse is the body of every non-2xx tracker reply.
type ErrorResponse struct {
	Error string `json:"error"`
}
