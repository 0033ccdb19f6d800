// Package tracker implements the directory service: an in-memory
// registry mapping files to the peers that advertise their chunks,
// exposed over HTTP+JSON.
package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"swarmshare/p2p-share/pkg/directory"
	"swarmshare/p2p-share/pkg/discovery"
	"swarmshare/p2p-share/pkg/logger"
)

type Server struct {
	addr       string
	registry   *Registry
	router     *mux.Router
	http       *http.Server
	advertiser *discovery.Advertiser
}

func NewServer(addr string) *Server {
	s := &Server{
		addr:       addr,
		registry:   NewRegistry(),
		router:     mux.NewRouter(),
		advertiser: discovery.NewAdvertiser(),
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/register", s.handleRegister).Methods("POST")
	s.router.HandleFunc("/lookup", s.handleLookup).Methods("GET")
	s.router.HandleFunc("/files", s.handleFiles).Methods("GET")
}

// Start binds the listener, begins mDNS advertisement, and serves until
// Stop is called. Only the bind failure is fatal.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind tracker on %s: %w", s.addr, err)
	}

	logger.Sugar.Infof("[Tracker] listening on %s", s.addr)
	s.startAdvertisement()

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) startAdvertisement() {
	_, portStr, err := net.SplitHostPort(s.addr)
	if err != nil {
		logger.Sugar.Errorf("[Tracker] failed to parse address %s: %v", s.addr, err)
		return
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return
	}

	meta := map[string]string{
		"version": "1.0.0",
		"type":    "tracker",
	}
	if err := s.advertiser.Start("p2p-share-tracker", port, meta); err != nil {
		logger.Sugar.Errorf("[Tracker] failed to start mDNS advertisement: %v", err)
	} else {
		logger.Sugar.Infof("[Tracker] mDNS advertisement started on port %d", port)
	}
}

func (s *Server) Stop() {
	s.advertiser.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.http.Shutdown(ctx)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req directory.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if missing := missingField(req); missing != "" {
		writeError(w, http.StatusBadRequest, "Missing field: "+missing)
		return
	}

	count, updated := s.registry.Register(req)

	message := "Peer registered successfully"
	if updated {
		message = "Peer updated successfully"
	}
	logger.Sugar.Infof("[Tracker] register: file=%s peer=%s:%d chunks=%d peers=%d",
		req.FileHash, req.IP, req.Port, len(req.Chunks), count)

	writeJSON(w, http.StatusOK, directory.RegisterResponse{
		Message:    message,
		FileHash:   req.FileHash,
		PeersCount: count,
	})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("file_name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "Missing file_name parameter")
		return
	}

	resp, ok := s.registry.LookupByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	logger.Sugar.Debugf("[Tracker] lookup: file=%s peers=%d", name, len(resp.Peers))
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFiles(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, directory.FilesResponse{Files: s.registry.Files()})
}

// GetStatus renders a human-readable summary for the interactive shell.
func (s *Server) GetStatus() string {
	files := s.registry.Files()

	status := fmt.Sprintf("Tracker running on: %s\n", s.addr)
	status += fmt.Sprintf("Registered files: %d\n", len(files))
	for _, f := range files {
		status += fmt.Sprintf(" - %s (hash: %s) size=%d bytes peers=%d\n",
			f.FileName, f.FileHash, f.FileSize, f.PeersCount)
	}
	return status
}

func missingField(req directory.RegisterRequest) string {
	switch {
	case req.FileName == "":
		return "file_name"
	case req.FileHash == "":
		return "file_hash"
	case req.FileSize == 0:
		return "file_size"
	case req.Chunks == nil:
		return "chunks"
	case req.IP == "":
		return "ip"
	case req.Port == 0:
		return "port"
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("[Tracker] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, directory.ErrorResponse{Error: msg})
}
