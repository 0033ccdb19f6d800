// Package config loads peer settings from an optional YAML file.
// Anything not set in the file keeps its default; CLI flags override
// both.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Peer holds the tunable settings of a peer node.
type Peer struct {
	TrackerURL  string `yaml:"tracker_url"`
	ListenAddr  string `yaml:"listen_addr"`
	DownloadDir string `yaml:"download_dir"`
	// Simultaneous chunk transfers during a download's primary pass.
	MaxParallelFetches int `yaml:"max_parallel_fetches"`
	// Per-socket timeout for a single chunk fetch, in seconds.
	FetchTimeoutSecs int `yaml:"fetch_timeout_secs"`
	// Cap on in-flight inbound chunk requests on the serving side.
	MaxInflightRequests int `yaml:"max_inflight_requests"`
}

// Default returns the built-in settings, matching the reference
// deployment: 10 parallel fetches, 10s socket timeout.
func Default() Peer {
	return Peer{
		TrackerURL:          "http://127.0.0.1:5000",
		ListenAddr:          "0.0.0.0:6000",
		DownloadDir:         "downloads/p2p-share",
		MaxParallelFetches:  10,
		FetchTimeoutSecs:    10,
		MaxInflightRequests: 64,
	}
}

// Load reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Peer, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if cfg.MaxParallelFetches <= 0 {
		cfg.MaxParallelFetches = Default().MaxParallelFetches
	}
	if cfg.FetchTimeoutSecs <= 0 {
		cfg.FetchTimeoutSecs = Default().FetchTimeoutSecs
	}
	if cfg.MaxInflightRequests <= 0 {
		cfg.MaxInflightRequests = Default().MaxInflightRequests
	}
	return cfg, nil
}
