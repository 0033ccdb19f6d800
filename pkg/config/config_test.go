package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg != Default() {
		t.Fatalf("got %+v, want defaults", cfg)
	}
}

func TestLoadOverlaysFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.yaml")
	content := []byte("tracker_url: http://10.0.0.2:5000\nmax_parallel_fetches: 4\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.TrackerURL != "http://10.0.0.2:5000" {
		t.Errorf("tracker_url = %q", cfg.TrackerURL)
	}
	if cfg.MaxParallelFetches != 4 {
		t.Errorf("max_parallel_fetches = %d", cfg.MaxParallelFetches)
	}
	// Untouched keys keep their defaults.
	if cfg.ListenAddr != Default().ListenAddr {
		t.Errorf("listen_addr = %q", cfg.ListenAddr)
	}
	if cfg.FetchTimeoutSecs != Default().FetchTimeoutSecs {
		t.Errorf("fetch_timeout_secs = %d", cfg.FetchTimeoutSecs)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSanitizesNonPositiveValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "peer.yaml")
	if err := os.WriteFile(path, []byte("max_parallel_fetches: -1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxParallelFetches != Default().MaxParallelFetches {
		t.Errorf("max_parallel_fetches = %d", cfg.MaxParallelFetches)
	}
}
