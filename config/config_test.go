package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  store:
    driver: sqlite
    path: /var/lib/saber/accounting.db
    maxOpenConns: 1
  ingest:
    logDirectory: /var/log/scheduler
    scanInterval: 30s
  log_schema:
    columns: [JobID, JobName, UserName]
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Store.Driver != "sqlite" || cfg.Server.Store.Path != "/var/lib/saber/accounting.db" {
		t.Errorf("store config wrong: %+v", cfg.Server.Store)
	}
	if cfg.Server.Ingest.LogDirectory != "/var/log/scheduler" {
		t.Errorf("logDirectory wrong: %q", cfg.Server.Ingest.LogDirectory)
	}
	if time.Duration(cfg.Server.Ingest.ScanInterval) != 30*time.Second {
		t.Errorf("scanInterval wrong: %v", cfg.Server.Ingest.ScanInterval)
	}

	// Unset ingestion knobs fall back to operational defaults.
	if cfg.Server.Ingest.FilePattern != "*.out" {
		t.Errorf("default file pattern wrong: %q", cfg.Server.Ingest.FilePattern)
	}
	if cfg.Server.Ingest.Workers != 4 {
		t.Errorf("default workers wrong: %d", cfg.Server.Ingest.Workers)
	}
	if cfg.Server.Ingest.FallbackWallet != "unassigned" {
		t.Errorf("default fallback wallet wrong: %q", cfg.Server.Ingest.FallbackWallet)
	}
	if cfg.Server.Ingest.MaxMappingDepth != 16 {
		t.Errorf("default mapping depth wrong: %d", cfg.Server.Ingest.MaxMappingDepth)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"unknown driver", `
server:
  store:
    driver: postgres
  ingest:
    logDirectory: /var/log/scheduler
  log_schema:
    columns: [JobID]
`},
		{"sqlite without path", `
server:
  store:
    driver: sqlite
  ingest:
    logDirectory: /var/log/scheduler
  log_schema:
    columns: [JobID]
`},
		{"missing log directory", `
server:
  store:
    driver: sqlite
    path: /tmp/a.db
  log_schema:
    columns: [JobID]
`},
		{"duplicate columns", `
server:
  store:
    driver: sqlite
    path: /tmp/a.db
  ingest:
    logDirectory: /var/log/scheduler
  log_schema:
    columns: [JobID, JobID]
`},
		{"empty columns", `
server:
  store:
    driver: sqlite
    path: /tmp/a.db
  ingest:
    logDirectory: /var/log/scheduler
  log_schema:
    columns: []
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
