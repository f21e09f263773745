package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/macbase/macbase/internal/oracle"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, "macbase.yaml", `
engine:
  path: /opt/stockfish
  primary:
    depth: 20
    multipv: 5
server:
  addr: 127.0.0.1:9000
  shutdown_timeout: 3s
  allowed_origins: ["https://example.org"]
archive:
  backend: s3
  bucket: games
  codec: gzip
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	want.Engine.Path = "/opt/stockfish"
	want.Engine.Primary = oracle.Config{Depth: 20, Threads: 6, HashMB: 256, MultiPV: 5}
	want.Server.Addr = "127.0.0.1:9000"
	want.Server.ShutdownTimeout = 3 * time.Second
	want.Server.AllowedOrigins = []string{"https://example.org"}
	want.Archive.Backend = "s3"
	want.Archive.Bucket = "games"
	want.Archive.Codec = "gzip"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "macbase.toml", `
[engine.stream]
depth = 18
`)
	t.Setenv("MACBASE_ENGINE_STREAM_DEPTH", "22")
	t.Setenv("MACBASE_ARCHIVE_CACHE_SIZE", "0")
	t.Setenv("MACBASE_ARCHIVE_CACHE_BYTES", "4096")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Stream.Depth != 22 {
		t.Errorf("Engine.Stream.Depth = %d, want 22", cfg.Engine.Stream.Depth)
	}
	if cfg.Archive.CacheSize != 0 {
		t.Errorf("Archive.CacheSize = %d, want 0", cfg.Archive.CacheSize)
	}
	if cfg.Archive.CacheBytes != 4096 {
		t.Errorf("Archive.CacheBytes = %d, want 4096", cfg.Archive.CacheBytes)
	}
}

func TestLoad_Flags(t *testing.T) {
	path := writeFile(t, "macbase.yaml", "server:\n  addr: :7000\n")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	fs.String("engine", "stockfish", "")
	if err := fs.Parse([]string{"--engine", "/usr/games/stockfish"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, Bindings{
		"server.addr": fs.Lookup("addr"),
		"engine.path": fs.Lookup("engine"),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want the file value :7000 for an unset flag", cfg.Server.Addr)
	}
	if cfg.Engine.Path != "/usr/games/stockfish" {
		t.Errorf("Engine.Path = %q, want the flag value", cfg.Engine.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("Load() with a missing explicit file should return error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero depth", func(c *Config) { c.Engine.Primary.Depth = 0 }},
		{"zero multipv", func(c *Config) { c.Engine.Stream.MultiPV = 0 }},
		{"unknown backend", func(c *Config) { c.Archive.Backend = "ftp" }},
		{"bucket required", func(c *Config) { c.Archive.Backend = "gcs" }},
		{"unknown codec", func(c *Config) { c.Archive.Codec = "lz4" }},
		{"negative cache", func(c *Config) { c.Archive.CacheSize = -1 }},
		{"negative cache bytes", func(c *Config) { c.Archive.CacheBytes = -1 }},
		{"no workers", func(c *Config) { c.Archive.Workers = 0 }},
	}

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() error = %v, want ErrInvalid", err)
			}
		})
	}
}
