package gcsstore

import (
	"testing"

	"github.com/macbase/macbase/internal/codec/gzipcodec"
	"github.com/macbase/macbase/internal/codec/zstdcodec"
)

func TestWithPrefix(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"prefix", "prefix/"},
		{"prefix/", "prefix/"},
		{"a/b/c", "a/b/c/"},
		{"a/b/c/", "a/b/c/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			s := &Store{}
			WithPrefix(tt.input)(s)
			if s.prefix != tt.want {
				t.Errorf("prefix = %q, want %q", s.prefix, tt.want)
			}
		})
	}
}

func TestStore_gameKey(t *testing.T) {
	tests := []struct {
		name  string
		store *Store
		id    int
		want  string
	}{
		{"zstd", &Store{codec: zstdcodec.New()}, 0, "games/000000.pgn.zst"},
		{"gzip", &Store{codec: gzipcodec.New()}, 1, "games/000001.pgn.gz"},
		{"prefix", &Store{codec: zstdcodec.New(), prefix: "data/v1/"}, 42, "data/v1/games/000042.pgn.zst"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.store.gameKey(tt.id); got != tt.want {
				t.Errorf("gameKey(%d) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestStore_manifestKey(t *testing.T) {
	s := &Store{codec: zstdcodec.New(), prefix: "data/v1/"}
	if got, want := s.manifestKey(), "data/v1/manifest.json"; got != want {
		t.Errorf("manifestKey() = %q, want %q", got, want)
	}
}
