package s3store

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/macbase/macbase/internal/codec/noopcodec"
	"github.com/macbase/macbase/internal/codec/zstdcodec"
)

func TestOptions(t *testing.T) {
	var o options
	for _, opt := range []Option{
		WithPrefix("archive"),
		WithRegion("eu-west-1"),
		WithEndpoint("http://localhost:9000"),
	} {
		opt(&o)
	}

	if o.prefix != "archive" || o.region != "eu-west-1" || o.endpoint != "http://localhost:9000" {
		t.Errorf("options = %+v", o)
	}

	var so s3.Options
	o.clientOptions(&so)
	if so.BaseEndpoint == nil || *so.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %v, want http://localhost:9000", so.BaseEndpoint)
	}
	if !so.UsePathStyle {
		t.Error("UsePathStyle = false, want true for custom endpoints")
	}
}

func TestOptions_NoEndpoint(t *testing.T) {
	var so s3.Options
	options{}.clientOptions(&so)
	if so.BaseEndpoint != nil || so.UsePathStyle {
		t.Errorf("client options changed without an endpoint: %+v", so)
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
		{"none", &Store{codec: noopcodec.New()}, 99999, "games/099999.pgn"},
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
	s := &Store{codec: zstdcodec.New()}
	if got, want := s.manifestKey(), "manifest.json"; got != want {
		t.Errorf("manifestKey() = %q, want %q", got, want)
	}
}

func TestStore_Close(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}
