// Package gcsstore implements a Google Cloud Storage backend.
package gcsstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"

	"github.com/macbase/macbase/internal/codec"
	"github.com/macbase/macbase/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a Google Cloud Storage backend.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	prefix string
	codec  codec.Codec
}

// New creates a new GCS store.
// The bucket must already exist.
// The codec handles compression/decompression.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating GCS client: %w", err)
	}

	s := &Store{
		client: client,
		bucket: client.Bucket(bucketName),
		codec:  c,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Option configures a Store.
type Option func(*Store)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = store.NormalizePrefix(prefix)
	}
}

// ReadGame reads and decompresses the given game.
func (s *Store) ReadGame(ctx context.Context, id int) ([]byte, error) {
	r, err := s.open(ctx, s.gameKey(id))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := codec.Decode(s.codec, r)
	if err != nil {
		return nil, fmt.Errorf("reading game %d: %w", id, err)
	}
	return data, nil
}

// WriteGame compresses and uploads the given game.
func (s *Store) WriteGame(ctx context.Context, id int, pgn []byte) error {
	data, err := codec.Encode(s.codec, pgn)
	if err != nil {
		return fmt.Errorf("writing game %d: %w", id, err)
	}
	return s.put(ctx, s.gameKey(id), data, "application/vnd.chess-pgn")
}

// ReadManifest downloads the archive manifest.
func (s *Store) ReadManifest(ctx context.Context) ([]byte, error) {
	r, err := s.open(ctx, s.manifestKey())
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return data, nil
}

// WriteManifest uploads the archive manifest.
func (s *Store) WriteManifest(ctx context.Context, data []byte) error {
	return s.put(ctx, s.manifestKey(), data, "application/json")
}

// Close releases resources.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) open(ctx context.Context, key string) (*storage.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("creating reader for %s: %w", key, err)
	}
	return r, nil
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	// The object is committed on Close.
	if err := w.Close(); err != nil {
		return fmt.Errorf("uploading %s: %w", key, err)
	}
	return nil
}

// gameKey returns the full object key for a game.
func (s *Store) gameKey(id int) string {
	return s.prefix + store.GameKey(id, s.codec.Extension())
}

func (s *Store) manifestKey() string {
	return s.prefix + store.ManifestKey
}
