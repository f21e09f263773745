// Package diskstore implements a disk-based filesystem storage backend.
package diskstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/macbase/macbase/internal/codec"
	"github.com/macbase/macbase/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is a disk-based filesystem storage backend.
type Store struct {
	root  string
	codec codec.Codec
}

// New creates a new disk store rooted at the given directory.
// The directory must exist. The codec handles compression/decompression.
func New(root string, c codec.Codec) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	return &Store{
		root:  root,
		codec: c,
	}, nil
}

// ReadGame reads and decompresses the given game.
func (s *Store) ReadGame(ctx context.Context, id int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	compressed, err := s.readFile(s.gamePath(id))
	if err != nil {
		return nil, err
	}
	data, err := codec.Decode(s.codec, bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("reading game %d: %w", id, err)
	}
	return data, nil
}

// WriteGame compresses and writes the given game.
func (s *Store) WriteGame(ctx context.Context, id int, pgn []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := codec.Encode(s.codec, pgn)
	if err != nil {
		return fmt.Errorf("writing game %d: %w", id, err)
	}
	return s.writeFile(s.gamePath(id), data)
}

// ReadManifest reads the archive manifest.
func (s *Store) ReadManifest(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.readFile(filepath.Join(s.root, store.ManifestKey))
}

// WriteManifest writes the archive manifest.
func (s *Store) WriteManifest(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.writeFile(filepath.Join(s.root, store.ManifestKey), data)
}

// Close releases any resources held by the store.
func (s *Store) Close() error {
	return nil
}

func (s *Store) readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

// writeFile replaces path through a temporary file so readers never see a
// partial write.
func (s *Store) writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming %s: %w", tmp, err)
	}
	return nil
}

// gamePath returns the filesystem path for a game.
func (s *Store) gamePath(id int) string {
	return filepath.Join(s.root, filepath.FromSlash(store.GameKey(id, s.codec.Extension())))
}
