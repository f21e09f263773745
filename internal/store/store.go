// Package store defines the storage backend interface for the PGN archive.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a game or manifest does not exist in the store.
var ErrNotFound = errors.New("store: game not found")

// ManifestKey is the key of the archive manifest, relative to the archive root.
const ManifestKey = "manifest.json"

// Store defines the interface for archive backends.
// Implementations handle key formats and compression internally.
type Store interface {
	// ReadGame returns the decompressed PGN text of the given game.
	ReadGame(ctx context.Context, id int) ([]byte, error)

	// WriteGame stores the PGN text of the given game, replacing any
	// previous version.
	WriteGame(ctx context.Context, id int, pgn []byte) error

	// ReadManifest returns the raw archive manifest.
	ReadManifest(ctx context.Context) ([]byte, error)

	// WriteManifest replaces the raw archive manifest. It is stored
	// uncompressed.
	WriteManifest(ctx context.Context, data []byte) error

	// Close releases any resources held by the store.
	Close() error
}

// GameKey returns the slash-separated key of a game relative to the archive
// root. ext is the codec extension without dot and may be empty.
func GameKey(id int, ext string) string {
	key := fmt.Sprintf("games/%06d.pgn", id)
	if ext != "" {
		key += "." + ext
	}
	return key
}

// NormalizePrefix turns an object key prefix into "" or "a/b/".
func NormalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}
