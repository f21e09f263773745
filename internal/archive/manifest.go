package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/macbase/macbase/internal/store"
)

// ManifestVersion is the current manifest layout.
const ManifestVersion = 1

// Manifest describes an imported archive.
type Manifest struct {
	Version   int       `json:"version"`
	Games     int       `json:"games"`
	FirstID   int       `json:"first_id"`
	Skipped   int       `json:"skipped,omitempty"`
	Codec     string    `json:"codec"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// LastID returns the ID of the last imported game, or FirstID-1 when the
// archive is empty.
func (m *Manifest) LastID() int {
	return m.FirstID + m.Games - 1
}

// WriteManifest stores the manifest in s.
func WriteManifest(ctx context.Context, s store.Store, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := s.WriteManifest(ctx, data); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest from s. It returns store.ErrNotFound when
// nothing has been imported.
func ReadManifest(ctx context.Context, s store.Store) (*Manifest, error) {
	data, err := s.ReadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}
