// Package archive imports multi-game PGN files into a game store and opens
// the configured store.
//
// Games are numbered consecutively from the manifest's FirstID in input
// order. The manifest is written last, so an archive with a manifest is
// complete.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/macbase/macbase/internal/codec"
	"github.com/macbase/macbase/internal/codec/gzipcodec"
	"github.com/macbase/macbase/internal/codec/noopcodec"
	"github.com/macbase/macbase/internal/codec/zstdcodec"
	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/stats"
	"github.com/macbase/macbase/internal/store"
	"github.com/macbase/macbase/internal/store/cachedstore"
	"github.com/macbase/macbase/internal/store/cachedstore/cachestrategy/lru"
	"github.com/macbase/macbase/internal/store/cachedstore/memory"
	"github.com/macbase/macbase/internal/store/diskstore"
	"github.com/macbase/macbase/internal/store/gcsstore"
	"github.com/macbase/macbase/internal/store/memstore"
	"github.com/macbase/macbase/internal/store/s3store"
)

// ErrUnknownCodec indicates a codec name other than zstd, gzip or none.
var ErrUnknownCodec = errors.New("archive: unknown codec")

// CodecByName returns the codec recorded in manifests under name. The empty
// string selects zstd.
func CodecByName(name string) (codec.Codec, error) {
	switch name {
	case "", "zstd":
		return zstdcodec.New(), nil
	case "gzip":
		return gzipcodec.New(), nil
	case "none":
		return noopcodec.New(), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// Open returns the store described by cfg, wrapped with a game cache when
// cfg.CacheSize is positive. The cache also holds at most cfg.CacheBytes of
// PGN when that is positive. Reads and writes are counted on sc.
func Open(ctx context.Context, cfg config.Archive, sc stats.Collector, logger *zap.Logger) (store.Store, error) {
	if sc == nil {
		sc = stats.NewNoop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := CodecByName(cfg.Codec)
	if err != nil {
		return nil, err
	}

	var s store.Store
	switch cfg.Backend {
	case "disk", "":
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("creating archive directory: %w", err)
		}
		s, err = diskstore.New(cfg.Path, c)
	case "gcs":
		s, err = gcsstore.New(ctx, cfg.Bucket, c, gcsstore.WithPrefix(cfg.Prefix))
	case "s3":
		opts := []s3store.Option{s3store.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3store.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3store.WithEndpoint(cfg.Endpoint))
		}
		s, err = s3store.New(ctx, cfg.Bucket, c, opts...)
	case "memory":
		s = memstore.New()
	default:
		return nil, fmt.Errorf("archive: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s archive: %w", cfg.Backend, err)
	}

	var cache *cachedstore.Store
	if cfg.CacheSize > 0 {
		strategy, err := lru.New(cfg.CacheSize, cfg.CacheBytes)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("creating archive cache: %w", err)
		}
		cache = cachedstore.New(s, memory.New(strategy, sc))
		s = cache
	}

	logger.Debug("archive opened",
		zap.String("backend", cfg.Backend),
		zap.String("codec", c.Name()),
		zap.Int("cache_size", cfg.CacheSize),
		zap.Int64("cache_bytes", cfg.CacheBytes),
	)
	return &metered{Store: s, cache: cache, stats: sc, logger: logger}, nil
}

// metered counts game reads and writes.
type metered struct {
	store.Store
	cache  *cachedstore.Store
	stats  stats.Collector
	logger *zap.Logger
}

// Close reports how the game cache did and closes the store.
func (m *metered) Close() error {
	if m.cache != nil {
		cs := m.cache.Stats()
		m.logger.Info("archive cache",
			zap.Int64("hits", cs.Hits),
			zap.Int64("misses", cs.Misses),
			zap.Float64("hit_rate", cs.HitRate()),
			zap.Int("games", cs.Games),
			zap.Int64("bytes", cs.Bytes),
		)
	}
	return m.Store.Close()
}

func (m *metered) ReadGame(ctx context.Context, id int) ([]byte, error) {
	data, err := m.Store.ReadGame(ctx, id)
	if err == nil {
		m.stats.IncCounter(stats.MetricArchiveReads, 1)
	}
	return data, err
}

func (m *metered) WriteGame(ctx context.Context, id int, pgn []byte) error {
	err := m.Store.WriteGame(ctx, id, pgn)
	if err == nil {
		m.stats.IncCounter(stats.MetricArchiveWrites, 1)
	}
	return err
}
