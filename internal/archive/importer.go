package archive

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/store"
)

// Importer writes the games of a PGN stream into a store.
type Importer struct {
	store     store.Store
	codecName string
	firstID   int
	workers   int
	progress  ProgressFunc
	interval  time.Duration
	logger    *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithCodecName records the store's codec in the manifest.
func WithCodecName(name string) Option {
	return func(im *Importer) { im.codecName = name }
}

// WithFirstID sets the ID of the first imported game.
func WithFirstID(id int) Option {
	return func(im *Importer) { im.firstID = id }
}

// WithWorkers sets the number of concurrent store writes.
func WithWorkers(n int) Option {
	return func(im *Importer) {
		if n >= 1 {
			im.workers = n
		}
	}
}

// WithProgress sets the progress callback and its minimum interval.
func WithProgress(fn ProgressFunc, interval time.Duration) Option {
	return func(im *Importer) {
		im.progress = fn
		im.interval = interval
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) { im.logger = l }
}

// NewImporter creates an Importer writing to s.
func NewImporter(s store.Store, opts ...Option) *Importer {
	im := &Importer{
		store:     s,
		codecName: "zstd",
		firstID:   1,
		workers:   4,
		progress:  func(Progress) {},
		interval:  time.Second,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	im.logger = im.logger.Named("archive")
	return im
}

// Import splits r into games and writes each one that has at least one
// move or comment. Games without moves are counted as skipped and do not
// consume an ID. On success the manifest is written and returned; on
// failure games already written stay in the store without a manifest.
func (im *Importer) Import(ctx context.Context, r io.Reader, source string) (*Manifest, error) {
	start := time.Now()
	var read atomic.Int64
	sc := NewScanner(newProgressReader(r, &read))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)

	next, skipped := im.firstID, 0
	lastReport := start
	for gctx.Err() == nil && sc.Scan() {
		text := sc.Game()
		if macbase.ParsePGN(text).Empty() {
			skipped++
			im.logger.Debug("skipping game without moves", zap.Int("game", sc.Count()))
			continue
		}

		id := next
		next++
		g.Go(func() error {
			if err := im.store.WriteGame(gctx, id, []byte(text+"\n")); err != nil {
				return fmt.Errorf("writing game %d: %w", id, err)
			}
			return nil
		})

		if now := time.Now(); now.Sub(lastReport) >= im.interval {
			lastReport = now
			im.progress(Progress{Phase: "import", BytesRead: read.Load(), Games: next - im.firstID, Skipped: skipped, StartTime: start})
		}
	}

	err := g.Wait()
	if err == nil {
		err = sc.Err()
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		im.progress(Progress{Phase: "error", Error: err, StartTime: start})
		return nil, err
	}

	m := &Manifest{
		Version:   ManifestVersion,
		Games:     next - im.firstID,
		FirstID:   im.firstID,
		Skipped:   skipped,
		Codec:     im.codecName,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if err := WriteManifest(ctx, im.store, m); err != nil {
		im.progress(Progress{Phase: "error", Error: err, StartTime: start})
		return nil, err
	}

	im.progress(Progress{Phase: "done", BytesRead: read.Load(), Games: m.Games, Skipped: skipped, StartTime: start})
	im.logger.Info("import finished",
		zap.String("source", source),
		zap.Int("games", m.Games),
		zap.Int("skipped", skipped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return m, nil
}
