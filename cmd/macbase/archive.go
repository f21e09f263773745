package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/macbase/macbase"
	"github.com/macbase/macbase/internal/archive"
	"github.com/macbase/macbase/internal/config"
	"github.com/macbase/macbase/internal/stats/logger"
	"github.com/macbase/macbase/internal/store"
)

// archiveFlags binds the archive flags shared by import and show.
var archiveFlags = map[string]string{
	"archive.path":    "archive",
	"archive.backend": "backend",
	"archive.bucket":  "bucket",
	"archive.prefix":  "prefix",
	"archive.codec":   "codec",
}

func addArchiveFlags(cmd *cobra.Command) {
	cmd.Flags().String("archive", "./archive", "archive directory (disk backend)")
	cmd.Flags().String("backend", "disk", "archive backend: disk, gcs, s3")
	cmd.Flags().String("bucket", "", "bucket name (gcs and s3 backends)")
	cmd.Flags().String("prefix", "", "object key prefix (gcs and s3 backends)")
	cmd.Flags().String("codec", "zstd", "compression of archived games: zstd, gzip, none")
}

var importCmd = &cobra.Command{
	Use:   "import FILE|URL",
	Short: "Import a multi-game PGN file into the archive",
	Long: `Split a PGN file or http(s) URL into games and store each game in the
archive under consecutive IDs. Sources ending in .zst or .gz are
decompressed on the fly.
Games without any move are skipped.

Examples:
  # Import into ./archive
  macbase import twic1500.pgn

  # Import into S3, numbering from 5001
  macbase import --backend s3 --bucket chess-games --first-id 5001 twic1501.pgn.zst`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var showCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show an archived game, or the archive manifest without ID",
	Long: `Read a game back from the archive and print its mainline, comments and
variations. Without ID, print the archive manifest.

Examples:
  macbase show
  macbase show 42
  macbase show --pgn 42`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

var (
	importFirstID int
	showJSON      bool
	showPGN       bool
)

func init() {
	addArchiveFlags(importCmd)
	importCmd.Flags().IntVar(&importFirstID, "first-id", 1, "ID of the first imported game")

	addArchiveFlags(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output the tree views as JSON")
	showCmd.Flags().BoolVar(&showPGN, "pgn", false, "output the stored PGN text")

	rootCmd.AddCommand(importCmd, showCmd)
}

func openArchive(ctx context.Context, cmd *cobra.Command) (store.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd, archiveFlags)
	if err != nil {
		return nil, nil, err
	}
	log, err := newLogger()
	if err != nil {
		return nil, nil, err
	}
	s, err := archive.Open(ctx, cfg.Archive, logger.New(log), log)
	if err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	src, err := archive.OpenSource(ctx, args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	s, cfg, err := openArchive(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.ErrOrStderr()
	fmt.Fprintf(out, "Importing PGN archive\n")
	fmt.Fprintf(out, "  Source:  %s\n", args[0])
	if src.Size >= 0 {
		fmt.Fprintf(out, "  Size:    %s\n", archive.FormatBytes(src.Size))
	}
	fmt.Fprintf(out, "  Backend: %s\n", cfg.Archive.Backend)
	fmt.Fprintf(out, "  Codec:   %s\n", cfg.Archive.Codec)
	fmt.Fprintf(out, "  Workers: %d\n\n", cfg.Archive.Workers)

	im := archive.NewImporter(s,
		archive.WithCodecName(cfg.Archive.Codec),
		archive.WithFirstID(importFirstID),
		archive.WithWorkers(cfg.Archive.Workers),
		archive.WithProgress(archive.PrintProgress(out), 500*time.Millisecond),
	)
	m, err := im.Import(ctx, src, path.Base(args[0]))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported games %d-%d\n", m.FirstID, m.LastID())
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, _, err := openArchive(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if len(args) == 0 {
		m, err := archive.ReadManifest(ctx, s)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errors.New("archive is empty; run 'macbase import' first")
			}
			return err
		}
		return printJSON(cmd.OutOrStdout(), m)
	}

	var id int
	if _, err := fmt.Sscan(args[0], &id); err != nil {
		return fmt.Errorf("invalid game ID %q", args[0])
	}
	text, err := s.ReadGame(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("game %d not found in archive", id)
		}
		return err
	}

	switch {
	case showPGN:
		_, err := cmd.OutOrStdout().Write(text)
		return err
	case showJSON:
		return printJSON(cmd.OutOrStdout(), macbase.ParsePGN(string(text)))
	}
	printTree(cmd.OutOrStdout(), macbase.ParsePGN(string(text)))
	return nil
}
