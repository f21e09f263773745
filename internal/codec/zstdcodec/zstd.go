// Package zstdcodec provides a zstd compression codec.
package zstdcodec

import (
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/macbase/macbase/internal/codec"
)

// Compile-time check that Codec implements codec.Codec.
var _ codec.Codec = (*Codec)(nil)

// Codec implements zstd compression.
type Codec struct {
	level zstd.EncoderLevel
}

// New returns a zstd codec using the default compression level.
func New() *Codec {
	return &Codec{level: zstd.SpeedDefault}
}

// NewWithLevel returns a zstd codec using the given level, 1 (fastest)
// through 4 (best compression).
func NewWithLevel(level int) *Codec {
	return &Codec{level: zstd.EncoderLevelFromZstd(zstdLevel(level))}
}

// zstdLevel maps our 1..4 scale onto the zstd scale the library understands.
func zstdLevel(level int) int {
	switch {
	case level <= 1:
		return 1
	case level == 2:
		return 3
	case level == 3:
		return 7
	default:
		return 11
	}
}

// Name returns "zstd".
func (c *Codec) Name() string {
	return "zstd"
}

// Reader wraps r to decompress zstd data. Games are small, so the decoder
// runs single-threaded.
func (c *Codec) Reader(r io.Reader) (io.ReadCloser, error) {
	decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return decoder.IOReadCloser(), nil
}

// Writer wraps w to compress data with zstd.
func (c *Codec) Writer(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w, zstd.WithEncoderLevel(c.level), zstd.WithEncoderConcurrency(1))
}

// Extension returns "zst".
func (c *Codec) Extension() string {
	return "zst"
}
