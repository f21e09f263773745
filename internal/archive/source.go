package archive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/macbase/macbase/internal/codec"
	"github.com/macbase/macbase/internal/codec/gzipcodec"
	"github.com/macbase/macbase/internal/codec/zstdcodec"
)

// DefaultResponseHeaderTimeout bounds the wait for a remote source to answer.
const DefaultResponseHeaderTimeout = 30 * time.Second

// Source is an opened PGN input, decompressed according to its name.
type Source struct {
	io.Reader

	// Size is the compressed size in bytes, or -1 when unknown.
	Size int64

	closers []io.Closer
}

// Close releases the decoder and the underlying file or response body.
func (s *Source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type sourceOptions struct {
	client *http.Client
}

// SourceOption configures OpenSource.
type SourceOption func(*sourceOptions)

// WithHTTPClient sets the client used for http and https sources.
func WithHTTPClient(c *http.Client) SourceOption {
	return func(o *sourceOptions) { o.client = c }
}

// OpenSource opens a local file or an http(s) URL. Names ending in .zst or
// .gz are decompressed on the fly.
func OpenSource(ctx context.Context, name string, opts ...SourceOption) (*Source, error) {
	o := sourceOptions{
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: DefaultResponseHeaderTimeout,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(&o)
	}

	var (
		body io.ReadCloser
		size int64 = -1
	)
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, name, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := o.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("downloading: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("downloading %s: unexpected status: %s", name, resp.Status)
		}
		body, size = resp.Body, resp.ContentLength
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, err
		}
		if info, err := f.Stat(); err == nil {
			size = info.Size()
		}
		body = f
	}

	src := &Source{Reader: body, Size: size, closers: []io.Closer{body}}
	c := sourceCodec(name)
	if c == nil {
		return src, nil
	}
	dec, err := c.Reader(body)
	if err != nil {
		body.Close()
		return nil, fmt.Errorf("opening %s stream: %w", c.Name(), err)
	}
	src.Reader = dec
	src.closers = append(src.closers, dec)
	return src, nil
}

func sourceCodec(name string) codec.Codec {
	// Drop any query string of a URL.
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	switch {
	case strings.HasSuffix(name, ".zst"):
		return zstdcodec.New()
	case strings.HasSuffix(name, ".gz"):
		return gzipcodec.New()
	}
	return nil
}
