// Package s3store implements an AWS S3 storage backend.
package s3store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/macbase/macbase/internal/codec"
	"github.com/macbase/macbase/internal/store"
)

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// Store is an AWS S3 storage backend.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	codec  codec.Codec
}

// New creates a new S3 store.
// The bucket must already exist.
// The codec handles compression/decompression.
func New(ctx context.Context, bucketName string, c codec.Codec, opts ...Option) (*Store, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &Store{
		client: s3.NewFromConfig(cfg, o.clientOptions),
		bucket: bucketName,
		prefix: store.NormalizePrefix(o.prefix),
		codec:  c,
	}, nil
}

type options struct {
	prefix   string
	region   string
	endpoint string
}

func (o options) clientOptions(so *s3.Options) {
	if o.endpoint != "" {
		so.BaseEndpoint = aws.String(o.endpoint)
		so.UsePathStyle = true
	}
}

// Option configures a Store.
type Option func(*options)

// WithPrefix sets a key prefix for all operations.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *options) { o.region = region }
}

// WithEndpoint sets a custom endpoint (for S3-compatible services like MinIO).
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

// ReadGame reads and decompresses the given game.
func (s *Store) ReadGame(ctx context.Context, id int) ([]byte, error) {
	body, err := s.get(ctx, s.gameKey(id))
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := codec.Decode(s.codec, body)
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
	body, err := s.get(ctx, s.manifestKey())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
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
	// S3 client doesn't need explicit closing.
	return nil
}

func (s *Store) get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	return result.Body, nil
}

func (s *Store) put(ctx context.Context, key string, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
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
