package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joho/godotenv"
	"github.com/klauspost/compress/zstd"
)

// zstdSuffix marks objects stored zstd-compressed.
const zstdSuffix = ".zst"

// S3Client abstracts S3 object retrieval for testability.
type S3Client interface {
	// GetObject fetches an object from S3 by bucket and key.
	// The caller must close the returned ReadCloser.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// liveS3Client adapts the SDK client to S3Client.
type liveS3Client struct {
	client *s3.Client
}

func (c *liveS3Client) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// NewS3Client builds an S3Client from the default AWS credential chain.
func NewS3Client(ctx context.Context, region string) (S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config for S3 (region=%s): %w", region, err)
	}
	return &liveS3Client{client: s3.NewFromConfig(cfg)}, nil
}

// S3Provider loads a KEY=VALUE config object from S3.
type S3Provider struct {
	client S3Client
	logger *slog.Logger
}

// NewS3Provider wraps client.
func NewS3Provider(client S3Client, logger *slog.Logger) *S3Provider {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Provider{client: client, logger: logger}
}

// Load fetches the object at rawURL (s3://bucket/key) and parses it with
// godotenv. Objects whose key ends in .zst are decompressed first.
func (p *S3Provider) Load(ctx context.Context, rawURL string) (MapSource, error) {
	bucket, key, err := parseS3URL(rawURL)
	if err != nil {
		return nil, err
	}

	body, err := p.client.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: fmt.Sprintf("failed to fetch config object %s", rawURL),
			Err:     err,
		}
	}
	defer body.Close()

	var r io.Reader = body
	if strings.HasSuffix(key, zstdSuffix) {
		dec, err := zstd.NewReader(body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, &ConfigError{
				Type:    ErrParsing,
				Message: fmt.Sprintf("failed to open zstd stream for %s", rawURL),
				Err:     err,
			}
		}
		defer dec.Close()
		r = dec
	}

	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: fmt.Sprintf("failed to parse config object %s", rawURL),
			Err:     err,
		}
	}

	p.logger.Debug("config object loaded", "bucket", bucket, "key", key, "keys", len(values))
	return MapSource(values), nil
}

// parseS3URL splits s3://bucket/key.
func parseS3URL(rawURL string) (bucket, key string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "s3" || u.Host == "" || strings.TrimPrefix(u.Path, "/") == "" {
		return "", "", &ConfigError{
			Type:    ErrParsing,
			Message: fmt.Sprintf("invalid S3 URL %q: want s3://bucket/key", rawURL),
			Err:     err,
		}
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}
