package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"parisdash/internal/config"
)

// ErrDisabled is returned by New when no bucket is configured
var ErrDisabled = errors.New("publishing is disabled: no bucket configured")

// ObjectPutter is the part of the S3 client used to upload
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Publisher uploads local files to one bucket
type Publisher struct {
	client ObjectPutter
	bucket string
	prefix string
	logger *slog.Logger
}

// New creates an S3 client from cfg. A custom endpoint switches to
// path-style addressing for S3-compatible stores.
func New(ctx context.Context, cfg config.PublishConfig, logger *slog.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithClient(client, cfg.Bucket, cfg.Prefix, logger), nil
}

// NewWithClient creates a publisher around an existing client
func NewWithClient(client ObjectPutter, bucket, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client: client,
		bucket: strings.TrimSpace(bucket),
		prefix: strings.Trim(prefix, "/ "),
		logger: logger.With(slog.String("component", "publish")),
	}
}

// ObjectKey returns the key of a local file under prefix
func ObjectKey(prefix, file string) string {
	return path.Join(strings.Trim(prefix, "/ "), filepath.Base(file))
}

// Publish uploads files in order and returns the keys written. It stops at
// the first failure.
func (p *Publisher) Publish(ctx context.Context, files []string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		key, err := p.upload(ctx, file)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (p *Publisher) upload(ctx context.Context, file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", file, err)
	}

	key := ObjectKey(p.prefix, file)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		ContentType:   aws.String(contentType(file)),
	})
	if err != nil {
		return "", fmt.Errorf("upload s3://%s/%s: %w", p.bucket, key, err)
	}

	p.logger.InfoContext(ctx, "object_uploaded",
		slog.String("bucket", p.bucket),
		slog.String("key", key),
		slog.Int64("bytes", st.Size()))
	return key, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".db", ".sqlite":
		return "application/vnd.sqlite3"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}
