package artifact

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wader/mpowiggle/internal/metrics"
)

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// Prefix is prepended to object keys
	Prefix string

	PresignExpiry time.Duration
}

// MinIOSink uploads artifacts and returns a presigned download URL
type MinIOSink struct {
	client *miniogo.Client
	cfg    MinIOConfig
}

func NewMinIOSink(cfg MinIOConfig) (*MinIOSink, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 24 * time.Hour
	}
	return &MinIOSink{client: client, cfg: cfg}, nil
}

// EnsureBucket creates the bucket if missing
func (s *MinIOSink) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.cfg.Bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.cfg.Bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("create bucket %s: %w", s.cfg.Bucket, err)
		}
	}
	return nil
}

// ObjectKey is the key name is stored under
func (s *MinIOSink) ObjectKey(name string) string {
	return path.Join(s.cfg.Prefix, path.Base(name))
}

func (s *MinIOSink) Put(ctx context.Context, name string, contentType string, data []byte) (string, error) {
	key := s.ObjectKey(name)
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)), miniogo.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	metrics.ArtifactBytesTotal.WithLabelValues("minio").Add(float64(len(data)))

	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, key, s.cfg.PresignExpiry, params)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return u.String(), nil
}
