package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/tenderscan/internal/logger"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// objectPrefix groups failed-page objects within the bucket.
const objectPrefix = "failed"

// MinioConfig holds MinIO object storage configuration.
type MinioConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	// Region, when set, skips the bucket-location lookup on first use.
	Region string `yaml:"region"`
	UseSSL bool   `yaml:"use_ssl"`
}

// MinioArchiver uploads failed-page artifacts to MinIO object storage.
type MinioArchiver struct {
	client *miniogo.Client
	bucket string
	log    logger.Interface
}

// NewMinioArchiver creates a MinIO-backed archiver.
func NewMinioArchiver(cfg MinioConfig, log logger.Interface) (*MinioArchiver, error) {
	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	log.Info("MinIO archiver initialized", "endpoint", cfg.Endpoint, "bucket", cfg.Bucket)

	return &MinioArchiver{client: client, bucket: cfg.Bucket, log: log}, nil
}

// SavePage uploads the page body as a text/html object keyed by URL hash and
// timestamp, with the source URL and fetch time in object metadata.
func (a *MinioArchiver) SavePage(ctx context.Context, pageURL string, body []byte) error {
	now := time.Now()
	objectKey := fmt.Sprintf("%s/%s/%s", objectPrefix, now.Format("2006/01/02"), artifactName(pageURL, now))

	_, err := a.client.PutObject(
		ctx,
		a.bucket,
		objectKey,
		bytes.NewReader(body),
		int64(len(body)),
		miniogo.PutObjectOptions{
			ContentType: "text/html; charset=utf-8",
			UserMetadata: map[string]string{
				"url":        pageURL,
				"fetched-at": now.Format(time.RFC3339),
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to upload page: %w", err)
	}

	a.log.Debug("uploaded failed page", "object_key", objectKey, "size", len(body), "url", pageURL)

	return nil
}
