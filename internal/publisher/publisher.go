// Package publisher copies finished videos to object storage.
package publisher

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nguyentantai21042004/noteflix/internal/config"
	"github.com/nguyentantai21042004/noteflix/internal/logger"
)

// Publisher uploads a job artifact and returns its remote location.
type Publisher interface {
	Publish(ctx context.Context, jobID, filePath string) (string, error)
	Enabled() bool
}

type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type s3Publisher struct {
	bucket   string
	prefix   string
	uploader uploader
	logger   logger.Logger
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, string) (string, error) { return "", nil }
func (nopPublisher) Enabled() bool                                            { return false }

// New returns an S3 publisher, or a disabled one when no bucket is configured.
func New(cfg config.S3Config, log logger.Logger) Publisher {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nopPublisher{}
	}

	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}

	return newWithUploader(cfg, manager.NewUploader(s3.New(opts)), log)
}

func newWithUploader(cfg config.S3Config, up uploader, log logger.Logger) *s3Publisher {
	return &s3Publisher{
		bucket:   cfg.Bucket,
		prefix:   strings.Trim(cfg.Prefix, "/"),
		uploader: up,
		logger:   log,
	}
}

func (p *s3Publisher) Enabled() bool { return true }

// Publish uploads filePath to <prefix>/<jobID>/<basename>.
func (p *s3Publisher) Publish(ctx context.Context, jobID, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	key := ObjectKey(p.prefix, jobID, filepath.Base(filePath))
	_, err = p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(filePath)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s to bucket %s: %w", key, p.bucket, err)
	}

	location := fmt.Sprintf("s3://%s/%s", p.bucket, key)
	p.logger.Info(ctx, "Published %s", location)
	return location, nil
}

// ObjectKey joins the key parts, skipping an empty prefix.
func ObjectKey(prefix, jobID, name string) string {
	return path.Join(prefix, jobID, name)
}

func contentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".vtt":
		return "text/vtt"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
