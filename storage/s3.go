package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"planos_scrooper/models"
)

// S3Config holds configuration for S3-compatible storage
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // Optional: for DO Spaces, R2, MinIO
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Exporter copies a run's CSV files to S3-compatible storage.
type S3Exporter struct {
	client objectPutter
	bucket string
	prefix string
}

func NewS3Exporter(ctx context.Context, cfg S3Config) (*S3Exporter, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	var client *s3.Client
	if cfg.Endpoint != "" {
		client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	} else {
		client = s3.NewFromConfig(awsCfg)
	}

	return &S3Exporter{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// ObjectKey is <prefix>/<site>/<YYYY-MM-DD>/<file name>.
func (e *S3Exporter) ObjectKey(siteID string, day time.Time, file string) string {
	return path.Join(strings.Trim(e.prefix, "/"), siteID, day.Format(models.DateLayout), filepath.Base(file))
}

// ExportFiles uploads every existing file in files and returns the keys
// written. Missing files are skipped.
func (e *S3Exporter) ExportFiles(ctx context.Context, siteID string, day time.Time, files []string) ([]string, error) {
	var keys []string
	for _, file := range files {
		f, err := os.Open(file)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return keys, err
		}

		key := e.ObjectKey(siteID, day, file)
		err = e.Upload(ctx, key, f, "text/csv")
		f.Close()
		if err != nil {
			return keys, fmt.Errorf("upload %s: %w", file, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// Upload uploads data to S3 with the given key
func (e *S3Exporter) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        data,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}
