// Package s3 issues pre-signed object URLs against an S3-compatible bucket.
package s3

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Config struct {
	Region     string
	BucketName string
	// Endpoint points at an S3-compatible service (MinIO, LocalStack). Empty
	// means AWS; requests then use virtual-hosted addressing.
	Endpoint string
	// Static credentials, mainly for tests and local stacks. When empty the
	// default AWS credential chain is used.
	AccessKeyID     string
	SecretAccessKey string
}

// Presigner implements ports.ObjectStorage.
type Presigner struct {
	bucket   string
	region   string
	endpoint string
	presign  *s3.PresignClient
}

func New(ctx context.Context, cfg Config) (*Presigner, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &Presigner{
		bucket:   cfg.BucketName,
		region:   cfg.Region,
		endpoint: endpoint,
		presign:  s3.NewPresignClient(client),
	}, nil
}

// PresignPut returns a URL that accepts a single PUT of key with the given
// content type until ttl elapses.
func (p *Presigner) PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign put %s: %w", key, err)
	}
	return req.URL, nil
}

func (p *Presigner) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := p.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// ObjectURL is the unsigned address of key. It is derived, never stored.
func (p *Presigner) ObjectURL(key string) string {
	escaped := escapeKey(key)
	if p.endpoint != "" {
		return p.endpoint + "/" + p.bucket + "/" + escaped
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, escaped)
}

// escapeKey escapes each path segment and keeps the separators.
func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
