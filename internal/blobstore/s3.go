package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of *s3.Client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config describes the bucket photos are written to.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint (MinIO, LocalStack). Path-style
	// addressing is used when it is set.
	Endpoint string
	// PublicBaseURL prefixes object keys to build download URLs. Defaults to
	// the virtual-hosted bucket URL.
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

// S3 is a Store backed by an S3-compatible bucket.
type S3 struct {
	api     S3API
	bucket  string
	baseURL string
}

var _ Store = (*S3)(nil)

// NewS3 loads AWS configuration (static keys when given, otherwise the
// default credential chain) and returns a bucket-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blobstore.NewS3: bucket is required")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blobstore.NewS3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3WithClient(client, cfg.Bucket, publicBaseURL(cfg)), nil
}

// NewS3WithClient wraps an existing client. baseURL is the prefix object keys
// are appended to when building URLs.
func NewS3WithClient(api S3API, bucket, baseURL string) *S3 {
	return &S3{api: api, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

func publicBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Upload buffers body so the SDK can compute the payload checksum and length.
func (s *S3) Upload(ctx context.Context, path string, body io.Reader, contentType string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("blobstore.S3.Upload: read body: %w", err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(cleanKey(path)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("blobstore.S3.Upload %s: %w", path, err)
	}
	return nil
}

func (s *S3) URL(_ context.Context, path string) (string, error) {
	return s.baseURL + "/" + escapeKey(cleanKey(path)), nil
}

func (s *S3) Delete(ctx context.Context, ref string) error {
	key := s.KeyFromRef(ref)
	if key == "" {
		return fmt.Errorf("blobstore.S3.Delete: empty key for %q", ref)
	}

	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blobstore.S3.Delete %s: %w", key, err)
	}
	return nil
}

// KeyFromRef turns a URL produced by URL, or a bare path, back into an
// object key.
func (s *S3) KeyFromRef(ref string) string {
	if rest, ok := strings.CutPrefix(ref, s.baseURL+"/"); ok {
		if unescaped, err := url.PathUnescape(rest); err == nil {
			return cleanKey(unescaped)
		}
		return cleanKey(rest)
	}
	return cleanKey(ref)
}

func cleanKey(path string) string {
	return strings.TrimLeft(path, "/")
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
