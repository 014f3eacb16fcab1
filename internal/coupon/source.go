package coupon

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"coffee-shop/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source opens named coupon code files.
type Source interface {
	// Open returns the raw (still gzipped) contents of name.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Describe names the source in logs, e.g. "s3://bucket/prefix".
	Describe() string
}

// validSourceName rejects names that are empty or would step outside the
// directory or prefix a source is rooted at.
func validSourceName(name string) error {
	if name == "" || !filepath.IsLocal(name) {
		return model.NewDomainError(model.ErrCodeInvalidArgument,
			fmt.Sprintf("Invalid coupon source %q", name))
	}
	return nil
}

// dirSource reads code files from a local import directory.
type dirSource struct {
	dir string
}

// NewDirSource creates a source rooted at dir.
func NewDirSource(dir string) Source {
	return &dirSource{dir: dir}
}

func (s *dirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := validSourceName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open coupon file %s: %w", name, err)
	}
	return f, nil
}

func (s *dirSource) Describe() string {
	return "dir://" + s.dir
}

// ObjectGetter is the part of the S3 client a bucket source uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// bucketSource reads code files stored under a key prefix in an S3 bucket.
type bucketSource struct {
	client ObjectGetter
	bucket string
	prefix string
}

// NewBucketSource creates a source over an existing S3 client. Names are
// joined onto prefix with a slash.
func NewBucketSource(client ObjectGetter, bucket, prefix string) Source {
	return &bucketSource{client: client, bucket: bucket, prefix: prefix}
}

// NewS3Source builds an S3 client for region from the default AWS
// credential chain and wraps it in a bucket source.
func NewS3Source(ctx context.Context, bucket, region, prefix string) (Source, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	return NewBucketSource(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *bucketSource) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return path.Join(s.prefix, name)
}

func (s *bucketSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validSourceName(name); err != nil {
		return nil, err
	}
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", s.bucket, key, err)
	}
	return out.Body, nil
}

func (s *bucketSource) Describe() string {
	return "s3://" + path.Join(s.bucket, s.prefix)
}
