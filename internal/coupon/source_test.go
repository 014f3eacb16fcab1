package coupon

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 serves objects from memory.
type fakeS3 struct {
	objects   map[string][]byte
	gotBucket string
	gotKey    string
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gotBucket = aws.ToString(params.Bucket)
	f.gotKey = aws.ToString(params.Key)
	data, ok := f.objects[f.gotKey]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestDirSource_Open(t *testing.T) {
	dir := t.TempDir()
	createTestCouponFile(t, dir, "spring.gz", []string{"SPRING1"})
	src := NewDirSource(dir)

	rc, err := src.Open(context.Background(), "spring.gz")
	require.NoError(t, err)
	defer rc.Close()

	set, err := readCodes(context.Background(), rc)
	require.NoError(t, err)
	assert.True(t, set.Contains("SPRING1"))

	_, err = src.Open(context.Background(), "missing.gz")
	assert.Error(t, err)

	_, err = src.Open(context.Background(), "../spring.gz")
	assert.Error(t, err)
}

func TestBucketSource_KeyPrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantKey string
	}{
		{name: "prefix with trailing slash", prefix: "coupons/", wantKey: "coupons/file.gz"},
		{name: "prefix without trailing slash", prefix: "coupons", wantKey: "coupons/file.gz"},
		{name: "empty prefix", prefix: "", wantKey: "file.gz"},
		{name: "nested prefix", prefix: "data/coupons/prod/", wantKey: "data/coupons/prod/file.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeS3{objects: map[string][]byte{tt.wantKey: gzipped(t, "S3CODE")}}
			src := NewBucketSource(client, "shop-bucket", tt.prefix)

			rc, err := src.Open(context.Background(), "file.gz")

			require.NoError(t, err)
			rc.Close()
			assert.Equal(t, "shop-bucket", client.gotBucket)
			assert.Equal(t, tt.wantKey, client.gotKey)
		})
	}
}

func TestBucketSource_MissingObject(t *testing.T) {
	src := NewBucketSource(&fakeS3{}, "shop-bucket", "coupons")

	_, err := src.Open(context.Background(), "missing.gz")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://shop-bucket/coupons/missing.gz")
	assert.Equal(t, "s3://shop-bucket/coupons", src.Describe())
}

func TestLoader_S3ThenDirectory(t *testing.T) {
	dir := t.TempDir()
	createTestCouponFile(t, dir, "partner.gz", []string{"LOCAL-1"})

	loader := NewLoader(zerolog.Nop(), NewBucketSource(&fakeS3{}, "shop-bucket", "coupons"), NewDirSource(dir))

	set, err := loader.Load(context.Background(), "partner.gz")

	require.NoError(t, err)
	assert.Equal(t, []string{"LOCAL-1"}, set.Codes())
}
