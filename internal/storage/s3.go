package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/sethvargo/go-retry"

	"github.com/eventara/certgen/internal/common"
	"github.com/eventara/certgen/internal/logging"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
)

const (
	s3MaxRetries = 3
	s3RetryBase  = 200 * time.Millisecond
)

// s3API is the slice of the S3 client the store actually calls.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures the blob tier. Endpoint and credentials follow the
// MinIO-style static setup; leave them empty to fall back to the default
// AWS credential chain.
type S3Options struct {
	Endpoint          string
	Region            string
	AccessKey         string
	SecretKey         string
	Bucket            string
	UsePathStyle      bool
	CompressThreshold int
	URLClockSkew      time.Duration
}

// S3Store is the blob tier. Object bytes above the compression threshold
// are gzipped before upload with the suffix marker appended to the stored
// name; signed download URLs are widened by the configured clock skew.
type S3Store struct {
	client    s3API
	presigner s3Presigner
	bucket    string
	region    string
	threshold int
	skew      time.Duration
	log       logging.Logger

	mu          sync.Mutex
	provisioned bool
}

var _ ObjectStore = (*S3Store)(nil)

// NewS3Store builds the blob tier client. The bucket is provisioned lazily
// on first use, not here, so construction works while the backend is down.
func NewS3Store(ctx context.Context, opts S3Options, log logging.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3: bucket name is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})

	threshold := opts.CompressThreshold
	if threshold <= 0 {
		threshold = DefaultCompressThreshold
	}

	return &S3Store{
		client:    client,
		presigner: newS3PresignClient(client),
		bucket:    opts.Bucket,
		region:    opts.Region,
		threshold: threshold,
		skew:      opts.URLClockSkew,
		log:       log,
	}, nil
}

func (s *S3Store) Put(ctx context.Context, name string, data []byte, meta Metadata) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	stored, payload, err := maybeCompress(name, data, s.threshold)
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", name, err)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(stored),
	}
	if meta.ContentType != "" {
		in.ContentType = aws.String(meta.ContentType)
	}
	if stored != name {
		in.ContentEncoding = aws.String("gzip")
	}
	if meta.OriginalFileName != "" {
		in.Metadata = map[string]string{"original-filename": meta.OriginalFileName}
	}

	err = s.withRetry(ctx, func(ctx context.Context) error {
		in.Body = bytes.NewReader(payload)
		if _, err := s.client.PutObject(ctx, in); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("s3: put %s: %w", stored, err)
	}

	return stored, nil
}

func (s *S3Store) Get(ctx context.Context, name string) ([]byte, error) {
	if strings.HasSuffix(name, CompressedSuffix) {
		data, err := s.fetch(ctx, name)
		if err != nil {
			return nil, err
		}
		return decompress(data)
	}

	data, err := s.fetch(ctx, name)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	// The object may have been stored compressed under the marker name.
	zdata, zerr := s.fetch(ctx, name+CompressedSuffix)
	if zerr != nil {
		return nil, err
	}
	return decompress(zdata)
}

func (s *S3Store) fetch(ctx context.Context, key string) ([]byte, error) {
	var data []byte

	err := s.withRetry(ctx, func(ctx context.Context) error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			if errors.As(err, &noKey) {
				return fmt.Errorf("%w: %s", common.ErrNotFound, key)
			}
			return retry.RetryableError(err)
		}
		defer out.Body.Close()

		b, err := io.ReadAll(out.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		data = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return data, nil
}

func (s *S3Store) Delete(ctx context.Context, name string) bool {
	deleted := false
	for _, key := range deleteCandidates(name) {
		ok, err := s.exists(ctx, key)
		if err != nil || !ok {
			continue
		}
		_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			s.log.Warn(ctx, "blob delete failed", "object", key, "error", err)
			continue
		}
		deleted = true
	}
	return deleted
}

func deleteCandidates(name string) []string {
	if strings.HasSuffix(name, CompressedSuffix) {
		return []string{name}
	}
	return []string{name, name + CompressedSuffix}
}

func (s *S3Store) exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SecureURL issues a read-only presigned link. Validity is ttl plus the
// clock-skew allowance, so a client whose clock runs slightly ahead of the
// backend's still gets a usable link.
func (s *S3Store) SecureURL(ctx context.Context, name string, ttl time.Duration) (string, error) {
	key, err := s.resolveStored(ctx, name)
	if err != nil {
		return "", err
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl+s.skew))
	if err != nil {
		return "", fmt.Errorf("s3: presign %s: %w", key, err)
	}

	return req.URL, nil
}

func (s *S3Store) resolveStored(ctx context.Context, name string) (string, error) {
	ok, err := s.exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("s3: head %s: %w", name, err)
	}
	if ok {
		return name, nil
	}

	if !strings.HasSuffix(name, CompressedSuffix) {
		zname := name + CompressedSuffix
		ok, err = s.exists(ctx, zname)
		if err != nil {
			return "", fmt.Errorf("s3: head %s: %w", zname, err)
		}
		if ok {
			return zname, nil
		}
	}

	return "", fmt.Errorf("%w: %s", common.ErrNotFound, name)
}

func (s *S3Store) ListPrefix(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	var token *string

	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("s3: list %s: %w", prefix, err)
		}

		for _, obj := range out.Contents {
			names = append(names, aws.ToString(obj.Key))
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		token = out.NextContinuationToken
	}

	return names, nil
}

func (s *S3Store) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provisioned {
		return nil
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		s.provisioned = true
		return nil
	}

	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("s3: head bucket %s: %w", s.bucket, err)
	}

	in := &s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	if s.region != "" && s.region != "us-east-1" {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if !errors.As(err, &owned) && !errors.As(err, &exists) {
			return fmt.Errorf("s3: create bucket %s: %w", s.bucket, err)
		}
	}

	s.log.Info(ctx, "blob bucket provisioned", "bucket", s.bucket)
	s.provisioned = true
	return nil
}

func (s *S3Store) withRetry(ctx context.Context, op func(context.Context) error) error {
	backoff := retry.WithMaxRetries(s3MaxRetries, retry.NewExponential(s3RetryBase))
	return retry.Do(ctx, backoff, op)
}
