package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Adapter implements Storage using AWS S3.
type S3Adapter struct {
	client *s3.Client
}

// S3Options configures S3 client initialization.
type S3Options struct {
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	SessionToken string
	// UsePathStyle forces path-style addressing (localstack, ceph).
	UsePathStyle bool
}

// NewS3 constructs an S3 adapter with the provided options.
func NewS3(ctx context.Context, opts S3Options) (*S3Adapter, error) {
	var cfgOpts []func(*config.LoadOptions) error
	switch {
	case opts.Region != "":
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	case opts.Endpoint != "":
		cfgOpts = append(cfgOpts, config.WithRegion("us-east-1"))
	}
	if opts.AccessKey != "" || opts.SecretKey != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, opts.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("storage: s3 load config: %w", err)
	}

	return &S3Adapter{client: s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})}, nil
}

// PutObject stores data in S3 and returns metadata.
func (s *S3Adapter) PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error) {
	input := &s3.PutObjectInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		Body:     r,
		Metadata: opts.Metadata,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}
	if opts.Size > 0 {
		input.ContentLength = aws.Int64(opts.Size)
	}

	out, err := s.client.PutObject(ctx, input)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("storage: s3 put %s/%s: %w", bucket, key, err)
	}
	info := s3Head{etag: out.ETag, metadata: opts.Metadata}.info(bucket, key)
	info.Size = max(opts.Size, 0)
	info.ContentType = opts.ContentType
	return info, nil
}

// GetObject opens an S3 object.
func (s *S3Adapter) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, ObjectInfo{}, s3Error(err)
	}
	info := s3Head{out.ContentLength, out.ETag, out.ContentType, out.Metadata, out.LastModified}.info(bucket, key)
	return out.Body, info, nil
}

// StatObject issues a HEAD request.
func (s *S3Adapter) StatObject(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return ObjectInfo{}, s3Error(err)
	}
	return s3Head{out.ContentLength, out.ETag, out.ContentType, out.Metadata, out.LastModified}.info(bucket, key), nil
}

// s3Head holds the response fields shared by GetObject and HeadObject.
type s3Head struct {
	size        *int64
	etag        *string
	contentType *string
	metadata    map[string]string
	modified    *time.Time
}

func (h s3Head) info(bucket, key string) ObjectInfo {
	return ObjectInfo{
		Bucket:      bucket,
		Key:         key,
		Size:        aws.ToInt64(h.size),
		ETag:        strings.Trim(aws.ToString(h.etag), `"`),
		ContentType: aws.ToString(h.contentType),
		Metadata:    h.metadata,
		UpdatedAt:   aws.ToTime(h.modified),
	}
}

// ListObjects pages through the bucket. MaxKeys is capped by limit so a
// bounded listing stops after the first page that fills it.
func (s *S3Adapter) ListObjects(ctx context.Context, bucket, prefix string, limit int) ([]ObjectInfo, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(bucket), Prefix: aws.String(prefix)}
	if limit > 0 && limit < 1000 {
		input.MaxKeys = aws.Int32(int32(limit)) //nolint:gosec // bounded above
	}

	var objects []ObjectInfo
	for pager := s3.NewListObjectsV2Paginator(s.client, input); pager.HasMorePages(); {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, s3Error(err)
		}
		for _, obj := range page.Contents {
			objects = append(objects, ObjectInfo{
				Bucket:    bucket,
				Key:       aws.ToString(obj.Key),
				Size:      aws.ToInt64(obj.Size),
				ETag:      strings.Trim(aws.ToString(obj.ETag), `"`),
				UpdatedAt: aws.ToTime(obj.LastModified),
			})
			if limit > 0 && len(objects) == limit {
				return objects, nil
			}
		}
	}
	return objects, nil
}

// Close is a no-op; the SDK client holds no connections of its own.
func (*S3Adapter) Close() error { return nil }

func s3Error(err error) error {
	var noKey *types.NoSuchKey
	var noBucket *types.NoSuchBucket
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &noBucket) || errors.As(err, &notFound) {
		return fmt.Errorf("%w: %w", ErrObjectNotFound, err)
	}
	return err
}
