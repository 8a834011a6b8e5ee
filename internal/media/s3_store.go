package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
)

type S3Options struct {
	Region        string
	Bucket        string
	Endpoint      string
	PublicBaseURL string
	MaxImageBytes int64
}

// S3ObjectStore keeps product images in an AWS S3 bucket. Credentials come
// from the default AWS chain.
type S3ObjectStore struct {
	client *s3.Client
	opts   S3Options
}

func NewS3ObjectStore(ctx context.Context, opts S3Options) (*S3ObjectStore, error) {
	if opts.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3ObjectStore{client: client, opts: opts}, nil
}

func (s *S3ObjectStore) Name() string { return "s3" }

func (s *S3ObjectStore) Upload(ctx context.Context, f File) (domain.ProductImage, error) {
	img, err := PrepareImage(f, s.opts.MaxImageBytes)
	if err != nil {
		return domain.ProductImage{}, err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.opts.Bucket),
		Key:           aws.String(img.Key),
		Body:          bytes.NewReader(img.Data),
		ContentLength: aws.Int64(img.Size()),
		ContentType:   aws.String(img.ContentType),
		Metadata:      map[string]string{"original-name": f.Name},
	})
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("put object: %w", err)
	}
	return domain.ProductImage{RemoteID: img.Key, URL: s.objectURL(img.Key)}, nil
}

func (s *S3ObjectStore) objectURL(key string) string {
	if s.opts.PublicBaseURL != "" {
		return publicURL(s.opts.PublicBaseURL, s.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}

func (s *S3ObjectStore) Release(ctx context.Context, remoteID string) error {
	if !validRemoteID(remoteID) {
		return ErrInvalidRemoteID
	}
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

func (s *S3ObjectStore) Ping(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.opts.Bucket)}); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreNotReady, err)
	}
	return nil
}
