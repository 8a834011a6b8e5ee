package media

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
)

type MinIOOptions struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	Bucket        string
	PublicBaseURL string
	MaxImageBytes int64
}

// MinIOObjectStore keeps product images in an S3-compatible bucket served
// anonymously under the products/ prefix.
type MinIOObjectStore struct {
	client   *minio.Client
	opts     MinIOOptions
	mu       sync.Mutex
	bucketOK bool
}

// NewMinIOObjectStore builds the client without contacting the server. The
// bucket is created on the first upload.
func NewMinIOObjectStore(opts MinIOOptions) (*MinIOObjectStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &MinIOObjectStore{client: client, opts: opts}, nil
}

func (s *MinIOObjectStore) Name() string { return "minio" }

// ensureBucket retries on every call until the bucket has been confirmed once.
func (s *MinIOObjectStore) ensureBucket(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bucketOK {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.opts.Bucket)
	if err != nil {
		return fmt.Errorf("%w: check bucket: %v", ErrStoreNotReady, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: create bucket: %v", ErrStoreNotReady, err)
		}
		if err := s.client.SetBucketPolicy(ctx, s.opts.Bucket, publicReadPolicy(s.opts.Bucket)); err != nil {
			return fmt.Errorf("%w: set bucket policy: %v", ErrStoreNotReady, err)
		}
	}
	s.bucketOK = true
	return nil
}

func (s *MinIOObjectStore) Upload(ctx context.Context, f File) (domain.ProductImage, error) {
	img, err := PrepareImage(f, s.opts.MaxImageBytes)
	if err != nil {
		return domain.ProductImage{}, err
	}
	if err := s.ensureBucket(ctx); err != nil {
		return domain.ProductImage{}, err
	}
	_, err = s.client.PutObject(ctx, s.opts.Bucket, img.Key, bytes.NewReader(img.Data), img.Size(), minio.PutObjectOptions{
		ContentType: img.ContentType,
		UserMetadata: map[string]string{
			"Original-Name": f.Name,
			"Uploaded-At":   time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return domain.ProductImage{}, fmt.Errorf("put object: %w", err)
	}
	return domain.ProductImage{
		RemoteID: img.Key,
		URL:      publicURL(s.opts.PublicBaseURL, s.opts.Bucket, img.Key),
	}, nil
}

func (s *MinIOObjectStore) Release(ctx context.Context, remoteID string) error {
	if !validRemoteID(remoteID) {
		return ErrInvalidRemoteID
	}
	if err := s.client.RemoveObject(ctx, s.opts.Bucket, remoteID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

func (s *MinIOObjectStore) Ping(ctx context.Context) error {
	if _, err := s.client.BucketExists(ctx, s.opts.Bucket); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreNotReady, err)
	}
	return nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s/*"]}]}`, bucket, objectKeyPrefix)
}
