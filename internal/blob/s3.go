// Package blob wraps an S3-compatible object store for uploaded images.
// Objects are public-read; Upload returns the public URL persisted on the
// owning record.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

var ErrNotConfigured = errors.New("blob storage not configured")

type Store struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string
}

// New creates a blob store client with path-style addressing and static
// credentials. Returns (nil, nil) when endpoint or credentials are empty so
// the server can start without storage; uploads then fail with
// ErrNotConfigured.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Store, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}

	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Store{
		s3:        client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores an object with public-read ACL and returns its public URL.
func (s *Store) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	if s == nil {
		return "", ErrNotConfigured
	}

	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", s.bucket, key, err)
	}
	return s.URL(key), nil
}

// Delete removes an object by key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if s == nil {
		return ErrNotConfigured
	}

	_, err := s.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// URL builds the public URL for a key, preferring the configured CDN/direct
// URL over the path-style endpoint form.
func (s *Store) URL(key string) string {
	if s == nil {
		return ""
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + key
	}
	return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucket, key)
}
