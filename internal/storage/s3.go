package storage

import (
	"bytes"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// Store is the object-storage surface the service consumes: blobs go in
// under opaque keys and come back out as readers or time-limited URLs.
type Store interface {
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Head(ctx context.Context, key string) (int64, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// S3API abstracts the S3 operations used by S3Store.
// The s3.Client type satisfies this interface.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Presigner abstracts presigned URL generation.
// The s3.PresignClient type satisfies this interface.
type S3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store implements Store backed by Amazon S3 or any S3-compatible object
// store. The caller is responsible for configuring the client with
// credentials, region, and endpoint.
type S3Store struct {
	client  S3API
	presign S3Presigner
	bucket  string
}

func NewS3(client S3API, presign S3Presigner, bucket string) *S3Store {
	return &S3Store{client: client, presign: presign, bucket: bucket}
}

// Get opens the named object for reading. Returns an error wrapping
// os.ErrNotExist if the key does not exist.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("storage: get %s: %w", key, os.ErrNotExist)
		}
		return nil, fmt.Errorf("storage: get %s: %w", key, err)
	}
	return out.Body, nil
}

func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Head returns the object size in bytes.
func (s *S3Store) Head(ctx context.Context, key string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, fmt.Errorf("storage: head %s: %w", key, os.ErrNotExist)
		}
		return 0, fmt.Errorf("storage: head %s: %w", key, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

// SignedURL returns a presigned GET URL valid for ttl.
func (s *S3Store) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("storage: presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// UploadURL returns a presigned PUT URL valid for ttl.
func (s *S3Store) UploadURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("storage: presign put %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// UploadKey mints a unique object key for a user upload, namespaced by the
// uploading user so keys never collide across accounts.
func UploadKey(userID, extension string) string {
	id := uuid.New()
	return fmt.Sprintf("uploads/%s/%s_%s.%s",
		userID,
		time.Now().UTC().Format("20060102_150405"),
		hex.EncodeToString(id[:])[:8],
		extension,
	)
}
