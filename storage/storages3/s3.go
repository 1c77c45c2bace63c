// Package storages3 stores outputs as objects in an S3 bucket
package storages3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/benedoc-inc/overlap/storage"
	"github.com/benedoc-inc/overlap/types"
)

// API is the subset of the S3 client used by Store
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Store implements storage.Store on a bucket, below an optional key prefix
type Store struct {
	client API
	bucket string
	prefix string
}

var _ storage.Store = (*Store)(nil)

// New wraps an existing client
func New(client API, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

// NewFromRegion loads the default AWS credential chain for region
func NewFromRegion(ctx context.Context, region, bucket, prefix string) (*Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, types.WrapError(types.ErrCodeInvalidConfiguration, "unable to load AWS config", err).
			WithContext("region", region)
	}
	return New(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func (s *Store) WriteFile(ctx context.Context, p string, data []byte) error {
	key, err := s.key(p)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(storage.ContentType(p)),
	})
	if err != nil {
		return types.WrapError(types.ErrCodeWriteError, "failed to upload output", err).
			WithContext("path", s.Location(p))
	}
	return nil
}

func (s *Store) ReadFile(ctx context.Context, p string) ([]byte, error) {
	key, err := s.key(p)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, types.WrapError(types.ErrCodeIOError, "failed to download output", err).
			WithContext("path", s.Location(p))
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, types.WrapError(types.ErrCodeIOError, "failed to read object body", err).
			WithContext("path", s.Location(p))
	}
	return data, nil
}

func (s *Store) Exists(ctx context.Context, p string) (bool, error) {
	key, err := s.key(p)
	if err != nil {
		return false, err
	}
	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, types.WrapError(types.ErrCodeIOError, "failed to stat object", err).
			WithContext("path", s.Location(p))
	}
	return true, nil
}

// Location returns an s3:// URL
func (s *Store) Location(p string) string {
	key, err := s.key(p)
	if err != nil {
		key = path.Join(s.prefix, p)
	}
	return fmt.Sprintf("s3://%s/%s", s.bucket, key)
}

func (s *Store) key(p string) (string, error) {
	rel, err := storage.CleanPath(p)
	if err != nil {
		return "", err
	}
	if s.prefix == "" {
		return rel, nil
	}
	return path.Join(s.prefix, rel), nil
}
