package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Options configures where media objects live in the bucket.
type S3Options struct {
	Bucket    string
	KeyPrefix string
	// PublicBaseURL, when set, is joined with the object key instead of
	// presigning a GET request.
	PublicBaseURL string
	URLExpiry     time.Duration
}

// S3Service stores media in Amazon S3 (or compatible APIs).
type S3Service struct {
	client    *s3.Client
	uploader  *manager.Uploader
	presigner *s3.PresignClient
	opts      S3Options
}

func NewS3Service(client *s3.Client, opts S3Options) (*S3Service, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	if opts.URLExpiry <= 0 {
		opts.URLExpiry = time.Hour
	}
	return &S3Service{
		client:    client,
		uploader:  manager.NewUploader(client),
		presigner: s3.NewPresignClient(client),
		opts:      opts,
	}, nil
}

// ObjectKey prefixes key with the configured key prefix.
func (s *S3Service) ObjectKey(key string) (string, error) {
	clean, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	prefix := strings.Trim(s.opts.KeyPrefix, "/")
	if prefix == "" {
		return clean, nil
	}
	return prefix + "/" + clean, nil
}

func (s *S3Service) Put(ctx context.Context, obj Object) error {
	key, err := s.ObjectKey(obj.Key)
	if err != nil {
		return err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(key),
		Body:   obj.Body,
		ACL:    types.ObjectCannedACLPrivate,
	}
	if obj.ContentType != "" {
		input.ContentType = aws.String(obj.ContentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (s *S3Service) Delete(ctx context.Context, key string) error {
	objectKey, err := s.ObjectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", objectKey, err)
	}
	return nil
}

func (s *S3Service) URL(ctx context.Context, key string) (string, error) {
	objectKey, err := s.ObjectKey(key)
	if err != nil {
		return "", err
	}
	if s.opts.PublicBaseURL != "" {
		return joinURL(s.opts.PublicBaseURL, objectKey), nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(s.opts.URLExpiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectKey, err)
	}
	return req.URL, nil
}

var _ Service = (*S3Service)(nil)
