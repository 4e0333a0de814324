package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"filedrive/config"
	"filedrive/internal/common"
)

// API is the subset of *s3.Client the store calls.
type API interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store keeps blobs as objects named "blobs/<file id>" in one bucket.
type Store struct {
	logger *zap.Logger
	api    API
	bucket string
}

func New(
	ctx context.Context,
	logger *zap.Logger,
	cfg config.S3,
) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info("s3 blob store configured", zap.String("bucket", cfg.BucketUploads))

	return NewWithClient(logger, client, cfg.BucketUploads), nil
}

func NewWithClient(logger *zap.Logger, api API, bucket string) *Store {
	return &Store{logger: logger, api: api, bucket: bucket}
}

func (s *Store) key(id string) *string { return aws.String("blobs/" + id) }

// MoveIntoStore uploads the temp file under id and removes the temp file.
// The put is conditional, so an existing object is never replaced.
func (s *Store) MoveIntoStore(ctx context.Context, tempPath, id string) error {
	exists, err := s.Exists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", common.ErrBlobExists, id)
	}

	f, err := os.Open(tempPath)
	if err != nil {
		return fmt.Errorf("%w: temp upload %s: %w", common.ErrIOFailure, tempPath, err)
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat temp upload: %w", common.ErrIOFailure, err)
	}

	_, err = s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           s.key(id),
		Body:          f,
		ContentLength: aws.Int64(st.Size()),
		IfNoneMatch:   aws.String("*"),
	})
	if err != nil {
		if apiCode(err) == "PreconditionFailed" {
			return fmt.Errorf("%w: %s", common.ErrBlobExists, id)
		}
		return fmt.Errorf("%w: put object %s: %w", common.ErrIOFailure, id, err)
	}

	_ = f.Close()
	if err = os.Remove(tempPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("temp upload not removed after move",
			zap.String("path", tempPath), zap.Error(err))
	}

	return nil
}

func (s *Store) DeleteFromStore(ctx context.Context, id string) error {
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(id),
	})
	if err != nil {
		return fmt.Errorf("%w: delete object %s: %w", common.ErrIOFailure, id, err)
	}
	return nil
}

func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(id),
	})
	switch {
	case err == nil:
		return true, nil
	case isNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("%w: head object %s: %w", common.ErrIOFailure, id, err)
	}
}

func (s *Store) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    s.key(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: blob %s", common.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get object %s: %w", common.ErrIOFailure, id, err)
	}
	return out.Body, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	switch apiCode(err) {
	case "NotFound", "NoSuchKey":
		return true
	}
	return false
}

func apiCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
