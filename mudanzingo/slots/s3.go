package slots

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrConflict is returned when a slot kept changing underneath Modify.
var ErrConflict = errors.New("slot modified concurrently")

const s3MaxAttempts = 5

// objectAPI is the part of the S3 client used by S3Slots.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Slots stores each slot as an object of one bucket. Modify is optimistic:
// the write is conditional on the ETag that was read (or on the object still
// being absent) and is retried when another writer got there first.
type S3Slots struct {
	client      objectAPI
	bucket      string
	prefix      string
	lockManager *LockManager
	logger      *slog.Logger
}

// OpenS3 creates an S3 (or S3-compatible, e.g. MinIO) backed driver.
func OpenS3(ctx context.Context, cfg S3Config, logger *slog.Logger) (*S3Slots, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Slots(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3Slots(client objectAPI, bucket, prefix string, logger *slog.Logger) *S3Slots {
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Slots{
		client:      client,
		bucket:      bucket,
		prefix:      prefix,
		lockManager: NewLockManager(),
		logger:      logger,
	}
}

// ObjectKey returns the object holding key.
func (s *S3Slots) ObjectKey(key string) string {
	return s.prefix + key + ".json"
}

// Load implements Slots.Load
func (s *S3Slots) Load(ctx context.Context, key string) ([]byte, error) {
	data, _, err := s.get(ctx, key)
	return data, err
}

// Modify implements Slots.Modify
func (s *S3Slots) Modify(ctx context.Context, key string, fn ModifyFunc) error {
	return s.lockManager.Execute(key, WriteOperation, func() error {
		for attempt := 1; attempt <= s3MaxAttempts; attempt++ {
			current, etag, err := s.get(ctx, key)
			if err != nil {
				return err
			}
			next, err := fn(current)
			if err != nil {
				return err
			}
			if next == nil {
				return nil
			}

			in := &s3.PutObjectInput{
				Bucket:      aws.String(s.bucket),
				Key:         aws.String(s.ObjectKey(key)),
				Body:        bytes.NewReader(next),
				ContentType: aws.String("application/json"),
			}
			if etag != nil {
				in.IfMatch = etag
			} else {
				in.IfNoneMatch = aws.String("*")
			}
			_, err = s.client.PutObject(ctx, in)
			if err == nil {
				return nil
			}
			if !isPreconditionFailure(err) {
				return fmt.Errorf("put slot %s: %w", key, err)
			}
			s.logger.Debug("slot changed during modify, retrying", "slot", key, "attempt", attempt)
		}
		return fmt.Errorf("slot %s: %w", key, ErrConflict)
	})
}

// Close implements Slots.Close
func (s *S3Slots) Close() error {
	return nil
}

func (s *S3Slots) get(ctx context.Context, key string) ([]byte, *string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.ObjectKey(key)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get slot %s: %w", key, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read slot %s: %w", key, err)
	}
	if len(data) == 0 {
		data = nil
	}
	return data, out.ETag, nil
}

func isPreconditionFailure(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}
