// Package archive keeps copies of exported calendars in object storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"personal-calendar/internal/config"
)

// LinkTTL is how long a presigned download link stays valid.
const LinkTTL = 15 * time.Minute

// Archiver stores an export and returns a URL the user can download it from.
type Archiver interface {
	Put(ctx context.Context, userID int64, data []byte) (string, error)
}

type S3 struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	log     *zap.Logger
	now     func() time.Time
}

// New returns nil when no bucket is configured; callers then stream the
// export directly.
func New(ctx context.Context, cfg config.S3, log *zap.Logger) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
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
	return &S3{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		log:     log,
		now:     time.Now,
	}, nil
}

func (a *S3) Put(ctx context.Context, userID int64, data []byte) (string, error) {
	key := objectKey(userID, a.now(), uuid.NewString())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String("text/calendar; charset=utf-8"),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", key, err)
	}

	req, err := a.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(a.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(`attachment; filename="calendar.ics"`),
	}, s3.WithPresignExpires(LinkTTL))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}

	a.log.Info("export archived", zap.Int64("user_id", userID), zap.String("key", key))
	return req.URL, nil
}

func objectKey(userID int64, at time.Time, id string) string {
	return fmt.Sprintf("exports/%d/%s/%s.ics", userID, at.UTC().Format("2006/01/02"), id)
}
