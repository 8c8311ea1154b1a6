// Package media issues presigned S3 upload URLs for room images.
package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadExpiry = 15 * time.Minute

var (
	ErrDisabled           = errors.New("media: uploads disabled")
	ErrUnsupportedContent = errors.New("media: content type must be an image")
)

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
)

// Config selects the bucket and, for S3-compatible stores, the endpoint.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Upload describes a single presigned PUT the client performs directly
// against object storage.
type Upload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type Uploader struct {
	bucket  string
	presign *s3.PresignClient
	now     func() time.Time
}

func NewUploader(ctx context.Context, cfg Config) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrDisabled
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}
	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Uploader{
		bucket:  cfg.Bucket,
		presign: s3.NewPresignClient(client),
		now:     time.Now,
	}, nil
}

// PresignRoomImage returns a short-lived PUT URL for a new room image.
func (u *Uploader) PresignRoomImage(ctx context.Context, contentType string) (Upload, error) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mt, "image/") {
		return Upload{}, ErrUnsupportedContent
	}
	now := u.now().UTC()
	key := roomImageKey(now)

	req, err := presignPutObject(u.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mt),
	}, s3.WithPresignExpires(uploadExpiry))
	if err != nil {
		return Upload{}, fmt.Errorf("media: presign put: %w", err)
	}
	return Upload{URL: req.URL, Key: key, Method: req.Method, ExpiresAt: now.Add(uploadExpiry)}, nil
}

func roomImageKey(t time.Time) string {
	return fmt.Sprintf("rooms/%04d/%02d/%02d/%s", t.Year(), int(t.Month()), t.Day(), uuid.NewString())
}
