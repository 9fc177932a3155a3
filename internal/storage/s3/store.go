package s3

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"droply/internal/config"
	models "droply/internal/domain/models/drive"
	driveSvc "droply/internal/domain/services/drive"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// objectAPI is the part of *s3.Client the store uses
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store keeps file bytes in an S3-compatible bucket (AWS, MinIO, R2...)
type Store struct {
	client    objectAPI
	bucket    string
	publicURL string
	logger    *slog.Logger
}

// NewStore builds an S3 client from configuration. Static credentials are
// used when both keys are set; otherwise the default AWS chain applies.
func NewStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	publicURL := cfg.S3PublicBaseURL
	if publicURL == "" {
		publicURL = defaultPublicURL(cfg)
	}

	logger.Info("object store configured",
		"bucket", cfg.S3Bucket,
		"region", cfg.S3Region,
		"endpoint", cfg.S3Endpoint,
		"public_url", publicURL,
	)

	return newStore(client, cfg.S3Bucket, publicURL, logger), nil
}

func newStore(client objectAPI, bucket, publicURL string, logger *slog.Logger) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// Put uploads the object and returns its storage descriptor
func (s *Store) Put(ctx context.Context, obj *driveSvc.PutObjectInput) (*models.StorageMetadata, error) {
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(obj.Key),
		Body:        obj.Body,
		ContentType: aws.String(obj.ContentType),
	}
	if obj.Size > 0 {
		input.ContentLength = aws.Int64(obj.Size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("put object %s: %w", obj.Key, err)
	}

	s.logger.Debug("object stored", "bucket", s.bucket, "key", obj.Key, "size", obj.Size)

	return &models.StorageMetadata{
		Path:       obj.Key,
		StorageURL: s.ObjectURL(obj.Key),
		Size:       obj.Size,
		MimeType:   obj.ContentType,
	}, nil
}

// Delete removes an object. S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// ObjectURL is the public URL of a key
func (s *Store) ObjectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + "/" + strings.Join(segments, "/")
}

// defaultPublicURL derives the bucket URL from the endpoint settings
func defaultPublicURL(cfg *config.Config) string {
	if cfg.S3Endpoint != "" {
		base := strings.TrimRight(cfg.S3Endpoint, "/")
		if cfg.S3UsePathStyle {
			return base + "/" + cfg.S3Bucket
		}
		if u, err := url.Parse(base); err == nil && u.Host != "" {
			u.Host = cfg.S3Bucket + "." + u.Host
			return u.String()
		}
		return base + "/" + cfg.S3Bucket
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.S3Region)
}
