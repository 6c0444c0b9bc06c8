package staff

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// AvatarStorage is everything the controllers need from object storage:
// grant an upload, resolve a stored key to a URL, purge on user delete.
type AvatarStorage interface {
	AvatarResolver
	PresignUpload(ctx context.Context, filename, contentType string) (key, url string, err error)
	Purge(ctx context.Context, key string) error
}

// S3AvatarStoreOptions configure the bucket the service writes avatars
// to. Endpoint is optional and exists for MinIO style deployments.
type S3AvatarStoreOptions struct {
	Region    string
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UploadTTL time.Duration
	URLTTL    time.Duration
}

// S3AvatarStore stores avatars as S3 objects and never proxies bytes:
// clients upload and download through presigned URLs.
type S3AvatarStore struct {
	bucket  string
	client  *s3.Client
	presign *s3.PresignClient
	upload  time.Duration
	url     time.Duration
	logger  Logger
}

var _ AvatarStorage = (*S3AvatarStore)(nil)

func NewS3AvatarStore(ctx context.Context, opts S3AvatarStoreOptions, logger Logger) (*S3AvatarStore, error) {
	if logger == nil {
		logger = defLogger{}
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	if opts.UploadTTL <= 0 {
		opts.UploadTTL = 15 * time.Minute
	}
	if opts.URLTTL <= 0 {
		opts.URLTTL = time.Hour
	}

	return &S3AvatarStore{
		bucket:  opts.Bucket,
		client:  client,
		presign: s3.NewPresignClient(client),
		upload:  opts.UploadTTL,
		url:     opts.URLTTL,
		logger:  logger,
	}, nil
}

// PresignUpload grants a one-off PUT to a fresh storage key. The key is
// what the client hands back as the user's avatar reference.
func (s *S3AvatarStore) PresignUpload(ctx context.Context, filename, contentType string) (string, string, error) {
	key := newStorageKey(filename)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	req, err := s.presign.PresignPutObject(ctx, input, s3.WithPresignExpires(s.upload))
	if err != nil {
		return "", "", err
	}

	return key, req.URL, nil
}

func (s *S3AvatarStore) ResolveURL(ctx context.Context, key string) (string, error) {
	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.url))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}

func (s *S3AvatarStore) Purge(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

func newStorageKey(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, name)
	return fmt.Sprintf("avatars/%s/%s", uuid.New(), name)
}

// NoAvatarStorage is wired when the deployment has no object storage
// configured: reads project a null avatar, uploads fail loudly.
type NoAvatarStorage struct{}

var _ AvatarStorage = NoAvatarStorage{}

func (NoAvatarStorage) ResolveURL(context.Context, string) (string, error) {
	return "", nil
}

func (NoAvatarStorage) PresignUpload(context.Context, string, string) (string, string, error) {
	return "", "", ErrAvatarStorageUnavailable
}

func (NoAvatarStorage) Purge(context.Context, string) error {
	return nil
}
