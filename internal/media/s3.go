package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/metrics"
	"github.com/vidtube/backend/internal/models"
)

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Storage stores media assets in an S3-compatible bucket.
type S3Storage struct {
	uploader objectUploader
	deleter  objectDeleter
	bucket   string
	baseURL  string
}

// NewS3Storage configures a client targeting the provided object store.
func NewS3Storage(ctx context.Context, cfg config.ObjectStoreConfig) (*S3Storage, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 storage: bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = 8 * 1024 * 1024
		u.LeavePartsOnError = false
	})

	return newS3Storage(uploader, client, cfg.Bucket, cfg.PublicBaseURL), nil
}

func newS3Storage(uploader objectUploader, deleter objectDeleter, bucket, baseURL string) *S3Storage {
	return &S3Storage{
		uploader: uploader,
		deleter:  deleter,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// Upload pushes the file at localPath to the bucket under a fresh public id.
// The local file is removed whether or not the upload succeeds.
func (s *S3Storage) Upload(ctx context.Context, localPath string) (asset models.MediaAsset, err error) {
	if strings.TrimSpace(localPath) == "" {
		return models.MediaAsset{}, ErrEmptyPath
	}

	ctx, span := logging.StartSpan(ctx, "media.upload")
	defer func() {
		metrics.MediaOperations.WithLabelValues("upload", metrics.Outcome(err)).Inc()
		span.EndErr(err)
	}()
	defer removeLocal(ctx, localPath)

	file, err := os.Open(localPath)
	if err != nil {
		return models.MediaAsset{}, fmt.Errorf("open upload %s: %w", filepath.Base(localPath), err)
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(localPath))
	key := uuid.NewString() + ext

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return models.MediaAsset{}, fmt.Errorf("s3 storage upload %s: %w", key, err)
	}

	return models.MediaAsset{URL: s.publicURL(key), PublicID: key}, nil
}

// Remove deletes the asset identified by publicID. Removing an absent object succeeds.
func (s *S3Storage) Remove(ctx context.Context, publicID string) (err error) {
	publicID = strings.TrimLeft(strings.TrimSpace(publicID), "/")
	if publicID == "" {
		return ErrEmptyPublicID
	}
	defer func() {
		metrics.MediaOperations.WithLabelValues("remove", metrics.Outcome(err)).Inc()
	}()

	_, err = s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("s3 storage remove %s: %w", publicID, err)
	}
	return nil
}

func (s *S3Storage) publicURL(key string) string {
	if s.baseURL == "" {
		return key
	}
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

func removeLocal(ctx context.Context, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.FromContext(ctx).Warn("remove local upload", "path", path, "error", err)
	}
}
