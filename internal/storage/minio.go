package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"talenttrack/internal/config"
	"talenttrack/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStorage is the durable file boundary for uploaded resumes.
type ObjectStorage interface {
	// UploadResumeFile stores the raw bytes and returns a stable public URL.
	UploadResumeFile(ctx context.Context, submissionID, fileExt string, reader io.Reader, fileSize int64) (string, error)

	// GetResumeFile downloads a previously stored resume by object key.
	GetResumeFile(ctx context.Context, objectKey string) ([]byte, error)
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO provides object storage for resume files.
type MinIO struct {
	client        *minio.Client
	cfg           *config.MinIOConfig
	resumesBucket string
}

// NewMinIO creates the MinIO client and ensures the resumes bucket exists.
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config cannot be nil")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	bucket := cfg.ResumesBucket
	if bucket == "" {
		bucket = "resumes"
	}

	m := &MinIO{
		client:        client,
		cfg:           cfg,
		resumesBucket: bucket,
	}

	if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("failed to ensure resumes bucket %s exists: %w", bucket, err)
	}

	logger.Info().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("minio client initialized")
	return m, nil
}

func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
		}
		logger.Info().Str("bucket", bucketName).Msg("created bucket")
	}
	return nil
}

// UploadResumeFile stores the raw resume under resumes/{submissionID}{ext}
// and returns the durable public URL for the object.
func (m *MinIO) UploadResumeFile(ctx context.Context, submissionID, fileExt string, reader io.Reader, fileSize int64) (string, error) {
	if !strings.HasPrefix(fileExt, ".") && fileExt != "" {
		fileExt = "." + fileExt
	}
	objectKey := fmt.Sprintf("resumes/%s%s", submissionID, fileExt)

	_, err := m.client.PutObject(ctx, m.resumesBucket, objectKey, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentTypeForExt(fileExt),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload resume file: %w", err)
	}

	return m.publicURL(objectKey), nil
}

// GetResumeFile downloads a stored resume.
func (m *MinIO) GetResumeFile(ctx context.Context, objectKey string) ([]byte, error) {
	object, err := m.client.GetObject(ctx, m.resumesBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get resume file %s: %w", objectKey, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read resume file %s: %w", objectKey, err)
	}
	return data, nil
}

// publicURL builds the durable URL clients store on candidates and
// applications. A configured PublicBaseURL (CDN/proxy) takes precedence over
// the raw endpoint.
func (m *MinIO) publicURL(objectKey string) string {
	if m.cfg.PublicBaseURL != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(m.cfg.PublicBaseURL, "/"), m.resumesBucket, objectKey)
	}
	scheme := "http"
	if m.cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, m.cfg.Endpoint, m.resumesBucket, objectKey)
}

func contentTypeForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
