// Package s3service issues presigned URLs for applicant supporting documents
package s3service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"loan-application-engine/internal/utils"
)

const defaultExpiry = 15 * time.Minute

// ErrUnsupportedContentType is returned for uploads outside AllowedContentTypes.
var ErrUnsupportedContentType = errors.New("unsupported document content type")

// AllowedContentTypes lists the document formats applicants may upload.
var AllowedContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// Service handles S3 operations
type Service struct {
	presigner  *s3.PresignClient
	bucketName string
	logger     *zap.Logger
}

// PresignedURLResult contains the presigned URL details
type PresignedURLResult struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewService creates a new S3 service from the default AWS credential chain.
func NewService(ctx context.Context, region, bucket string, logger *zap.Logger) (*Service, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewServiceWithClient(s3.NewFromConfig(cfg), bucket, logger), nil
}

// NewServiceWithClient wraps an existing S3 client.
func NewServiceWithClient(client *s3.Client, bucket string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = utils.GetLogger()
	}
	return &Service{
		presigner:  s3.NewPresignClient(client),
		bucketName: bucket,
		logger:     logger,
	}
}

// DocumentKey builds the object key for a document attached to an application.
func DocumentKey(applicationID, filename string) string {
	name := unsafeChars.ReplaceAllString(path.Base(strings.TrimSpace(filename)), "_")
	if name == "" || name == "." || name == "_" {
		name = "document"
	}
	return fmt.Sprintf("applications/%s/%s-%s", applicationID, uuid.New().String()[:8], name)
}

// PresignDocumentUpload creates a presigned PUT URL for one supporting document.
func (s *Service) PresignDocumentUpload(ctx context.Context, applicationID, filename, contentType string, expiry time.Duration) (*PresignedURLResult, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if !AllowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, contentType)
	}
	if expiry <= 0 {
		expiry = defaultExpiry
	}

	key := DocumentKey(applicationID, filename)
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		s.logger.Error("Failed to generate presigned URL",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	s.logger.Info("Generated presigned upload URL",
		zap.String("application_id", applicationID),
		zap.String("key", key),
		zap.Duration("expiry", expiry),
	)

	return &PresignedURLResult{
		URL:       req.URL,
		Key:       key,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}

// PresignDocumentDownload creates a presigned GET URL for a stored document.
func (s *Service) PresignDocumentDownload(ctx context.Context, key string, expiry time.Duration) (*PresignedURLResult, error) {
	if expiry <= 0 {
		expiry = defaultExpiry
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return nil, fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return &PresignedURLResult{
		URL:       req.URL,
		Key:       key,
		Method:    req.Method,
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}
