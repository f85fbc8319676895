package media

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/coursekit/core/internal/config"
	"github.com/coursekit/core/internal/models"
	"github.com/coursekit/core/internal/modules/catalog/enrollment"
	"gorm.io/gorm"
)

var (
	ErrNotConfigured = errors.New("object storage is not configured")
	ErrNoAccess      = errors.New("no access to this media")
)

// SignedURL carries a presigned GET link and its expiry so clients can
// refresh well before it lapses.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service struct {
	presign *s3.PresignClient
	db      *gorm.DB
	enroll  *enrollment.Service
	bucket  string
	ttl     time.Duration
}

func NewService(cfg config.StorageConfig, db *gorm.DB, enroll *enrollment.Service) *Service {
	s := &Service{
		db:     db,
		enroll: enroll,
		bucket: cfg.Bucket,
		ttl:    time.Duration(cfg.SignTTLHours) * time.Hour,
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return s
	}

	opts := s3.Options{
		Region:       cfg.Region,
		UsePathStyle: cfg.PathStyle,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	s.presign = s3.NewPresignClient(s3.New(opts))
	return s
}

// Sign returns a presigned GET URL for an object, gated by the
// viewer's access to the lesson that references it. Objects not linked
// to any lesson only require a signed-in viewer.
func (s *Service) Sign(ctx context.Context, bucket, path, viewerID string) (*SignedURL, error) {
	if s.presign == nil {
		return nil, ErrNotConfigured
	}
	if bucket == "" {
		bucket = s.bucket
	}
	key := strings.TrimPrefix(path, "/")
	if key == "" {
		return nil, ErrNoAccess
	}

	if err := s.checkAccess(ctx, key, viewerID); err != nil {
		return nil, err
	}

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return nil, err
	}
	return &SignedURL{URL: req.URL, ExpiresAt: time.Now().Add(s.ttl)}, nil
}

func (s *Service) checkAccess(ctx context.Context, key, viewerID string) error {
	var lesson models.LessonModel
	err := s.db.WithContext(ctx).
		Where("content_url LIKE ?", "%"+key).
		First(&lesson).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if lesson.IsFreePreview {
		return nil
	}
	ok, err := s.enroll.HasAccess(ctx, lesson.CourseID, viewerID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoAccess
	}
	return nil
}
