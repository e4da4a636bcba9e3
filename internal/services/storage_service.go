// internal/services/storage_service.go
package services

import (
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/loopmarket/marketplace-backend/internal/config"
)

type StorageService struct {
	config   *config.Config
	s3Client *s3.S3
}

type UploadResult struct {
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
	URL      string `json:"url"`
	Key      string `json:"key"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64
	AllowedTypes []string
	PublicRead   bool
}

func NewStorageService(cfg *config.Config) *StorageService {
	service := &StorageService{
		config: cfg,
	}

	// Initialize S3 client when credentials are configured
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWS.Region),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			),
		})
		if err != nil {
			logrus.WithError(err).Warn("Failed to initialize S3 session, falling back to local storage")
		} else {
			service.s3Client = s3.New(sess)
		}
	}

	return service
}

// UploadProductImage stores a listing photo and returns its public URL.
func (s *StorageService) UploadProductImage(file *multipart.FileHeader) (*UploadResult, error) {
	return s.uploadFile(file, s.productImageOptions())
}

func (s *StorageService) uploadFile(file *multipart.FileHeader, opts UploadOptions) (*UploadResult, error) {
	// Validate file size
	if file.Size > opts.MaxSize {
		return nil, fmt.Errorf("file size %d exceeds maximum %d bytes", file.Size, opts.MaxSize)
	}

	// Validate file type
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !s.isAllowedType(ext, opts.AllowedTypes) {
		return nil, fmt.Errorf("file type %s not allowed", ext)
	}

	fileName := s.generateFileName(file.Filename)
	key := fmt.Sprintf("%s/%s", opts.Folder, fileName)

	var url string
	var err error

	if s.s3Client != nil {
		url, err = s.uploadToS3(file, key, opts.PublicRead)
	} else {
		url, err = s.uploadToLocal(file, key)
	}
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		FileName: fileName,
		FileSize: file.Size,
		FileType: ext,
		URL:      url,
		Key:      key,
	}

	logrus.WithFields(logrus.Fields{
		"file_name": fileName,
		"file_size": file.Size,
		"key":       key,
	}).Info("Image uploaded")

	return result, nil
}

func (s *StorageService) uploadToS3(file *multipart.FileHeader, key string, publicRead bool) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentLength: aws.Int64(file.Size),
		ContentType:   aws.String(file.Header.Get("Content-Type")),
	}

	if publicRead {
		input.ACL = aws.String("public-read")
	}

	if _, err := s.s3Client.PutObject(input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(file *multipart.FileHeader, key string) (string, error) {
	localPath := filepath.Join(s.config.Upload.LocalDir, key)

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %w", err)
	}
	defer dst.Close()

	if _, err := dst.ReadFrom(src); err != nil {
		return "", fmt.Errorf("failed to write local file: %w", err)
	}

	return fmt.Sprintf("http://localhost:%s/uploads/%s", s.config.Server.Port, key), nil
}

// DeleteFile removes a stored object by key, from S3 or the local dir.
func (s *StorageService) DeleteFile(key string) error {
	if s.s3Client != nil {
		_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
			Bucket: aws.String(s.config.AWS.S3Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return fmt.Errorf("failed to delete from S3: %w", err)
		}
		return nil
	}

	localPath := filepath.Join(s.config.Upload.LocalDir, key)
	if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete local file: %w", err)
	}

	return nil
}

// KeyFromURL recovers the storage key from a URL produced by an earlier
// upload, whichever backend produced it. Returns "" for URLs that do not
// point at our storage.
func (s *StorageService) KeyFromURL(url string) string {
	if url == "" {
		return ""
	}

	if s.config.AWS.CloudFrontURL != "" {
		prefix := strings.TrimRight(s.config.AWS.CloudFrontURL, "/") + "/"
		if strings.HasPrefix(url, prefix) {
			return strings.TrimPrefix(url, prefix)
		}
	}

	for _, marker := range []string{".amazonaws.com/", "/uploads/"} {
		if idx := strings.Index(url, marker); idx >= 0 {
			return url[idx+len(marker):]
		}
	}

	return ""
}

func (s *StorageService) productImageOptions() UploadOptions {
	return UploadOptions{
		Folder:       "products",
		MaxSize:      int64(s.config.Upload.MaxImageSizeMB) * 1024 * 1024,
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		PublicRead:   true,
	}
}

func (s *StorageService) isAllowedType(ext string, allowed []string) bool {
	for _, t := range allowed {
		if ext == t {
			return true
		}
	}
	return false
}

func (s *StorageService) generateFileName(original string) string {
	ext := filepath.Ext(original)
	timestamp := time.Now().Format("20060102150405")
	id := uuid.New()
	return fmt.Sprintf("%s_%s%s", timestamp, id.String()[:8], ext)
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
