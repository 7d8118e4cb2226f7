// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/vials-labs/vials-backend/internal/config"
	"github.com/vials-labs/vials-backend/internal/utils"
)

// Filebase pins every object written to an IPFS bucket and reports the CID
// as object metadata.
const filebaseCIDKey = "cid"

// StorageService pins to IPFS through Filebase's S3-compatible API.
type StorageService struct {
	s3Client s3iface.S3API
	bucket   string
	folder   string
}

type UploadOptions struct {
	MaxSize      int64 // in bytes
	AllowedTypes []string
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.IPFS.FilebaseAccessKey == "" || cfg.IPFS.FilebaseSecretKey == "" {
		return nil, fmt.Errorf("filebase credentials: %w", ErrNotConfigured)
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String("us-east-1"),
		Endpoint:         aws.String(cfg.IPFS.FilebaseEndpoint),
		S3ForcePathStyle: aws.Bool(true),
		Credentials: credentials.NewStaticCredentials(
			cfg.IPFS.FilebaseAccessKey,
			cfg.IPFS.FilebaseSecretKey,
			"",
		),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Filebase session: %w", err)
	}

	return NewStorageServiceWithClient(s3.New(sess), cfg.IPFS.FilebaseBucket), nil
}

func NewStorageServiceWithClient(client s3iface.S3API, bucket string) *StorageService {
	return &StorageService{
		s3Client: client,
		bucket:   bucket,
		folder:   "derivatives",
	}
}

func (s *StorageService) PinFile(ctx context.Context, name, contentType string, data []byte) (string, error) {
	return s.put(ctx, s.generateFileName(name, data), contentType, data)
}

func (s *StorageService) PinJSON(ctx context.Context, name string, value interface{}) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return s.put(ctx, s.generateFileName(name+".json", data), "application/json", data)
}

func (s *StorageService) put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to Filebase: %w", err)
	}

	head, err := s.s3Client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to read Filebase object: %w", err)
	}

	// The SDK canonicalizes metadata keys, so "cid" arrives as "Cid"
	for k, v := range head.Metadata {
		if strings.EqualFold(k, filebaseCIDKey) && v != nil && *v != "" {
			return *v, nil
		}
	}

	return "", errors.New("filebase object has no cid metadata")
}

// DerivativeUploadOptions bounds user-supplied derivative images.
func DerivativeUploadOptions(maxSizeMB int) UploadOptions {
	return UploadOptions{
		MaxSize:      int64(maxSizeMB) * 1024 * 1024,
		AllowedTypes: []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
	}
}

// Validate checks size, extension and file signature of an image upload.
func (o UploadOptions) Validate(filename string, data []byte) error {
	if o.MaxSize > 0 && int64(len(data)) > o.MaxSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size %d bytes", len(data), o.MaxSize)
	}

	if len(o.AllowedTypes) > 0 {
		fileExt := strings.ToLower(filepath.Ext(filename))
		allowed := false
		for _, allowedType := range o.AllowedTypes {
			if fileExt == allowedType {
				allowed = true
				break
			}
		}
		if !allowed {
			return fmt.Errorf("file type %s is not allowed", fileExt)
		}
	}

	if !isValidImageType(data) {
		return errors.New("invalid image file")
	}

	return nil
}

// generateFileName keys objects by content hash, so re-pinning identical
// bytes on the same day overwrites one object instead of adding another.
func (s *StorageService) generateFileName(originalName string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(originalName))

	timestamp := time.Now().UTC().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, utils.HashBytes(data)[:16], ext)

	if s.folder != "" {
		return fmt.Sprintf("%s/%s", s.folder, filename)
	}

	return filename
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && buffer[0] == 0x89 && buffer[1] == 0x50 && buffer[2] == 0x4E && buffer[3] == 0x47 {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[0:6]) == "GIF87a" || string(buffer[0:6]) == "GIF89a") {
		return true
	}

	// WebP
	if len(buffer) >= 12 && string(buffer[0:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}
