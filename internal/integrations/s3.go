package integrations

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"frankiemoji/backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const uploadURLTTL = 15 * time.Minute

// allowedPhotoTypes maps accepted upload content types to object extensions.
var allowedPhotoTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/heic": "heic",
	"image/heif": "heif",
}

// S3Client represents s3 client.
type S3Client struct {
	bucket         string
	publicEndpoint string
	presign        *s3.PresignClient
	now            func() time.Time
}

// UploadTarget is a presigned PUT for one customer photo.
type UploadTarget struct {
	UploadURL  string `json:"upload_url"`
	ObjectPath string `json:"object_path"`
	PublicURL  string `json:"public_url"`
}

// NewS3 creates s3.
func NewS3(cfg config.S3Config) (*S3Client, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	publicEndpoint := normalizeEndpoint(cfg.PublicEndpoint, cfg.UseSSL)
	if publicEndpoint == "" {
		publicEndpoint = endpoint
	}

	options := s3.Options{
		Region:       region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	// Presigned URLs are handed to browsers, so they are signed for the public host.
	if publicEndpoint != "" {
		options.BaseEndpoint = aws.String(publicEndpoint)
	}

	return &S3Client{
		bucket:         cfg.Bucket,
		publicEndpoint: publicEndpoint,
		presign:        s3.NewPresignClient(s3.New(options)),
		now:            time.Now,
	}, nil
}

// PhotoExtension returns the object extension for an accepted photo content
// type.
func PhotoExtension(contentType string) (string, bool) {
	ext, ok := allowedPhotoTypes[strings.ToLower(strings.TrimSpace(contentType))]
	return ext, ok
}

// PresignPhotoUpload returns a short-lived PUT URL under a fresh object key.
func (s *S3Client) PresignPhotoUpload(ctx context.Context, contentType string) (UploadTarget, error) {
	ext, ok := PhotoExtension(contentType)
	if !ok {
		return UploadTarget{}, fmt.Errorf("unsupported content type %q", contentType)
	}
	key := buildObjectKey(s.now().UTC(), uuid.NewString(), ext)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}

	resp, err := s.presign.PresignPutObject(ctx, input, func(opts *s3.PresignOptions) {
		opts.Expires = uploadURLTTL
	})
	if err != nil {
		return UploadTarget{}, err
	}

	return UploadTarget{UploadURL: resp.URL, ObjectPath: key, PublicURL: s.publicURLForKey(key)}, nil
}

// publicURLForKey handles public u r l for key.
func (s *S3Client) publicURLForKey(key string) string {
	if s.publicEndpoint == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}

	u, err := url.Parse(s.publicEndpoint)
	if err != nil {
		return fmt.Sprintf("%s/%s/%s", s.publicEndpoint, s.bucket, key)
	}
	u.Path = path.Join(u.Path, s.bucket, key)
	return u.String()
}

func buildObjectKey(now time.Time, id, ext string) string {
	return fmt.Sprintf("uploads/%d/%02d/%02d/%s.%s", now.Year(), now.Month(), now.Day(), id, ext)
}

// normalizeEndpoint normalizes endpoint.
func normalizeEndpoint(endpoint string, useSSL bool) string {
	if endpoint == "" {
		return ""
	}
	if strings.HasPrefix(endpoint, "http") {
		return endpoint
	}
	scheme := "https"
	if !useSSL {
		scheme = "http"
	}
	return scheme + "://" + endpoint
}
