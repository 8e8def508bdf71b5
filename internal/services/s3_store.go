// internal/services/s3_store.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/javajoker/bookswap-backend/internal/config"
)

type S3Store struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
}

func NewS3Store(client s3iface.S3API, cfg config.AWSConfig) *S3Store {
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3Bucket, cfg.Region)
	if cfg.CloudFrontURL != "" {
		baseURL = strings.TrimRight(cfg.CloudFrontURL, "/")
	}
	return &S3Store{client: client, bucket: cfg.S3Bucket, baseURL: baseURL}
}

func (s *S3Store) Save(ctx context.Context, data []byte) (string, error) {
	locator := generateLocator(data)

	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(locator),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(http.DetectContentType(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return locator, nil
}

func (s *S3Store) Remove(ctx context.Context, locator string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (s *S3Store) URL(locator string) string {
	return s.baseURL + "/" + locator
}
