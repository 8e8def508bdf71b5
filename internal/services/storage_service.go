// internal/services/storage_service.go
package services

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/javajoker/bookswap-backend/internal/config"
)

// blobFolder groups listing images under the storage root.
const blobFolder = "books"

// BlobStore persists image bytes under unique opaque locators.
type BlobStore interface {
	Save(ctx context.Context, data []byte) (string, error)
	Remove(ctx context.Context, locator string) error
	// URL is the public link for a locator. It does not check existence.
	URL(locator string) string
}

func NewBlobStore(cfg *config.Config) (BlobStore, error) {
	switch cfg.Storage.Backend {
	case "s3":
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(cfg.AWS.Region),
			Credentials: credentials.NewStaticCredentials(
				cfg.AWS.AccessKeyID,
				cfg.AWS.SecretAccessKey,
				"",
			),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create AWS session: %w", err)
		}
		return NewS3Store(s3.New(sess), cfg.AWS), nil
	default:
		return NewLocalStore(cfg.Storage.TargetFolder, cfg.Domains.BackendURL()+cfg.Storage.PublicPath)
	}
}

// LocalStore writes blobs below TARGET_FOLDER. The folder is served
// read-only under the public path.
type LocalStore struct {
	root       string
	publicBase string
}

func NewLocalStore(root, publicBase string) (*LocalStore, error) {
	if err := os.MkdirAll(filepath.Join(root, blobFolder), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage folder: %w", err)
	}
	return &LocalStore{root: root, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	locator := generateLocator(data)
	full := filepath.Join(s.root, filepath.FromSlash(locator))

	// O_EXCL: locators are never reused
	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", locator, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(full)
		return "", fmt.Errorf("failed to write %s: %w", locator, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(full)
		return "", fmt.Errorf("failed to close %s: %w", locator, err)
	}

	return locator, nil
}

// Remove deletes the blob. Removing a blob that is already gone succeeds.
func (s *LocalStore) Remove(ctx context.Context, locator string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(locator)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", locator, err)
	}
	return nil
}

func (s *LocalStore) URL(locator string) string {
	return s.publicBase + "/" + locator
}

func (s *LocalStore) resolve(locator string) (string, error) {
	clean := path.Clean("/" + locator)
	if !strings.HasPrefix(clean, "/"+blobFolder+"/") {
		return "", fmt.Errorf("invalid locator %q", locator)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func generateLocator(data []byte) string {
	return fmt.Sprintf("%s/%s%s", blobFolder, uuid.NewString(), extensionFor(data))
}

// extensionFor names the file after the sniffed content type so the static
// server sends a sensible Content-Type. Content is not validated.
func extensionFor(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
