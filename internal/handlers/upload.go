// internal/handlers/upload.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/bookswap-backend/internal/services"
)

// UploadLimits bounds multipart requests.
type UploadLimits struct {
	MaxRequestSize int64
	MaxImageSize   int64
}

// readImages collects the files sent under field. Zero, one or many parts
// with the same name all come back as an ordered slice.
func readImages(c *gin.Context, field string, limits UploadLimits) ([][]byte, error) {
	form, err := c.MultipartForm()
	if errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: malformed multipart body: %v", services.ErrValidation, err)
	}

	headers := form.File[field]
	blobs := make([][]byte, 0, len(headers))
	for _, header := range headers {
		data, err := readPart(header, limits.MaxImageSize)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, data)
	}
	return blobs, nil
}

func readPart(header *multipart.FileHeader, maxSize int64) ([]byte, error) {
	if maxSize > 0 && header.Size > maxSize {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", services.ErrValidation, header.Filename, maxSize)
	}
	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", services.ErrValidation, header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read %s: %v", services.ErrValidation, header.Filename, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", services.ErrValidation, header.Filename)
	}
	return data, nil
}

// limitBody caps the request body before the multipart form is parsed.
func limitBody(c *gin.Context, limits UploadLimits) {
	if limits.MaxRequestSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limits.MaxRequestSize)
	}
}
