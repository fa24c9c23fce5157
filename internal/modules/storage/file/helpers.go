package file

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/logoforge/server/internal/modules/storage/blob"
)

// MaxImageBytes bounds uploaded images.
const MaxImageBytes = 10 << 20

var (
	ErrImageMissing  = errors.New("image is required")
	ErrImageTooLarge = fmt.Errorf("image exceeds %dMB", MaxImageBytes>>20)
	ErrImageType     = errors.New("only png, jpeg, webp, gif and svg images are accepted")
)

var allowedImageTypes = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/webp":    ".webp",
	"image/gif":     ".gif",
	"image/svg+xml": ".svg",
}

// Image is an uploaded image read fully into memory.
type Image struct {
	Data        []byte
	Filename    string
	ContentType string
}

// ReadImage pulls an image part out of a multipart form and validates its size and type.
func ReadImage(c *gin.Context, field string) (*Image, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, ErrImageMissing
	}
	if header.Size > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrImageMissing
	}
	if len(data) > MaxImageBytes {
		return nil, ErrImageTooLarge
	}

	contentType := blob.DetectContentType(header.Filename, data)
	ext, ok := allowedImageTypes[strings.SplitN(contentType, ";", 2)[0]]
	if !ok {
		// SVG sniffs as text/xml or text/plain.
		if strings.EqualFold(filepath.Ext(header.Filename), ".svg") {
			contentType, ext, ok = "image/svg+xml", ".svg", true
		}
	}
	if !ok {
		return nil, ErrImageType
	}
	return &Image{Data: data, Filename: BuildFileName("upload", ext), ContentType: contentType}, nil
}

// BuildFileName generates a collision-resistant filename like logo-1700000000000-1a2b3c4d.png.
func BuildFileName(prefix, ext string) string {
	if ext == "" {
		ext = ".png"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().UnixMilli(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8], ext)
}
