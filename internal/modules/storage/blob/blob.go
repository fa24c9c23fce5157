package blob

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	appcfg "github.com/logoforge/server/internal/config"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

var ErrObjectNotFound = errors.New("object not found")

// Object is a stored blob and the URL it is served from.
type Object struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

// Store is the blob storage collaborator.
type Store interface {
	Driver() string
	Put(ctx context.Context, ownerID, filename string, data []byte, contentType string) (*Object, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// KeyFromURL maps a public URL back to its key. ok is false for URLs this store does not serve.
	KeyFromURL(rawURL string) (key string, ok bool)
	// Owns reports whether key lies directly under ownerID's directory.
	Owns(ownerID, key string) bool
}

// New builds the driver selected by cfg.Storage.Driver.
func New(cfg *appcfg.AppConfig) (Store, error) {
	switch cfg.Storage.Driver {
	case DriverS3:
		return NewS3Store(cfg.Storage)
	case DriverLocal, "":
		return NewLocalStore(cfg.StaticDir(), cfg.BaseURL()+LocalRoute, cfg.Storage.Prefix), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

// ObjectKey lays blobs out as {prefix}/{owner}/{file}.
func ObjectKey(prefix, ownerID, filename string) string {
	name := safeName(filename)
	if name == "" {
		name = strings.ReplaceAll(uuid.NewString(), "-", "") + ".png"
	}
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	if o := safeName(ownerID); o != "" {
		parts = append(parts, o)
	}
	parts = append(parts, name)
	return strings.Join(parts, "/")
}

// ownedBy reports whether key is a clean {prefix}/{owner}/{file} key for ownerID.
func ownedBy(prefix, ownerID, key string) bool {
	owner := safeName(ownerID)
	if owner == "" || key == "" || key != path.Clean(key) {
		return false
	}
	dir := owner + "/"
	if p := strings.Trim(prefix, "/"); p != "" {
		dir = p + "/" + dir
	}
	name, ok := strings.CutPrefix(key, dir)
	return ok && name != "" && !strings.Contains(name, "/")
}

// DetectContentType prefers the sniffed type and falls back to the extension.
func DetectContentType(filename string, data []byte) string {
	if len(data) > 0 {
		if sniffed := http.DetectContentType(data); sniffed != "application/octet-stream" {
			return sniffed
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

func safeName(raw string) string {
	name := filepath.Base(strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/")))
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return name
}
