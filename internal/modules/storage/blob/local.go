package blob

import (
	"context"
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalRoute is where the app serves the local store's directory.
const LocalRoute = "/objects"

// LocalStore keeps blobs on disk under dir.
type LocalStore struct {
	dir     string
	baseURL string
	prefix  string
}

func NewLocalStore(dir, baseURL, prefix string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/"), prefix: prefix}
}

func (s *LocalStore) Driver() string { return DriverLocal }

// Dir is the root directory served at LocalRoute.
func (s *LocalStore) Dir() string { return s.dir }

func (s *LocalStore) Put(_ context.Context, ownerID, filename string, data []byte, contentType string) (*Object, error) {
	key := ObjectKey(s.prefix, ownerID, filename)
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = DetectContentType(filename, data)
	}
	return &Object{Key: key, URL: s.baseURL + "/" + key, ContentType: contentType, Size: len(data)}, nil
}

func (s *LocalStore) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrObjectNotFound
	}
	return data, err
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *LocalStore) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, s.baseURL+"/") {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, s.baseURL+"/"))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}

func (s *LocalStore) Owns(ownerID, key string) bool { return ownedBy(s.prefix, ownerID, key) }

// path resolves key inside dir, dropping any traversal segments.
func (s *LocalStore) path(key string) string {
	clean := filepath.Clean("/" + filepath.FromSlash(key))
	return filepath.Join(s.dir, clean)
}
