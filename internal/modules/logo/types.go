package logo

import (
	"errors"

	"github.com/logoforge/server/internal/pkg/composition"
)

var (
	errNotFound       = errors.New("logo not found")
	errFormat         = errors.New("format must be one of png, svg, jpg")
	errSize           = errors.New("size must be one of 256, 512, 1024, 2048")
	errVectorOnly     = errors.New("svg is only available for vector logos")
	errNameRequired   = errors.New("name is required")
	errURLRequired    = errors.New("url is required")
	errSettingsFormat = errors.New("settings must be a JSON logo configuration")
)

// ListQuery filters an owner's library.
type ListQuery struct {
	Search   string
	Industry string
}

type CreateLogoDTO struct {
	Name     string                     `json:"name"`
	URL      string                     `json:"url"`
	Settings *composition.Configuration `json:"settings"`
}

type RenameLogoDTO struct {
	Name string `json:"name"`
}

var (
	downloadFormats = map[string]string{"png": "image/png", "jpg": "image/jpeg", "svg": "image/svg+xml"}
	downloadSizes   = map[int]bool{256: true, 512: true, 1024: true, 2048: true}
)
