package generation

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/logoforge/server/internal/models"
	"github.com/logoforge/server/internal/pkg/composition"
)

// Parameters is the style block sent alongside the prompt.
type Parameters struct {
	Style            composition.ArtStyle       `json:"style"`
	Width            int                        `json:"width"`
	Height           int                        `json:"height"`
	BackgroundType   composition.BackgroundType `json:"backgroundType"`
	BackgroundColors []string                   `json:"backgroundColors,omitempty"`
	Colors           []string                   `json:"colors"`
	Industry         string                     `json:"industry,omitempty"`
	Is3D             bool                       `json:"is3D"`
	Description      string                     `json:"description,omitempty"`
	Text             []string                   `json:"text,omitempty"`
	Icon             string                     `json:"icon,omitempty"`
}

// GenerateRequest is the payload for a new image.
type GenerateRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
	// Context describes the composition in words for providers that only take a prompt.
	Context  string                    `json:"context,omitempty"`
	Settings composition.Configuration `json:"-"`
}

// Prompt joins the user prompt with the composition context.
func (r *GenerateRequest) Prompt() string {
	return joinPrompt(r.Inputs, r.Context)
}

// EditRequest is the payload for editing an existing image.
type EditRequest struct {
	Image      string     `json:"image"`
	Prompt     string     `json:"prompt"`
	Mask       []byte     `json:"mask,omitempty"`
	Parameters Parameters `json:"parameters"`
	Context    string     `json:"context,omitempty"`
	// Settings is the original configuration merged with the override.
	Settings composition.Configuration `json:"-"`
	// Source holds the original image bytes when the storage collaborator could supply them.
	Source []byte `json:"-"`
}

func (r *EditRequest) FullPrompt() string {
	return joinPrompt(r.Prompt, r.Context)
}

// BuildGenerateRequest maps a configuration and prompt to the provider payload.
// The prompt is passed through verbatim.
func BuildGenerateRequest(cfg composition.Configuration, prompt string) (*GenerateRequest, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", composition.ErrValidation)
	}
	return &GenerateRequest{
		Inputs:     prompt,
		Parameters: parametersFor(cfg),
		Context:    PromptContext(cfg),
		Settings:   cfg.Clone(),
	}, nil
}

// BuildEditRequest targets original's image. Parameters come from original.Settings
// merged with override, where the override wins.
func BuildEditRequest(original *models.LogoModel, prompt string, mask []byte, override composition.Override) (*EditRequest, error) {
	if original == nil || strings.TrimSpace(original.URL) == "" {
		return nil, fmt.Errorf("%w: original logo has no image", composition.ErrValidation)
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", composition.ErrValidation)
	}
	merged := composition.Merge(original.Settings, override)
	return &EditRequest{
		Image:      original.URL,
		Prompt:     prompt,
		Mask:       mask,
		Parameters: parametersFor(merged),
		Context:    PromptContext(merged),
		Settings:   merged,
	}, nil
}

func parametersFor(cfg composition.Configuration) Parameters {
	p := Parameters{
		Style:          cfg.ArtStyle,
		Width:          cfg.Width,
		Height:         cfg.Height,
		BackgroundType: cfg.BackgroundType,
		Colors:         cfg.LogoColors.Values(),
		Industry:       strings.TrimSpace(cfg.Industry),
		Is3D:           cfg.Is3D,
		Description:    strings.TrimSpace(cfg.Description),
	}
	if cfg.BackgroundType != composition.BackgroundTransparent {
		p.BackgroundColors = cfg.BackgroundColors.Values()
	}
	for _, layer := range cfg.TextLayers {
		if t := strings.TrimSpace(layer.Text); t != "" {
			p.Text = append(p.Text, t)
		}
	}
	if cfg.Icon != nil {
		p.Icon = string(cfg.Icon.Category) + "/" + cfg.Icon.Name
	}
	return p
}

// PromptContext describes the composition in a sentence list a text-to-image model can follow.
func PromptContext(cfg composition.Configuration) string {
	var parts []string
	if cfg.ArtStyle != "" {
		parts = append(parts, fmt.Sprintf("%s style logo", cfg.ArtStyle))
	}
	if ind := strings.TrimSpace(cfg.Industry); ind != "" {
		parts = append(parts, "for the "+ind+" industry")
	}
	if colors := cfg.LogoColors.Values(); len(colors) > 0 {
		parts = append(parts, "using colors "+strings.Join(colors, ", "))
	}
	switch cfg.BackgroundType {
	case composition.BackgroundTransparent:
		parts = append(parts, "on a transparent background")
	case composition.BackgroundGradient:
		parts = append(parts, "on a gradient background of "+strings.Join(cfg.BackgroundColors.Values(), " to "))
	case composition.BackgroundSolid:
		if bg := cfg.BackgroundColors.Values(); len(bg) > 0 {
			parts = append(parts, "on a solid "+bg[0]+" background")
		}
	}
	for _, layer := range cfg.TextLayers {
		if t := strings.TrimSpace(layer.Text); t != "" {
			parts = append(parts, fmt.Sprintf("with the text %q at the %s in %s", t, layer.Position, layer.Font))
		}
	}
	if cfg.Icon != nil {
		parts = append(parts, fmt.Sprintf("with a %s %s icon on the %s", cfg.Icon.Color, strings.ToLower(cfg.Icon.Name), cfg.Icon.Position))
	}
	if cfg.Is3D {
		parts = append(parts, "rendered in 3D")
	}
	if d := strings.TrimSpace(cfg.Description); d != "" {
		parts = append(parts, d)
	}
	return strings.Join(parts, ", ")
}

func joinPrompt(prompt, context string) string {
	if context == "" {
		return prompt
	}
	return prompt + ". " + context
}

// NamingContext decides how a produced image is named.
type NamingContext struct {
	Prompt string
	// Name overrides the derived name when set.
	Name string
	// Original is set for edits.
	Original *models.LogoModel
	Now      time.Time
}

// Asset is a produced image ready for the storage collaborator. URL stays empty until stored.
type Asset struct {
	Name        string
	Filename    string
	ContentType string
	Data        []byte
	URL         string
}

var imageExtensions = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/webp":    "webp",
	"image/gif":     "gif",
	"image/svg+xml": "svg",
}

// InterpretResponse wraps raw provider bytes into a named asset.
func InterpretResponse(raw []byte, nc NamingContext) (*Asset, error) {
	if len(raw) == 0 {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "provider returned an empty image"}
	}
	contentType, ext, ok := sniffImage(raw)
	if !ok {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "provider returned non-image content (" + contentType + ")"}
	}

	now := nc.Now
	if now.IsZero() {
		now = time.Now()
	}
	prefix := "logo"
	name := nc.Prompt
	if nc.Original != nil {
		prefix = "edited-logo"
		name = nc.Original.Name + " (edited)"
	}
	if n := strings.TrimSpace(nc.Name); n != "" {
		name = n
	}

	return &Asset{
		Name:        name,
		Filename:    fmt.Sprintf("%s-%d.%s", prefix, now.UnixMilli(), ext),
		ContentType: contentType,
		Data:        raw,
	}, nil
}

func sniffImage(raw []byte) (contentType, ext string, ok bool) {
	contentType = strings.SplitN(http.DetectContentType(raw), ";", 2)[0]
	if ext, ok = imageExtensions[contentType]; ok {
		return contentType, ext, true
	}
	head := raw
	if len(head) > 512 {
		head = head[:512]
	}
	if bytes.Contains(head, []byte("<svg")) {
		return "image/svg+xml", "svg", true
	}
	return contentType, "", false
}
