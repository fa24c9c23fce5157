package generation

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strconv"
	"strings"
	"time"

	appcfg "github.com/logoforge/server/internal/config"
	"github.com/logoforge/server/internal/pkg/composition"
)

const mockImageSize = 64

// mockProvider waits a fixed delay and returns a flat swatch of the primary logo color.
type mockProvider struct {
	delay time.Duration
}

func newMockProvider(cfg appcfg.ImageProviderConfig) *mockProvider {
	return &mockProvider{delay: time.Duration(cfg.MockDelayMS) * time.Millisecond}
}

func (p *mockProvider) Name() string { return "mock" }

func (p *mockProvider) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return swatch(req.Settings)
}

func (p *mockProvider) Edit(ctx context.Context, req *EditRequest) ([]byte, error) {
	if err := p.wait(ctx); err != nil {
		return nil, err
	}
	return swatch(req.Settings)
}

func (p *mockProvider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return nil
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return &UpstreamError{Provider: p.Name(), Message: ctx.Err().Error()}
	case <-t.C:
		return nil
	}
}

func swatch(cfg composition.Configuration) ([]byte, error) {
	fill := color.RGBA{0x3b, 0x82, 0xf6, 0xff}
	if values := cfg.LogoColors.Values(); len(values) > 0 {
		if c, ok := parseHex(values[0]); ok {
			fill = c
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, mockImageSize, mockImageSize))
	for y := 0; y < mockImageSize; y++ {
		for x := 0; x < mockImageSize; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// parseHex reads #rgb, #rrggbb and #rrggbbaa.
func parseHex(v string) (color.RGBA, bool) {
	s := strings.TrimPrefix(v, "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) == 6 {
		s += "ff"
	}
	if len(s) != 8 {
		return color.RGBA{}, false
	}
	n, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}, true
}
