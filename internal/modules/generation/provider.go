package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	appcfg "github.com/logoforge/server/internal/config"
)

// ErrUpstream matches every *UpstreamError.
var ErrUpstream = errors.New("upstream failure")

// UpstreamError is a non-success answer from an external collaborator.
// Status is the collaborator's HTTP status when it reported one.
type UpstreamError struct {
	Provider string
	Status   int
	Message  string
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: upstream status %d: %s", e.providerName(), e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.providerName(), e.Message)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

func (e *UpstreamError) providerName() string {
	if e.Provider == "" {
		return "image provider"
	}
	return e.Provider
}

// HTTPStatus is the status to answer the client with: the upstream status when known, otherwise 500.
func (e *UpstreamError) HTTPStatus() int {
	if e.Status >= http.StatusBadRequest && e.Status <= 599 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Provider is the image generation collaborator.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req *GenerateRequest) ([]byte, error)
	Edit(ctx context.Context, req *EditRequest) ([]byte, error)
}

// NewProvider builds the provider named by cfg.Type.
func NewProvider(cfg appcfg.ImageProviderConfig) (Provider, error) {
	switch cfg.Type {
	case "mock", "":
		return newMockProvider(cfg), nil
	case "http":
		return newHTTPProvider(cfg)
	case "openai":
		return newOpenAIProvider(cfg)
	}
	return nil, fmt.Errorf("unknown image provider %q", cfg.Type)
}

const maxImageBytes = 20 << 20

// fetchImage downloads an image URL returned by a provider.
func fetchImage(ctx context.Context, client *http.Client, provider, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: provider, Message: "download image: " + err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &UpstreamError{Provider: provider, Status: resp.StatusCode, Message: "download image failed"}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
}

func trimMessage(raw []byte) string {
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	if msg == "" {
		msg = "empty response"
	}
	return msg
}
