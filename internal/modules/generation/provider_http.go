package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	appcfg "github.com/logoforge/server/internal/config"
)

// httpProvider posts the JSON payload to a configurable inference endpoint.
// A response is either raw image bytes or JSON carrying a base64 image or a URL.
type httpProvider struct {
	endpoint     string
	editEndpoint string
	apiKey       string
	authHeader   string
	headers      map[string]string
	client       *http.Client
}

func newHTTPProvider(cfg appcfg.ImageProviderConfig) (*httpProvider, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("image.endpoint is required for the http provider")
	}
	edit := cfg.EditEndpoint
	if edit == "" {
		edit = cfg.Endpoint
	}
	return &httpProvider{
		endpoint:     cfg.Endpoint,
		editEndpoint: edit,
		apiKey:       cfg.APIKey,
		authHeader:   cfg.AuthHeader,
		headers:      cfg.Headers,
		client:       &http.Client{Timeout: cfg.Timeout()},
	}, nil
}

func (p *httpProvider) Name() string { return "http" }

func (p *httpProvider) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	return p.post(ctx, p.endpoint, req)
}

func (p *httpProvider) Edit(ctx context.Context, req *EditRequest) ([]byte, error) {
	return p.post(ctx, p.editEndpoint, req)
}

func (p *httpProvider) post(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/*, application/json")
	if p.apiKey != "" {
		header := p.authHeader
		if header == "" {
			header = "Authorization"
		}
		value := p.apiKey
		if strings.EqualFold(header, "Authorization") && !strings.Contains(value, " ") {
			value = "Bearer " + value
		}
		req.Header.Set(header, value)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &UpstreamError{Provider: p.Name(), Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, &UpstreamError{Provider: p.Name(), Message: "read response: " + err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Provider: p.Name(), Status: resp.StatusCode, Message: errorMessage(raw)}
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		return raw, nil
	}
	return p.decodeJSON(ctx, raw)
}

// jsonImage covers the response shapes seen from hosted inference APIs.
type jsonImage struct {
	Image   string `json:"image"`
	B64JSON string `json:"b64_json"`
	URL     string `json:"url"`
	Data    []struct {
		B64JSON string `json:"b64_json"`
		URL     string `json:"url"`
	} `json:"data"`
	Images []string        `json:"images"`
	Error  json.RawMessage `json:"error"`
}

func (p *httpProvider) decodeJSON(ctx context.Context, raw []byte) ([]byte, error) {
	var out jsonImage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: "invalid JSON response"}
	}
	if len(out.Error) > 0 && string(out.Error) != "null" {
		return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: errorMessage(raw)}
	}

	encoded, url := out.Image, out.URL
	if encoded == "" {
		encoded = out.B64JSON
	}
	if encoded == "" && len(out.Images) > 0 {
		encoded = out.Images[0]
	}
	if encoded == "" && url == "" && len(out.Data) > 0 {
		encoded, url = out.Data[0].B64JSON, out.Data[0].URL
	}

	switch {
	case encoded != "":
		data, err := decodeBase64Image(encoded)
		if err != nil {
			return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: err.Error()}
		}
		return data, nil
	case url != "":
		return fetchImage(ctx, p.client, p.Name(), url)
	}
	return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: "response carried no image"}
}

// decodeBase64Image accepts plain base64 or a data: URL.
func decodeBase64Image(s string) ([]byte, error) {
	if strings.HasPrefix(s, "data:") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, errors.New("malformed data URL")
		}
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}

// errorMessage pulls a readable message out of an error body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
		Detail  string          `json:"detail"`
	}
	if json.Unmarshal(raw, &body) == nil {
		var s string
		if json.Unmarshal(body.Error, &s) == nil && s != "" {
			return s
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(body.Error, &nested) == nil && nested.Message != "" {
			return nested.Message
		}
		if body.Message != "" {
			return body.Message
		}
		if body.Detail != "" {
			return body.Detail
		}
	}
	return trimMessage(raw)
}
