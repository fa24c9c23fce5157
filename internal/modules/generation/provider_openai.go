package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	appcfg "github.com/logoforge/server/internal/config"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
)

const defaultOpenAIImageModel = openaiclient.ImageModelGPTImage1

// openaiProvider drives the OpenAI images API.
type openaiProvider struct {
	client     openaiclient.Client
	model      openaiclient.ImageModel
	size       string
	httpClient *http.Client
}

func newOpenAIProvider(cfg appcfg.ImageProviderConfig) (*openaiProvider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("image.api_key is required for the openai provider")
	}
	httpClient := &http.Client{Timeout: cfg.Timeout()}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(cfg.APIKey),
		openaioption.WithMaxRetries(0),
		openaioption.WithHTTPClient(httpClient),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, openaioption.WithBaseURL(NormalizeOpenAIBaseURL(cfg.Endpoint)))
	}
	model := openaiclient.ImageModel(cfg.Model)
	if model == "" {
		model = defaultOpenAIImageModel
	}
	return &openaiProvider{
		client:     openaiclient.NewClient(opts...),
		model:      model,
		size:       cfg.Size,
		httpClient: httpClient,
	}, nil
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Generate(ctx context.Context, req *GenerateRequest) ([]byte, error) {
	params := openaiclient.ImageGenerateParams{
		Prompt: req.Prompt(),
		Model:  p.model,
		N:      openaiclient.Int(1),
	}
	if p.size != "" {
		params.Size = openaiclient.ImageGenerateParamsSize(p.size)
	}
	// gpt-image models always answer in base64 and reject response_format.
	if strings.HasPrefix(string(p.model), "dall-e") {
		params.ResponseFormat = openaiclient.ImageGenerateParamsResponseFormatB64JSON
	}
	resp, err := p.client.Images.Generate(ctx, params)
	if err != nil {
		return nil, p.wrap(err)
	}
	return p.first(ctx, resp)
}

func (p *openaiProvider) Edit(ctx context.Context, req *EditRequest) ([]byte, error) {
	source := req.Source
	if len(source) == 0 {
		var err error
		if source, err = fetchImage(ctx, p.httpClient, p.Name(), req.Image); err != nil {
			return nil, err
		}
	}
	params := openaiclient.ImageEditParams{
		Image: openaiclient.ImageEditParamsImageUnion{
			OfFile: openaiclient.File(bytes.NewReader(source), "image.png", "image/png"),
		},
		Prompt: req.FullPrompt(),
		Model:  p.model,
		N:      openaiclient.Int(1),
	}
	if len(req.Mask) > 0 {
		params.Mask = openaiclient.File(bytes.NewReader(req.Mask), "mask.png", "image/png")
	}
	if p.size != "" {
		params.Size = openaiclient.ImageEditParamsSize(p.size)
	}
	resp, err := p.client.Images.Edit(ctx, params)
	if err != nil {
		return nil, p.wrap(err)
	}
	return p.first(ctx, resp)
}

func (p *openaiProvider) first(ctx context.Context, resp *openaiclient.ImagesResponse) ([]byte, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: "no image returned"}
	}
	img := resp.Data[0]
	if img.B64JSON != "" {
		data, err := base64.StdEncoding.DecodeString(img.B64JSON)
		if err != nil {
			return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: "decode image: " + err.Error()}
		}
		return data, nil
	}
	if img.URL != "" {
		return fetchImage(ctx, p.httpClient, p.Name(), img.URL)
	}
	return nil, &UpstreamError{Provider: p.Name(), Status: http.StatusBadGateway, Message: "no image returned"}
}

func (p *openaiProvider) wrap(err error) error {
	var apiErr *openaiclient.Error
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: p.Name(), Status: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return &UpstreamError{Provider: p.Name(), Message: err.Error()}
}

// NormalizeOpenAIBaseURL appends /v1 to bare hosts so the SDK paths resolve.
func NormalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" || strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}
