package chat

import (
	"context"
	"errors"
	"strings"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	appcfg "github.com/logoforge/server/internal/config"
	"github.com/logoforge/server/internal/modules/generation"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
)

// ErrNotConfigured is returned when no chat provider credentials are set.
var ErrNotConfigured = errors.New("chat provider is not configured")

// Completer turns a system prompt and a user prompt into model text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, systemPrompt, prompt string) (string, error)
}

type modelCompleter struct {
	name      string
	model     jetapi.LanguageModel
	maxTokens int
}

// NewCompleter builds the language model named by cfg.Type.
func NewCompleter(cfg appcfg.ChatProviderConfig) (Completer, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	modelID := strings.TrimSpace(cfg.Model)
	endpoint := strings.TrimSpace(cfg.Endpoint)

	if strings.EqualFold(cfg.Type, appcfg.ChatProviderAnthropic) {
		if modelID == "" {
			modelID = "claude-3-5-haiku-latest"
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return &modelCompleter{
			name:      appcfg.ChatProviderAnthropic,
			model:     jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)),
			maxTokens: cfg.MaxTokens,
		}, nil
	}

	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := generation.NormalizeOpenAIBaseURL(endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)
	return &modelCompleter{
		name:      appcfg.ChatProviderOpenAI,
		model:     jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)),
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (m *modelCompleter) Name() string { return m.name }

func (m *modelCompleter) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	maxTokens := m.maxTokens
	if maxTokens <= 0 {
		maxTokens = 512
	}
	resp, err := jetai.GenerateText(
		ctx,
		buildPromptMessages(systemPrompt, prompt),
		jetai.WithModel(m.model),
		jetai.WithMaxOutputTokens(maxTokens),
	)
	if err != nil {
		return "", err
	}
	return extractText(resp)
}

func buildPromptMessages(systemPrompt, prompt string) []jetapi.Message {
	messages := make([]jetapi.Message, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(prompt)})
	return messages
}

func extractText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from chat model")
	}
	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}
	text := full.String()
	if strings.TrimSpace(text) == "" {
		return "", errors.New("empty response from chat model")
	}
	return text, nil
}
