package assistant

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/elevated-ai-works/assistant/internal/config"
	"github.com/elevated-ai-works/assistant/internal/model"
	"github.com/elevated-ai-works/assistant/internal/resilience"
	"github.com/elevated-ai-works/assistant/pkg/anthropic"
	"github.com/elevated-ai-works/assistant/pkg/openai"
)

// Provider produces the assistant's next reply for a prepared history. The
// first message is the system prompt.
type Provider interface {
	Complete(ctx context.Context, msgs []model.Message) (string, error)
	Name() string
}

// OpenAIProvider calls a chat-completions endpoint.
type OpenAIProvider struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// NewOpenAIProvider wraps client.
func NewOpenAIProvider(client openai.Client, model string, temperature float64, maxTokens int) *OpenAIProvider {
	return &OpenAIProvider{client: client, model: model, temperature: temperature, maxTokens: maxTokens}
}

func (p *OpenAIProvider) Name() string { return "openai" }

func (p *OpenAIProvider) Complete(ctx context.Context, msgs []model.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    make([]openai.Message, len(msgs)),
		Temperature: &p.temperature,
	}
	if p.maxTokens > 0 {
		req.MaxTokens = &p.maxTokens
	}
	for i, m := range msgs {
		req.Messages[i] = openai.Message{Role: string(m.Role), Content: m.Content}
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			zap.L().Warn("assistant: openai rejected request",
				zap.Int("status", apiErr.StatusCode),
				zap.Bool("transient", resilience.IsTransientHTTPStatus(apiErr.StatusCode)),
			)
		}
		return "", err
	}

	text, ok := resp.Text()
	if !ok {
		return "", eris.New("openai: response has no choices")
	}
	zap.L().Debug("assistant: openai usage",
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return text, nil
}

// AnthropicProvider calls the Anthropic Messages API.
type AnthropicProvider struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
}

// NewAnthropicProvider wraps client.
func NewAnthropicProvider(client anthropic.Client, model string, temperature float64, maxTokens int) *AnthropicProvider {
	if maxTokens <= 0 {
		maxTokens = 600
	}
	return &AnthropicProvider{client: client, model: model, temperature: temperature, maxTokens: int64(maxTokens)}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

// Complete sends system messages as the cached system block and the rest
// as alternating turns.
func (p *AnthropicProvider) Complete(ctx context.Context, msgs []model.Message) (string, error) {
	var (
		system []string
		turns  []anthropic.Message
	)
	for _, m := range msgs {
		if m.Role == model.RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, anthropic.Message{Role: string(m.Role), Content: m.Content})
	}

	req := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		Messages:    turns,
		Temperature: &p.temperature,
	}
	if len(system) > 0 {
		req.System = anthropic.CachedSystem(strings.Join(system, "\n\n"))
	}

	resp, err := p.client.CreateMessage(ctx, req)
	if err != nil {
		return "", err
	}
	resp.Usage.LogCost(p.model)
	return strings.TrimSpace(resp.Text()), nil
}

// NewProvider builds the configured provider. It returns nil when the
// provider's credential is missing; the proxy then reports itself
// unavailable.
func NewProvider(cfg *config.Config) Provider {
	key := cfg.ProviderKey()
	if key == "" {
		return nil
	}
	switch cfg.Assistant.Provider {
	case "anthropic":
		client := anthropic.NewClient(key, anthropic.WithBaseURL(cfg.Anthropic.BaseURL), anthropic.WithMaxRetries(0))
		return NewAnthropicProvider(client, cfg.Anthropic.Model, cfg.Assistant.Temperature, cfg.Assistant.MaxTokens)
	default:
		client := openai.NewClient(key, openai.WithBaseURL(cfg.OpenAI.BaseURL), openai.WithModel(cfg.OpenAI.Model))
		return NewOpenAIProvider(client, cfg.OpenAI.Model, cfg.Assistant.Temperature, cfg.Assistant.MaxTokens)
	}
}
