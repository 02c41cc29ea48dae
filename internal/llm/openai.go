package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Fixed generation parameters for remote providers
const (
	RemoteTemperature = 0.7
	RemoteMaxTokens   = 2000
)

// CompatibleConfig configures an OpenAI-compatible provider
type CompatibleConfig struct {
	Name       string
	APIKey     string
	BaseURL    string
	Headers    map[string]string
	HTTPClient *http.Client
}

// CompatibleProvider talks to OpenAI and OpenRouter through the
// chat completions API
type CompatibleProvider struct {
	name   string
	apiKey string
	client openai.Client
}

// NewCompatibleProvider creates an OpenAI-compatible provider
func NewCompatibleProvider(cfg CompatibleConfig) *CompatibleProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}

	return &CompatibleProvider{
		name:   cfg.Name,
		apiKey: cfg.APIKey,
		client: openai.NewClient(opts...),
	}
}

// Name returns the provider name
func (p *CompatibleProvider) Name() string {
	return p.name
}

// Chat sends a chat completion request
func (p *CompatibleProvider) Chat(ctx context.Context, prompt Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	if p.apiKey == "" {
		return domain.ChatResult{}, &domain.AuthError{
			Provider: p.name,
			Message:  fmt.Sprintf("%s API key not configured", p.name),
		}
	}

	turns := prompt.Messages()
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, turn := range turns {
		switch turn.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(turn.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Content))
		default:
			messages = append(messages, openai.UserMessage(turn.Content))
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(upstreamModel(selection.CanonicalID)),
		Messages:    messages,
		Temperature: openai.Float(RemoteTemperature),
		MaxTokens:   openai.Int(RemoteMaxTokens),
	})
	if err != nil {
		return domain.ChatResult{}, p.mapError(err)
	}

	var content string
	if len(resp.Choices) > 0 {
		content = resp.Choices[0].Message.Content
	}

	return domain.ChatResult{
		Content:    content,
		ModelID:    selection.CanonicalID,
		TokenCount: int(resp.Usage.TotalTokens),
	}, nil
}

func (p *CompatibleProvider) mapError(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return &domain.ProviderError{Provider: p.name, Message: err.Error(), Err: err}
	}

	message := apiErr.Message
	if message == "" {
		message = err.Error()
	}

	switch apiErr.StatusCode {
	case http.StatusTooManyRequests:
		return &domain.RateLimitError{
			Provider: p.name,
			Message:  fmt.Sprintf("%s rate limit exceeded. Please wait a moment and try again.", p.name),
		}
	case http.StatusUnauthorized:
		return &domain.AuthError{
			Provider: p.name,
			Message:  fmt.Sprintf("%s API key is invalid. Check your configuration.", p.name),
		}
	default:
		return &domain.ProviderError{
			Provider:   p.name,
			StatusCode: apiErr.StatusCode,
			Message:    message,
			Err:        err,
		}
	}
}
