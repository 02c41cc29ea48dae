package llm

import (
	"net/http"

	"github.com/liliang-cn/captainclaw/internal/config"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"go.uber.org/zap"
)

// NewGatewayFromConfig wires the OpenAI, OpenRouter and local providers.
// Providers without a key are still registered and fail with an auth error
// when used.
func NewGatewayFromConfig(cfg *config.LLMConfig, logger *zap.Logger) *Gateway {
	client := &http.Client{Timeout: cfg.Timeout}

	providers := map[domain.ProviderFamily]Provider{
		domain.FamilyOpenAI: NewCompatibleProvider(CompatibleConfig{
			Name:       "OpenAI",
			APIKey:     cfg.OpenAIAPIKey,
			BaseURL:    cfg.OpenAIBaseURL,
			HTTPClient: client,
		}),
		domain.FamilyOpenRouter: NewCompatibleProvider(CompatibleConfig{
			Name:    "OpenRouter",
			APIKey:  cfg.OpenRouterAPIKey,
			BaseURL: cfg.OpenRouterBaseURL,
			Headers: map[string]string{
				"HTTP-Referer": cfg.OpenRouterReferer,
				"X-Title":      cfg.OpenRouterTitle,
			},
			HTTPClient: client,
		}),
		domain.FamilyLocal: NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel, client),
	}

	return NewGateway(providers,
		WithRetryPolicy(NewRetryPolicy(cfg.RetryAttempts, cfg.RetryDelay)),
		WithLogger(logger),
	)
}
