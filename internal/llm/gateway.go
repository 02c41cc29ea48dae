package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/metrics"
	"go.uber.org/zap"
)

// Provider sends an assembled prompt to one provider family
type Provider interface {
	// Chat sends the prompt and returns the first reply
	Chat(ctx context.Context, prompt Prompt, selection domain.ModelSelection) (domain.ChatResult, error)

	// Name returns the provider identifier used in errors and logs
	Name() string
}

// Gateway dispatches prompts to the provider registered for a family
type Gateway struct {
	providers map[domain.ProviderFamily]Provider
	retry     RetryPolicy
	logger    *zap.Logger
}

// GatewayOption configures a Gateway
type GatewayOption func(*Gateway)

// WithRetryPolicy replaces the default NoRetry policy
func WithRetryPolicy(policy RetryPolicy) GatewayOption {
	return func(g *Gateway) {
		if policy != nil {
			g.retry = policy
		}
	}
}

// WithLogger sets the gateway logger
func WithLogger(logger *zap.Logger) GatewayOption {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGateway creates a gateway over the given providers
func NewGateway(providers map[domain.ProviderFamily]Provider, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		providers: providers,
		retry:     NoRetry{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Send delivers the prompt to the provider of selection.Family. Provider
// errors are returned unchanged.
func (g *Gateway) Send(ctx context.Context, prompt Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	provider, ok := g.providers[selection.Family]
	if !ok {
		return domain.ChatResult{}, &domain.ConfigurationError{
			Message: fmt.Sprintf("no provider configured for %q (family %q)", selection.CanonicalID, selection.Family),
		}
	}

	family := string(selection.Family)
	start := time.Now()

	var result domain.ChatResult
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = provider.Chat(ctx, prompt, selection)
		return err
	})

	metrics.ProviderLatency.WithLabelValues(family).Observe(time.Since(start).Seconds())
	metrics.ProviderRequests.WithLabelValues(family, outcome(err)).Inc()

	if err != nil {
		g.logger.Warn("provider call failed",
			zap.String("provider", provider.Name()),
			zap.String("model", selection.CanonicalID),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return domain.ChatResult{}, err
	}

	if result.TokenCount < 0 {
		result.TokenCount = 0
	}
	metrics.ProviderTokens.WithLabelValues(family).Add(float64(result.TokenCount))

	g.logger.Debug("provider call completed",
		zap.String("provider", provider.Name()),
		zap.String("model", result.ModelID),
		zap.Int("tokens", result.TokenCount),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrAuth):
		return "auth"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrConfiguration):
		return "configuration"
	default:
		return "error"
	}
}
