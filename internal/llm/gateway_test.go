package llm

import (
	"context"
	"testing"
	"time"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct {
	calls  int
	errs   []error
	result domain.ChatResult
	last   Prompt
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Chat(_ context.Context, prompt Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	s.calls++
	s.last = prompt
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return domain.ChatResult{}, err
		}
	}
	result := s.result
	result.ModelID = selection.CanonicalID
	return result, nil
}

func TestGateway_DispatchesByFamily(t *testing.T) {
	remote := &stubProvider{result: domain.ChatResult{Content: "remote", TokenCount: 5}}
	local := &stubProvider{result: domain.ChatResult{Content: "local"}}
	g := NewGateway(map[domain.ProviderFamily]Provider{
		domain.FamilyOpenRouter: remote,
		domain.FamilyLocal:      local,
	})

	result, err := g.Send(context.Background(), Assemble("", "", nil, "hi"), domain.ModelSelection{
		CanonicalID: "openrouter/anthropic/claude-haiku-4.5",
		Family:      domain.FamilyOpenRouter,
	})
	require.NoError(t, err)
	assert.Equal(t, "remote", result.Content)
	assert.Equal(t, "openrouter/anthropic/claude-haiku-4.5", result.ModelID)
	assert.Equal(t, 5, result.TokenCount)
	assert.Equal(t, 1, remote.calls)
	assert.Equal(t, 0, local.calls)
}

func TestGateway_UnknownFamily(t *testing.T) {
	g := NewGateway(map[domain.ProviderFamily]Provider{})

	_, err := g.Send(context.Background(), Prompt{}, domain.ModelSelection{CanonicalID: "x", Family: "mystery"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestGateway_NoRetryByDefault(t *testing.T) {
	limited := &domain.RateLimitError{Provider: "stub", Message: "slow down"}
	provider := &stubProvider{errs: []error{limited}}
	g := NewGateway(map[domain.ProviderFamily]Provider{domain.FamilyOpenAI: provider})

	_, err := g.Send(context.Background(), Prompt{}, domain.ModelSelection{CanonicalID: "openai/gpt-4o", Family: domain.FamilyOpenAI})
	assert.Same(t, limited, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, provider.calls)
}

func TestGateway_BackoffRetry(t *testing.T) {
	provider := &stubProvider{
		errs:   []error{&domain.UnavailableError{Message: "down"}, &domain.RateLimitError{Message: "slow"}},
		result: domain.ChatResult{Content: "finally"},
	}
	g := NewGateway(map[domain.ProviderFamily]Provider{domain.FamilyLocal: provider},
		WithRetryPolicy(BackoffRetry{Attempts: 3, Delay: time.Millisecond}))

	result, err := g.Send(context.Background(), Prompt{}, domain.ModelSelection{CanonicalID: "ollama", Family: domain.FamilyLocal})
	require.NoError(t, err)
	assert.Equal(t, "finally", result.Content)
	assert.Equal(t, 3, provider.calls)
}

func TestBackoffRetry_SkipsOtherErrors(t *testing.T) {
	calls := 0
	auth := &domain.AuthError{Message: "bad key"}
	err := BackoffRetry{Attempts: 5, Delay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return auth
	})
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, 1, calls)
}

func TestBackoffRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := BackoffRetry{Attempts: 5, Delay: time.Hour}.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &domain.RateLimitError{Message: "slow"}
	})
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 1, calls)
}

func TestNewRetryPolicy(t *testing.T) {
	assert.IsType(t, NoRetry{}, NewRetryPolicy(0, time.Second))
	assert.Equal(t, BackoffRetry{Attempts: 2, Delay: time.Second}, NewRetryPolicy(2, time.Second))
}
