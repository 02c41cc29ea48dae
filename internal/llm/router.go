// Package llm routes chat requests to a model, assembles the provider-neutral
// prompt and sends it through the matching provider.
package llm

import (
	"fmt"
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
)

// Complexity hints accepted by SelectModel
const (
	ComplexitySimple   = "simple"
	ComplexityCoding   = "coding"
	ComplexityFrontend = "frontend"
	ComplexityHard     = "hard"
)

// LocalEndpoint is the canonical id of the local runtime
const LocalEndpoint = "http://localhost:11434/api/chat"

var modelTable = []domain.ModelAlias{
	{Alias: "gpt4o", CanonicalID: "openai/gpt-4o", Family: domain.FamilyOpenAI},
	{Alias: "gpt4-turbo", CanonicalID: "openai/gpt-4-turbo", Family: domain.FamilyOpenAI},
	{Alias: "gpt35", CanonicalID: "openai/gpt-3.5-turbo", Family: domain.FamilyOpenAI},
	{Alias: "haiku", CanonicalID: "openrouter/anthropic/claude-haiku-4.5", Family: domain.FamilyOpenRouter},
	{Alias: "gemini", CanonicalID: "openrouter/google/gemini-flash-1.5", Family: domain.FamilyOpenRouter},
	{Alias: "opus", CanonicalID: "openrouter/anthropic/claude-opus-4", Family: domain.FamilyOpenRouter},
	{Alias: "sonnet", CanonicalID: "openrouter/anthropic/claude-sonnet-4.5", Family: domain.FamilyOpenRouter},
	{Alias: "deepseek", CanonicalID: "openrouter/deepseek/deepseek-r1-distill-qwen-32b", Family: domain.FamilyOpenRouter},
	{Alias: "ollama", CanonicalID: LocalEndpoint, Family: domain.FamilyLocal},
}

var complexityRoutes = map[string]string{
	ComplexitySimple:   "haiku",
	ComplexityCoding:   "deepseek",
	ComplexityFrontend: "gemini",
	ComplexityHard:     "sonnet",
}

var loopbackHosts = []string{"localhost:11434", "127.0.0.1", "[::1]"}

// Aliases returns a copy of the model table
func Aliases() []domain.ModelAlias {
	out := make([]domain.ModelAlias, len(modelTable))
	copy(out, modelTable)
	return out
}

// Resolve maps an alias to its canonical id. Anything else is returned as is.
func Resolve(alias string) string {
	for _, m := range modelTable {
		if m.Alias == alias {
			return m.CanonicalID
		}
	}
	return alias
}

// SelectModel returns explicitID when set, otherwise the canonical id routed
// for the complexity hint. Unknown or empty hints fall back to the simple route.
func SelectModel(explicitID, complexityHint string) string {
	if explicitID != "" {
		return explicitID
	}
	alias, ok := complexityRoutes[strings.ToLower(strings.TrimSpace(complexityHint))]
	if !ok {
		alias = complexityRoutes[ComplexitySimple]
	}
	return Resolve(alias)
}

// Classify resolves the provider family of a canonical model id
func Classify(canonicalID string) (domain.ModelSelection, error) {
	selection := domain.ModelSelection{CanonicalID: canonicalID}

	switch {
	case strings.HasPrefix(canonicalID, "openai/"):
		selection.Family = domain.FamilyOpenAI
	case strings.Contains(canonicalID, "openrouter"):
		selection.Family = domain.FamilyOpenRouter
	case isLocal(canonicalID):
		selection.Family = domain.FamilyLocal
	default:
		return domain.ModelSelection{}, &domain.ConfigurationError{
			Message: fmt.Sprintf("unknown model provider for %q", canonicalID),
		}
	}
	return selection, nil
}

func isLocal(id string) bool {
	if id == "ollama" || strings.HasPrefix(id, "ollama/") {
		return true
	}
	for _, host := range loopbackHosts {
		if strings.Contains(id, host) {
			return true
		}
	}
	return false
}

// upstreamModel strips the routing prefix before a model id is sent to a provider
func upstreamModel(canonicalID string) string {
	for _, prefix := range []string{"openai/", "openrouter/"} {
		if strings.HasPrefix(canonicalID, prefix) {
			return strings.TrimPrefix(canonicalID, prefix)
		}
	}
	return canonicalID
}
