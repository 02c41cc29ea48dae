package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"syscall"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/tidwall/gjson"
)

// MaxResponseBodySize limits how much of a local runtime response is read
const MaxResponseBodySize = 8 * 1024 * 1024

// OllamaProvider talks to a local Ollama runtime
type OllamaProvider struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaProvider creates a local provider. The model is fixed by
// configuration; the canonical id only routes to this provider.
func NewOllamaProvider(baseURL, model string, client *http.Client) *OllamaProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  client,
	}
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "Ollama"
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// Chat sends a non-streaming /api/chat request
func (p *OllamaProvider) Chat(ctx context.Context, prompt Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	req := ollamaChatRequest{Model: p.model}
	for _, turn := range prompt.Messages() {
		req.Messages = append(req.Messages, ollamaMessage{Role: string(turn.Role), Content: turn.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return domain.ChatResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return domain.ChatResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return domain.ChatResult{}, &domain.UnavailableError{
				Provider: p.Name(),
				Message:  "Ollama is not running. Make sure OLLAMA is started on port 11434.",
				Err:      err,
			}
		}
		return domain.ChatResult{}, &domain.ProviderError{Provider: p.Name(), Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBodySize))
	if err != nil {
		return domain.ChatResult{}, &domain.ProviderError{Provider: p.Name(), Message: err.Error(), Err: err}
	}

	errMessage := gjson.GetBytes(data, "error").String()
	if resp.StatusCode == http.StatusNotFound || modelNotFound(errMessage) {
		return domain.ChatResult{}, &domain.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("Ollama model not found. Make sure %s is loaded.", p.model),
		}
	}
	if resp.StatusCode != http.StatusOK {
		if errMessage == "" {
			errMessage = strings.TrimSpace(string(data))
		}
		return domain.ChatResult{}, &domain.ProviderError{
			Provider:   p.Name(),
			StatusCode: resp.StatusCode,
			Message:    errMessage,
		}
	}

	return domain.ChatResult{
		Content:    gjson.GetBytes(data, "message.content").String(),
		ModelID:    "ollama/" + p.model,
		TokenCount: 0,
	}, nil
}

func modelNotFound(message string) bool {
	message = strings.ToLower(message)
	return strings.Contains(message, "model") && strings.Contains(message, "not found")
}
