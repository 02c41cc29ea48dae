package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/liliang-cn/captainclaw/internal/config"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/extract"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"github.com/liliang-cn/captainclaw/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	err error
}

func (g *stubGateway) Send(_ context.Context, prompt llm.Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	if g.err != nil {
		return domain.ChatResult{}, g.err
	}
	last := prompt.Turns[len(prompt.Turns)-1]
	return domain.ChatResult{Content: "echo: " + last.Content, ModelID: selection.CanonicalID, TokenCount: 3}, nil
}

func newTestRouter(t *testing.T, apiKey string, gateway *stubGateway) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	db, err := repository.NewDB(filepath.Join(dir, "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Storage.Uploads = filepath.Join(dir, "uploads")
	cfg.Storage.MaxUploadMB = 5

	projects := repository.NewProjectRepository(db)
	conversations := repository.NewConversationRepository(db)
	files := repository.NewFileRepository(db)

	search := service.NewSearchService(projects, files)
	orchestrator := service.NewChatOrchestrator(files, gateway, nil)

	return SetupRouter(Services{
		Projects: service.NewProjectService(projects, conversations, files, search, nil),
		Files:    service.NewFileService(projects, files, extract.NewExtractor(nil), search, cfg, nil),
		Chat:     service.NewChatService(projects, conversations, orchestrator, nil),
		Export:   service.NewExportService(projects, conversations, files),
		Search:   search,
	}, RouterConfig{APIKey: apiKey, AllowOrigins: []string{"*"}}, zap.NewNop())
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func createProjectAndConversation(t *testing.T, r http.Handler) (*domain.Project, *domain.Conversation) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/projects", map[string]any{"name": "Thesis", "system_prompt": "You are terse."})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	project := decode[domain.Project](t, w)

	w = doJSON(t, r, http.MethodPost, "/api/conversations", map[string]any{"project_id": project.ID, "title": "Chapter 1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	conversation := decode[domain.Conversation](t, w)
	return &project, &conversation
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t, "", &stubGateway{})

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestChatFlow(t *testing.T) {
	r := newTestRouter(t, "", &stubGateway{})
	project, conversation := createProjectAndConversation(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{
		"conversation_id": conversation.ID,
		"project_id":      project.ID,
		"message":         "hi",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[domain.SendMessageResponse](t, w)
	assert.Equal(t, "echo: hi", resp.Response)
	assert.Equal(t, "openrouter/anthropic/claude-haiku-4.5", resp.Model)
	assert.Equal(t, 3, resp.TokensUsed)

	w = doJSON(t, r, http.MethodGet, "/api/chat/history/"+conversation.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	messages := decode[[]domain.Message](t, w)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, messages[1].Role)

	w = doJSON(t, r, http.MethodGet, "/api/conversations/"+conversation.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"messages"`)
}

func TestChatSend_Errors(t *testing.T) {
	gateway := &stubGateway{}
	r := newTestRouter(t, "", gateway)
	project, conversation := createProjectAndConversation(t, r)

	w := doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{"project_id": project.ID})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{
		"conversation_id": "missing", "project_id": project.ID, "message": "hi",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{
		"conversation_id": conversation.ID, "project_id": project.ID, "message": "hi", "model": "mystery",
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	gateway.err = &domain.RateLimitError{Provider: "OpenRouter", Message: "OpenRouter rate limit exceeded. Please wait a moment and try again."}
	w = doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{
		"conversation_id": conversation.ID, "project_id": project.ID, "message": "hi",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "rate limit exceeded")

	gateway.err = &domain.UnavailableError{Provider: "Ollama", Message: "Ollama is not running. Make sure OLLAMA is started on port 11434."}
	w = doJSON(t, r, http.MethodPost, "/api/chat/send", map[string]any{
		"conversation_id": conversation.ID, "project_id": project.ID, "message": "hi", "model": "ollama",
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUploadSearchAndExport(t *testing.T) {
	r := newTestRouter(t, "", &stubGateway{})
	project, conversation := createProjectAndConversation(t, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("not a pdf"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload/"+project.ID, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	file := decode[domain.File](t, w)
	assert.Equal(t, domain.ExtractionFailed, file.ExtractionStatus)
	assert.Equal(t, extract.SentinelText, file.ExtractedText)

	w = doJSON(t, r, http.MethodGet, "/api/files/project/"+project.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.File](t, w), 1)

	w = doJSON(t, r, http.MethodGet, "/api/search?q=notes", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), file.ID)

	w = doJSON(t, r, http.MethodPost, "/api/export/docx/"+conversation.ID, map[string]any{"include_files": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Chapter 1.docx")

	w = doJSON(t, r, http.MethodPost, "/api/export/pdf/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, "/api/files/"+file.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = doJSON(t, r, http.MethodGet, "/api/files/"+file.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpload_UnsupportedType(t *testing.T) {
	r := newTestRouter(t, "", &stubGateway{})
	project, _ := createProjectAndConversation(t, r)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("plain text"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/files/upload/"+project.ID, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyAuth(t *testing.T) {
	r := newTestRouter(t, "secret", &stubGateway{})

	w := doJSON(t, r, http.MethodGet, "/api/projects", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("X-API-Key", "secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/models", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "claude-haiku-4.5")

	w = doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
