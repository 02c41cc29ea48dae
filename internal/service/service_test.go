package service

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/liliang-cn/captainclaw/internal/config"
	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/extract"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	calls     int
	prompt    llm.Prompt
	selection domain.ModelSelection
	result    domain.ChatResult
	err       error
}

func (g *fakeGateway) Send(_ context.Context, prompt llm.Prompt, selection domain.ModelSelection) (domain.ChatResult, error) {
	g.calls++
	g.prompt = prompt
	g.selection = selection
	if g.err != nil {
		return domain.ChatResult{}, g.err
	}
	result := g.result
	result.ModelID = selection.CanonicalID
	return result, nil
}

type fixture struct {
	cfg           *config.Config
	projects      *repository.ProjectRepository
	conversations *repository.ConversationRepository
	files         *repository.FileRepository
	gateway       *fakeGateway
	search        *SearchService
	projectSvc    *ProjectService
	fileSvc       *FileService
	chatSvc       *ChatService
	exportSvc     *ExportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	db, err := repository.NewDB(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Storage.Uploads = filepath.Join(dir, "uploads")
	cfg.Storage.MaxUploadMB = 10

	f := &fixture{
		cfg:           cfg,
		projects:      repository.NewProjectRepository(db),
		conversations: repository.NewConversationRepository(db),
		files:         repository.NewFileRepository(db),
		gateway:       &fakeGateway{result: domain.ChatResult{Content: "hello!", TokenCount: 12}},
	}
	f.search = NewSearchService(f.projects, f.files)
	f.projectSvc = NewProjectService(f.projects, f.conversations, f.files, f.search, nil)
	f.fileSvc = NewFileService(f.projects, f.files, extract.NewExtractor(nil), f.search, cfg, nil)
	orchestrator := NewChatOrchestrator(f.files, f.gateway, nil)
	f.chatSvc = NewChatService(f.projects, f.conversations, orchestrator, nil)
	f.exportSvc = NewExportService(f.projects, f.conversations, f.files)
	return f
}

func (f *fixture) project(t *testing.T) *domain.Project {
	t.Helper()
	project, err := f.projectSvc.CreateProject(context.Background(), &domain.CreateProjectRequest{
		Name:         "Thesis",
		SystemPrompt: "You are terse.",
	})
	require.NoError(t, err)
	return project
}

func (f *fixture) conversation(t *testing.T, projectID string) *domain.Conversation {
	t.Helper()
	conversation, err := f.projectSvc.CreateConversation(context.Background(), &domain.CreateConversationRequest{
		ProjectID: projectID,
		Title:     "Chapter 1",
	})
	require.NoError(t, err)
	return conversation
}

func docxBytes(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>" + p + "</w:t></w:r></w:p>")
	}
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() + `</w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestHandleChat_MinimalRequest(t *testing.T) {
	gateway := &fakeGateway{result: domain.ChatResult{Content: "hey"}}
	o := NewChatOrchestrator(nil, gateway, nil)

	result, err := o.HandleChat(context.Background(), ChatInput{SystemPrompt: "You are terse.", Message: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hey", result.Content)
	assert.Equal(t, "openrouter/anthropic/claude-haiku-4.5", result.ModelID)
	assert.Equal(t, domain.FamilyOpenRouter, gateway.selection.Family)
	assert.Equal(t, "You are terse.", gateway.prompt.System)
	assert.Equal(t, []domain.ConversationTurn{{Role: domain.RoleUser, Content: "hi"}}, gateway.prompt.Turns)
}

func TestHandleChat_ResolvesAliasAndRejectsUnknownModel(t *testing.T) {
	gateway := &fakeGateway{}
	o := NewChatOrchestrator(nil, gateway, nil)

	_, err := o.HandleChat(context.Background(), ChatInput{Message: "hi", ExplicitModel: "gpt4o"})
	require.NoError(t, err)
	assert.Equal(t, domain.ModelSelection{CanonicalID: "openai/gpt-4o", Family: domain.FamilyOpenAI}, gateway.selection)

	_, err = o.HandleChat(context.Background(), ChatInput{Message: "hi", ExplicitModel: "mystery-model"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.Equal(t, 1, gateway.calls)
}

func TestHandleChat_FileContextOrderAndDegradedFiles(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	good := &domain.File{ProjectID: project.ID, Filename: "a.docx", FilePath: "/x/a.docx", FileType: ".docx", ExtractedText: "alpha"}
	broken := &domain.File{
		ProjectID:        project.ID,
		Filename:         "b.pdf",
		FilePath:         "/x/b.pdf",
		FileType:         ".pdf",
		ExtractedText:    extract.SentinelText,
		ExtractionStatus: domain.ExtractionFailed,
		ExtractionError:  "broken",
	}
	require.NoError(t, f.files.Create(good))
	require.NoError(t, f.files.Create(broken))

	o := NewChatOrchestrator(f.files, f.gateway, nil)
	_, err := o.HandleChat(context.Background(), ChatInput{
		Message: "summarize",
		FileIDs: []string{broken.ID, "missing", good.ID},
	})
	require.NoError(t, err)

	require.Len(t, f.gateway.prompt.Turns, 1)
	want := "Document Context:\n" +
		"\n[File: b.pdf]\n" + extract.SentinelText +
		"\n---\n" +
		"\n[File: a.docx]\nalpha" +
		"\n\nsummarize"
	assert.Equal(t, want, f.gateway.prompt.Turns[0].Content)
}

func TestChatService_SendPersistsAfterReply(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)
	conversation := f.conversation(t, project.ID)

	for i := 0; i < 15; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, f.conversations.CreateMessage(&domain.Message{
			ConversationID: conversation.ID,
			Role:           role,
			Content:        fmt.Sprintf("m%d", i),
		}))
	}

	resp, err := f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{
		ConversationID: conversation.ID,
		ProjectID:      project.ID,
		Message:        "next",
		Complexity:     "hard",
	})
	require.NoError(t, err)

	assert.Equal(t, "hello!", resp.Response)
	assert.Equal(t, "openrouter/anthropic/claude-sonnet-4.5", resp.Model)
	assert.Equal(t, 12, resp.TokensUsed)
	assert.NotEmpty(t, resp.UserMessageID)
	assert.NotEmpty(t, resp.AssistantMessageID)

	require.Len(t, f.gateway.prompt.Turns, llm.HistoryLimit+1)
	assert.Equal(t, "m5", f.gateway.prompt.Turns[0].Content)
	assert.Equal(t, "You are terse.", f.gateway.prompt.System)

	messages, err := f.chatSvc.History(context.Background(), conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 17)
	assert.Equal(t, "next", messages[15].Content)
	assert.Equal(t, domain.RoleAssistant, messages[16].Role)
	assert.Equal(t, "openrouter/anthropic/claude-sonnet-4.5", messages[16].ModelUsed)
	assert.Equal(t, 12, messages[16].TokensUsed)
}

func TestChatService_ProviderFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)
	conversation := f.conversation(t, project.ID)

	limited := &domain.RateLimitError{Provider: "OpenRouter", Message: "OpenRouter rate limit exceeded. Please wait a moment and try again."}
	f.gateway.err = limited

	_, err := f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{
		ConversationID: conversation.ID,
		ProjectID:      project.ID,
		Message:        "hi",
	})
	assert.Same(t, limited, err)

	messages, err := f.chatSvc.History(context.Background(), conversation.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestChatService_Validation(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)
	other := f.project(t)
	conversation := f.conversation(t, other.ID)

	_, err := f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{ProjectID: project.ID, Message: "hi"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	_, err = f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{
		ConversationID: conversation.ID,
		ProjectID:      project.ID,
		Message:        "hi",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{
		ConversationID: conversation.ID,
		ProjectID:      "nope",
		Message:        "hi",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, f.gateway.calls)
}

func TestProjectService_Defaults(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	assert.Equal(t, domain.DefaultTone, project.Tone)
	assert.Equal(t, domain.DefaultLanguage, project.Language)
	assert.Equal(t, domain.DefaultFontFamily, project.FontFamily)
	assert.Equal(t, domain.DefaultFontSize, project.FontSize)
	assert.Equal(t, domain.DefaultLineSpacing, project.LineSpacing)
	assert.Equal(t, domain.DefaultHeadingFontSize, project.HeadingFontSize)
	assert.True(t, project.HeadingBold)

	_, err := f.projectSvc.UpdateProject(context.Background(), project.ID, &domain.UpdateProjectRequest{})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)

	tone := "formal"
	updated, err := f.projectSvc.UpdateProject(context.Background(), project.ID, &domain.UpdateProjectRequest{Tone: &tone})
	require.NoError(t, err)
	assert.Equal(t, "formal", updated.Tone)
	assert.Equal(t, "You are terse.", updated.SystemPrompt)

	_, err = f.projectSvc.GetProject(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFileService_StoreAndDelete(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	file, err := f.fileSvc.Store(context.Background(), project.ID, "Notes.DOCX", bytes.NewReader(docxBytes(t, "Harbour logistics", "Second line")))
	require.NoError(t, err)

	assert.Equal(t, "Notes.DOCX", file.Filename)
	assert.Equal(t, ".docx", file.FileType)
	assert.Equal(t, domain.ExtractionOK, file.ExtractionStatus)
	assert.Equal(t, "Harbour logistics\nSecond line", file.ExtractedText)
	assert.NotEmpty(t, file.MimeType)
	assert.True(t, strings.HasPrefix(file.FilePath, f.cfg.Storage.Uploads))
	assert.FileExists(t, file.FilePath)

	results := f.search.Search(context.Background(), "harbour", 10)
	require.NotEmpty(t, results)
	assert.Equal(t, file.ID, results[0].ID)

	summary, err := f.fileSvc.Summarize(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Stats.Words)

	require.NoError(t, f.fileSvc.DeleteFile(context.Background(), file.ID))
	assert.NoFileExists(t, file.FilePath)
	_, err = f.fileSvc.GetFile(context.Background(), file.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.search.Search(context.Background(), "harbour", 10))
}

func TestFileService_BrokenFileIsStillStored(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	file, err := f.fileSvc.Store(context.Background(), project.ID, "scan.pdf", strings.NewReader("not really a pdf"))
	require.NoError(t, err)

	assert.Equal(t, domain.ExtractionFailed, file.ExtractionStatus)
	assert.Equal(t, extract.SentinelText, file.ExtractedText)
	assert.NotEmpty(t, file.ExtractionError)

	stored, err := f.fileSvc.GetFile(context.Background(), file.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExtractionFailed, stored.ExtractionStatus)
}

func TestFileService_RejectsUnsupportedAndUnknownProject(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	_, err := f.fileSvc.Store(context.Background(), project.ID, "notes.txt", strings.NewReader("plain"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	entries, _ := os.ReadDir(f.cfg.Storage.Uploads)
	assert.Empty(t, entries)

	_, err = f.fileSvc.Store(context.Background(), "missing", "a.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProjectService_DeleteRemovesUploads(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)

	file, err := f.fileSvc.Store(context.Background(), project.ID, "a.docx", bytes.NewReader(docxBytes(t, "x")))
	require.NoError(t, err)

	require.NoError(t, f.projectSvc.DeleteProject(context.Background(), project.ID))
	assert.NoFileExists(t, file.FilePath)
	assert.Empty(t, f.search.Search(context.Background(), "thesis", 10))
}

func TestExportService(t *testing.T) {
	f := newFixture(t)
	project := f.project(t)
	conversation := f.conversation(t, project.ID)

	_, err := f.chatSvc.Send(context.Background(), &domain.SendMessageRequest{
		ConversationID: conversation.ID,
		ProjectID:      project.ID,
		Message:        "hi",
	})
	require.NoError(t, err)

	doc, err := f.exportSvc.Export(context.Background(), conversation.ID, ExportDOCX, true)
	require.NoError(t, err)
	assert.Equal(t, "Chapter 1.docx", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("PK")))

	doc, err = f.exportSvc.Export(context.Background(), conversation.ID, ExportPDF, false)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))

	_, err = f.exportSvc.Export(context.Background(), "missing", ExportPDF, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHandleChat_MissingOpenRouterKeyMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gateway := llm.NewGatewayFromConfig(&config.LLMConfig{
		OpenRouterBaseURL: srv.URL,
		OllamaBaseURL:     srv.URL,
	}, nil)
	o := NewChatOrchestrator(nil, gateway, nil)

	_, err := o.HandleChat(context.Background(), ChatInput{
		Message:       "hi",
		ExplicitModel: "openrouter/anthropic/claude-haiku-4.5",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, int32(0), hits.Load())
}
