package service

import (
	"context"
	"fmt"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/sourcegraph/conc/iter"
	"go.uber.org/zap"
)

// FileReader loads persisted file records. Get returns nil, nil when the
// file does not exist.
type FileReader interface {
	Get(id string) (*domain.File, error)
}

// ChatGateway sends an assembled prompt to the selected provider
type ChatGateway interface {
	Send(ctx context.Context, prompt llm.Prompt, selection domain.ModelSelection) (domain.ChatResult, error)
}

// ChatInput is one chat turn to orchestrate
type ChatInput struct {
	SystemPrompt  string
	Message       string
	FileIDs       []string
	History       []domain.ConversationTurn
	ExplicitModel string
	Complexity    string
}

// ChatOrchestrator turns a chat input into a provider reply. It does not
// persist anything.
type ChatOrchestrator struct {
	files   FileReader
	gateway ChatGateway
	logger  *zap.Logger
}

// NewChatOrchestrator creates a new orchestrator
func NewChatOrchestrator(files FileReader, gateway ChatGateway, logger *zap.Logger) *ChatOrchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatOrchestrator{
		files:   files,
		gateway: gateway,
		logger:  logger,
	}
}

// HandleChat selects a model, builds the document context and sends the
// prompt. Gateway errors are returned unchanged.
func (o *ChatOrchestrator) HandleChat(ctx context.Context, in ChatInput) (domain.ChatResult, error) {
	modelID := llm.Resolve(llm.SelectModel(in.ExplicitModel, in.Complexity))
	selection, err := llm.Classify(modelID)
	if err != nil {
		return domain.ChatResult{}, err
	}

	fileContext, err := o.fileContext(ctx, in.FileIDs)
	if err != nil {
		return domain.ChatResult{}, err
	}

	prompt := llm.Assemble(in.SystemPrompt, fileContext, in.History, in.Message)
	return o.gateway.Send(ctx, prompt, selection)
}

// fileContext reads the referenced files in parallel, keeping request order.
// Unknown ids are skipped.
func (o *ChatOrchestrator) fileContext(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}

	files, err := iter.MapErr(ids, func(id *string) (*domain.File, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		file, err := o.files.Get(*id)
		if err != nil {
			return nil, fmt.Errorf("failed to load file %s: %w", *id, err)
		}
		return file, nil
	})
	if err != nil {
		return "", err
	}

	sections := make([]llm.FileSection, 0, len(files))
	for i, file := range files {
		if file == nil {
			o.logger.Warn("referenced file not found", zap.String("file_id", ids[i]))
			continue
		}
		if file.ExtractionStatus == domain.ExtractionFailed {
			o.logger.Warn("using degraded file context",
				zap.String("file_id", file.ID),
				zap.String("filename", file.Filename),
				zap.String("reason", file.ExtractionError),
			)
		}
		sections = append(sections, llm.FileSection{Filename: file.Filename, Text: file.ExtractedText})
	}

	return llm.FileContext(sections), nil
}
