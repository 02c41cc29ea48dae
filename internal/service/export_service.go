package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/export"
	"github.com/liliang-cn/captainclaw/internal/repository"
)

// ExportFormat selects the rendered document type
type ExportFormat string

const (
	ExportPDF  ExportFormat = "pdf"
	ExportDOCX ExportFormat = "docx"
)

// ExportedDocument is a rendered transcript ready for download
type ExportedDocument struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders conversation transcripts
type ExportService struct {
	projectRepo      *repository.ProjectRepository
	conversationRepo *repository.ConversationRepository
	fileRepo         *repository.FileRepository
}

// NewExportService creates a new export service
func NewExportService(
	projectRepo *repository.ProjectRepository,
	conversationRepo *repository.ConversationRepository,
	fileRepo *repository.FileRepository,
) *ExportService {
	return &ExportService{
		projectRepo:      projectRepo,
		conversationRepo: conversationRepo,
		fileRepo:         fileRepo,
	}
}

// Export renders a conversation. With includeFiles every file of the project
// is listed under Referenced Documents.
func (s *ExportService) Export(ctx context.Context, conversationID string, format ExportFormat, includeFiles bool) (*ExportedDocument, error) {
	conversation, err := s.conversationRepo.Get(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	project, err := s.projectRepo.Get(conversation.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}

	messages, err := s.conversationRepo.GetMessages(conversationID)
	if err != nil {
		return nil, err
	}

	transcript := export.Transcript{
		Project:      project,
		Conversation: conversation,
		Messages:     messages,
	}
	if includeFiles {
		if transcript.Files, err = s.fileRepo.ListByProject(project.ID); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	doc := &ExportedDocument{Filename: export.Filename(conversation.Title, string(format))}
	switch format {
	case ExportPDF:
		doc.ContentType = export.ContentTypePDF
		err = export.PDF(&buf, transcript)
	case ExportDOCX:
		doc.ContentType = export.ContentTypeDOCX
		err = export.DOCX(&buf, transcript)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", domain.ErrInvalidRequest, format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}

	doc.Data = buf.Bytes()
	return doc, nil
}
