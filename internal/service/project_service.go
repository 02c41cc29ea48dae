package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"go.uber.org/zap"
)

// IndexRebuilder refreshes the search index after a mutation
type IndexRebuilder interface {
	Rebuild() error
}

// ProjectService handles projects and their conversations
type ProjectService struct {
	projectRepo      *repository.ProjectRepository
	conversationRepo *repository.ConversationRepository
	fileRepo         *repository.FileRepository
	index            IndexRebuilder
	logger           *zap.Logger
}

// NewProjectService creates a new project service
func NewProjectService(
	projectRepo *repository.ProjectRepository,
	conversationRepo *repository.ConversationRepository,
	fileRepo *repository.FileRepository,
	index IndexRebuilder,
	logger *zap.Logger,
) *ProjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projectRepo:      projectRepo,
		conversationRepo: conversationRepo,
		fileRepo:         fileRepo,
		index:            index,
		logger:           logger,
	}
}

// Project operations

func (s *ProjectService) CreateProject(ctx context.Context, req *domain.CreateProjectRequest) (*domain.Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: project name is required", domain.ErrInvalidRequest)
	}

	project := &domain.Project{
		Name:            req.Name,
		Description:     req.Description,
		SystemPrompt:    req.SystemPrompt,
		Tone:            orDefault(req.Tone, domain.DefaultTone),
		Language:        orDefault(req.Language, domain.DefaultLanguage),
		FontFamily:      orDefault(req.FontFamily, domain.DefaultFontFamily),
		FontSize:        req.FontSize,
		LineSpacing:     req.LineSpacing,
		HeadingFontSize: req.HeadingFontSize,
		HeadingBold:     true,
	}
	if project.FontSize <= 0 {
		project.FontSize = domain.DefaultFontSize
	}
	if project.LineSpacing <= 0 {
		project.LineSpacing = domain.DefaultLineSpacing
	}
	if project.HeadingFontSize <= 0 {
		project.HeadingFontSize = domain.DefaultHeadingFontSize
	}
	if req.HeadingBold != nil {
		project.HeadingBold = *req.HeadingBold
	}

	if err := s.projectRepo.Create(project); err != nil {
		return nil, err
	}
	s.rebuildIndex()
	return project, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	project, err := s.projectRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}
	return project, nil
}

func (s *ProjectService) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	return s.projectRepo.List()
}

func (s *ProjectService) UpdateProject(ctx context.Context, id string, req *domain.UpdateProjectRequest) (*domain.Project, error) {
	if req.Empty() {
		return nil, fmt.Errorf("%w: no valid fields to update", domain.ErrInvalidRequest)
	}

	project, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: project name cannot be empty", domain.ErrInvalidRequest)
		}
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.SystemPrompt != nil {
		project.SystemPrompt = *req.SystemPrompt
	}
	if req.Tone != nil {
		project.Tone = *req.Tone
	}
	if req.Language != nil {
		project.Language = *req.Language
	}
	if req.FontFamily != nil {
		project.FontFamily = *req.FontFamily
	}
	if req.FontSize != nil {
		project.FontSize = *req.FontSize
	}
	if req.LineSpacing != nil {
		project.LineSpacing = *req.LineSpacing
	}
	if req.HeadingFontSize != nil {
		project.HeadingFontSize = *req.HeadingFontSize
	}
	if req.HeadingBold != nil {
		project.HeadingBold = *req.HeadingBold
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, err
	}
	s.rebuildIndex()
	return project, nil
}

// DeleteProject removes the project, its conversations and files, including
// the stored uploads
func (s *ProjectService) DeleteProject(ctx context.Context, id string) error {
	files, err := s.fileRepo.ListByProject(id)
	if err != nil {
		return err
	}

	if err := s.projectRepo.Delete(id); err != nil {
		return err
	}

	for _, f := range files {
		if err := os.Remove(f.FilePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove stored upload", zap.String("path", f.FilePath), zap.Error(err))
		}
	}
	s.rebuildIndex()
	return nil
}

// Conversation operations

func (s *ProjectService) CreateConversation(ctx context.Context, req *domain.CreateConversationRequest) (*domain.Conversation, error) {
	if req.ProjectID == "" || strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: project_id and title are required", domain.ErrInvalidRequest)
	}
	if _, err := s.GetProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}

	conversation := &domain.Conversation{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.conversationRepo.Create(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ProjectService) GetConversation(ctx context.Context, id string) (*domain.ConversationDetail, error) {
	conversation, err := s.conversationRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	messages, err := s.conversationRepo.GetMessages(id)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []*domain.Message{}
	}
	return &domain.ConversationDetail{Conversation: conversation, Messages: messages}, nil
}

func (s *ProjectService) ListConversations(ctx context.Context, projectID string) ([]*domain.Conversation, error) {
	return s.conversationRepo.ListByProject(projectID)
}

func (s *ProjectService) UpdateConversation(ctx context.Context, id string, req *domain.UpdateConversationRequest) (*domain.Conversation, error) {
	conversation, err := s.conversationRepo.Get(id)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	if req.Title != "" {
		conversation.Title = req.Title
	}
	if req.Description != "" {
		conversation.Description = req.Description
	}

	if err := s.conversationRepo.Update(conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *ProjectService) DeleteConversation(ctx context.Context, id string) error {
	return s.conversationRepo.Delete(id)
}

func (s *ProjectService) rebuildIndex() {
	if s.index == nil {
		return
	}
	if err := s.index.Rebuild(); err != nil {
		s.logger.Warn("failed to rebuild search index", zap.Error(err))
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
