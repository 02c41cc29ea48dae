package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
	"github.com/liliang-cn/captainclaw/internal/llm"
	"github.com/liliang-cn/captainclaw/internal/repository"
	"go.uber.org/zap"
)

// ChatService handles chat messages inside a project conversation
type ChatService struct {
	projectRepo      *repository.ProjectRepository
	conversationRepo *repository.ConversationRepository
	orchestrator     *ChatOrchestrator
	logger           *zap.Logger
}

// NewChatService creates a new chat service
func NewChatService(
	projectRepo *repository.ProjectRepository,
	conversationRepo *repository.ConversationRepository,
	orchestrator *ChatOrchestrator,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		projectRepo:      projectRepo,
		conversationRepo: conversationRepo,
		orchestrator:     orchestrator,
		logger:           logger,
	}
}

// Send runs one chat turn. Messages are stored only after the provider
// replied, so a failed call leaves the conversation untouched.
func (s *ChatService) Send(ctx context.Context, req *domain.SendMessageRequest) (*domain.SendMessageResponse, error) {
	if req.ConversationID == "" || req.ProjectID == "" || strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: conversation_id, project_id and message are required", domain.ErrInvalidRequest)
	}

	project, err := s.projectRepo.Get(req.ProjectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, fmt.Errorf("project not found: %w", domain.ErrNotFound)
	}

	conversation, err := s.conversationRepo.Get(req.ConversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil || conversation.ProjectID != project.ID {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}

	recent, err := s.conversationRepo.RecentMessages(conversation.ID, llm.HistoryLimit)
	if err != nil {
		return nil, err
	}
	history := make([]domain.ConversationTurn, 0, len(recent))
	for _, m := range recent {
		history = append(history, m.Turn())
	}

	result, err := s.orchestrator.HandleChat(ctx, ChatInput{
		SystemPrompt:  project.SystemPrompt,
		Message:       req.Message,
		FileIDs:       req.ReferencedFileIDs,
		History:       history,
		ExplicitModel: req.Model,
		Complexity:    req.Complexity,
	})
	if err != nil {
		return nil, err
	}

	userMsg := &domain.Message{
		ConversationID:  conversation.ID,
		Role:            domain.RoleUser,
		Content:         req.Message,
		ReferencedFiles: req.ReferencedFileIDs,
	}
	if err := s.conversationRepo.CreateMessage(userMsg); err != nil {
		return nil, err
	}

	assistantMsg := &domain.Message{
		ConversationID: conversation.ID,
		Role:           domain.RoleAssistant,
		Content:        result.Content,
		ModelUsed:      result.ModelID,
		TokensUsed:     result.TokenCount,
	}
	if err := s.conversationRepo.CreateMessage(assistantMsg); err != nil {
		return nil, err
	}

	if err := s.conversationRepo.Touch(conversation.ID); err != nil {
		return nil, err
	}

	s.logger.Info("chat message answered",
		zap.String("conversation_id", conversation.ID),
		zap.String("model", result.ModelID),
		zap.Int("tokens", result.TokenCount),
		zap.Int("files", len(req.ReferencedFileIDs)),
	)

	return &domain.SendMessageResponse{
		UserMessageID:      userMsg.ID,
		AssistantMessageID: assistantMsg.ID,
		Response:           result.Content,
		Model:              result.ModelID,
		TokensUsed:         result.TokenCount,
	}, nil
}

// History returns every message of a conversation in order
func (s *ChatService) History(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	conversation, err := s.conversationRepo.Get(conversationID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		return nil, fmt.Errorf("conversation not found: %w", domain.ErrNotFound)
	}
	return s.conversationRepo.GetMessages(conversationID)
}
