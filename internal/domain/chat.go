package domain

import "time"

// Role of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationTurn is one role-tagged unit in the ordered list sent to a provider
type ConversationTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatResult is the normalized provider reply. TokenCount is 0 when the
// provider does not report usage.
type ChatResult struct {
	Content    string `json:"content"`
	ModelID    string `json:"model_id"`
	TokenCount int    `json:"token_count"`
}

// Conversation represents a chat thread inside a project
type Conversation struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Message represents a persisted chat message
type Message struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	Role            Role      `json:"role"`
	Content         string    `json:"content"`
	ReferencedFiles []string  `json:"referenced_files,omitempty"`
	ModelUsed       string    `json:"model_used,omitempty"`
	TokensUsed      int       `json:"tokens_used"`
	CreatedAt       time.Time `json:"created_at"`
}

// Turn converts a stored message to a conversation turn
func (m *Message) Turn() ConversationTurn {
	return ConversationTurn{Role: m.Role, Content: m.Content}
}

// ConversationDetail is a conversation with its full message list
type ConversationDetail struct {
	*Conversation
	Messages []*Message `json:"messages"`
}

// CreateConversationRequest is the request to create a conversation
type CreateConversationRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description,omitempty"`
}

// UpdateConversationRequest is the request to update a conversation
type UpdateConversationRequest struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendMessageRequest is the request to send a chat message
type SendMessageRequest struct {
	ConversationID    string   `json:"conversation_id" binding:"required"`
	ProjectID         string   `json:"project_id" binding:"required"`
	Message           string   `json:"message" binding:"required"`
	ReferencedFileIDs []string `json:"referenced_file_ids,omitempty"`
	Model             string   `json:"model,omitempty"`
	Complexity        string   `json:"complexity,omitempty"`
}

// SendMessageResponse is the response from a chat message
type SendMessageResponse struct {
	UserMessageID      string `json:"user_message_id"`
	AssistantMessageID string `json:"assistant_message_id"`
	Response           string `json:"response"`
	Model              string `json:"model"`
	TokensUsed         int    `json:"tokens_used"`
}
