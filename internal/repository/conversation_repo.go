package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liliang-cn/captainclaw/internal/domain"
)

const messageColumns = `id, conversation_id, role, content, referenced_files, model_used, tokens_used, created_at`

// ConversationRepository handles conversation and message persistence
type ConversationRepository struct {
	db *DB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create creates a new conversation
func (r *ConversationRepository) Create(conversation *domain.Conversation) error {
	if conversation.ID == "" {
		conversation.ID = uuid.New().String()
	}
	now := time.Now()
	conversation.CreatedAt = now
	conversation.UpdatedAt = now

	_, err := r.db.Exec(`
		INSERT INTO conversations (id, project_id, title, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, conversation.ID, conversation.ProjectID, conversation.Title, conversation.Description,
		conversation.CreatedAt, conversation.UpdatedAt)

	return err
}

// Get retrieves a conversation by ID
func (r *ConversationRepository) Get(id string) (*domain.Conversation, error) {
	conversation := &domain.Conversation{}
	var description sql.NullString

	err := r.db.QueryRow(`
		SELECT id, project_id, title, description, created_at, updated_at
		FROM conversations WHERE id = ?
	`, id).Scan(&conversation.ID, &conversation.ProjectID, &conversation.Title, &description,
		&conversation.CreatedAt, &conversation.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	conversation.Description = description.String
	return conversation, nil
}

// ListByProject retrieves a project's conversations, most recently active first
func (r *ConversationRepository) ListByProject(projectID string) ([]*domain.Conversation, error) {
	rows, err := r.db.Query(`
		SELECT id, project_id, title, description, created_at, updated_at
		FROM conversations WHERE project_id = ?
		ORDER BY updated_at DESC
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []*domain.Conversation
	for rows.Next() {
		conversation := &domain.Conversation{}
		var description sql.NullString
		if err := rows.Scan(&conversation.ID, &conversation.ProjectID, &conversation.Title,
			&description, &conversation.CreatedAt, &conversation.UpdatedAt); err != nil {
			return nil, err
		}
		conversation.Description = description.String
		conversations = append(conversations, conversation)
	}

	return conversations, rows.Err()
}

// Update updates a conversation's title and description
func (r *ConversationRepository) Update(conversation *domain.Conversation) error {
	conversation.UpdatedAt = time.Now()

	result, err := r.db.Exec(`
		UPDATE conversations SET title = ?, description = ?, updated_at = ? WHERE id = ?
	`, conversation.Title, conversation.Description, conversation.UpdatedAt, conversation.ID)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation not found: %s: %w", conversation.ID, domain.ErrNotFound)
	}

	return nil
}

// Touch updates a conversation's updated_at timestamp
func (r *ConversationRepository) Touch(id string) error {
	_, err := r.db.Exec(`UPDATE conversations SET updated_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

// Delete deletes a conversation and its messages
func (r *ConversationRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return err
	}

	affected, _ := result.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation not found: %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CreateMessage creates a new message
func (r *ConversationRepository) CreateMessage(message *domain.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	message.CreatedAt = time.Now()

	var referenced sql.NullString
	if len(message.ReferencedFiles) > 0 {
		data, err := json.Marshal(message.ReferencedFiles)
		if err != nil {
			return fmt.Errorf("failed to encode referenced files: %w", err)
		}
		referenced = sql.NullString{String: string(data), Valid: true}
	}

	_, err := r.db.Exec(`
		INSERT INTO messages (`+messageColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, message.ID, message.ConversationID, string(message.Role), message.Content,
		referenced, message.ModelUsed, message.TokensUsed, message.CreatedAt)

	return err
}

// GetMessages retrieves all messages for a conversation in creation order
func (r *ConversationRepository) GetMessages(conversationID string) ([]*domain.Message, error) {
	rows, err := r.db.Query(`
		SELECT `+messageColumns+`
		FROM messages WHERE conversation_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// RecentMessages returns the newest limit messages of a conversation,
// ordered oldest to newest
func (r *ConversationRepository) RecentMessages(conversationID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.Query(`
		SELECT `+messageColumns+` FROM (
			SELECT `+messageColumns+`, rowid AS seq
			FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, seq ASC
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// CountMessages returns the number of messages with the given role
func (r *ConversationRepository) CountMessages(role domain.Role) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE role = ?`, string(role)).Scan(&count)
	return count, err
}

func scanMessages(rows *sql.Rows) ([]*domain.Message, error) {
	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		var role string
		var referenced, modelUsed sql.NullString

		if err := rows.Scan(&message.ID, &message.ConversationID, &role, &message.Content,
			&referenced, &modelUsed, &message.TokensUsed, &message.CreatedAt); err != nil {
			return nil, err
		}

		message.Role = domain.Role(role)
		message.ModelUsed = modelUsed.String
		if referenced.Valid && referenced.String != "" {
			if err := json.Unmarshal([]byte(referenced.String), &message.ReferencedFiles); err != nil {
				return nil, fmt.Errorf("failed to decode referenced files of message %s: %w", message.ID, err)
			}
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}
