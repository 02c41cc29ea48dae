// Package export renders a conversation transcript as PDF or Word.
package export

import (
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
)

// Content types of the rendered documents
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Transcript is everything an export needs. Files is empty unless referenced
// documents were requested.
type Transcript struct {
	Project      *domain.Project
	Conversation *domain.Conversation
	Messages     []*domain.Message
	Files        []*domain.File
}

func speaker(role domain.Role) string {
	if role == domain.RoleUser {
		return "You:"
	}
	return "Assistant:"
}

func (t Transcript) createdDate() string {
	return t.Conversation.CreatedAt.Format("2006-01-02")
}

// Filename returns a download name for the transcript with the given extension
func Filename(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '"', '/', '\\', ':', '*', '?', '<', '>', '|', '\n', '\r':
			return '_'
		}
		return r
	}, strings.TrimSpace(title))
	if name == "" {
		name = "conversation"
	}
	return name + "." + ext
}
