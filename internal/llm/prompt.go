package llm

import (
	"strings"

	"github.com/liliang-cn/captainclaw/internal/domain"
)

// HistoryLimit is how many prior turns are forwarded to a provider
const HistoryLimit = 10

// Prompt is the provider-neutral request. The system prompt is kept apart
// from Turns; providers prepend it themselves.
type Prompt struct {
	System string
	Turns  []domain.ConversationTurn
}

// Messages returns the turns with the system prompt prepended when set
func (p Prompt) Messages() []domain.ConversationTurn {
	if p.System == "" {
		return p.Turns
	}
	out := make([]domain.ConversationTurn, 0, len(p.Turns)+1)
	out = append(out, domain.ConversationTurn{Role: domain.RoleSystem, Content: p.System})
	return append(out, p.Turns...)
}

// Assemble builds the prompt for one chat request. The most recent
// HistoryLimit history entries form the window; non user/assistant entries
// inside it are dropped without pulling in older turns.
func Assemble(systemPrompt, fileContext string, history []domain.ConversationTurn, newMessage string) Prompt {
	if len(history) > HistoryLimit {
		history = history[len(history)-HistoryLimit:]
	}

	turns := make([]domain.ConversationTurn, 0, len(history)+1)
	for _, turn := range history {
		if turn.Role == domain.RoleUser || turn.Role == domain.RoleAssistant {
			turns = append(turns, turn)
		}
	}

	content := newMessage
	if fileContext != "" {
		content = "Document Context:\n" + fileContext + "\n\n" + newMessage
	}
	turns = append(turns, domain.ConversationTurn{Role: domain.RoleUser, Content: content})

	return Prompt{System: systemPrompt, Turns: turns}
}

// FileSection is one document contributed to the chat context
type FileSection struct {
	Filename string
	Text     string
}

// FileContext renders sections as "\n[File: name]\ntext" blocks separated by "\n---\n"
func FileContext(sections []FileSection) string {
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, "\n[File: "+s.Filename+"]\n"+s.Text)
	}
	return strings.Join(parts, "\n---\n")
}
