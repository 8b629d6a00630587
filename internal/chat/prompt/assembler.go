package prompt

import (
	"strings"

	"github.com/chatrelay/server/internal/chat/model"
)

// Assemble flattens a conversation into the single linear prompt sent to
// the model: an optional "system: <prompt>" line, one "<role>: <text>"
// line per history turn in log order, and a trailing "user: <query>"
// line. Deterministic, no truncation; the full history is always
// included.
func Assemble(systemPrompt string, hasSystem bool, history []model.Turn, query string) string {
	var b strings.Builder
	if hasSystem {
		b.WriteString(model.RoleSystem + ": " + systemPrompt + "\n")
	}
	for _, t := range history {
		b.WriteString(t.Role + ": " + t.Text + "\n")
	}
	b.WriteString(model.RoleUser + ": " + query)
	return b.String()
}
