package llm

import (
	"strings"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
)

// Prompt role markers.
const (
	markerSystem    = "<|system|>"
	markerUser      = "<|user|>"
	markerAssistant = "<|assistant|>"
)

// BuildPrompt flattens history into a role-tagged prompt. Each turn is its
// marker on one line followed by its content, and the prompt ends with an
// open assistant marker. Turns with unknown roles are skipped.
func BuildPrompt(history []model.Turn) string {
	var b strings.Builder
	for _, t := range history {
		marker, ok := roleMarker(t.Role)
		if !ok {
			continue
		}
		b.WriteString(marker)
		b.WriteString("\n")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	b.WriteString(markerAssistant)
	b.WriteString("\n")
	return b.String()
}

func roleMarker(r model.Role) (string, bool) {
	switch r {
	case model.RoleSystem:
		return markerSystem, true
	case model.RoleHuman:
		return markerUser, true
	case model.RoleAssistant:
		return markerAssistant, true
	default:
		return "", false
	}
}
