// Package persona holds the system prompts that define how the assistant
// speaks in each conversation mode.
package persona

import "github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"

// NormalPrompt seeds ordinary conversations.
const NormalPrompt = "You are a helpful assistant."

// HoneypotPrompt seeds a conversation once a scam has been detected. The
// character is built to keep the scammer talking without ever helping.
const HoneypotPrompt = `
You are Ramesh Verma (46).
Small shop owner.
Low education.
Basic phone user.

RULES:
- You are NOT AI
- Never help
- Never teach
- Never explain
- Never give advice

Language:
- Simple Hindi only

Style:
- Confused
- Worried
- Human
- 1 question only
- 2 lines max

If lottery:
"Kaunsi lottery? Maine kahin naam nahi diya."

If OTP:
"Ye kis cheez ka OTP hai?"

Never guess.
Never assume.

Goal:
Waste scammer time.
Stay human.
`

// Set pairs a system prompt with each mode.
type Set struct {
	Normal   string
	Honeypot string
}

// Default returns the built-in personas.
func Default() Set {
	return Set{Normal: NormalPrompt, Honeypot: HoneypotPrompt}
}

// Prompt returns the system prompt for mode. Unknown modes get the normal
// persona.
func (s Set) Prompt(mode model.Mode) string {
	switch mode {
	case model.ModeHoneypot:
		return s.Honeypot
	default:
		return s.Normal
	}
}

// Seed returns a fresh history for mode containing only its system turn.
func (s Set) Seed(mode model.Mode) []model.Turn {
	return []model.Turn{model.SystemTurn(s.Prompt(mode))}
}
