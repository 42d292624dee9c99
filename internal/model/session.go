package model

import (
	"fmt"
	"time"
)

// Mode is the conversation mode of a session.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeHoneypot Mode = "honeypot"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case ModeNormal, ModeHoneypot:
		return true
	default:
		return false
	}
}

// Role tags a Turn. The values are the storage tags.
type Role string

const (
	RoleSystem    Role = "system"
	RoleHuman     Role = "human"
	RoleAssistant Role = "ai"
)

// Turn is one entry of a conversation history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemTurn(content string) Turn    { return Turn{Role: RoleSystem, Content: content} }
func HumanTurn(content string) Turn     { return Turn{Role: RoleHuman, Content: content} }
func AssistantTurn(content string) Turn { return Turn{Role: RoleAssistant, Content: content} }

// Validate rejects turns with an unknown role.
func (t Turn) Validate() error {
	switch t.Role {
	case RoleSystem, RoleHuman, RoleAssistant:
		return nil
	default:
		return fmt.Errorf("unknown turn role %q", t.Role)
	}
}

// Session is the per-client conversation state.
type Session struct {
	ClientID  string    `json:"client_id"`
	Mode      Mode      `json:"mode"`
	History   []Turn    `json:"history"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.History = append([]Turn(nil), s.History...)
	return &c
}

// LastHuman returns the most recent human turn in the history.
func (s *Session) LastHuman() (Turn, bool) {
	return LastHuman(s.History)
}

// LastHuman returns the most recent human turn in history.
func LastHuman(history []Turn) (Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleHuman {
			return history[i], true
		}
	}
	return Turn{}, false
}
