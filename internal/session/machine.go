// Package session owns per-client conversation state: the mode transition
// rules, the store sessions live in between requests, and the signed cookie
// that carries the client id.
package session

import (
	"time"

	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/model"
	"github.com/badboyoffical120-wq/chatbot-honeypot/internal/persona"
)

// Machine applies mode transitions to sessions. Sessions start in normal
// mode; a scam verdict moves them to honeypot mode, which is left only by
// Reset.
type Machine struct {
	personas persona.Set
	now      func() time.Time
}

// NewMachine returns a Machine seeding histories from personas.
func NewMachine(personas persona.Set) *Machine {
	return &Machine{personas: personas, now: time.Now}
}

// Personas returns the persona set the machine seeds histories from.
func (m *Machine) Personas() persona.Set {
	return m.personas
}

// New returns a fresh normal-mode session for clientID.
func (m *Machine) New(clientID string) *model.Session {
	now := m.now()
	return &model.Session{
		ClientID:  clientID,
		Mode:      model.ModeNormal,
		History:   m.personas.Seed(model.ModeNormal),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Ensure repairs a session loaded from storage so that it has a known mode
// and a history starting with a system turn.
func (m *Machine) Ensure(s *model.Session) {
	if !s.Mode.Valid() {
		s.Mode = model.ModeNormal
	}
	if len(s.History) == 0 || s.History[0].Role != model.RoleSystem {
		s.History = append(m.personas.Seed(s.Mode), s.History...)
	}
}

// Advance records message in s. When verdict flags a scam and s is not yet
// in honeypot mode, the history is discarded and reseeded with the honeypot
// persona before the message is appended. It reports whether the mode
// switched.
func (m *Machine) Advance(s *model.Session, verdict model.ScamVerdict, message string) bool {
	switched := false
	if verdict.IsScam && s.Mode != model.ModeHoneypot {
		s.Mode = model.ModeHoneypot
		s.History = m.personas.Seed(model.ModeHoneypot)
		switched = true
	}
	s.History = append(s.History, model.HumanTurn(message))
	s.UpdatedAt = m.now()
	return switched
}

// Respond appends the assistant's reply to s.
func (m *Machine) Respond(s *model.Session, reply string) {
	s.History = append(s.History, model.AssistantTurn(reply))
	s.UpdatedAt = m.now()
}

// Reset returns s to normal mode with only the normal persona's system turn.
func (m *Machine) Reset(s *model.Session) {
	s.Mode = model.ModeNormal
	s.History = m.personas.Seed(model.ModeNormal)
	s.UpdatedAt = m.now()
}
