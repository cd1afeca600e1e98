package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the status of a session
type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusTerminated SessionStatus = "terminated"
)

// Mode is the dispatch context a session is currently in
type Mode string

const (
	ModeGlobal     Mode = "global"
	ModeERP        Mode = "erp"
	ModeHealthcare Mode = "healthcare"
	ModeFintech    Mode = "fintech"
	ModePersonal   Mode = "personal"
)

// ConsoleChannel is the channel name used for the local terminal session
const ConsoleChannel = "console"

// Session holds the state of one conversation with the assistant.
// It lives for the duration of the process (console) or of a device connection.
type Session struct {
	ID           string        `json:"id" bson:"_id"`
	Channel      string        `json:"channel" bson:"channel"`
	StartedAt    time.Time     `json:"started_at" bson:"started_at"`
	LastActiveAt time.Time     `json:"last_active_at" bson:"last_active_at"`
	Status       SessionStatus `json:"status" bson:"status"`
	Mode         Mode          `json:"mode" bson:"mode"`

	// ERPUsed is set once the ERP system has been started in this session.
	ERPUsed bool `json:"erp_used" bson:"erp_used"`
}

// NewSession creates a new session for a channel
func NewSession(channel string) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		Channel:      channel,
		StartedAt:    now,
		LastActiveAt: now,
		Status:       SessionStatusActive,
		Mode:         ModeGlobal,
	}
}

// EnterMode switches the session into a nested mode
func (s *Session) EnterMode(mode Mode) {
	s.Mode = mode
	s.Touch()
}

// LeaveMode returns the session to the global router
func (s *Session) LeaveMode() {
	s.Mode = ModeGlobal
	s.Touch()
}

// InMode reports whether the session is inside a nested mode
func (s *Session) InMode() bool {
	return s.Mode != ModeGlobal
}

// MarkERPUsed records that the ERP onboarding has run for this session
func (s *Session) MarkERPUsed() {
	s.ERPUsed = true
}

// Touch updates the last active timestamp
func (s *Session) Touch() {
	s.LastActiveAt = time.Now()
}

// Terminate marks the session as terminated
func (s *Session) Terminate() {
	s.Status = SessionStatusTerminated
	s.Mode = ModeGlobal
	s.Touch()
}

// IsActive reports whether the session can still take commands
func (s *Session) IsActive() bool {
	return s.Status == SessionStatusActive
}

// Validate validates the session data
func (s *Session) Validate() error {
	if s.Channel == "" {
		return errors.New("channel is required")
	}

	if s.Status != SessionStatusActive && s.Status != SessionStatusTerminated {
		return errors.New("invalid session status")
	}

	switch s.Mode {
	case ModeGlobal, ModeERP, ModeHealthcare, ModeFintech, ModePersonal:
	default:
		return errors.New("invalid session mode")
	}

	return nil
}
