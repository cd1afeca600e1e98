package entities

import (
	"fmt"
	"time"
)

// MessageRole represents the role of a message sender
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

// TranscriptEntry is one line of the spoken transcript
type TranscriptEntry struct {
	Role    MessageRole
	Speaker string
	Text    string
	At      time.Time
}

// Line renders the entry the way it is written to the transcript file
func (e TranscriptEntry) Line() string {
	if e.Role == MessageRoleUser {
		return fmt.Sprintf("User: %s", e.Text)
	}
	return fmt.Sprintf("%s says: %s", e.Speaker, e.Text)
}
