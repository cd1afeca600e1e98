package domain

// Message types exchanged with a voice device over websocket
const (
	MessageTypeSessionStarted = "session_started"
	MessageTypeSessionEnded   = "session_ended"
	MessageTypeListeningStart = "listening_start"
	MessageTypeListeningEnd   = "listening_end"
	MessageTypeUtterance      = "utterance"
	MessageTypeSpeakingStart  = "speaking_start"
	MessageTypeSpeakingEnd    = "speaking_end"
	MessageTypeError          = "error"
)

// DeviceMessage is any JSON control message sent by a device
type DeviceMessage struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
	Language   string `json:"language,omitempty"`
}

// SessionMessage announces the start or end of a conversation
type SessionMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Timestamp int64  `json:"timestamp"`
}

// ListeningMessage acknowledges listening_start / listening_end
type ListeningMessage struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	Transcription string `json:"transcription,omitempty"`
	Message       string `json:"message,omitempty"`
	Error         string `json:"error,omitempty"`
	Timestamp     int64  `json:"timestamp"`
}

// SpeakingMessage brackets the binary audio of one reply
type SpeakingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Text      string `json:"text,omitempty"`
	// Prompt is set when the assistant expects an answer to this reply
	Prompt    bool  `json:"prompt,omitempty"`
	Timestamp int64 `json:"timestamp"`
}

// ErrorMessage reports a protocol error to the device
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"error_code"`
	Message string `json:"message"`
}
