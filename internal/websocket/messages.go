package websocket

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/satriahrh/marcus/domain"
)

var validEncodings = map[string]bool{
	"LINEAR16": true, "WAV": true, "FLAC": true, "MULAW": true,
	"AMR": true, "AMR_WB": true, "OGG_OPUS": true, "WEBM_OPUS": true,
	"SPEEX_WITH_HEADER_BYTE": true,
}

// ParseDeviceMessage decodes and validates a JSON control frame from a device
func ParseDeviceMessage(messageBytes []byte) (*domain.DeviceMessage, error) {
	var msg domain.DeviceMessage
	if err := json.Unmarshal(messageBytes, &msg); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	switch msg.Type {
	case domain.MessageTypeListeningStart:
		if err := validateAudioConfig(&msg); err != nil {
			return nil, err
		}
	case domain.MessageTypeListeningEnd:
	case domain.MessageTypeUtterance:
		if strings.TrimSpace(msg.Text) == "" {
			return nil, fmt.Errorf("text is required")
		}
	case "":
		return nil, fmt.Errorf("message missing type field")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", msg.Type)
	}

	return &msg, nil
}

// validateAudioConfig checks the optional overrides of listening_start
func validateAudioConfig(msg *domain.DeviceMessage) error {
	if msg.SampleRate != 0 && (msg.SampleRate < 8000 || msg.SampleRate > 48000) {
		return fmt.Errorf("sample_rate must be between 8000 and 48000")
	}
	if msg.Encoding != "" && !validEncodings[strings.ToUpper(msg.Encoding)] {
		return fmt.Errorf("unsupported encoding: %s", msg.Encoding)
	}
	return nil
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message string) *domain.ErrorMessage {
	return &domain.ErrorMessage{
		Type:    domain.MessageTypeError,
		Code:    code,
		Message: message,
	}
}

// CreateSessionMessage announces a conversation starting or ending
func CreateSessionMessage(msgType, sessionID string) *domain.SessionMessage {
	return &domain.SessionMessage{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}
}

// CreateSpeakingMessage brackets the audio of one reply
func CreateSpeakingMessage(msgType, sessionID, text string, prompt bool) *domain.SpeakingMessage {
	return &domain.SpeakingMessage{
		Type:      msgType,
		SessionID: sessionID,
		Text:      text,
		Prompt:    prompt,
		Timestamp: time.Now().Unix(),
	}
}

// CreateListeningMessage acknowledges a listening_start or listening_end
func CreateListeningMessage(msgType, sessionID string) *domain.ListeningMessage {
	return &domain.ListeningMessage{
		Type:      msgType,
		SessionID: sessionID,
		Timestamp: time.Now().Unix(),
	}
}
