package websocket

import (
	"encoding/json"
	"testing"

	"github.com/satriahrh/marcus/domain"
)

func TestParseDeviceMessage(t *testing.T) {
	tests := []struct {
		name    string
		message string
		wantErr bool
	}{
		{
			name:    "listening start with defaults",
			message: `{"type": "listening_start"}`,
		},
		{
			name:    "listening start with overrides",
			message: `{"type": "listening_start", "sample_rate": 16000, "encoding": "linear16", "language": "en-GB"}`,
		},
		{
			name:    "invalid sample rate",
			message: `{"type": "listening_start", "sample_rate": 100000}`,
			wantErr: true,
		},
		{
			name:    "invalid encoding",
			message: `{"type": "listening_start", "encoding": "mp3"}`,
			wantErr: true,
		},
		{
			name:    "listening end",
			message: `{"type": "listening_end"}`,
		},
		{
			name:    "utterance",
			message: `{"type": "utterance", "text": "what time is it"}`,
		},
		{
			name:    "blank utterance",
			message: `{"type": "utterance", "text": "   "}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			message: `{"text": "hello"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			message: `{"type": "ping"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			message: `listening_start`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDeviceMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseDeviceMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDeviceMessage_KeepsAudioConfig(t *testing.T) {
	msg, err := ParseDeviceMessage([]byte(`{"type": "listening_start", "sample_rate": 48000, "language": "id-ID"}`))
	if err != nil {
		t.Fatalf("ParseDeviceMessage() error = %v", err)
	}
	if msg.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", msg.SampleRate)
	}
	if msg.Language != "id-ID" {
		t.Errorf("Expected language id-ID, got %s", msg.Language)
	}
}

func TestCreateSpeakingMessage(t *testing.T) {
	msg := CreateSpeakingMessage(domain.MessageTypeSpeakingStart, "session-123", "Marcus AI says: Good morning!", true)

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal speaking message: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal speaking message: %v", err)
	}

	if decoded["type"] != domain.MessageTypeSpeakingStart {
		t.Errorf("Expected type %s, got %v", domain.MessageTypeSpeakingStart, decoded["type"])
	}
	if decoded["prompt"] != true {
		t.Errorf("Expected prompt flag to be set, got %v", decoded["prompt"])
	}
	if decoded["timestamp"] == nil {
		t.Error("Expected timestamp to be set")
	}

	end := CreateSpeakingMessage(domain.MessageTypeSpeakingEnd, "session-123", "", false)
	data, _ = json.Marshal(end)
	decoded = map[string]interface{}{}
	_ = json.Unmarshal(data, &decoded)
	if _, ok := decoded["text"]; ok {
		t.Error("Expected empty text to be omitted")
	}
	if _, ok := decoded["prompt"]; ok {
		t.Error("Expected false prompt to be omitted")
	}
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage("invalid_message", "unsupported message type: ping")

	if msg.Type != domain.MessageTypeError {
		t.Errorf("Expected type %s, got %s", domain.MessageTypeError, msg.Type)
	}
	if msg.Code != "invalid_message" {
		t.Errorf("Expected code invalid_message, got %s", msg.Code)
	}
}
