package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
	"github.com/satriahrh/marcus/internal/config"
)

const (
	defaultAPIBaseURL   = "https://api.elevenlabs.io/v1"
	defaultVoiceID      = "21m00Tcm4TlvDq8ikWAM" // Rachel
	defaultChunkSize    = 1024
	defaultOutputFormat = "pcm_24000"
	defaultModelID      = "eleven_turbo_v2_5"
	defaultStability    = 0.5
	defaultClarity      = 0.75
)

// ElevenLabsTTS streams synthesized speech from the ElevenLabs API
type ElevenLabsTTS struct {
	apiKey       string
	apiBaseURL   string
	voiceID      string
	modelID      string
	outputFormat string
	chunkSize    int
	stability    float64
	clarity      float64
	client       *http.Client
	logger       *zap.Logger
}

var _ repositories.TextToSpeech = (*ElevenLabsTTS)(nil)

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

type synthesisRequest struct {
	Text                   string        `json:"text"`
	ModelID                string        `json:"model_id"`
	VoiceSettings          voiceSettings `json:"voice_settings"`
	ApplyTextNormalization string        `json:"apply_text_normalization,omitempty"`
}

// validate checks the ranges ElevenLabs accepts
func validate(cfg config.ElevenLabsConfig) error {
	if cfg.APIKey == "" {
		return fmt.Errorf("eleven labs API key is required")
	}
	if cfg.Stability < 0 || cfg.Stability > 1 {
		return fmt.Errorf("stability must be between 0 and 1, got %f", cfg.Stability)
	}
	if cfg.Clarity < 0 || cfg.Clarity > 1 {
		return fmt.Errorf("clarity must be between 0 and 1, got %f", cfg.Clarity)
	}
	if cfg.ChunkSize < 0 {
		return fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	return nil
}

func orDefault[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}

// NewElevenLabsTTS creates the adapter; zero config values take defaults
func NewElevenLabsTTS(cfg config.ElevenLabsConfig, logger *zap.Logger) (*ElevenLabsTTS, error) {
	if err := validate(cfg); err != nil {
		return nil, err
	}

	e := &ElevenLabsTTS{
		apiKey:       cfg.APIKey,
		apiBaseURL:   strings.TrimRight(orDefault(cfg.APIBaseURL, defaultAPIBaseURL), "/"),
		voiceID:      orDefault(cfg.VoiceID, defaultVoiceID),
		modelID:      orDefault(cfg.ModelID, defaultModelID),
		outputFormat: orDefault(cfg.OutputFormat, defaultOutputFormat),
		chunkSize:    orDefault(cfg.ChunkSize, defaultChunkSize),
		stability:    orDefault(cfg.Stability, defaultStability),
		clarity:      orDefault(cfg.Clarity, defaultClarity),
		client:       &http.Client{Timeout: 60 * time.Second},
		logger:       logger,
	}

	logger.Info("ElevenLabs TTS configured",
		zap.String("voiceID", e.voiceID),
		zap.String("modelID", e.modelID),
		zap.String("outputFormat", e.outputFormat))
	return e, nil
}

// ConvertTextToSpeech starts synthesis and returns a channel of audio
// chunks. The channel is closed when the stream ends or fails.
func (e *ElevenLabsTTS) ConvertTextToSpeech(ctx context.Context, text string) (<-chan []byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	body, err := json.Marshal(synthesisRequest{
		Text:                   text,
		ModelID:                e.modelID,
		ApplyTextNormalization: "auto",
		VoiceSettings: voiceSettings{
			Stability:       e.stability,
			SimilarityBoost: e.clarity,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s/stream?output_format=%s&enable_logging=false",
		e.apiBaseURL, e.voiceID, e.outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}

	accept := "audio/mpeg"
	if strings.HasPrefix(e.outputFormat, "pcm") {
		accept = "audio/pcm"
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", e.apiKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("eleven labs API returned status %d: %s", resp.StatusCode, string(errorBody))
	}

	audio := make(chan []byte, 10)
	go e.pump(ctx, resp.Body, audio)
	return audio, nil
}

func (e *ElevenLabsTTS) pump(ctx context.Context, body io.ReadCloser, audio chan<- []byte) {
	defer close(audio)
	defer body.Close()

	buffer := make([]byte, e.chunkSize)
	total, chunks := 0, 0
	for {
		n, err := body.Read(buffer)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buffer[:n])
			select {
			case audio <- chunk:
			case <-ctx.Done():
				e.logger.Warn("Context cancelled while streaming audio")
				return
			}
			total += n
			chunks++
		}
		if err == io.EOF {
			e.logger.Debug("Finished streaming audio",
				zap.Int("totalChunks", chunks),
				zap.Int("totalBytes", total))
			return
		}
		if err != nil {
			e.logger.Error("Error reading audio stream", zap.Error(err))
			return
		}
	}
}
