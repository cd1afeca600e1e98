package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/marcus/domain/repositories"
)

const (
	temperature     = 0.4
	maxOutputTokens = 256
	requestTimeout  = 20 * time.Second
	maxAttempts     = 3
)

// systemPrompt keeps answers short enough to be spoken aloud
const systemPrompt = `You are Marcus AI, a voice assistant for small business owners.
Answer in one to three short sentences of plain text. Do not use markdown,
lists, emoji or code. If you do not know the answer, say so briefly.`

var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
}

// contentGenerator is the part of genai.Models a session needs
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiChatSession implements the ChatSession interface
type GeminiChatSession struct {
	models contentGenerator
	model  string
	logger *zap.Logger
	sleep  func(time.Duration)

	mu      sync.Mutex
	history []*genai.Content
}

func newGeminiChatSession(models contentGenerator, model string, history []repositories.ChatMessage, logger *zap.Logger) *GeminiChatSession {
	return &GeminiChatSession{
		models:  models,
		model:   model,
		logger:  logger,
		sleep:   time.Sleep,
		history: toGemini(history),
	}
}

// SendMessage sends a message and returns the reply. Failed turns are not
// added to the history.
func (s *GeminiChatSession) SendMessage(ctx context.Context, message repositories.ChatMessage) (repositories.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	userContent := genai.NewContentFromText(message.Content, genai.RoleUser)
	contents := append(append([]*genai.Content{}, s.history...), userContent)

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		SafetySettings:    safetySettings,
		Temperature:       genai.Ptr[float32](temperature),
		MaxOutputTokens:   maxOutputTokens,
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	var response *genai.GenerateContentResponse
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		response, err = s.models.GenerateContent(ctx, s.model, contents, config)
		if err == nil {
			break
		}
		s.logger.Warn("Failed to generate content, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt < maxAttempts {
			s.sleep(time.Duration(attempt) * time.Second)
		}
	}
	if err != nil {
		return repositories.ChatMessage{}, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(responseText(response))
	if text == "" {
		return repositories.ChatMessage{}, fmt.Errorf("gemini returned no text")
	}

	s.history = append(s.history, userContent, genai.NewContentFromText(text, genai.RoleModel))
	s.logger.Debug("Chat session message processed", zap.Int("history_length", len(s.history)))

	return repositories.ChatMessage{Role: repositories.AssistantRole, Content: text}, nil
}

// History returns the current conversation history
func (s *GeminiChatSession) History() ([]repositories.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fromGemini(s.history), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func toGemini(messages []repositories.ChatMessage) []*genai.Content {
	var contents []*genai.Content
	for _, msg := range messages {
		role := genai.Role(genai.RoleUser)
		if msg.Role == repositories.AssistantRole {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

func fromGemini(contents []*genai.Content) []repositories.ChatMessage {
	var messages []repositories.ChatMessage
	for _, content := range contents {
		role := repositories.UserRole
		if genai.Role(content.Role) == genai.RoleModel {
			role = repositories.AssistantRole
		}

		var text string
		for _, part := range content.Parts {
			if part != nil {
				text += part.Text
			}
		}
		if text != "" {
			messages = append(messages, repositories.ChatMessage{Role: role, Content: text})
		}
	}
	return messages
}
