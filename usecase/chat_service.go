package usecase

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/satriahrh/marcus/domain/repositories"
)

// ChatService keeps one LLM chat session per conversation and answers
// free-form questions the command tables do not cover
type ChatService struct {
	llm    repositories.LargeLanguageModel
	logger *zap.Logger

	mu       sync.Mutex
	sessions map[string]repositories.ChatSession
}

// NewChatService creates a new chat service
func NewChatService(llm repositories.LargeLanguageModel, logger *zap.Logger) *ChatService {
	return &ChatService{
		llm:      llm,
		logger:   logger,
		sessions: make(map[string]repositories.ChatSession),
	}
}

func (s *ChatService) session(ctx context.Context, sessionID string) (repositories.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat, ok := s.sessions[sessionID]; ok {
		return chat, nil
	}
	chat, err := s.llm.GenerateChat(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat session: %w", err)
	}
	s.sessions[sessionID] = chat
	s.logger.Debug("Chat session created", zap.String("sessionID", sessionID))
	return chat, nil
}

// Reply sends text to the conversation's chat session and returns the answer
func (s *ChatService) Reply(ctx context.Context, sessionID, text string) (string, error) {
	chat, err := s.session(ctx, sessionID)
	if err != nil {
		return "", err
	}

	reply, err := chat.SendMessage(ctx, repositories.ChatMessage{
		Role:    repositories.UserRole,
		Content: text,
	})
	if err != nil {
		return "", err
	}
	return reply.Content, nil
}

// End forgets the conversation's chat history
func (s *ChatService) End(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat, ok := s.sessions[sessionID]; ok {
		if history, err := chat.History(); err == nil {
			s.logger.Debug("Chat session ended",
				zap.String("sessionID", sessionID),
				zap.Int("messages", len(history)))
		}
		delete(s.sessions, sessionID)
	}
}
