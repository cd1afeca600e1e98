package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/genai"

	"github.com/satriahrh/marcus/domain/repositories"
)

type fakeModels struct {
	replies []string
	errs    []error
	calls   [][]*genai.Content
}

func (f *fakeModels) GenerateContent(_ context.Context, _ string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls = append(f.calls, contents)
	i := len(f.calls) - 1
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.replies) {
		text = f.replies[i]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}, nil
}

func newTestSession(t *testing.T, models *fakeModels, history []repositories.ChatMessage) *GeminiChatSession {
	s := newGeminiChatSession(models, "test-model", history, zaptest.NewLogger(t))
	s.sleep = func(time.Duration) {}
	return s
}

func TestGeminiChatSession_SendMessage(t *testing.T) {
	models := &fakeModels{replies: []string{"Paris is the capital of France."}}
	s := newTestSession(t, models, []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hello"},
		{Role: repositories.AssistantRole, Content: "Hi there."},
	})

	reply, err := s.SendMessage(context.Background(), repositories.ChatMessage{
		Role:    repositories.UserRole,
		Content: "what is the capital of france",
	})
	require.NoError(t, err)
	assert.Equal(t, repositories.AssistantRole, reply.Role)
	assert.Equal(t, "Paris is the capital of France.", reply.Content)

	require.Len(t, models.calls, 1)
	assert.Len(t, models.calls[0], 3)

	history, err := s.History()
	require.NoError(t, err)
	assert.Equal(t, []repositories.ChatMessage{
		{Role: repositories.UserRole, Content: "hello"},
		{Role: repositories.AssistantRole, Content: "Hi there."},
		{Role: repositories.UserRole, Content: "what is the capital of france"},
		{Role: repositories.AssistantRole, Content: "Paris is the capital of France."},
	}, history)
}

func TestGeminiChatSession_RetriesThenSucceeds(t *testing.T) {
	models := &fakeModels{
		errs:    []error{errors.New("unavailable"), nil},
		replies: []string{"", "Recovered."},
	}
	s := newTestSession(t, models, nil)

	reply, err := s.SendMessage(context.Background(), repositories.ChatMessage{Role: repositories.UserRole, Content: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Recovered.", reply.Content)
	assert.Len(t, models.calls, 2)
}

func TestGeminiChatSession_Failure(t *testing.T) {
	boom := errors.New("quota exceeded")
	models := &fakeModels{errs: []error{boom, boom, boom}}
	s := newTestSession(t, models, nil)

	_, err := s.SendMessage(context.Background(), repositories.ChatMessage{Role: repositories.UserRole, Content: "hi"})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, models.calls, maxAttempts)

	history, err := s.History()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestGeminiChatSession_EmptyReply(t *testing.T) {
	s := newTestSession(t, &fakeModels{replies: []string{"   "}}, nil)

	_, err := s.SendMessage(context.Background(), repositories.ChatMessage{Role: repositories.UserRole, Content: "hi"})
	assert.Error(t, err)
}
