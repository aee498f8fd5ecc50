package llm

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/repositories"
)

// MockChatProvider serves canned lines without touching the Gemini API.
// Used for local development when no API key is configured.
type MockChatProvider struct {
	logger *zap.Logger
}

// NewMockChatProvider creates the mock provider.
func NewMockChatProvider(logger *zap.Logger) *MockChatProvider {
	return &MockChatProvider{logger: logger}
}

func (p *MockChatProvider) NewChatSession(ctx context.Context, systemInstruction string) (repositories.ChatSession, error) {
	p.logger.Info("Creating mock chat session",
		zap.Int("system_instruction_length", len(systemInstruction)))
	return &mockChatSession{}, nil
}

var mockLines = []string{
	"Well, that is certainly one way to look at it.",
	"I could not disagree more, and here is why.",
	"Bold words from someone who has clearly never tried it.",
	"Let me tell you a little story about that.",
	"You say that like it is a bad thing.",
}

type mockChatSession struct {
	mu    sync.Mutex
	turns int
}

func (s *mockChatSession) SendMessage(ctx context.Context, prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := mockLines[s.turns%len(mockLines)]
	s.turns++
	return fmt.Sprintf("%s (turn %d)", line, s.turns), nil
}
