package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
)

// scriptedSession replays canned responses and records prompts.
type scriptedSession struct {
	prompts   []string
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedSession) SendMessage(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "another line", nil
}

func speakerAlice() entities.Persona {
	return entities.Persona{
		ID:                "alice",
		Name:              "Alice",
		SystemInstruction: "A cheerful optimist who loves puns.",
		VoiceInstruction:  "Say brightly:",
		Voice:             entities.VoiceKore,
	}
}

func TestNextTurnPromptShape(t *testing.T) {
	session := &scriptedSession{responses: []string{"Hello there!"}}
	gen := NewTurnGenerator(session, zap.NewNop())

	text, err := gen.NextTurn(context.Background(), TurnRequest{
		Speaker:  speakerAlice(),
		Others:   1,
		LastText: "Pineapple on pizza",
	})
	if err != nil {
		t.Fatalf("NextTurn failed: %v", err)
	}
	if text != "Hello there!" {
		t.Errorf("Expected generated text back, got %q", text)
	}

	prompt := session.prompts[0]
	if !strings.Contains(prompt, "It's now Alice's turn.") {
		t.Errorf("Prompt missing turn marker: %q", prompt)
	}
	if !strings.Contains(prompt, `"Pineapple on pizza"`) {
		t.Errorf("Prompt missing last utterance: %q", prompt)
	}
	if !strings.Contains(prompt, "Respond as Alice.") {
		t.Errorf("Prompt missing respond directive: %q", prompt)
	}
	if strings.Contains(prompt, "Respond to the others") {
		t.Errorf("Two-party prompt should not use group directive: %q", prompt)
	}
	if strings.Contains(prompt, "first time") {
		t.Errorf("Non-debut prompt should not carry an introduction: %q", prompt)
	}
}

func TestNextTurnFirstAppearanceIntroduction(t *testing.T) {
	session := &scriptedSession{responses: []string{"Ahoy!"}}
	gen := NewTurnGenerator(session, zap.NewNop())

	_, err := gen.NextTurn(context.Background(), TurnRequest{
		Speaker:         speakerAlice(),
		Others:          2,
		LastText:        "Welcome aboard",
		FirstAppearance: true,
	})
	if err != nil {
		t.Fatalf("NextTurn failed: %v", err)
	}

	prompt := session.prompts[0]
	if !strings.Contains(prompt, "Alice is speaking for the first time.") {
		t.Errorf("Debut prompt missing introduction directive: %q", prompt)
	}
	if !strings.Contains(prompt, "A cheerful optimist who loves puns.") {
		t.Errorf("Debut prompt missing inline personality: %q", prompt)
	}
	if !strings.Contains(prompt, "Respond to the others as Alice.") {
		t.Errorf("Group prompt missing group directive: %q", prompt)
	}
}

func TestNextTurnRetriesTransientFailures(t *testing.T) {
	session := &scriptedSession{
		errs:      []error{fakeNetError{}, fakeNetError{}},
		responses: []string{"", "", "Third time lucky"},
	}
	gen := NewTurnGenerator(session, zap.NewNop())
	// No-op sleep so the test does not wait out the backoff.
	gen.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	text, err := gen.NextTurn(context.Background(), TurnRequest{Speaker: speakerAlice(), Others: 1, LastText: "hi"})
	if err != nil {
		t.Fatalf("Expected recovery after transient failures, got %v", err)
	}
	if text != "Third time lucky" {
		t.Errorf("Expected third response, got %q", text)
	}
	if session.calls != 3 {
		t.Errorf("Expected 3 attempts, got %d", session.calls)
	}
}

func TestNextTurnFatalErrorPropagates(t *testing.T) {
	fatal := errors.New("quota exceeded")
	session := &scriptedSession{errs: []error{fatal}}
	gen := NewTurnGenerator(session, zap.NewNop())

	_, err := gen.NextTurn(context.Background(), TurnRequest{Speaker: speakerAlice(), Others: 1, LastText: "hi"})
	if !errors.Is(err, fatal) {
		t.Errorf("Expected the fatal error to propagate, got %v", err)
	}
	if session.calls != 1 {
		t.Errorf("Expected a single attempt for a fatal error, got %d", session.calls)
	}
}
