package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

// TurnRequest describes the turn about to be generated.
type TurnRequest struct {
	Speaker         entities.Persona
	Others          int    // other participants in the current round
	LastText        string // previous utterance, or the topic before turn zero
	FirstAppearance bool
}

// TurnGenerator builds the per-turn prompt and fetches the speaker's next
// line over the shared chat session.
type TurnGenerator struct {
	session  repositories.ChatSession
	logger   *zap.Logger
	attempts int
	sleep    SleepFunc
}

// NewTurnGenerator creates a turn generator bound to one chat session.
func NewTurnGenerator(session repositories.ChatSession, logger *zap.Logger) *TurnGenerator {
	return &TurnGenerator{
		session:  session,
		logger:   logger,
		attempts: defaultMaxAttempts,
	}
}

// NextTurn generates the speaker's utterance. The returned text is opaque;
// no length or content validation happens here.
func (g *TurnGenerator) NextTurn(ctx context.Context, req TurnRequest) (string, error) {
	prompt := buildTurnPrompt(req)
	g.logger.Debug("Requesting next turn",
		zap.String("persona", req.Speaker.ID),
		zap.Bool("first_appearance", req.FirstAppearance))

	var text string
	err := withRetry(ctx, g.attempts, g.sleep, g.logger, func() error {
		var sendErr error
		text, sendErr = g.session.SendMessage(ctx, prompt)
		return sendErr
	})
	if err != nil {
		return "", fmt.Errorf("generating turn for %s: %w", req.Speaker.Name, err)
	}
	return text, nil
}

// buildTurnPrompt composes the natural-language instruction for one turn.
// On a speaker's first appearance the personality text is inlined, because
// the remote session's system instruction was fixed at creation and does
// not cover participants added later.
func buildTurnPrompt(req TurnRequest) string {
	var b strings.Builder
	if req.FirstAppearance {
		fmt.Fprintf(&b, "%s is speaking for the first time. Their personality is: %s. Have them briefly introduce themselves in character. ",
			req.Speaker.Name, req.Speaker.SystemInstruction)
	}
	fmt.Fprintf(&b, "It's now %s's turn. The last thing said was: %q. ", req.Speaker.Name, req.LastText)
	if req.Others > 1 {
		fmt.Fprintf(&b, "Respond to the others as %s.", req.Speaker.Name)
	} else {
		fmt.Fprintf(&b, "Respond as %s.", req.Speaker.Name)
	}
	return b.String()
}
