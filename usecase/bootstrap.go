package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

// Deps bundles the external collaborators a conversation needs.
type Deps struct {
	Chat   repositories.ChatProvider
	Speech repositories.SpeechSynthesizer
	Output repositories.AudioOutput
	Logger *zap.Logger
}

// Config describes a conversation to start.
type Config struct {
	Personas  []entities.Persona
	Topic     string
	Mode      entities.ConversationMode
	SoundOn   bool
	TurnDelay time.Duration
	Listener  Listener
}

// StartConversation creates the remote chat context and the orchestration
// machinery, then launches the run loop. A failure here aborts before any
// turn begins; no partial state survives.
func StartConversation(ctx context.Context, deps Deps, cfg Config) (*Orchestrator, error) {
	conv, err := entities.NewConversation(cfg.Personas, cfg.Topic, cfg.Mode)
	if err != nil {
		return nil, err
	}

	session, err := deps.Chat.NewChatSession(ctx, SystemInstruction(conv.Roster(), cfg.Topic, cfg.Mode))
	if err != nil {
		return nil, fmt.Errorf("creating chat session: %w", err)
	}

	logger := deps.Logger.With(zap.String("conversation", conv.ID))
	o := newOrchestrator(
		conv,
		NewTurnGenerator(session, logger),
		NewSpeechPipeline(deps.Speech, deps.Output, logger),
		deps.Output,
		cfg.Listener,
		cfg.SoundOn,
		cfg.TurnDelay,
		logger,
	)
	logger.Info("Conversation starting",
		zap.String("mode", string(cfg.Mode)),
		zap.String("topic", cfg.Topic),
		zap.Int("personas", len(cfg.Personas)))
	o.start(ctx)
	return o, nil
}

// SystemInstruction builds the session-level framing fixed at creation
// time: the cast descriptions plus the mode's ground rules.
func SystemInstruction(personas []entities.Persona, topic string, mode entities.ConversationMode) string {
	var cast strings.Builder
	for i, p := range personas {
		fmt.Fprintf(&cast, "Persona %d is %s. Their personality is: %s.\n", i+1, p.Name, p.SystemInstruction)
	}

	switch mode {
	case entities.ModeRoast:
		return fmt.Sprintf(`You are in a roast battle.
%sThe goal is to deliver witty, funny, and clever insults.
Keep responses short and punchy. Never break character. Be ruthless but clever.`, cast.String())
	case entities.ModeVulgarRoast:
		return fmt.Sprintf(`You are in an 18+, uncensored, vulgar roast battle.
%sThe goal is to deliver brutal, offensive, and vulgar insults. No holds barred.
Keep responses short and punchy. Never break character. Go for the jugular.`, cast.String())
	default:
		return fmt.Sprintf(`You are in a conversation.
%sThe topic is: %q.
Keep responses concise, under 80 words. Never break character.
Do not repeat other people's points. Engage directly with what was just said.`, cast.String(), topic)
	}
}
