package api

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
	"github.com/banterbox/server/internal/websocket"
	"github.com/banterbox/server/usecase"
)

// OutputFactory builds an audio output streaming to the given sink.
// Each conversation gets its own output so mute and close stay scoped.
type OutputFactory func(sink io.Writer) repositories.AudioOutput

// Manager owns all running conversations. Each one pairs an
// orchestrator with the hub that fans its events and audio out to
// websocket viewers.
type Manager struct {
	chat      repositories.ChatProvider
	speech    repositories.SpeechSynthesizer
	newOutput OutputFactory
	turnDelay time.Duration
	logger    *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*conversationSession
}

type conversationSession struct {
	orchestrator *usecase.Orchestrator
	hub          *websocket.Hub
}

// NewManager creates an empty conversation registry.
func NewManager(
	chat repositories.ChatProvider,
	speech repositories.SpeechSynthesizer,
	newOutput OutputFactory,
	turnDelay time.Duration,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		chat:      chat,
		speech:    speech,
		newOutput: newOutput,
		turnDelay: turnDelay,
		logger:    logger,
		sessions:  make(map[string]*conversationSession),
	}
}

// Start launches a conversation and registers it. The conversation runs
// on its own lifetime, not the caller's request context.
func (m *Manager) Start(personas []entities.Persona, topic string, mode entities.ConversationMode, soundOn bool) (*usecase.Orchestrator, error) {
	hub := websocket.NewHub(m.logger)
	output := m.newOutput(hub)

	o, err := usecase.StartConversation(context.Background(), usecase.Deps{
		Chat:   m.chat,
		Speech: m.speech,
		Output: output,
		Logger: m.logger,
	}, usecase.Config{
		Personas:  personas,
		Topic:     topic,
		Mode:      mode,
		SoundOn:   soundOn,
		TurnDelay: m.turnDelay,
		Listener:  hub,
	})
	if err != nil {
		hub.Close()
		output.Close()
		return nil, err
	}

	hub.SetConversationID(o.ID())
	go hub.Run()

	m.mu.Lock()
	m.sessions[o.ID()] = &conversationSession{orchestrator: o, hub: hub}
	m.mu.Unlock()

	// Reap the session once the run loop exits.
	go func() {
		<-o.Done()
		hub.Close()
		m.mu.Lock()
		delete(m.sessions, o.ID())
		m.mu.Unlock()
		m.logger.Info("Conversation finished", zap.String("conversation", o.ID()))
	}()

	return o, nil
}

// Get returns the orchestrator for a conversation id.
func (m *Manager) Get(id string) (*usecase.Orchestrator, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.orchestrator, true
}

// Hub returns the websocket hub for a conversation id.
func (m *Manager) Hub(id string) (*websocket.Hub, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return s.hub, true
}

// StopAll stops every running conversation, used at shutdown.
func (m *Manager) StopAll() {
	m.mu.RLock()
	sessions := make([]*conversationSession, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, s := range sessions {
		s.orchestrator.Stop()
	}
}
