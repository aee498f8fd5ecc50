package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/usecase"
)

// WriteData is one outbound websocket frame.
type WriteData struct {
	// Type is the websocket message type.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Hub fans one conversation's events and audio out to every connected
// viewer. It implements usecase.Listener for the orchestrator's events
// and io.Writer for the audio output's PCM chunks, so a single hub is
// the complete outbound surface of a conversation.
type Hub struct {
	conversationID string

	// Registered clients.
	clients map[*Client]bool

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Outbound frames for all clients.
	broadcast chan WriteData

	done chan struct{}
	once sync.Once

	logger *zap.Logger
}

// Ensure Hub satisfies the orchestrator's event sink
var _ usecase.Listener = (*Hub)(nil)

// NewHub creates a hub for one conversation
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan WriteData, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// SetConversationID labels the hub. Must be called before Run.
func (h *Hub) SetConversationID(id string) {
	h.conversationID = id
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Info("Viewer connected",
				zap.String("conversationID", h.conversationID),
				zap.Int("viewers", len(h.clients)))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.logger.Info("Viewer disconnected",
				zap.String("conversationID", h.conversationID),
				zap.Int("viewers", len(h.clients)))

		case frame := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- frame:
				default:
					// Slow consumer, drop it rather than stall the show.
					delete(h.clients, client)
					close(client.send)
				}
			}

		case <-h.done:
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return
		}
	}
}

// Close shuts the hub down and disconnects all viewers
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.done)
	})
}

func (h *Hub) send(frame WriteData) {
	select {
	case h.broadcast <- frame:
	case <-h.done:
	}
}

// StateChanged implements usecase.Listener
func (h *Hub) StateChanged(state usecase.State) {
	h.send(WriteData{Type: websocket.TextMessage, Payload: EncodeStateEvent(string(state))})
}

// MessageAdded implements usecase.Listener
func (h *Hub) MessageAdded(msg *entities.Message, speaker entities.Persona) {
	h.send(WriteData{Type: websocket.TextMessage, Payload: EncodeMessageEvent(msg, speaker)})
}

// SpeakerChanged implements usecase.Listener
func (h *Hub) SpeakerChanged(personaID string) {
	h.send(WriteData{Type: websocket.TextMessage, Payload: EncodeSpeakerEvent(personaID)})
}

// ErrorOccurred implements usecase.Listener
func (h *Hub) ErrorOccurred(message string) {
	h.send(WriteData{Type: websocket.TextMessage, Payload: EncodeErrorEvent(message)})
}

// Write implements io.Writer. Audio playback streams raw PCM chunks
// here and the hub forwards them as binary frames.
func (h *Hub) Write(p []byte) (int, error) {
	chunk := make([]byte, len(p))
	copy(chunk, p)
	h.send(WriteData{Type: websocket.BinaryMessage, Payload: chunk})
	return len(p), nil
}
