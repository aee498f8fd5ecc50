package websocket

import (
	"encoding/json"
	"time"

	"github.com/banterbox/server/domain/entities"
)

// EventType defines the type of WebSocket event sent to viewers
type EventType string

// Supported event types
const (
	EventTypeState   EventType = "state_changed"
	EventTypeMessage EventType = "message"
	EventTypeSpeaker EventType = "speaker_changed"
	EventTypeError   EventType = "error"
)

// BaseEvent defines the common structure for all WebSocket events
type BaseEvent struct {
	Type      EventType `json:"type"`
	Timestamp string    `json:"timestamp"`
}

// StateEvent announces an orchestrator state transition
type StateEvent struct {
	BaseEvent
	State string `json:"state"`
}

// MessageEvent carries one completed conversation turn
type MessageEvent struct {
	BaseEvent
	ID          string `json:"id"`
	Text        string `json:"text"`
	PersonaID   string `json:"persona_id"`
	PersonaName string `json:"persona_name"`
	HasAudio    bool   `json:"has_audio"`
	CreatedAt   string `json:"created_at"`
}

// SpeakerEvent announces whose clip is playing; an empty persona_id
// means playback went idle
type SpeakerEvent struct {
	BaseEvent
	PersonaID string `json:"persona_id"`
}

// ErrorEvent surfaces a user-facing error, typically an API failure
// that paused the conversation
type ErrorEvent struct {
	BaseEvent
	Message string `json:"message"`
}

func newBaseEvent(t EventType) BaseEvent {
	return BaseEvent{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// EncodeStateEvent builds the wire payload for a state transition
func EncodeStateEvent(state string) []byte {
	payload, _ := json.Marshal(StateEvent{
		BaseEvent: newBaseEvent(EventTypeState),
		State:     state,
	})
	return payload
}

// EncodeMessageEvent builds the wire payload for a completed turn
func EncodeMessageEvent(msg *entities.Message, speaker entities.Persona) []byte {
	payload, _ := json.Marshal(MessageEvent{
		BaseEvent:   newBaseEvent(EventTypeMessage),
		ID:          msg.ID,
		Text:        msg.Text,
		PersonaID:   msg.PersonaID,
		PersonaName: speaker.Name,
		HasAudio:    msg.Audio != nil,
		CreatedAt:   msg.CreatedAt.Format(time.RFC3339),
	})
	return payload
}

// EncodeSpeakerEvent builds the wire payload for an active speaker change
func EncodeSpeakerEvent(personaID string) []byte {
	payload, _ := json.Marshal(SpeakerEvent{
		BaseEvent: newBaseEvent(EventTypeSpeaker),
		PersonaID: personaID,
	})
	return payload
}

// EncodeErrorEvent builds the wire payload for a surfaced error
func EncodeErrorEvent(message string) []byte {
	payload, _ := json.Marshal(ErrorEvent{
		BaseEvent: newBaseEvent(EventTypeError),
		Message:   message,
	})
	return payload
}
