package api

import (
	"time"

	"github.com/banterbox/server/domain/entities"
)

// PersonaSpec selects a participant for a conversation. Give just an ID
// to use a built-in persona, or the full fields for a custom one.
type PersonaSpec struct {
	ID                string `json:"id"`
	Name              string `json:"name,omitempty"`
	IconURL           string `json:"icon_url,omitempty"`
	SystemInstruction string `json:"system_instruction,omitempty"`
	VoiceInstruction  string `json:"voice_instruction,omitempty"`
	Voice             string `json:"voice,omitempty"`
}

// CreateConversationRequest represents the request payload for starting
// a conversation
type CreateConversationRequest struct {
	Personas []PersonaSpec `json:"personas" validate:"required"`
	Topic    string        `json:"topic"`
	Mode     string        `json:"mode" validate:"required"`
	SoundOn  bool          `json:"sound_on"`
}

// CreateConversationResponse carries the new conversation's id and the
// tokens for controlling and watching it
type CreateConversationResponse struct {
	ID          string `json:"id"`
	HostToken   string `json:"host_token"`
	ViewerToken string `json:"viewer_token"`
}

// MessageView is one conversation turn in API responses
type MessageView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	PersonaID string    `json:"persona_id"`
	HasAudio  bool      `json:"has_audio"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSnapshot is the full current state of a conversation
type ConversationSnapshot struct {
	ID            string             `json:"id"`
	Topic         string             `json:"topic"`
	Mode          string             `json:"mode"`
	State         string             `json:"state"`
	Error         string             `json:"error,omitempty"`
	SoundOn       bool               `json:"sound_on"`
	ActiveSpeaker string             `json:"active_speaker,omitempty"`
	Personas      []entities.Persona `json:"personas"`
	Messages      []MessageView      `json:"messages"`
}

// StateResponse acknowledges a control action with the resulting state
type StateResponse struct {
	State string `json:"state"`
}

// SoundResponse reports the sound setting after a toggle
type SoundResponse struct {
	SoundOn bool `json:"sound_on"`
}

// ValidateKeyRequest represents the request payload for key validation
type ValidateKeyRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// ValidateKeyResponse reports whether the key can reach the model
type ValidateKeyResponse struct {
	Valid bool `json:"valid"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
