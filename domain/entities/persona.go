package entities

import "errors"

// Voice identifies one of the prebuilt synthesis voices offered by the
// speech service. The set is fixed; personas pick one at creation time.
type Voice string

const (
	VoiceKore   Voice = "Kore"
	VoicePuck   Voice = "Puck"
	VoiceCharon Voice = "Charon"
	VoiceFenrir Voice = "Fenrir"
	VoiceZephyr Voice = "Zephyr"
)

// ValidVoice reports whether v is one of the supported prebuilt voices.
func ValidVoice(v Voice) bool {
	switch v {
	case VoiceKore, VoicePuck, VoiceCharon, VoiceFenrir, VoiceZephyr:
		return true
	}
	return false
}

// ConversationMode selects the framing for the whole conversation.
type ConversationMode string

const (
	ModeBanter      ConversationMode = "banter"
	ModeRoast       ConversationMode = "roast"
	ModeVulgarRoast ConversationMode = "vulgar_roast"
)

// ValidMode reports whether m is a supported conversation mode.
func ValidMode(m ConversationMode) bool {
	switch m {
	case ModeBanter, ModeRoast, ModeVulgarRoast:
		return true
	}
	return false
}

// Persona is a configured conversational participant. Personas are
// immutable once created; the conversation roster owns the ordering.
type Persona struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	IconURL           string `json:"icon_url,omitempty"`
	SystemInstruction string `json:"system_instruction"`
	VoiceInstruction  string `json:"voice_instruction"`
	Voice             Voice  `json:"voice"`
}

// Validate checks the fields a persona needs before it can take a turn.
func (p *Persona) Validate() error {
	if p.ID == "" {
		return errors.New("persona id is required")
	}
	if p.Name == "" {
		return errors.New("persona name is required")
	}
	if p.SystemInstruction == "" {
		return errors.New("persona system instruction is required")
	}
	if !ValidVoice(p.Voice) {
		return errors.New("persona voice is not a supported voice")
	}
	return nil
}
