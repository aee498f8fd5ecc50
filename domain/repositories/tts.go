package repositories

import (
	"context"

	"github.com/banterbox/server/domain/entities"
)

// SpeechSynthesizer abstracts the speech-generation service.
type SpeechSynthesizer interface {
	// Synthesize requests audio for a style-directed prompt using one of
	// the fixed prebuilt voices and returns the encoded payload.
	Synthesize(ctx context.Context, prompt string, voice entities.Voice) ([]byte, error)
}
