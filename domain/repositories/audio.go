package repositories

import (
	"context"

	"github.com/banterbox/server/domain/entities"
)

// AudioOutput abstracts the audio decode and playback facility. One output
// context exists per conversation; it is created at bootstrap and released
// on stop.
type AudioOutput interface {
	// Decode turns an encoded synthesis payload into a playable clip.
	Decode(payload []byte) (*entities.AudioClip, error)

	// Play renders one clip to its natural end and returns when playback
	// completes. While the output is muted, Play resolves immediately
	// without rendering.
	Play(ctx context.Context, clip *entities.AudioClip) error

	// SetMuted toggles whether Play audibly renders.
	SetMuted(muted bool)

	// Close releases the output context. Play after Close returns an error.
	Close() error
}
