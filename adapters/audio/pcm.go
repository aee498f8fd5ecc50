package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

const (
	defaultSampleRate = 24000 // PCM sample rate the speech models emit
	defaultChannels   = 1
	chunkInterval     = 100 * time.Millisecond
)

// Output decodes raw 16-bit PCM payloads and plays them in real time by
// writing paced chunks to a sink, typically a websocket broadcaster.
// Play blocks for the clip's natural duration so callers can sequence
// clips back to back without overlap.
type Output struct {
	sink   io.Writer
	logger *zap.Logger

	mu     sync.Mutex
	muted  bool
	closed bool
}

// Ensure Output implements the AudioOutput interface
var _ repositories.AudioOutput = (*Output)(nil)

// NewOutput creates an Output streaming to sink. A nil sink is allowed;
// playback then reduces to pacing, which keeps turn timing realistic in
// headless runs.
func NewOutput(sink io.Writer, logger *zap.Logger) *Output {
	return &Output{
		sink:   sink,
		logger: logger,
	}
}

// Decode validates a raw PCM payload and wraps it as a clip.
func (o *Output) Decode(payload []byte) (*entities.AudioClip, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty audio payload")
	}
	if len(payload)%2 != 0 {
		return nil, fmt.Errorf("audio payload is not 16-bit aligned: %d bytes", len(payload))
	}
	return &entities.AudioClip{
		PCM:        payload,
		SampleRate: defaultSampleRate,
		Channels:   defaultChannels,
	}, nil
}

// Play streams the clip to the sink in chunks paced to its sample rate.
// When muted it returns immediately without touching the sink.
func (o *Output) Play(ctx context.Context, clip *entities.AudioClip) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return fmt.Errorf("audio output is closed")
	}
	muted := o.muted
	o.mu.Unlock()

	if clip == nil || len(clip.PCM) == 0 {
		return nil
	}
	if muted {
		o.logger.Debug("Audio output muted, skipping clip",
			zap.Duration("duration", clip.Duration()))
		return nil
	}

	// Bytes covering one chunk interval of audio.
	chunkSize := clip.SampleRate * clip.Channels * 2 * int(chunkInterval/time.Millisecond) / 1000
	if chunkSize <= 0 {
		chunkSize = len(clip.PCM)
	}

	ticker := time.NewTicker(chunkInterval)
	defer ticker.Stop()

	for offset := 0; offset < len(clip.PCM); offset += chunkSize {
		end := offset + chunkSize
		if end > len(clip.PCM) {
			end = len(clip.PCM)
		}

		if o.sink != nil {
			if _, err := o.sink.Write(clip.PCM[offset:end]); err != nil {
				return fmt.Errorf("writing audio chunk: %w", err)
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// SetMuted toggles whether Play forwards audio to the sink.
func (o *Output) SetMuted(muted bool) {
	o.mu.Lock()
	o.muted = muted
	o.mu.Unlock()
	o.logger.Debug("Audio output mute changed", zap.Bool("muted", muted))
}

// Close marks the output closed. Subsequent Play calls fail.
func (o *Output) Close() error {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
	return nil
}
