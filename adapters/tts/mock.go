package tts

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
)

// MockTTS produces a short sine tone whose length tracks the text, for
// local development without an API key.
type MockTTS struct {
	logger *zap.Logger
}

// NewMockTTS creates the mock synthesizer.
func NewMockTTS(logger *zap.Logger) *MockTTS {
	return &MockTTS{logger: logger}
}

func (m *MockTTS) Synthesize(ctx context.Context, prompt string, voice entities.Voice) ([]byte, error) {
	// Roughly 40ms of tone per character, capped at 3s, at 24kHz mono.
	samples := len(prompt) * 24000 * 40 / 1000
	if limit := 3 * 24000; samples > limit {
		samples = limit
	}
	payload := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		v := int16(8000 * math.Sin(2*math.Pi*440*float64(i)/24000))
		payload[2*i] = byte(v)
		payload[2*i+1] = byte(v >> 8)
	}
	m.logger.Debug("Mock speech synthesized",
		zap.String("voice", string(voice)),
		zap.Int("payload_bytes", len(payload)))
	return payload, nil
}
