package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/banterbox/server/domain/entities"
	"github.com/banterbox/server/domain/repositories"
)

// SpeechPipeline turns a generated line into a playable clip. Failures
// degrade to "no audio"; a turn is never aborted because synthesis failed.
type SpeechPipeline struct {
	tts      repositories.SpeechSynthesizer
	output   repositories.AudioOutput
	logger   *zap.Logger
	attempts int
	sleep    SleepFunc
}

// NewSpeechPipeline creates the synthesis pipeline for one conversation.
func NewSpeechPipeline(tts repositories.SpeechSynthesizer, output repositories.AudioOutput, logger *zap.Logger) *SpeechPipeline {
	return &SpeechPipeline{
		tts:      tts,
		output:   output,
		logger:   logger,
		attempts: defaultMaxAttempts,
	}
}

// Speak synthesizes text in the speaker's voice and decodes it. It returns
// nil on any failure.
func (s *SpeechPipeline) Speak(ctx context.Context, text string, speaker entities.Persona) *entities.AudioClip {
	prompt := fmt.Sprintf("%s %q", speaker.VoiceInstruction, text)

	var payload []byte
	err := withRetry(ctx, s.attempts, s.sleep, s.logger, func() error {
		var synthErr error
		payload, synthErr = s.tts.Synthesize(ctx, prompt, speaker.Voice)
		return synthErr
	})
	if err != nil {
		s.logger.Warn("Speech synthesis failed, continuing without audio",
			zap.String("persona", speaker.ID),
			zap.Error(err))
		return nil
	}
	if len(payload) == 0 {
		s.logger.Warn("Speech synthesis returned no payload",
			zap.String("persona", speaker.ID))
		return nil
	}

	clip, err := s.output.Decode(payload)
	if err != nil {
		s.logger.Warn("Audio decode failed, continuing without audio",
			zap.String("persona", speaker.ID),
			zap.Error(err))
		return nil
	}
	return clip
}
