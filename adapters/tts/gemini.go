package tts

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/banterbox/server/domain/entities"
)

const defaultModel = "gemini-2.5-flash-preview-tts"

// GeminiTTS implements repositories.SpeechSynthesizer using the Gemini
// speech-generation models with the fixed prebuilt voice set.
type GeminiTTS struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiTTS creates a synthesizer for the given API key. An empty model
// selects the default.
func NewGeminiTTS(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiTTS, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = defaultModel
	}
	return &GeminiTTS{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// Synthesize requests audio-modality output for the style-directed prompt.
// The returned payload is raw PCM as served by the API; decoding is the
// audio output's concern.
func (t *GeminiTTS) Synthesize(ctx context.Context, prompt string, voice entities.Voice) ([]byte, error) {
	config := &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{
					VoiceName: string(voice),
				},
			},
		},
	}

	response, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates in speech response")
	}
	for _, part := range response.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			t.logger.Debug("Speech synthesized",
				zap.String("voice", string(voice)),
				zap.Int("payload_bytes", len(part.InlineData.Data)))
			return part.InlineData.Data, nil
		}
	}
	return nil, fmt.Errorf("no audio payload in speech response")
}
