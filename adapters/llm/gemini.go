package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/banterbox/server/domain/repositories"
)

const defaultModel = "gemini-2.5-flash"

// Safety is relaxed across the board: roast modes deliberately generate
// insults that the default thresholds would block.
var safetySettings = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockNone},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockNone},
}

// GeminiProvider implements repositories.ChatProvider using Google's
// Gemini API.
type GeminiProvider struct {
	client *genai.Client
	logger *zap.Logger
	model  string
}

// NewGeminiProvider creates a provider for the given API key. An empty
// model selects the default.
func NewGeminiProvider(ctx context.Context, apiKey, model string, logger *zap.Logger) (*GeminiProvider, error) {
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
	return &GeminiProvider{
		client: client,
		logger: logger,
		model:  model,
	}, nil
}

// NewChatSession creates a chat context framed by the system instruction.
// History lives on the session so the model keeps the whole dialogue.
func (p *GeminiProvider) NewChatSession(ctx context.Context, systemInstruction string) (repositories.ChatSession, error) {
	return &geminiChatSession{
		client: p.client,
		logger: p.logger,
		model:  p.model,
		config: &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			SafetySettings:    safetySettings,
		},
	}, nil
}

// ValidateKey reports whether the key is accepted by the Gemini API. Used
// at setup time only; a cheap one-token generation doubles as the probe.
func ValidateKey(ctx context.Context, apiKey string) bool {
	if apiKey == "" {
		return false
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return false
	}
	_, err = client.Models.GenerateContent(ctx, defaultModel, genai.Text("ping"), &genai.GenerateContentConfig{
		MaxOutputTokens: 1,
	})
	return err == nil
}

type geminiChatSession struct {
	client  *genai.Client
	logger  *zap.Logger
	model   string
	config  *genai.GenerateContentConfig
	history []*genai.Content
}

// SendMessage sends one prompt over the session. Errors propagate raw so
// the caller's retry wrapper can classify them; retrying here would hide
// the failure class and double up backoff.
func (s *geminiChatSession) SendMessage(ctx context.Context, prompt string) (string, error) {
	userContent := genai.NewContentFromText(prompt, genai.RoleUser)
	contents := make([]*genai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userContent)

	response, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return "", err
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", fmt.Errorf("no candidates in model response")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty text in model response")
	}

	s.history = append(s.history, userContent, genai.NewContentFromText(text, genai.RoleModel))
	s.logger.Debug("Chat turn completed",
		zap.Int("history_length", len(s.history)),
		zap.Int("response_length", len(text)))
	return text, nil
}
