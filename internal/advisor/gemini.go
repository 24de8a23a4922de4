package advisor

import (
	"context"
	"fmt"
	"strings"

	"storefront/internal/logger"
	"storefront/internal/models"

	"google.golang.org/genai"
)

const defaultModel = "gemini-3-flash-preview"

// generator is the slice of the genai models API the advisor needs.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiAdvisor struct {
	models generator
	model  string
	logger *logger.Logger
}

func NewGeminiAdvisor(ctx context.Context, apiKey, model string, log *logger.Logger) (*GeminiAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiAdvisor{models: client.Models, model: model, logger: log}, nil
}

func (a *GeminiAdvisor) Advice(ctx context.Context, userText string, products []models.Product) string {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction(products), genai.RoleUser),
	}

	resp, err := a.models.GenerateContent(ctx, a.model, genai.Text(userText), cfg)
	if err != nil {
		a.logger.Error("GX-ARES request failed: %v", err)
		return ProtocolError
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return SignalLost
	}
	return text
}
