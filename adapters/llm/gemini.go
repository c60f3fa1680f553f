package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/moodlabs/moodchat/domain"
)

// GeminiClient adapts the Gemini API to the domain.Llm port. Model,
// sampling parameters, and safety thresholds are fixed at construction
// and shared by every call; the client is safe for concurrent use.
type GeminiClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
}

func NewGeminiClient(ctx context.Context, apiKey, model string) (domain.Llm, error) {
	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.7),
			TopP:            genai.Ptr[float32](0.8),
			TopK:            genai.Ptr[float32](40),
			MaxOutputTokens: 2048,
			SafetySettings: []*genai.SafetySetting{
				{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
				{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
				{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
				{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdBlockMediumAndAbove},
			},
		},
	}, nil
}

func (g *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(prompt),
		g.config,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	// Text is empty when every candidate was filtered by the safety
	// layer; the caller decides what to do with that.
	return resp.Text(), nil
}
