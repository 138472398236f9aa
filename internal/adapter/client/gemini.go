package client

import (
	"context"
	"errors"
	"quizmatch/internal/domain/entity"
	"time"

	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient connects with an API key against the Gemini Developer API.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return NewGeminiClientFromClient(client, model), nil
}

// NewVertexGeminiClient uses application default credentials on Vertex AI.
func NewVertexGeminiClient(ctx context.Context, projectID, location, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  projectID,
		Location: location,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		return nil, err
	}
	return NewGeminiClientFromClient(client, model), nil
}

// NewGeminiClientFromClient wraps an existing genai client; model is used
// when a request names none.
func NewGeminiClientFromClient(c *genai.Client, model string) *GeminiClient {
	return &GeminiClient{
		client: c,
		model:  model,
	}
}

func (g *GeminiClient) Generate(ctx context.Context, req entity.AIRequest) (*entity.AIResponse, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	start := time.Now()
	result, err := g.client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), generationConfig(req.Params))
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Candidates) == 0 {
		return nil, errors.New("gemini returned no candidates")
	}

	resp := &entity.AIResponse{
		Content: result.Text(),
		Model:   model,
		Latency: time.Since(start).Milliseconds(),
	}
	if result.ModelVersion != "" {
		resp.Model = result.ModelVersion
	}
	if result.UsageMetadata != nil {
		resp.TokenCount = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

func generationConfig(p entity.GenerationParams) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		// Ask for JSON; the response is still parsed defensively.
		ResponseMIMEType: "application/json",
		MaxOutputTokens:  p.MaxOutputTokens,
		Temperature:      genai.Ptr(p.Temperature),
	}
	if p.TopK > 0 {
		cfg.TopK = genai.Ptr(p.TopK)
	}
	if p.TopP > 0 {
		cfg.TopP = genai.Ptr(p.TopP)
	}
	return cfg
}
