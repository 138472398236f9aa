package repository

import (
	"context"
	"quizmatch/internal/domain/entity"
)

// CachedRecommendation is a previously validated Gemini answer for a similar answer set.
type CachedRecommendation struct {
	Recommendation entity.Recommendation
	Score          float32
}

type RecommendationCache interface {
	Search(ctx context.Context, vector []float32, filters map[string]string) (*CachedRecommendation, error)
	Save(ctx context.Context, rec entity.Recommendation, vector []float32, filters map[string]string) error
}

type TokenLimiter interface {
	CheckLimit(ctx context.Context, clientID string) (bool, error)
	Increment(ctx context.Context, clientID string, tokens int) error
}

type AIProvider interface {
	Generate(ctx context.Context, req entity.AIRequest) (*entity.AIResponse, error)
}
