package usecase

import (
	"context"
	"errors"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func teaRequest() entity.RecommendRequest {
	return entity.RecommendRequest{
		ClientID: "client-1",
		Locale:   "en",
		Questions: []entity.QuizQuestion{
			{ID: "q1", Text: "When?", Type: entity.SingleSelect, Options: []entity.QuizOption{{ID: "morning", Text: "Morning"}, {ID: "evening", Text: "Evening"}}},
			{ID: "q2", Text: "Why?", Type: entity.MultiSelect, Options: []entity.QuizOption{{ID: "calming", Text: "Calm"}, {ID: "energy", Text: "Energy"}}},
		},
		Answers: []entity.QuizAnswer{
			{QuestionID: "q1", SelectedOptions: []string{"evening"}},
			{QuestionID: "q2", SelectedOptions: []string{"calming"}},
		},
		Products: []entity.Product{
			{ID: "black", Name: "Black", Tags: []string{"morning", "energy"}},
			{ID: "chamomile", Name: "Chamomile", Tags: []string{"evening", "calming"}},
			{ID: "mint", Name: "Mint", Tags: []string{"evening"}},
		},
		Config: entity.GeminiConfig{Enabled: true},
	}
}

const validModelOutput = `{"productIds":["chamomile","mint"],"reasoning":"calm evenings","guidance":"steep 5 minutes"}`

func TestRecommend_DisabledMatchesFallback(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
	r := NewRecommender(provider, zaptest.NewLogger(t))
	req := teaRequest()
	req.Config.Enabled = false

	result, err := r.Recommend(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceFallback, result.Source)
	assert.Equal(t, entity.ReasonDisabled, result.FallbackReason)
	assert.Equal(t, Fallback(req.Answers, req.Products), result.Recommendation)
	assert.Empty(t, provider.Calls())
}

func TestRecommend_MissingCredential(t *testing.T) {
	r := NewRecommender(nil, zaptest.NewLogger(t))

	result, err := r.Recommend(context.Background(), teaRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.SourceFallback, result.Source)
	assert.Equal(t, entity.ReasonMissingCredential, result.FallbackReason)
}

func TestRecommend_GeminiSuccess(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: "```json\n" + validModelOutput + "\n```", TokenCount: 120}}
	limiter := &fakeLimiter{allowed: true}
	r := NewRecommender(provider, zaptest.NewLogger(t), WithTokenLimiter(limiter))
	req := teaRequest()
	greedy := float32(0)
	req.Config.Generation = &entity.GenerationOverride{Temperature: &greedy}

	result, err := r.Recommend(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceGemini, result.Source)
	assert.Empty(t, result.FallbackReason)
	assert.Equal(t, []string{"chamomile", "mint"}, result.Recommendation.ProductIDs)

	calls := provider.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, DefaultModel, calls[0].Model)
	assert.Zero(t, calls[0].Params.Temperature)
	assert.Equal(t, float32(0.95), calls[0].Params.TopP)
	assert.Equal(t, float32(40), calls[0].Params.TopK)
	assert.Equal(t, int32(2048), calls[0].Params.MaxOutputTokens)
	assert.Contains(t, calls[0].Prompt, "Evening")
	assert.Contains(t, calls[0].Prompt, `"id": "chamomile"`)

	assert.Eventually(t, func() bool { return limiter.Used("client-1") == 120 }, time.Second, 10*time.Millisecond)
}

func TestRecommend_ProviderFailuresFallBack(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		want     entity.FallbackReason
	}{
		{"network error", &fakeProvider{err: errors.New("connection refused")}, entity.ReasonProviderError},
		{"tagged error", &fakeProvider{err: entity.NewFallbackError(entity.ReasonTimeout, context.DeadlineExceeded)}, entity.ReasonTimeout},
		{"nil response", &fakeProvider{}, entity.ReasonEmptyResponse},
		{"empty text", &fakeProvider{resp: &entity.AIResponse{Content: ""}}, entity.ReasonEmptyResponse},
		{"malformed", &fakeProvider{resp: &entity.AIResponse{Content: "{productIds: nope}"}}, entity.ReasonInvalidJSON},
		{"wrong shape", &fakeProvider{resp: &entity.AIResponse{Content: `{"recommends":[]}`}}, entity.ReasonInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRecommender(tt.provider, zaptest.NewLogger(t))
			req := teaRequest()

			result, err := r.Recommend(context.Background(), req)

			require.NoError(t, err)
			assert.Equal(t, entity.SourceFallback, result.Source)
			assert.Equal(t, tt.want, result.FallbackReason)
			assert.Equal(t, Fallback(req.Answers, req.Products), result.Recommendation)
		})
	}
}

func TestRecommend_RateLimited(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
	r := NewRecommender(provider, zaptest.NewLogger(t), WithTokenLimiter(&fakeLimiter{allowed: false}))

	result, err := r.Recommend(context.Background(), teaRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.ReasonRateLimited, result.FallbackReason)
	assert.Empty(t, provider.Calls())
}

func TestRecommend_LimiterErrorDoesNotBlockGemini(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
	r := NewRecommender(provider, zaptest.NewLogger(t), WithTokenLimiter(&fakeLimiter{err: errors.New("redis down")}))

	result, err := r.Recommend(context.Background(), teaRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.SourceGemini, result.Source)
}

func TestRecommend_CacheHitSkipsProvider(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
	cache := &fakeCache{hit: &repository.CachedRecommendation{
		Recommendation: entity.Recommendation{ProductIDs: []string{"mint"}, Reasoning: "cached", Guidance: "cached"},
		Score:          0.999,
	}}
	r := NewRecommender(provider, zaptest.NewLogger(t), WithCache(cache))

	result, err := r.Recommend(context.Background(), teaRequest())

	require.NoError(t, err)
	assert.Equal(t, entity.SourceGemini, result.Source)
	assert.True(t, result.Cached)
	assert.Equal(t, []string{"mint"}, result.Recommendation.ProductIDs)
	assert.Empty(t, provider.Calls())

	searched := cache.Searched()
	require.Len(t, searched, 1)
	assert.Equal(t, AnswerKey(teaRequest().Answers), searched[0]["answers"])
	assert.NotEmpty(t, searched[0]["prompt"])
	assert.NotEmpty(t, searched[0]["catalog"])
}

func TestRecommend_CacheMissSavesGeminiResult(t *testing.T) {
	provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
	cache := &fakeCache{}
	r := NewRecommender(provider, zaptest.NewLogger(t), WithCache(cache))

	result, err := r.Recommend(context.Background(), teaRequest())

	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Eventually(t, func() bool { return cache.Saved() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRecommend_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.RecommendRequest)
	}{
		{"nil answers", func(r *entity.RecommendRequest) { r.Answers = nil }},
		{"nil products", func(r *entity.RecommendRequest) { r.Products = nil }},
		{"answer without options", func(r *entity.RecommendRequest) { r.Answers[0].SelectedOptions = nil }},
		{"unknown question", func(r *entity.RecommendRequest) { r.Answers[0].QuestionID = "q9" }},
		{"unknown option", func(r *entity.RecommendRequest) { r.Answers[1].SelectedOptions = []string{"sleepy"} }},
		{"single-select with two options", func(r *entity.RecommendRequest) {
			r.Answers[0].SelectedOptions = []string{"morning", "evening"}
		}},
		{"duplicate product", func(r *entity.RecommendRequest) { r.Products[1].ID = "black" }},
		{"product without id", func(r *entity.RecommendRequest) { r.Products[0].ID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}
			r := NewRecommender(provider, zaptest.NewLogger(t))
			req := teaRequest()
			tt.mutate(&req)

			result, err := r.Recommend(context.Background(), req)

			assert.ErrorIs(t, err, entity.ErrInvalidRequest)
			assert.Nil(t, result)
			assert.Empty(t, provider.Calls())
		})
	}
}

func TestRecommend_EmptyCatalogFallsBackToEmpty(t *testing.T) {
	r := NewRecommender(&fakeProvider{resp: &entity.AIResponse{Content: validModelOutput}}, zaptest.NewLogger(t))
	req := teaRequest()
	req.Products = []entity.Product{}

	result, err := r.Recommend(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, entity.SourceFallback, result.Source)
	assert.Empty(t, result.Recommendation.ProductIDs)
}
