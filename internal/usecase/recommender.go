package usecase

import (
	"context"
	"errors"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"quizmatch/internal/metrics"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultModel = "gemini-2.5-flash"

	backgroundTimeout = 5 * time.Second
)

// DefaultGenerationParams are used when neither the environment nor the
// locale config override them.
var DefaultGenerationParams = entity.GenerationParams{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 2048,
}

// Recommender is the recommendation engine. It asks Gemini when allowed and
// always resolves to the deterministic Fallback otherwise. It holds no
// per-request state and is safe for concurrent use.
type Recommender struct {
	provider     repository.AIProvider
	limiter      repository.TokenLimiter
	cache        repository.RecommendationCache
	params       entity.GenerationParams
	defaultModel string
	logger       *zap.Logger
}

type RecommenderOption func(*Recommender)

func WithTokenLimiter(l repository.TokenLimiter) RecommenderOption {
	return func(r *Recommender) { r.limiter = l }
}

func WithCache(c repository.RecommendationCache) RecommenderOption {
	return func(r *Recommender) { r.cache = c }
}

// WithGenerationParams replaces the server-wide generation defaults as given.
func WithGenerationParams(p entity.GenerationParams) RecommenderOption {
	return func(r *Recommender) { r.params = p }
}

func WithDefaultModel(model string) RecommenderOption {
	return func(r *Recommender) {
		if model != "" {
			r.defaultModel = model
		}
	}
}

// NewRecommender builds the engine. A nil provider means no Gemini credential
// is configured and every request is served by the fallback.
func NewRecommender(provider repository.AIProvider, logger *zap.Logger, opts ...RecommenderOption) *Recommender {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recommender{
		provider:     provider,
		params:       DefaultGenerationParams,
		defaultModel: DefaultModel,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend validates the request and produces a recommendation. The only
// error it returns wraps entity.ErrInvalidRequest; every Gemini failure is
// absorbed into a fallback result.
func (r *Recommender) Recommend(ctx context.Context, req entity.RecommendRequest) (*entity.RecommendResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()
	result := r.recommend(ctx, req)

	metrics.RecommendationsTotal.WithLabelValues(string(result.Source), string(result.FallbackReason)).Inc()
	metrics.RecommendationDuration.WithLabelValues(string(result.Source)).Observe(time.Since(start).Seconds())
	return result, nil
}

func (r *Recommender) recommend(ctx context.Context, req entity.RecommendRequest) *entity.RecommendResult {
	rec, cached, err := r.askGemini(ctx, req)
	if err == nil {
		return &entity.RecommendResult{Recommendation: rec, Source: entity.SourceGemini, Cached: cached}
	}

	reason := entity.ReasonProviderError
	var fe *entity.FallbackError
	if errors.As(err, &fe) {
		reason = fe.Reason
	}

	log := r.logger.With(zap.String("reason", string(reason)), zap.String("locale", req.Locale))
	switch reason {
	case entity.ReasonDisabled, entity.ReasonMissingCredential:
		log.Debug("serving fallback recommendations")
	default:
		log.Warn("gemini recommendation failed, serving fallback", zap.Error(err))
	}

	return &entity.RecommendResult{
		Recommendation: Fallback(req.Answers, req.Products),
		Source:         entity.SourceFallback,
		FallbackReason: reason,
	}
}

func (r *Recommender) askGemini(ctx context.Context, req entity.RecommendRequest) (entity.Recommendation, bool, error) {
	if !req.Config.Enabled {
		return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonDisabled, nil)
	}
	if r.provider == nil {
		return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonMissingCredential, nil)
	}

	// 1. Check usage budget
	if r.limiter != nil && req.ClientID != "" {
		allowed, err := r.limiter.CheckLimit(ctx, req.ClientID)
		if err != nil {
			r.logger.Warn("token limiter unavailable, allowing request", zap.Error(err))
		} else if !allowed {
			return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonRateLimited, entity.ErrRateLimitExceeded)
		}
	}

	model := req.Config.Model
	if model == "" {
		model = r.defaultModel
	}
	params := r.params.Merge(req.Config.Generation)

	// 2. Cache lookup
	var vector []float32
	var filters map[string]string
	if r.cache != nil {
		var err error
		if filters, err = cacheFilters(req, model, params); err != nil {
			r.logger.Warn("recommendation cache disabled for request", zap.Error(err))
		} else {
			vector = AnswerVector(req.Answers)
			hit, err := r.cache.Search(ctx, vector, filters)
			if err != nil {
				r.logger.Warn("recommendation cache search failed", zap.Error(err))
			} else if hit != nil {
				if rec, err := restrictToCatalog(hit.Recommendation, req.Products); err == nil {
					metrics.RecommendationCacheHits.Inc()
					return rec, true, nil
				}
			}
		}
	}

	// 3. Call Gemini
	prompt, err := BuildPrompt(req.Config, req.Questions, req.Answers, req.Products)
	if err != nil {
		return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonProviderError, err)
	}
	resp, err := r.provider.Generate(ctx, entity.AIRequest{
		Model:  model,
		Prompt: prompt,
		Params: params,
	})
	if err != nil {
		var fe *entity.FallbackError
		if errors.As(err, &fe) {
			return entity.Recommendation{}, false, err
		}
		return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonProviderError, err)
	}
	if resp == nil {
		return entity.Recommendation{}, false, entity.NewFallbackError(entity.ReasonEmptyResponse, nil)
	}

	rec, err := ParseRecommendation(resp.Content, req.Products)
	if err != nil {
		return entity.Recommendation{}, false, err
	}

	r.logger.Info("gemini recommendation served",
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.TokenCount),
		zap.Int64("latency_ms", resp.Latency),
		zap.Int("products", len(rec.ProductIDs)))

	// 4. Background: update usage and cache
	go r.record(req.ClientID, resp.TokenCount, rec, vector, filters)

	return rec, false, nil
}

func (r *Recommender) record(clientID string, tokens int, rec entity.Recommendation, vector []float32, filters map[string]string) {
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	if tokens > 0 {
		metrics.GeminiTokensUsed.Add(float64(tokens))
	}
	if r.limiter != nil && clientID != "" && tokens > 0 {
		if err := r.limiter.Increment(ctx, clientID, tokens); err != nil {
			r.logger.Warn("failed to record token usage", zap.Error(err))
		}
	}
	if r.cache != nil && vector != nil {
		if err := r.cache.Save(ctx, rec, vector, filters); err != nil {
			r.logger.Warn("failed to cache recommendation", zap.Error(err))
		}
	}
}

// cacheFilters are the exact-match payload keys a cached recommendation must
// share with the request. The vector only ranks among them.
func cacheFilters(req entity.RecommendRequest, model string, params entity.GenerationParams) (map[string]string, error) {
	catalog, err := CatalogFingerprint(req.Products)
	if err != nil {
		return nil, err
	}
	prompt, err := PromptFingerprint(req.Config, model, params, req.Questions)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"locale":  req.Locale,
		"catalog": catalog,
		"prompt":  prompt,
		"answers": AnswerKey(req.Answers),
	}, nil
}
