package usecase

import (
	"context"
	"errors"
	"quizmatch/internal/domain/entity"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResilientProvider_Success(t *testing.T) {
	primary := &fakeProvider{resp: &entity.AIResponse{Content: "ok", TokenCount: 3}}
	p := NewResilientProvider(primary, time.Second, BreakerSettings{}, zap.NewNop())

	resp, err := p.Generate(context.Background(), entity.AIRequest{Prompt: "hi"})

	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	assert.Len(t, primary.Calls(), 1)
}

func TestResilientProvider_TimeoutIsBounded(t *testing.T) {
	primary := &fakeProvider{block: true}
	p := NewResilientProvider(primary, 50*time.Millisecond, BreakerSettings{}, zap.NewNop())

	start := time.Now()
	_, err := p.Generate(context.Background(), entity.AIRequest{Prompt: "hi"})

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, entity.ReasonTimeout, fallbackReasonOf(t, err))
}

func TestResilientProvider_NoRetry(t *testing.T) {
	primary := &fakeProvider{err: errors.New("503 overloaded")}
	p := NewResilientProvider(primary, time.Second, BreakerSettings{FailureThreshold: 10}, zap.NewNop())

	_, err := p.Generate(context.Background(), entity.AIRequest{Prompt: "hi"})

	assert.Equal(t, entity.ReasonProviderError, fallbackReasonOf(t, err))
	assert.Len(t, primary.Calls(), 1)
}

func TestResilientProvider_BreakerOpens(t *testing.T) {
	primary := &fakeProvider{err: errors.New("boom")}
	p := NewResilientProvider(primary, time.Second, BreakerSettings{FailureThreshold: 2, Cooldown: time.Minute}, zap.NewNop())

	for i := 0; i < 2; i++ {
		_, err := p.Generate(context.Background(), entity.AIRequest{})
		assert.Equal(t, entity.ReasonProviderError, fallbackReasonOf(t, err))
	}

	_, err := p.Generate(context.Background(), entity.AIRequest{})

	assert.Equal(t, entity.ReasonCircuitOpen, fallbackReasonOf(t, err))
	assert.ErrorIs(t, err, entity.ErrProviderUnavailable)
	assert.Len(t, primary.Calls(), 2)
	assert.Equal(t, "open", p.State())
}

func TestResilientProvider_WithRecommenderFallsBackWhenOpen(t *testing.T) {
	primary := &fakeProvider{err: errors.New("boom")}
	p := NewResilientProvider(primary, time.Second, BreakerSettings{FailureThreshold: 1, Cooldown: time.Minute}, zap.NewNop())
	r := NewRecommender(p, zap.NewNop())

	first, err := r.Recommend(context.Background(), teaRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonProviderError, first.FallbackReason)

	second, err := r.Recommend(context.Background(), teaRequest())
	require.NoError(t, err)
	assert.Equal(t, entity.ReasonCircuitOpen, second.FallbackReason)
	assert.Equal(t, entity.SourceFallback, second.Source)
}
