package usecase

import (
	"context"
	"errors"
	"fmt"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

type BreakerSettings struct {
	FailureThreshold uint32
	Cooldown         time.Duration
}

// ResilientProvider bounds every call to the primary provider with a timeout
// and stops calling it while the circuit is open. It never retries: a failed
// attempt goes straight to the deterministic recommender.
type ResilientProvider struct {
	primary repository.AIProvider
	breaker *gobreaker.CircuitBreaker[*entity.AIResponse]
	timeout time.Duration // The Safety Layer Timeout
	logger  *zap.Logger
}

func NewResilientProvider(primary repository.AIProvider, timeout time.Duration, bs BreakerSettings, logger *zap.Logger) *ResilientProvider {
	if bs.FailureThreshold == 0 {
		bs.FailureThreshold = 5
	}
	if bs.Cooldown <= 0 {
		bs.Cooldown = 30 * time.Second
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	settings := gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     bs.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// the caller going away says nothing about provider health
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &ResilientProvider{
		primary: primary,
		breaker: gobreaker.NewCircuitBreaker[*entity.AIResponse](settings),
		timeout: timeout,
		logger:  logger,
	}
}

// Generate returns the provider response or a *entity.FallbackError.
func (r *ResilientProvider) Generate(ctx context.Context, req entity.AIRequest) (*entity.AIResponse, error) {
	// 1. Apply Timeout Layer
	// A scoped context so one slow request doesn't hang the handler
	resCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	resp, err := r.breaker.Execute(func() (*entity.AIResponse, error) {
		return r.primary.Generate(resCtx, req)
	})
	if err == nil {
		if resp == nil {
			return nil, entity.NewFallbackError(entity.ReasonEmptyResponse, errors.New("provider returned no response"))
		}
		resp.Latency = time.Since(start).Milliseconds()
		return resp, nil
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return nil, entity.NewFallbackError(entity.ReasonCircuitOpen, fmt.Errorf("%w: %v", entity.ErrProviderUnavailable, err))
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(resCtx.Err(), context.DeadlineExceeded):
		return nil, entity.NewFallbackError(entity.ReasonTimeout, err)
	default:
		return nil, entity.NewFallbackError(entity.ReasonProviderError, err)
	}
}

// State reports the breaker state for health checks.
func (r *ResilientProvider) State() string {
	return r.breaker.State().String()
}
