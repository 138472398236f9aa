package usecase

import (
	"context"
	"quizmatch/internal/domain/entity"
	"quizmatch/internal/domain/repository"
	"sync"
)

type fakeProvider struct {
	mu    sync.Mutex
	calls []entity.AIRequest
	resp  *entity.AIResponse
	err   error
	block bool
}

func (f *fakeProvider) Generate(ctx context.Context, req entity.AIRequest) (*entity.AIResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.resp, f.err
}

func (f *fakeProvider) Calls() []entity.AIRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.AIRequest(nil), f.calls...)
}

type fakeLimiter struct {
	mu      sync.Mutex
	allowed bool
	err     error
	used    map[string]int
}

func (f *fakeLimiter) CheckLimit(ctx context.Context, clientID string) (bool, error) {
	return f.allowed, f.err
}

func (f *fakeLimiter) Increment(ctx context.Context, clientID string, tokens int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.used == nil {
		f.used = make(map[string]int)
	}
	f.used[clientID] += tokens
	return nil
}

func (f *fakeLimiter) Used(clientID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.used[clientID]
}

type fakeCache struct {
	mu       sync.Mutex
	hit      *repository.CachedRecommendation
	saved    []entity.Recommendation
	searched []map[string]string
}

func (f *fakeCache) Search(ctx context.Context, vector []float32, filters map[string]string) (*repository.CachedRecommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, filters)
	return f.hit, nil
}

func (f *fakeCache) Searched() []map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]string(nil), f.searched...)
}

func (f *fakeCache) Save(ctx context.Context, rec entity.Recommendation, vector []float32, filters map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, rec)
	return nil
}

func (f *fakeCache) Saved() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saved)
}
