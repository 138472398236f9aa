package client

import (
	"quizmatch/internal/domain/entity"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationConfig(t *testing.T) {
	cfg := generationConfig(entity.GenerationParams{Temperature: 0.7, TopK: 40, TopP: 0.95, MaxOutputTokens: 2048})

	require.NotNil(t, cfg.Temperature)
	require.NotNil(t, cfg.TopK)
	require.NotNil(t, cfg.TopP)
	assert.Equal(t, float32(0.7), *cfg.Temperature)
	assert.Equal(t, float32(40), *cfg.TopK)
	assert.Equal(t, float32(0.95), *cfg.TopP)
	assert.Equal(t, int32(2048), cfg.MaxOutputTokens)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)
}

func TestGenerationConfig_SendsZeroTemperature(t *testing.T) {
	cfg := generationConfig(entity.GenerationParams{})

	require.NotNil(t, cfg.Temperature)
	assert.Zero(t, *cfg.Temperature)
	assert.Nil(t, cfg.TopK)
	assert.Nil(t, cfg.TopP)
	assert.Zero(t, cfg.MaxOutputTokens)
}

func TestNewGeminiClientFromClient_KeepsDefaultModel(t *testing.T) {
	c := NewGeminiClientFromClient(nil, "gemini-2.5-flash")

	assert.Equal(t, "gemini-2.5-flash", c.model)
}
