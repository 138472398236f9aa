package entity

// Provenance tells the caller which path produced a recommendation.
type Provenance string

const (
	SourceGemini   Provenance = "gemini"
	SourceFallback Provenance = "fallback"
)

// GeminiConfig is the per-locale "gemini" block of the quiz configuration.
type GeminiConfig struct {
	Enabled    bool              `json:"enabled"`
	Model      string            `json:"model"`
	Prompt     string            `json:"prompt"`
	Generation *GenerationOverride `json:"generation,omitempty"`
}

// Recommendation is the productIds/reasoning/guidance payload returned to the UI.
type Recommendation struct {
	ProductIDs []string          `json:"productIds"`
	Reasoning  string            `json:"reasoning"`
	Guidance   string            `json:"guidance"`
	Reasons    map[string]string `json:"reasons,omitempty"`
}

type RecommendRequest struct {
	ClientID  string
	Locale    string
	Answers   []QuizAnswer   `validate:"required,dive"`
	Products  []Product      `validate:"required,dive"`
	Questions []QuizQuestion `validate:"omitempty,dive"`
	Config    GeminiConfig
}

type RecommendResult struct {
	Recommendation Recommendation
	Source         Provenance
	// FallbackReason is empty when Source is SourceGemini.
	FallbackReason FallbackReason
	Cached         bool
}
