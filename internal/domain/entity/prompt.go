package entity

// GenerationParams are the sampling knobs sent with every Gemini call.
type GenerationParams struct {
	Temperature     float32 `json:"temperature,omitempty"`
	TopK            float32 `json:"topK,omitempty"`
	TopP            float32 `json:"topP,omitempty"`
	MaxOutputTokens int32   `json:"maxOutputTokens,omitempty"`
}

// GenerationOverride is the per-locale generation block. Nil fields keep the
// server defaults, so an explicit zero (temperature 0 for greedy decoding) is
// honoured.
type GenerationOverride struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopK            *float32 `json:"topK,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens *int32   `json:"maxOutputTokens,omitempty"`
}

// Merge returns p with every field set in override applied on top.
func (p GenerationParams) Merge(override *GenerationOverride) GenerationParams {
	if override == nil {
		return p
	}
	if override.Temperature != nil {
		p.Temperature = *override.Temperature
	}
	if override.TopK != nil {
		p.TopK = *override.TopK
	}
	if override.TopP != nil {
		p.TopP = *override.TopP
	}
	if override.MaxOutputTokens != nil {
		p.MaxOutputTokens = *override.MaxOutputTokens
	}
	return p
}

type AIRequest struct {
	Model  string
	Prompt string
	Params GenerationParams
}

type AIResponse struct {
	Content    string `json:"content"`
	Model      string `json:"model"` // Which model actually answered?
	TokenCount int    `json:"token_count"`
	Latency    int64  `json:"latency_ms"`
}
