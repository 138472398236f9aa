package usecase

import (
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"math"
	"quizmatch/internal/domain/entity"
	"sort"

	"github.com/goccy/go-json"
)

// VectorDimensions is the size of the hashed answer vector stored in the cache.
const VectorDimensions = 256

// AnswerVector hashes the selected tags into a fixed-size, L2-normalised vector.
// Identical selections always produce identical vectors regardless of answer order.
func AnswerVector(answers []entity.QuizAnswer) []float32 {
	vector := make([]float32, VectorDimensions)
	for tag := range entity.SelectedTags(answers) {
		vector[hashTag(tag)%VectorDimensions] += 1
	}

	var magnitude float64
	for _, v := range vector {
		magnitude += float64(v) * float64(v)
	}
	if magnitude == 0 {
		return vector
	}
	norm := float32(math.Sqrt(magnitude))
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}

// AnswerKey identifies a selection exactly: the sorted, de-duplicated tags.
// Hashed vectors can collide, so cache lookups also match on this key.
func AnswerKey(answers []entity.QuizAnswer) string {
	tags := make([]string, 0, len(answers))
	for tag := range entity.SelectedTags(answers) {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	h := fnv.New64a()
	for _, tag := range tags {
		h.Write([]byte(tag))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CatalogFingerprint identifies a product catalog by its full content, so
// cached recommendations never outlive the catalog they were made for.
// Catalog order does not matter.
func CatalogFingerprint(products []entity.Product) (string, error) {
	sorted := make([]entity.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return fingerprint(sorted)
}

// PromptFingerprint covers everything besides answers and catalog that shapes
// the Gemini prompt: system prompt, model, sampling and question texts.
func PromptFingerprint(cfg entity.GeminiConfig, model string, params entity.GenerationParams, questions []entity.QuizQuestion) (string, error) {
	return fingerprint(struct {
		Prompt    string                  `json:"prompt"`
		Model     string                  `json:"model"`
		Params    entity.GenerationParams `json:"params"`
		Questions []entity.QuizQuestion   `json:"questions"`
	}{cfg.Prompt, model, params, questions})
}

func fingerprint(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	h := fnv.New64a()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashTag(tag string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(tag))
	return h.Sum32()
}
