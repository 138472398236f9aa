package usecase

import (
	"quizmatch/internal/domain/entity"
	"sort"
	"strings"
)

const (
	FallbackLimit = 5

	fallbackReasoning = "Recommendations based on your quiz answers and matching product attributes."
	fallbackGuidance  = "These products align with your preferences and needs. Explore each option to find your perfect match!"
)

// Fallback ranks the catalog by how many of each product's tags were selected.
// It never filters on score, so any non-empty catalog yields a non-empty result.
func Fallback(answers []entity.QuizAnswer, products []entity.Product) entity.Recommendation {
	selected := entity.SelectedTags(answers)

	type tagMatch struct {
		id      string
		matched []string
	}
	scored := make([]tagMatch, 0, len(products))
	for _, p := range products {
		m := tagMatch{id: p.ID}
		for _, tag := range p.Tags {
			if selected.Has(tag) {
				m.matched = append(m.matched, tag)
			}
		}
		scored = append(scored, m)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return len(scored[i].matched) > len(scored[j].matched)
	})
	if len(scored) > FallbackLimit {
		scored = scored[:FallbackLimit]
	}

	rec := entity.Recommendation{
		ProductIDs: make([]string, 0, len(scored)),
		Reasoning:  fallbackReasoning,
		Guidance:   fallbackGuidance,
		Reasons:    make(map[string]string, len(scored)),
	}
	for _, m := range scored {
		rec.ProductIDs = append(rec.ProductIDs, m.id)
		rec.Reasons[m.id] = fallbackReason(m.matched)
	}
	return rec
}

func fallbackReason(matched []string) string {
	if len(matched) == 0 {
		return "A popular choice from our catalog."
	}
	return "Matches your preferences: " + strings.Join(matched, ", ") + "."
}
