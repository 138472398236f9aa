package usecase

import (
	"quizmatch/internal/domain/entity"
	"sort"
)

const (
	DefaultRuleLimit = 3

	anyOfWeight = 2
	allOfWeight = 3
	notPenalty  = 5
)

// RuleSource maps a catalog product to the rule that gates it.
type RuleSource func(p entity.Product) entity.MatchRule

// ProductConditions reads the rule from the product's own conditions block.
func ProductConditions(p entity.Product) entity.MatchRule {
	if p.Conditions == nil {
		return entity.MatchRule{}
	}
	return *p.Conditions
}

// Evaluate reports whether the selection satisfies every clause of the rule.
// Empty clauses are treated as absent.
func Evaluate(rule entity.MatchRule, selected entity.TagSet) bool {
	if len(rule.AnyOf) > 0 && countMatches(rule.AnyOf, selected) == 0 {
		return false
	}
	if len(rule.AllOf) > 0 && countMatches(rule.AllOf, selected) != len(uniq(rule.AllOf)) {
		return false
	}
	if len(rule.Not) > 0 && countMatches(rule.Not, selected) > 0 {
		return false
	}
	return true
}

// Score weights matched anyOf and allOf tags and penalises selected not tags.
// It does not check eligibility; call Evaluate first.
func Score(rule entity.MatchRule, selected entity.TagSet) int {
	return countMatches(rule.AnyOf, selected)*anyOfWeight +
		countMatches(rule.AllOf, selected)*allOfWeight -
		countMatches(rule.Not, selected)*notPenalty
}

// Rank filters the catalog through Evaluate and returns at most limit products,
// highest score first. Equal scores keep catalog order.
func Rank(products []entity.Product, rules RuleSource, selected entity.TagSet, limit int) []entity.ScoredProduct {
	ranked := make([]entity.ScoredProduct, 0, len(products))
	if limit <= 0 {
		return ranked
	}
	if rules == nil {
		rules = ProductConditions
	}

	for _, p := range products {
		rule := rules(p)
		if !Evaluate(rule, selected) {
			continue
		}
		ranked = append(ranked, entity.ScoredProduct{Product: p, Score: Score(rule, selected)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// countMatches counts distinct tags of the clause present in the selection.
func countMatches(tags []string, selected entity.TagSet) int {
	n := 0
	for _, t := range uniq(tags) {
		if selected.Has(t) {
			n++
		}
	}
	return n
}

func uniq(tags []string) []string {
	if len(tags) < 2 {
		return tags
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// MatchAnswers runs the direct-rule engine for a validated quiz session.
func MatchAnswers(questions []entity.QuizQuestion, answers []entity.QuizAnswer, products []entity.Product, limit int) ([]entity.ScoredProduct, error) {
	err := ValidateRequest(entity.RecommendRequest{Answers: answers, Products: products, Questions: questions})
	if err != nil {
		return nil, err
	}
	return Rank(products, ProductConditions, entity.SelectedTags(answers), limit), nil
}
