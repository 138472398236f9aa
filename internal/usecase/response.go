package usecase

import (
	"errors"
	"fmt"
	"quizmatch/internal/domain/entity"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

const recommendationSchemaJSON = `{
  "type": "object",
  "required": ["productIds", "reasoning", "guidance"],
  "properties": {
    "productIds": {"type": "array", "items": {"type": "string"}},
    "reasoning": {"type": "string"},
    "guidance": {"type": "string"},
    "reasons": {"type": "object", "additionalProperties": {"type": "string"}}
  }
}`

var recommendationSchema = mustSchema(recommendationSchemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid recommendation schema: %v", err))
	}
	return s
}

// ParseRecommendation turns raw model text into a validated recommendation.
// Any failure is returned as a *entity.FallbackError naming the failed step.
func ParseRecommendation(text string, products []entity.Product) (entity.Recommendation, error) {
	if strings.TrimSpace(text) == "" {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonEmptyResponse, errors.New("no text returned"))
	}

	span, ok := ExtractJSONObject(StripCodeFence(text))
	if !ok {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonNoJSONObject, errors.New("could not locate a JSON object"))
	}

	var doc any
	if err := json.Unmarshal([]byte(span), &doc); err != nil {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonInvalidJSON, err)
	}

	result, err := recommendationSchema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonInvalidShape, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonInvalidShape, fmt.Errorf("schema: %s", strings.Join(errs, "; ")))
	}

	var rec entity.Recommendation
	if err := json.Unmarshal([]byte(span), &rec); err != nil {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonInvalidShape, err)
	}

	return restrictToCatalog(rec, products)
}

// restrictToCatalog drops unknown and repeated product ids, keeping model order.
func restrictToCatalog(rec entity.Recommendation, products []entity.Product) (entity.Recommendation, error) {
	known := make(map[string]struct{}, len(products))
	for _, p := range products {
		known[p.ID] = struct{}{}
	}

	ids := make([]string, 0, len(rec.ProductIDs))
	seen := make(map[string]struct{}, len(rec.ProductIDs))
	for _, id := range rec.ProductIDs {
		if _, ok := known[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return entity.Recommendation{}, entity.NewFallbackError(entity.ReasonInvalidShape, errors.New("no recommended product exists in the catalog"))
	}

	var reasons map[string]string
	for id, reason := range rec.Reasons {
		if _, ok := seen[id]; !ok {
			continue
		}
		if reasons == nil {
			reasons = make(map[string]string)
		}
		reasons[id] = reason
	}

	rec.ProductIDs = ids
	rec.Reasons = reasons
	return rec, nil
}

// StripCodeFence removes a surrounding markdown code fence, with or without a language tag.
func StripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// drop the info string, e.g. "json"
		if !strings.ContainsAny(s[:nl], "{[") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ExtractJSONObject returns the first balanced {...} span of s.
// Braces inside string literals are ignored.
func ExtractJSONObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
