package usecase

import (
	"fmt"
	"quizmatch/internal/domain/entity"
	"strings"

	"github.com/goccy/go-json"
)

const defaultSystemPrompt = "You are an expert product recommendation assistant. Analyze customer preferences from their quiz responses and match them with the most suitable products from the available catalog. Consider product attributes, tags, descriptions, and how they align with the customer's stated needs and preferences."

type answerDetail struct {
	QuestionID          string   `json:"questionId"`
	QuestionText        string   `json:"questionText"`
	SelectedOptionIDs   []string `json:"selectedOptionIds"`
	SelectedOptionTexts []string `json:"selectedOptionTexts"`
}

type catalogEntry struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	Tags        []string          `json:"tags"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// BuildPrompt renders the Gemini prompt for one quiz session.
// Option and question ids are replaced by their text where the questions are known.
func BuildPrompt(cfg entity.GeminiConfig, questions []entity.QuizQuestion, answers []entity.QuizAnswer, products []entity.Product) (string, error) {
	byID := make(map[string]entity.QuizQuestion, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	details := make([]answerDetail, 0, len(answers))
	var tags []string
	for _, a := range answers {
		q, known := byID[a.QuestionID]
		d := answerDetail{
			QuestionID:          a.QuestionID,
			QuestionText:        a.QuestionID,
			SelectedOptionIDs:   a.SelectedOptions,
			SelectedOptionTexts: make([]string, 0, len(a.SelectedOptions)),
		}
		if known && q.Text != "" {
			d.QuestionText = q.Text
		}
		for _, id := range a.SelectedOptions {
			text := id
			if opt, ok := q.Option(id); known && ok && opt.Text != "" {
				text = opt.Text
			}
			d.SelectedOptionTexts = append(d.SelectedOptionTexts, text)
		}
		details = append(details, d)
		tags = append(tags, a.SelectedOptions...)
	}

	catalog := make([]catalogEntry, 0, len(products))
	for _, p := range products {
		catalog = append(catalog, catalogEntry{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Tags:        p.Tags,
			Attributes:  p.Attributes,
		})
	}

	answersJSON, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode answers: %w", err)
	}
	catalogJSON, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode catalog: %w", err)
	}

	system := strings.TrimSpace(cfg.Prompt)
	if system == "" {
		system = defaultSystemPrompt
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n# Customer Quiz Responses (with question and answer text):\n")
	b.Write(answersJSON)
	b.WriteString("\n\n# Customer Preference Tags (option ids):\n")
	b.WriteString(strings.Join(tags, ", "))
	b.WriteString("\n\n# Available Products:\n")
	b.Write(catalogJSON)
	b.WriteString(`

# Your Task:
Analyze the customer's quiz responses and recommend 3-5 products from the catalog that best match their preferences.

Consider:
- Match product tags with the customer's selected preference tags
- Analyze product attributes and descriptions for alignment
- Prioritize products with the most relevant features for their needs
- Only use product ids that appear in the catalog above

# Response Format:
Respond ONLY with valid JSON (no markdown, no code blocks, no additional text):
{
  "productIds": ["product-id-1", "product-id-2", "product-id-3"],
  "reasoning": "Detailed explanation of why these products were selected based on their preferences.",
  "guidance": "Personalized advice for using or enjoying these products based on their preferences."
}
`)
	return b.String(), nil
}
