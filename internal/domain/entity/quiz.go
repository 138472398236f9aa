package entity

type QuestionType string

const (
	SingleSelect QuestionType = "single-select"
	MultiSelect  QuestionType = "multi-select"
)

type QuizOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type QuizQuestion struct {
	ID      string       `json:"id" validate:"required"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type" validate:"omitempty,oneof=single-select multi-select"`
	Options []QuizOption `json:"options" validate:"required,min=1"`
}

// Option returns the option with the given id, if the question has one.
func (q QuizQuestion) Option(id string) (QuizOption, bool) {
	for _, o := range q.Options {
		if o.ID == id {
			return o, true
		}
	}
	return QuizOption{}, false
}

type QuizAnswer struct {
	QuestionID      string   `json:"questionId" validate:"required"`
	SelectedOptions []string `json:"selectedOptions" validate:"required,min=1"`
}

// MatchRule is the anyOf/allOf/not predicate attached to a product.
// A nil clause places no constraint.
type MatchRule struct {
	AnyOf []string `json:"anyOf,omitempty"`
	AllOf []string `json:"allOf,omitempty"`
	Not   []string `json:"not,omitempty"`
}

type Product struct {
	ID          string            `json:"id" validate:"required"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	Image       string            `json:"image"`
	ShopLink    string            `json:"shopLink"`
	Tags        []string          `json:"tags"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Conditions  *MatchRule        `json:"conditions,omitempty"`
}

type ScoredProduct struct {
	Product Product `json:"product"`
	Score   int     `json:"score"`
}

// TagSet is the set of option ids selected across a quiz session.
type TagSet map[string]struct{}

func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

// SelectedTags flattens the selected options of every answer.
func SelectedTags(answers []QuizAnswer) TagSet {
	s := make(TagSet)
	for _, a := range answers {
		for _, o := range a.SelectedOptions {
			s[o] = struct{}{}
		}
	}
	return s
}

func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}
