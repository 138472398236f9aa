package usecase

import (
	"errors"
	"fmt"
	"quizmatch/internal/domain/entity"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest rejects malformed caller input before any scoring runs.
// Every returned error wraps entity.ErrInvalidRequest.
func ValidateRequest(req entity.RecommendRequest) error {
	if req.Answers == nil {
		return entity.InputError("answers must be an array")
	}
	if req.Products == nil {
		return entity.InputError("products must be an array")
	}
	if err := getValidator().Struct(req); err != nil {
		return translate(err)
	}

	ids := make(map[string]struct{}, len(req.Products))
	for _, p := range req.Products {
		if _, dup := ids[p.ID]; dup {
			return entity.InputError("duplicate product id %q", p.ID)
		}
		ids[p.ID] = struct{}{}
	}

	if len(req.Questions) == 0 {
		return nil
	}
	byID := make(map[string]entity.QuizQuestion, len(req.Questions))
	for _, q := range req.Questions {
		if _, dup := byID[q.ID]; dup {
			return entity.InputError("duplicate question id %q", q.ID)
		}
		byID[q.ID] = q
	}
	for _, a := range req.Answers {
		q, ok := byID[a.QuestionID]
		if !ok {
			return entity.InputError("answer references unknown question %q", a.QuestionID)
		}
		if err := ValidateAnswer(a, q); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAnswer checks an answer against the question it responds to.
func ValidateAnswer(a entity.QuizAnswer, q entity.QuizQuestion) error {
	if len(a.SelectedOptions) == 0 {
		return entity.InputError("question %q has no selected option", q.ID)
	}
	if q.Type == entity.SingleSelect && len(a.SelectedOptions) != 1 {
		return entity.InputError("question %q is single-select but %d options were selected", q.ID, len(a.SelectedOptions))
	}
	for _, id := range a.SelectedOptions {
		if _, ok := q.Option(id); !ok {
			return entity.InputError("option %q does not belong to question %q", id, q.ID)
		}
	}
	return nil
}

func translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return entity.InputError("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Namespace(), fe.Tag()))
	}
	return entity.InputError("%s", strings.Join(msgs, "; "))
}
