package validator

import (
	"fmt"

	"github.com/lingodesk/quiz-service/internal/errors"
	"github.com/lingodesk/quiz-service/internal/models"
)

// QuestionValidator handles question content validation at authoring time,
// before the publish-time bank validation runs.
type QuestionValidator struct{}

// NewQuestionValidator creates a new question validator
func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateContent checks a single question's content against the rules of its
// type. It returns all violations rather than stopping at the first.
func (v *QuestionValidator) ValidateContent(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if q.Text == "" {
		errs = append(errs, *errors.NewValidationError("text", "must not be empty", q.Text))
	}
	if q.Marks <= 0 {
		errs = append(errs, *errors.NewValidationError("marks", "must be greater than zero", q.Marks))
	}

	switch q.Type {
	case models.YesNo:
		if q.YesAnswer == nil {
			errs = append(errs, *errors.NewValidationError("yes_answer", "is required for yes_no questions", nil))
		}
		if len(q.Options) != 0 {
			errs = append(errs, *errors.NewValidationError("options", "must be empty for yes_no questions", len(q.Options)))
		}
	case models.SingleChoice, models.MultipleChoice:
		errs = append(errs, v.validateOptions(q)...)
	default:
		errs = append(errs, *errors.NewValidationError("type", "must be a valid question type (single_choice, multiple_choice, yes_no)", string(q.Type)))
	}

	return errs
}

// ValidateBatch checks a set of questions, prefixing each error field with
// the question position.
func (v *QuestionValidator) ValidateBatch(questions []models.Question) ValidationErrors {
	var errs ValidationErrors
	for i := range questions {
		for _, e := range v.ValidateContent(&questions[i]) {
			e.Field = fmt.Sprintf("questions[%d].%s", i, e.Field)
			errs = append(errs, e)
		}
	}
	return errs
}

func (v *QuestionValidator) validateOptions(q *models.Question) ValidationErrors {
	var errs ValidationErrors

	if len(q.Options) < 2 {
		errs = append(errs, *errors.NewValidationError("options", "must contain at least two options", len(q.Options)))
		return errs
	}

	correct := 0
	for _, opt := range q.Options {
		if opt.Text == "" {
			errs = append(errs, *errors.NewValidationError("options", "must not contain empty option text", opt.ID))
		}
		if opt.IsCorrect {
			correct++
		}
	}

	switch q.Type {
	case models.SingleChoice:
		if correct != 1 {
			errs = append(errs, *errors.NewValidationError("options", "must mark exactly one option correct", correct))
		}
	case models.MultipleChoice:
		if correct == 0 {
			errs = append(errs, *errors.NewValidationError("options", "must mark at least one option correct", correct))
		}
	}

	return errs
}
