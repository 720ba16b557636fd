// Package grading is the scoring core of the quiz service. It is pure: banks
// are immutable once built, scoring has no side effects, and every function is
// safe for concurrent use.
package grading

import (
	"math/big"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	YesNo          QuestionType = "yes_no"
)

// Question is the canonical form of one quiz question as the scoring core
// sees it, detached from storage concerns.
type Question struct {
	ID    uint         `json:"id"`
	Text  string       `json:"text"`
	Type  QuestionType `json:"type"`
	Marks float64      `json:"marks"`

	// Correct value for yes_no questions
	YesAnswer bool `json:"yes_answer,omitempty"`

	Options []Option `json:"options,omitempty"`
}

type Option struct {
	ID      uint   `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// IsChoice reports whether the question presents selectable options.
func (q *Question) IsChoice() bool {
	return q.Type == SingleChoice || q.Type == MultipleChoice
}

// QuestionBank is a validated, frozen question set. Effective marks are kept
// as exact rationals so mark equalization never loses precision.
type QuestionBank struct {
	questions []Question
	index     map[uint]int
	effective map[uint]*big.Rat
	maxMarks  *big.Rat
}

// BuildQuestionBank validates the question set and freezes it into a bank.
// A question set that violates the content rules yields a *BankValidationError
// naming the first offending question.
func BuildQuestionBank(questions []Question) (*QuestionBank, error) {
	if len(questions) == 0 {
		return nil, newBankError(0, "questions", "must contain at least one question")
	}

	bank := &QuestionBank{
		questions: make([]Question, len(questions)),
		index:     make(map[uint]int, len(questions)),
		effective: make(map[uint]*big.Rat, len(questions)),
		maxMarks:  new(big.Rat),
	}
	copy(bank.questions, questions)

	for i := range bank.questions {
		q := &bank.questions[i]
		if err := validateQuestion(q); err != nil {
			return nil, err
		}
		if _, dup := bank.index[q.ID]; dup {
			return nil, newBankError(q.ID, "id", "is not unique within the question set")
		}
		bank.index[q.ID] = i

		marks := floatToRat(q.Marks)
		bank.effective[q.ID] = marks
		bank.maxMarks.Add(bank.maxMarks, marks)
	}

	return bank, nil
}

func validateQuestion(q *Question) error {
	if q.Text == "" {
		return newBankError(q.ID, "text", "must not be empty")
	}
	if q.Marks <= 0 {
		return newBankError(q.ID, "marks", "must be greater than zero")
	}

	switch q.Type {
	case YesNo:
		if len(q.Options) != 0 {
			return newBankError(q.ID, "options", "must be empty for yes_no questions")
		}
		return nil
	case SingleChoice, MultipleChoice:
		// fall through to option checks
	default:
		return newBankError(q.ID, "type", "is not a supported question type")
	}

	if len(q.Options) < 2 {
		return newBankError(q.ID, "options", "must contain at least two options")
	}

	seen := make(map[uint]struct{}, len(q.Options))
	correct := 0
	for _, opt := range q.Options {
		if opt.Text == "" {
			return newBankError(q.ID, "options", "must not contain empty option text")
		}
		if _, dup := seen[opt.ID]; dup {
			return newBankError(q.ID, "options", "must have unique option ids")
		}
		seen[opt.ID] = struct{}{}
		if opt.Correct {
			correct++
		}
	}

	switch q.Type {
	case SingleChoice:
		if correct != 1 {
			return newBankError(q.ID, "options", "must mark exactly one option correct")
		}
	case MultipleChoice:
		if correct == 0 {
			return newBankError(q.ID, "options", "must mark at least one option correct")
		}
	}

	return nil
}

// WithTotalMarks returns a copy of the bank whose effective per-question marks
// are equalized to total/question_count. The stored marks of the questions are
// untouched; only the marks the scoring engine awards change.
func (b *QuestionBank) WithTotalMarks(total float64) (*QuestionBank, error) {
	if total <= 0 {
		return nil, newBankError(0, "total_marks", "must be greater than zero")
	}

	each := new(big.Rat).Quo(floatToRat(total), new(big.Rat).SetInt64(int64(len(b.questions))))

	eq := &QuestionBank{
		questions: b.questions,
		index:     b.index,
		effective: make(map[uint]*big.Rat, len(b.questions)),
		maxMarks:  floatToRat(total),
	}
	for id := range b.effective {
		eq.effective[id] = each
	}
	return eq, nil
}

// Questions returns the questions in canonical order. Callers must not modify
// the returned slice.
func (b *QuestionBank) Questions() []Question {
	return b.questions
}

// Question looks up a question by id.
func (b *QuestionBank) Question(id uint) (*Question, bool) {
	i, ok := b.index[id]
	if !ok {
		return nil, false
	}
	return &b.questions[i], true
}

// EffectiveMarks returns the marks the question is worth after any
// equalization, as an exact rational.
func (b *QuestionBank) EffectiveMarks(id uint) (*big.Rat, bool) {
	r, ok := b.effective[id]
	return r, ok
}

// MaxMarks is the sum of effective marks across the bank.
func (b *QuestionBank) MaxMarks() *big.Rat {
	return b.maxMarks
}

// Len is the number of questions in the bank.
func (b *QuestionBank) Len() int {
	return len(b.questions)
}

func floatToRat(f float64) *big.Rat {
	// Marks are integral or half-point values, so SetFloat64 is exact here.
	r := new(big.Rat)
	r.SetFloat64(f)
	return r
}
