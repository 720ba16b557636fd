package grading

import (
	"math"
	"math/big"
)

// Answer is one student response in canonical form. SelectedOptions carries
// choice selections; YesNo carries the yes_no response.
type Answer struct {
	QuestionID      uint   `json:"question_id"`
	SelectedOptions []uint `json:"selected_options,omitempty"`
	YesNo           *bool  `json:"yes_no,omitempty"`
}

// Attempt is the scoring engine's view of one submitted attempt.
type Attempt struct {
	AttemptID uint     `json:"attempt_id"`
	StudentID string   `json:"student_id"`
	Answers   []Answer `json:"answers"`
}

type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomePartial   Outcome = "partial"
	OutcomeIncorrect Outcome = "incorrect"
)

// QuestionScore is the scored outcome of a single question.
type QuestionScore struct {
	QuestionID uint    `json:"question_id"`
	Answered   bool    `json:"answered"`
	Awarded    float64 `json:"awarded"`
	Available  float64 `json:"available"`
	Outcome    Outcome `json:"outcome"`
}

// ScoredResult is the complete scored outcome of one attempt.
type ScoredResult struct {
	AttemptID  uint            `json:"attempt_id"`
	StudentID  string          `json:"student_id"`
	Questions  []QuestionScore `json:"questions"`
	Score      float64         `json:"score"`
	MaxScore   float64         `json:"max_score"`
	Percentage float64         `json:"percentage"`
	Grade      string          `json:"grade"`
}

// Score grades an attempt against the bank. It is pure and idempotent:
// identical inputs always produce identical results.
//
// Unanswered questions score zero. An answer referencing a question or option
// the bank does not contain yields an *IntegrityError instead of a silent
// zero.
func Score(bank *QuestionBank, attempt Attempt) (*ScoredResult, error) {
	answers := make(map[uint]*Answer, len(attempt.Answers))
	for i := range attempt.Answers {
		ans := &attempt.Answers[i]
		if _, ok := bank.Question(ans.QuestionID); !ok {
			return nil, &IntegrityError{
				AttemptID:  attempt.AttemptID,
				QuestionID: ans.QuestionID,
				Message:    "answer references a question not in the quiz",
			}
		}
		answers[ans.QuestionID] = ans
	}

	result := &ScoredResult{
		AttemptID: attempt.AttemptID,
		StudentID: attempt.StudentID,
		Questions: make([]QuestionScore, 0, bank.Len()),
	}

	total := new(big.Rat)
	for _, q := range bank.Questions() {
		available, _ := bank.EffectiveMarks(q.ID)
		qs := QuestionScore{
			QuestionID: q.ID,
			Available:  ratFloat(available),
			Outcome:    OutcomeIncorrect,
		}

		ans, answered := answers[q.ID]
		if answered {
			awarded, outcome, err := scoreQuestion(&q, ans, available, attempt.AttemptID)
			if err != nil {
				return nil, err
			}
			qs.Answered = true
			qs.Awarded = ratFloat(awarded)
			qs.Outcome = outcome
			total.Add(total, awarded)
		}

		result.Questions = append(result.Questions, qs)
	}

	result.Score = round2(ratFloat(total))
	result.MaxScore = round2(ratFloat(bank.MaxMarks()))
	if result.MaxScore > 0 {
		pct := new(big.Rat).Quo(total, bank.MaxMarks())
		pct.Mul(pct, big.NewRat(100, 1))
		result.Percentage = round2(ratFloat(pct))
	}
	result.Grade = GradeFor(result.Percentage)

	return result, nil
}

func scoreQuestion(q *Question, ans *Answer, available *big.Rat, attemptID uint) (*big.Rat, Outcome, error) {
	switch q.Type {
	case YesNo:
		if ans.YesNo != nil && *ans.YesNo == q.YesAnswer {
			return available, OutcomeCorrect, nil
		}
		return new(big.Rat), OutcomeIncorrect, nil

	case SingleChoice:
		if err := checkSelection(q, ans, attemptID); err != nil {
			return nil, OutcomeIncorrect, err
		}
		if len(ans.SelectedOptions) > 1 {
			return nil, OutcomeIncorrect, &IntegrityError{
				AttemptID:  attemptID,
				QuestionID: q.ID,
				Message:    "multiple options selected for a single choice question",
			}
		}
		if len(ans.SelectedOptions) == 1 && isCorrectOption(q, ans.SelectedOptions[0]) {
			return available, OutcomeCorrect, nil
		}
		return new(big.Rat), OutcomeIncorrect, nil

	case MultipleChoice:
		if err := checkSelection(q, ans, attemptID); err != nil {
			return nil, OutcomeIncorrect, err
		}
		return scoreMultipleChoice(q, ans.SelectedOptions, available)
	}

	// Unreachable for a validated bank.
	return new(big.Rat), OutcomeIncorrect, nil
}

// scoreMultipleChoice applies partial credit:
//
//	awarded = max(0, marks * (correctSelected - incorrectSelected) / correctTotal)
//
// clamped to [0, marks] and computed in exact rational arithmetic. The exact
// correct set scores full marks; an empty selection scores zero.
func scoreMultipleChoice(q *Question, selected []uint, available *big.Rat) (*big.Rat, Outcome, error) {
	correctTotal := 0
	correctSet := make(map[uint]struct{})
	for _, opt := range q.Options {
		if opt.Correct {
			correctTotal++
			correctSet[opt.ID] = struct{}{}
		}
	}

	correctSelected := 0
	incorrectSelected := 0
	for _, id := range selected {
		if _, ok := correctSet[id]; ok {
			correctSelected++
		} else {
			incorrectSelected++
		}
	}

	net := correctSelected - incorrectSelected
	if net <= 0 {
		return new(big.Rat), OutcomeIncorrect, nil
	}

	awarded := new(big.Rat).Mul(available, big.NewRat(int64(net), int64(correctTotal)))
	if awarded.Cmp(available) >= 0 {
		return available, OutcomeCorrect, nil
	}
	return awarded, OutcomePartial, nil
}

func checkSelection(q *Question, ans *Answer, attemptID uint) error {
	known := make(map[uint]struct{}, len(q.Options))
	for _, opt := range q.Options {
		known[opt.ID] = struct{}{}
	}
	seen := make(map[uint]struct{}, len(ans.SelectedOptions))
	for _, id := range ans.SelectedOptions {
		if _, ok := known[id]; !ok {
			return &IntegrityError{
				AttemptID:  attemptID,
				QuestionID: q.ID,
				OptionID:   id,
				Message:    "selection references an option not in the question",
			}
		}
		if _, dup := seen[id]; dup {
			return &IntegrityError{
				AttemptID:  attemptID,
				QuestionID: q.ID,
				OptionID:   id,
				Message:    "option selected more than once",
			}
		}
		seen[id] = struct{}{}
	}
	return nil
}

func isCorrectOption(q *Question, optionID uint) bool {
	for _, opt := range q.Options {
		if opt.ID == optionID {
			return opt.Correct
		}
	}
	return false
}

// GradeFor maps a percentage to its display grade band.
func GradeFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A+"
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B+"
	case percentage >= 60:
		return "B"
	case percentage >= 50:
		return "C"
	default:
		return "F"
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func ratFloat(r *big.Rat) float64 {
	f, _ := r.Float64()
	return f
}
