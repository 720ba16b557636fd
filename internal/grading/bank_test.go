package grading

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuestions() []Question {
	return []Question{
		{
			ID: 1, Text: "Which article goes with 'Haus'?", Type: SingleChoice, Marks: 2,
			Options: []Option{
				{ID: 11, Text: "der"},
				{ID: 12, Text: "die"},
				{ID: 13, Text: "das", Correct: true},
			},
		},
		{
			ID: 2, Text: "Select all plural forms", Type: MultipleChoice, Marks: 3,
			Options: []Option{
				{ID: 21, Text: "Kinder", Correct: true},
				{ID: 22, Text: "Kind"},
				{ID: 23, Text: "Bücher", Correct: true},
				{ID: 24, Text: "Buch"},
			},
		},
		{
			ID: 3, Text: "'Brot' is a neuter noun", Type: YesNo, Marks: 1, YesAnswer: true,
		},
	}
}

func TestBuildQuestionBank(t *testing.T) {
	bank, err := BuildQuestionBank(validQuestions())
	require.NoError(t, err)

	assert.Equal(t, 3, bank.Len())
	assert.Equal(t, "6", bank.MaxMarks().RatString())

	marks, ok := bank.EffectiveMarks(2)
	require.True(t, ok)
	assert.Equal(t, "3", marks.RatString())

	q, ok := bank.Question(1)
	require.True(t, ok)
	assert.Equal(t, SingleChoice, q.Type)

	_, ok = bank.Question(99)
	assert.False(t, ok)
}

func TestBuildQuestionBank_ValidationFailures(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(qs []Question) []Question
		questionID uint
		field      string
	}{
		{
			name:   "empty set",
			mutate: func(qs []Question) []Question { return nil },
			field:  "questions",
		},
		{
			name: "empty text",
			mutate: func(qs []Question) []Question {
				qs[0].Text = ""
				return qs
			},
			questionID: 1,
			field:      "text",
		},
		{
			name: "non-positive marks",
			mutate: func(qs []Question) []Question {
				qs[1].Marks = 0
				return qs
			},
			questionID: 2,
			field:      "marks",
		},
		{
			name: "unknown type",
			mutate: func(qs []Question) []Question {
				qs[0].Type = "essay"
				return qs
			},
			questionID: 1,
			field:      "type",
		},
		{
			name: "too few options",
			mutate: func(qs []Question) []Question {
				qs[0].Options = qs[0].Options[:1]
				return qs
			},
			questionID: 1,
			field:      "options",
		},
		{
			name: "empty option text",
			mutate: func(qs []Question) []Question {
				qs[1].Options[2].Text = ""
				return qs
			},
			questionID: 2,
			field:      "options",
		},
		{
			name: "duplicate option ids",
			mutate: func(qs []Question) []Question {
				qs[1].Options[3].ID = 21
				return qs
			},
			questionID: 2,
			field:      "options",
		},
		{
			name: "single choice with two correct",
			mutate: func(qs []Question) []Question {
				qs[0].Options[1].Correct = true
				return qs
			},
			questionID: 1,
			field:      "options",
		},
		{
			name: "single choice with no correct",
			mutate: func(qs []Question) []Question {
				qs[0].Options[2].Correct = false
				return qs
			},
			questionID: 1,
			field:      "options",
		},
		{
			name: "multiple choice with no correct",
			mutate: func(qs []Question) []Question {
				qs[1].Options[0].Correct = false
				qs[1].Options[2].Correct = false
				return qs
			},
			questionID: 2,
			field:      "options",
		},
		{
			name: "yes_no with options",
			mutate: func(qs []Question) []Question {
				qs[2].Options = []Option{{ID: 31, Text: "yes"}, {ID: 32, Text: "no"}}
				return qs
			},
			questionID: 3,
			field:      "options",
		},
		{
			name: "duplicate question ids",
			mutate: func(qs []Question) []Question {
				qs[1].ID = 1
				return qs
			},
			questionID: 1,
			field:      "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildQuestionBank(tt.mutate(validQuestions()))
			require.Error(t, err)

			var bankErr *BankValidationError
			require.True(t, errors.As(err, &bankErr))
			assert.Equal(t, tt.questionID, bankErr.QuestionID)
			assert.Equal(t, tt.field, bankErr.Field)
		})
	}
}

func TestWithTotalMarks_EvenSplit(t *testing.T) {
	questions := []Question{
		{ID: 1, Text: "q1", Type: YesNo, Marks: 1, YesAnswer: true},
		{ID: 2, Text: "q2", Type: YesNo, Marks: 2, YesAnswer: false},
		{ID: 3, Text: "q3", Type: YesNo, Marks: 3, YesAnswer: true},
		{ID: 4, Text: "q4", Type: YesNo, Marks: 5, YesAnswer: false},
	}
	bank, err := BuildQuestionBank(questions)
	require.NoError(t, err)

	eq, err := bank.WithTotalMarks(100)
	require.NoError(t, err)

	for _, q := range eq.Questions() {
		marks, ok := eq.EffectiveMarks(q.ID)
		require.True(t, ok)
		assert.Equal(t, "25", marks.RatString())
	}
	assert.Equal(t, "100", eq.MaxMarks().RatString())

	// The source bank keeps its original marks.
	orig, _ := bank.EffectiveMarks(4)
	assert.Equal(t, "5", orig.RatString())
}

func TestWithTotalMarks_ExactRational(t *testing.T) {
	questions := []Question{
		{ID: 1, Text: "q1", Type: YesNo, Marks: 1, YesAnswer: true},
		{ID: 2, Text: "q2", Type: YesNo, Marks: 1, YesAnswer: true},
		{ID: 3, Text: "q3", Type: YesNo, Marks: 1, YesAnswer: true},
	}
	bank, err := BuildQuestionBank(questions)
	require.NoError(t, err)

	eq, err := bank.WithTotalMarks(20)
	require.NoError(t, err)

	// 20/3 has no finite decimal form; the bank must carry it exactly so the
	// three questions still total exactly 20.
	marks, _ := eq.EffectiveMarks(1)
	assert.Equal(t, "20/3", marks.RatString())

	sum := new(big.Rat)
	for _, q := range eq.Questions() {
		m, _ := eq.EffectiveMarks(q.ID)
		sum.Add(sum, m)
	}
	assert.Equal(t, "20", sum.RatString())
}

func TestWithTotalMarks_Invalid(t *testing.T) {
	bank, err := BuildQuestionBank(validQuestions())
	require.NoError(t, err)

	_, err = bank.WithTotalMarks(0)
	require.Error(t, err)

	var bankErr *BankValidationError
	require.True(t, errors.As(err, &bankErr))
	assert.Equal(t, "total_marks", bankErr.Field)
}
