package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func presentationBank(t *testing.T) *QuestionBank {
	t.Helper()

	questions := make([]Question, 0, 10)
	for i := uint(1); i <= 10; i++ {
		questions = append(questions, Question{
			ID: i, Text: "q", Type: SingleChoice, Marks: 1,
			Options: []Option{
				{ID: i*100 + 1, Text: "a", Correct: true},
				{ID: i*100 + 2, Text: "b"},
				{ID: i*100 + 3, Text: "c"},
				{ID: i*100 + 4, Text: "d"},
			},
		})
	}
	bank, err := BuildQuestionBank(questions)
	require.NoError(t, err)
	return bank
}

func TestDerivePresentation_Deterministic(t *testing.T) {
	bank := presentationBank(t)
	settings := ShuffleSettings{Questions: true, Options: true}

	first := DerivePresentation(bank, settings, 42)
	second := DerivePresentation(bank, settings, 42)

	assert.Equal(t, first.QuestionOrder, second.QuestionOrder)
	assert.Equal(t, first.OptionOrder, second.OptionOrder)
}

func TestDerivePresentation_SeedChangesOrder(t *testing.T) {
	bank := presentationBank(t)
	settings := ShuffleSettings{Questions: true, Options: true}

	a := DerivePresentation(bank, settings, 1)
	b := DerivePresentation(bank, settings, 2)

	assert.NotEqual(t, a.QuestionOrder, b.QuestionOrder)
}

func TestDerivePresentation_IsPermutation(t *testing.T) {
	bank := presentationBank(t)

	p := DerivePresentation(bank, ShuffleSettings{Questions: true, Options: true}, 7)

	require.Len(t, p.QuestionOrder, bank.Len())
	seen := make(map[uint]bool)
	for _, id := range p.QuestionOrder {
		_, ok := bank.Question(id)
		assert.True(t, ok)
		assert.False(t, seen[id], "question %d appears twice", id)
		seen[id] = true
	}

	for qid, order := range p.OptionOrder {
		q, ok := bank.Question(qid)
		require.True(t, ok)
		assert.Len(t, order, len(q.Options))
	}
}

func TestDerivePresentation_NoShuffleKeepsCanonicalOrder(t *testing.T) {
	bank := presentationBank(t)

	p := DerivePresentation(bank, ShuffleSettings{}, 99)

	expected := make([]uint, 0, bank.Len())
	for _, q := range bank.Questions() {
		expected = append(expected, q.ID)
	}
	assert.Equal(t, expected, p.QuestionOrder)

	for _, q := range bank.Questions() {
		order := p.OptionOrder[q.ID]
		require.Len(t, order, len(q.Options))
		for i, opt := range q.Options {
			assert.Equal(t, opt.ID, order[i])
		}
	}
}

func TestDerivePresentation_DoesNotMutateBank(t *testing.T) {
	bank := presentationBank(t)
	before := make([]uint, 0, bank.Len())
	for _, q := range bank.Questions() {
		before = append(before, q.ID)
	}

	DerivePresentation(bank, ShuffleSettings{Questions: true, Options: true}, 5)

	after := make([]uint, 0, bank.Len())
	for _, q := range bank.Questions() {
		after = append(after, q.ID)
	}
	assert.Equal(t, before, after)
}

func TestDerivePresentation_NoOptionOrderForYesNo(t *testing.T) {
	bank, err := BuildQuestionBank([]Question{
		{ID: 1, Text: "q", Type: YesNo, Marks: 1, YesAnswer: true},
		{ID: 2, Text: "q", Type: SingleChoice, Marks: 1, Options: []Option{
			{ID: 21, Text: "a", Correct: true},
			{ID: 22, Text: "b"},
		}},
	})
	require.NoError(t, err)

	p := DerivePresentation(bank, ShuffleSettings{Options: true}, 3)

	_, hasYesNo := p.OptionOrder[1]
	assert.False(t, hasYesNo)
	assert.Contains(t, p.OptionOrder, uint(2))
}
