package grading

import (
	"math/rand"
)

// ShuffleSettings controls which parts of the presentation are randomized.
type ShuffleSettings struct {
	Questions bool `json:"questions"`
	Options   bool `json:"options"`
}

// Presentation is the per-attempt display order: question ids in the order
// they are shown, and for each choice question the order of its option ids.
type Presentation struct {
	QuestionOrder []uint          `json:"question_order"`
	OptionOrder   map[uint][]uint `json:"option_order"`
}

// DerivePresentation derives the display order for one attempt from the bank,
// the quiz settings and the attempt's seed. The same seed always yields the
// same order, so resuming an attempt reproduces what the student first saw.
// The bank itself is never mutated.
func DerivePresentation(bank *QuestionBank, settings ShuffleSettings, seed int64) Presentation {
	rng := rand.New(rand.NewSource(seed))
	questions := bank.Questions()

	p := Presentation{
		QuestionOrder: make([]uint, len(questions)),
		OptionOrder:   make(map[uint][]uint, len(questions)),
	}
	for i := range questions {
		p.QuestionOrder[i] = questions[i].ID
	}

	if settings.Questions {
		rng.Shuffle(len(p.QuestionOrder), func(i, j int) {
			p.QuestionOrder[i], p.QuestionOrder[j] = p.QuestionOrder[j], p.QuestionOrder[i]
		})
	}

	// Option order is derived in canonical question order so it depends only
	// on the seed, not on whether question shuffling is enabled.
	for i := range questions {
		q := &questions[i]
		if !q.IsChoice() {
			continue
		}
		order := make([]uint, len(q.Options))
		for j := range q.Options {
			order[j] = q.Options[j].ID
		}
		if settings.Options {
			rng.Shuffle(len(order), func(i, j int) {
				order[i], order[j] = order[j], order[i]
			})
		}
		p.OptionOrder[q.ID] = order
	}

	return p
}
