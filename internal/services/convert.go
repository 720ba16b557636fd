package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/grading"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
)

// ===== MODEL <-> GRADING CONVERSIONS =====

// toGradingQuestions converts stored questions into the scoring core's
// canonical form. Questions arrive ordered by position, which becomes the
// canonical order of the bank.
func toGradingQuestions(questions []*models.Question) []grading.Question {
	out := make([]grading.Question, 0, len(questions))
	for _, q := range questions {
		gq := grading.Question{
			ID:    q.ID,
			Text:  q.Text,
			Type:  grading.QuestionType(q.Type),
			Marks: q.Marks,
		}
		if q.YesAnswer != nil {
			gq.YesAnswer = *q.YesAnswer
		}
		for _, opt := range q.Options {
			gq.Options = append(gq.Options, grading.Option{
				ID:      opt.ID,
				Text:    opt.Text,
				Correct: opt.IsCorrect,
			})
		}
		out = append(out, gq)
	}
	return out
}

// toGradingAnswers decodes stored answer payloads into the scoring core's
// form. The payload shape follows the question type in the bank; answers for
// questions the bank does not know are passed through untouched so the engine
// can reject them as integrity violations.
func toGradingAnswers(bank *grading.QuestionBank, answers []*models.AttemptAnswer) ([]grading.Answer, error) {
	out := make([]grading.Answer, 0, len(answers))
	for _, a := range answers {
		ans := grading.Answer{QuestionID: a.QuestionID}

		q, ok := bank.Question(a.QuestionID)
		if ok && q.Type == grading.YesNo {
			var payload models.YesNoResponse
			if err := json.Unmarshal(a.Response, &payload); err != nil {
				return nil, fmt.Errorf("decode answer for question %d: %w", a.QuestionID, err)
			}
			ans.YesNo = &payload.Answer
		} else if ok {
			var payload models.ChoiceResponse
			if err := json.Unmarshal(a.Response, &payload); err != nil {
				return nil, fmt.Errorf("decode answer for question %d: %w", a.QuestionID, err)
			}
			ans.SelectedOptions = payload.SelectedOptions
		}

		out = append(out, ans)
	}
	return out, nil
}

// ===== BANK RESOLUTION =====

// snapshotForQuiz freezes the quiz's current question set into a cacheable
// snapshot keyed by the quiz version.
func snapshotForQuiz(quiz *models.Quiz, questions []*models.Question) *cache.BankSnapshot {
	return &cache.BankSnapshot{
		QuizID:     quiz.ID,
		Version:    quiz.Version,
		Questions:  toGradingQuestions(questions),
		TotalMarks: quiz.TotalMarks,
	}
}

// resolveBank returns the frozen question bank for the given quiz version,
// consulting the cache first and rebuilding from storage on a miss.
func resolveBank(ctx context.Context, repo repositories.Repository, banks *cache.BankCache, quiz *models.Quiz, version int) (*grading.QuestionBank, error) {
	if banks != nil {
		if snapshot, err := banks.Get(ctx, quiz.ID, version); err == nil {
			return snapshot.Build()
		}
	}

	questions, err := repo.Question().GetByQuiz(ctx, quiz.ID)
	if err != nil {
		return nil, fmt.Errorf("load questions for quiz %d: %w", quiz.ID, err)
	}

	snapshot := snapshotForQuiz(quiz, questions)
	snapshot.Version = version
	bank, err := snapshot.Build()
	if err != nil {
		return nil, err
	}

	if banks != nil {
		// Cache rewrite is best effort; scoring proceeds without it.
		_ = banks.Set(ctx, snapshot)
	}
	return bank, nil
}

// shuffleSettings maps quiz settings to the randomizer's switches.
func shuffleSettings(settings *models.QuizSettings) grading.ShuffleSettings {
	if settings == nil {
		return grading.ShuffleSettings{}
	}
	return grading.ShuffleSettings{
		Questions: settings.RandomizeQuestions,
		Options:   settings.RandomizeOptions,
	}
}
