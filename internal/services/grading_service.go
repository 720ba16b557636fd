package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/events"
	"github.com/lingodesk/quiz-service/internal/grading"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
)

type gradingService struct {
	repo      repositories.Repository
	logger    utils.Logger
	banks     *cache.BankCache
	publisher events.EventPublisher
}

func NewGradingService(
	repo repositories.Repository,
	logger utils.Logger,
	banks *cache.BankCache,
	publisher events.EventPublisher,
) GradingService {
	return &gradingService{
		repo:      repo,
		logger:    logger,
		banks:     banks,
		publisher: publisher,
	}
}

// GradeAttempt scores a submitted attempt and persists the result. Grading is
// idempotent: regrading an attempt replaces its previous result rather than
// adding a second one, and an already graded attempt is rescored against the
// same bank version it was started with.
func (s *gradingService) GradeAttempt(ctx context.Context, attemptID uint) (*models.AttemptResult, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if !attempt.Status.IsTerminalSubmission() {
		return nil, ErrAttemptNotSubmitted
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, attempt.QuizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	result, err := s.scoreAndPersist(ctx, quiz, attempt)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.NewAttemptGradedEvent(
		attempt.ID, attempt.QuizID, attempt.StudentID,
		result.Score, result.MaxScore, result.Percentage, string(result.Grade), result.Passed,
	))

	s.logger.InfoContext(ctx, "attempt graded",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"student_id", attempt.StudentID,
		"score", result.Score,
		"grade", result.Grade,
	)
	return result, nil
}

// RegradeQuiz rescores every terminal attempt of the quiz, e.g. after a
// scoring fix. Returns the number of attempts regraded.
func (s *gradingService) RegradeQuiz(ctx context.Context, quizID uint, requestedBy string) (int, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return 0, ErrQuizNotFound
		}
		return 0, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != requestedBy {
		return 0, NewPermissionError(requestedBy, quizID, "quiz", "regrade", "not the quiz owner")
	}

	attempts, _, err := s.repo.Attempt().GetByQuiz(ctx, quizID, repositories.AttemptFilters{})
	if err != nil {
		return 0, fmt.Errorf("list attempts: %w", err)
	}

	regraded := 0
	for _, attempt := range attempts {
		if !attempt.Status.IsTerminalSubmission() {
			continue
		}
		full, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attempt.ID)
		if err != nil {
			return regraded, fmt.Errorf("get attempt %d: %w", attempt.ID, err)
		}
		if _, err := s.scoreAndPersist(ctx, quiz, full); err != nil {
			return regraded, fmt.Errorf("regrade attempt %d: %w", attempt.ID, err)
		}
		regraded++
	}

	s.logger.InfoContext(ctx, "quiz regraded", "quiz_id", quizID, "attempts", regraded, "requested_by", requestedBy)
	return regraded, nil
}

// GetResult returns the result of an attempt. Students only see their own
// results, and only when the quiz settings expose them; teachers and admins
// see everything.
func (s *gradingService) GetResult(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*models.AttemptResult, error) {
	result, err := s.repo.Result().GetByAttempt(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	if role == models.RoleStudent {
		if result.StudentID != userID {
			return nil, NewPermissionError(userID, attemptID, "result", "read", "result belongs to another student")
		}
		settings, err := s.repo.Quiz().GetSettings(ctx, result.QuizID)
		if err != nil && !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("get quiz settings: %w", err)
		}
		if settings != nil && !settings.ShowResults {
			return nil, ErrResultsNotVisible
		}
	}

	return result, nil
}

// scoreAndPersist runs the scoring engine against the bank version the
// attempt was started with and upserts the outcome in one transaction with
// the status transition to Graded.
func (s *gradingService) scoreAndPersist(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) (*models.AttemptResult, error) {
	bank, err := resolveBank(ctx, s.repo, s.banks, quiz, attempt.QuizVersion)
	if err != nil {
		return nil, err
	}

	answers := make([]*models.AttemptAnswer, len(attempt.Answers))
	for i := range attempt.Answers {
		answers[i] = &attempt.Answers[i]
	}
	gradingAnswers, err := toGradingAnswers(bank, answers)
	if err != nil {
		return nil, err
	}

	scored, err := grading.Score(bank, grading.Attempt{
		AttemptID: attempt.ID,
		StudentID: attempt.StudentID,
		Answers:   gradingAnswers,
	})
	if err != nil {
		return nil, err
	}

	breakdown := make([]models.QuestionBreakdown, len(scored.Questions))
	for i, qs := range scored.Questions {
		breakdown[i] = models.QuestionBreakdown{
			QuestionID: qs.QuestionID,
			Answered:   qs.Answered,
			Awarded:    qs.Awarded,
			Available:  qs.Available,
			Outcome:    string(qs.Outcome),
		}
	}
	breakdownJSON, err := json.Marshal(breakdown)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}

	result := &models.AttemptResult{
		AttemptID:  attempt.ID,
		QuizID:     attempt.QuizID,
		StudentID:  attempt.StudentID,
		Score:      scored.Score,
		MaxScore:   scored.MaxScore,
		Percentage: scored.Percentage,
		Grade:      models.Grade(scored.Grade),
		Passed:     scored.Percentage >= quiz.PassMark,
		Breakdown:  breakdownJSON,
		GradedAt:   time.Now(),
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Result().Upsert(ctx, result); err != nil {
			return fmt.Errorf("persist result: %w", err)
		}
		if attempt.Status != models.AttemptGraded {
			if err := tx.Attempt().UpdateStatus(ctx, attempt.ID, models.AttemptGraded); err != nil {
				return fmt.Errorf("mark attempt graded: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	attempt.Status = models.AttemptGraded

	return result, nil
}

func (s *gradingService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event publish failed", "event_type", event.Type, "error", err)
	}
}
