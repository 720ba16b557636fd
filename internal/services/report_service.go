package services

import (
	"context"
	"fmt"

	"github.com/lingodesk/quiz-service/internal/grading"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
)

type reportService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewReportService(repo repositories.Repository, logger utils.Logger) ReportService {
	return &reportService{repo: repo, logger: logger}
}

// QuizReport aggregates the graded results of a quiz: histogram, pass/fail
// split, average and per-student ranking. Only the quiz owner can read it.
func (s *reportService) QuizReport(ctx context.Context, quizID uint, opts ReportOptions, userID string) (*QuizReport, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != userID {
		return nil, NewPermissionError(userID, quizID, "quiz", "report", "not the quiz owner")
	}

	results, err := s.repo.Result().GetByQuiz(ctx, quizID, repositories.ResultFilters{
		DateFrom: opts.From,
		DateTo:   opts.To,
	})
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	batches, err := s.studentBatches(ctx, results)
	if err != nil {
		return nil, err
	}

	inputs := make([]grading.AggregateInput, 0, len(results))
	for _, r := range results {
		inputs = append(inputs, grading.AggregateInput{
			StudentID:   r.StudentID,
			Batch:       batches[r.StudentID],
			Percentage:  r.Percentage,
			CompletedAt: r.GradedAt,
		})
	}

	enrolled, err := s.repo.User().CountStudentsByBatch(ctx, opts.Batches)
	if err != nil {
		return nil, fmt.Errorf("count enrolled students: %w", err)
	}

	threshold := quiz.PassMark
	if opts.PassThreshold != nil {
		threshold = *opts.PassThreshold
	}

	summary := grading.Aggregate(inputs, grading.AggregateOptions{
		PassThreshold: threshold,
		EnrolledCount: int(enrolled),
		Batches:       opts.Batches,
		From:          opts.From,
		To:            opts.To,
	})

	return &QuizReport{
		QuizID:    quiz.ID,
		QuizTitle: quiz.Title,
		Summary:   summary,
	}, nil
}

// StudentResults returns all graded results of a student, newest first.
func (s *reportService) StudentResults(ctx context.Context, studentID string) ([]*models.AttemptResult, error) {
	if _, err := s.repo.User().GetByID(ctx, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	results, err := s.repo.Result().GetByStudent(ctx, studentID, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	return results, nil
}

// studentBatches resolves the batch of every student appearing in the result
// set, for batch filtering in the aggregation.
func (s *reportService) studentBatches(ctx context.Context, results []*models.AttemptResult) (map[string]string, error) {
	ids := make([]string, 0, len(results))
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, ok := seen[r.StudentID]; ok {
			continue
		}
		seen[r.StudentID] = struct{}{}
		ids = append(ids, r.StudentID)
	}

	users, err := s.repo.User().GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}

	batches := make(map[string]string, len(users))
	for _, u := range users {
		if u.Batch != nil {
			batches[u.ID] = *u.Batch
		}
	}
	return batches, nil
}
