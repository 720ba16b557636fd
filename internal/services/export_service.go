package services

import (
	"context"
	"fmt"

	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

type exportService struct {
	repo   repositories.Repository
	logger utils.Logger
}

func NewExportService(repo repositories.Repository, logger utils.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ExportQuizResults renders the graded results of a quiz as an Excel
// workbook, one row per result. Only the quiz owner can export.
func (s *exportService) ExportQuizResults(ctx context.Context, quizID uint, userID string) (*excelize.File, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != userID {
		return nil, NewPermissionError(userID, quizID, "quiz", "export_results", "not the quiz owner")
	}

	results, err := s.repo.Result().GetByQuiz(ctx, quizID, repositories.ResultFilters{})
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}

	students, err := s.studentNames(ctx, results)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "Results"

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{
		"Student ID", "Student Name", "Score", "Max Score", "Percentage", "Grade", "Result", "Graded At",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	for rowIndex, result := range results {
		verdict := "Fail"
		if result.Passed {
			verdict = "Pass"
		}
		row := []interface{}{
			result.StudentID,
			students[result.StudentID],
			result.Score,
			result.MaxScore,
			result.Percentage,
			string(result.Grade),
			verdict,
			result.GradedAt.Format("2006-01-02 15:04:05"),
		}
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	s.logger.InfoContext(ctx, "quiz results exported", "quiz_id", quizID, "rows", len(results), "user_id", userID)
	return f, nil
}

func (s *exportService) studentNames(ctx context.Context, results []*models.AttemptResult) (map[string]string, error) {
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

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names, nil
}
