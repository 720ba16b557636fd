package postgres

import (
	"context"

	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ResultPostgreSQL struct {
	db *gorm.DB
}

func NewResultPostgreSQL(db *gorm.DB) repositories.ResultRepository {
	return &ResultPostgreSQL{db: db}
}

// Upsert writes the scored result, replacing any previous one for the same
// attempt. The unique index on attempt_id keeps regrading idempotent.
func (r *ResultPostgreSQL) Upsert(ctx context.Context, result *models.AttemptResult) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "attempt_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"score", "max_score", "percentage", "grade", "passed", "breakdown", "graded_at", "updated_at",
			}),
		}).
		Create(result).Error
}

func (r *ResultPostgreSQL) GetByAttempt(ctx context.Context, attemptID uint) (*models.AttemptResult, error) {
	var result models.AttemptResult
	if err := r.db.WithContext(ctx).First(&result, "attempt_id = ?", attemptID).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *ResultPostgreSQL) GetByQuiz(ctx context.Context, quizID uint, filters repositories.ResultFilters) ([]*models.AttemptResult, error) {
	var results []*models.AttemptResult
	query := r.db.WithContext(ctx).Where("quiz_id = ?", quizID)
	query = r.applyFilters(query, filters)

	if err := query.Order("graded_at ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResultPostgreSQL) GetByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) ([]*models.AttemptResult, error) {
	var results []*models.AttemptResult
	query := r.db.WithContext(ctx).Where("student_id = ?", studentID)
	query = r.applyFilters(query, filters)

	if err := query.Order("graded_at DESC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResultPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ResultFilters) *gorm.DB {
	if len(filters.StudentIDs) > 0 {
		query = query.Where("student_id IN ?", filters.StudentIDs)
	}
	if filters.DateFrom != nil {
		query = query.Where("graded_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("graded_at <= ?", *filters.DateTo)
	}
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
