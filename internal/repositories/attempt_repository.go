package repositories

import (
	"context"
	"time"

	"github.com/lingodesk/quiz-service/internal/models"
)

// AttemptRepository interface for quiz attempt operations
type AttemptRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error)
	GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error)
	Update(ctx context.Context, attempt *models.QuizAttempt) error

	// Query operations
	List(ctx context.Context, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)
	GetByStudentAndQuiz(ctx context.Context, studentID string, quizID uint) ([]*models.QuizAttempt, error)
	GetByQuiz(ctx context.Context, quizID uint, filters AttemptFilters) ([]*models.QuizAttempt, int64, error)

	// Active attempt management
	GetActiveAttempt(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error)
	GetAttemptCount(ctx context.Context, studentID string, quizID uint) (int, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, status models.AttemptStatus) error

	// Timeout handling
	GetExpiredAttempts(ctx context.Context, cutoff time.Time) ([]*models.QuizAttempt, error)

	// Answer management
	UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error
	GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error)
}

// ResultRepository interface for scored attempt results. Upsert is keyed by
// attempt id, which enforces the single terminal result per attempt.
type ResultRepository interface {
	Upsert(ctx context.Context, result *models.AttemptResult) error
	GetByAttempt(ctx context.Context, attemptID uint) (*models.AttemptResult, error)
	GetByQuiz(ctx context.Context, quizID uint, filters ResultFilters) ([]*models.AttemptResult, error)
	GetByStudent(ctx context.Context, studentID string, filters ResultFilters) ([]*models.AttemptResult, error)
}
