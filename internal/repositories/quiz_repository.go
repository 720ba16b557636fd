package repositories

import (
	"context"

	"github.com/lingodesk/quiz-service/internal/models"
)

// QuizRepository interface for quiz-specific operations
type QuizRepository interface {
	// Basic CRUD operations
	Create(ctx context.Context, quiz *models.Quiz) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) // Include questions, options, settings
	Update(ctx context.Context, quiz *models.Quiz) error
	Delete(ctx context.Context, id uint) error // Soft delete

	// Query operations
	List(ctx context.Context, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByCreator(ctx context.Context, creatorID string, filters QuizFilters) ([]*models.Quiz, int64, error)
	GetByStatus(ctx context.Context, status models.QuizStatus, limit, offset int) ([]*models.Quiz, error)

	// Status management
	UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error
	IncrementVersion(ctx context.Context, id uint) error

	// Permission checks
	IsOwner(ctx context.Context, quizID uint, userID string) (bool, error)

	// Validation helpers
	ExistsByTitle(ctx context.Context, title string, creatorID string, excludeID *uint) (bool, error)
	HasAttempts(ctx context.Context, id uint) (bool, error)

	// Settings management
	GetSettings(ctx context.Context, quizID uint) (*models.QuizSettings, error)
	UpdateSettings(ctx context.Context, quizID uint, settings *models.QuizSettings) error

	// Statistics
	GetQuizStats(ctx context.Context, id uint) (*QuizStats, error)
}

// QuestionRepository interface for quiz question operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) // Ordered by position, options preloaded
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	DeleteByQuiz(ctx context.Context, quizID uint) error
	CountByQuiz(ctx context.Context, quizID uint) (int64, error)

	// Option management
	ReplaceOptions(ctx context.Context, questionID uint, options []models.QuestionOption) error
}
