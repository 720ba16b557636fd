package repositories

import (
	"context"

	"github.com/lingodesk/quiz-service/internal/models"
)

// UserRepository interface for user operations (the quiz service is not the
// owner of user data, so this is read-mostly)
type UserRepository interface {
	// Basic read operations
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)

	// Role-based queries
	GetByRole(ctx context.Context, role models.UserRole, limit, offset int) ([]*models.User, error)
	CountByRole(ctx context.Context, role models.UserRole) (int64, error)

	// Batch (student cohort) queries, used by reporting
	GetStudentsByBatch(ctx context.Context, batch string, limit, offset int) ([]*models.User, error)
	CountStudentsByBatch(ctx context.Context, batches []string) (int64, error)

	// Validation and checks
	ExistsByID(ctx context.Context, id string) (bool, error)
	HasRole(ctx context.Context, id string, role models.UserRole) (bool, error)
}
