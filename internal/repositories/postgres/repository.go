package postgres

import (
	"context"

	"github.com/lingodesk/quiz-service/internal/repositories"
	"gorm.io/gorm"
)

type gormRepository struct {
	db *gorm.DB

	quiz     repositories.QuizRepository
	question repositories.QuestionRepository
	attempt  repositories.AttemptRepository
	result   repositories.ResultRepository
	user     repositories.UserRepository
}

// NewRepository creates the PostgreSQL-backed repository bundle.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:       db,
		quiz:     NewQuizPostgreSQL(db),
		question: NewQuestionPostgreSQL(db),
		attempt:  NewAttemptPostgreSQL(db),
		result:   NewResultPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
	}
}

func (r *gormRepository) Quiz() repositories.QuizRepository         { return r.quiz }
func (r *gormRepository) Question() repositories.QuestionRepository { return r.question }
func (r *gormRepository) Attempt() repositories.AttemptRepository   { return r.attempt }
func (r *gormRepository) Result() repositories.ResultRepository     { return r.result }
func (r *gormRepository) User() repositories.UserRepository         { return r.user }

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
