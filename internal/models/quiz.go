package models

import (
	"time"

	"gorm.io/gorm"
)

type QuizStatus string

const (
	StatusDraft     QuizStatus = "Draft"
	StatusPublished QuizStatus = "Published"
	StatusArchived  QuizStatus = "Archived"
)

type Quiz struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Title       string     `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string    `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	Duration    int        `json:"duration" gorm:"not null" validate:"required,min=1,max=300"` // Minutes
	Status      QuizStatus `json:"status" gorm:"default:Draft;index" validate:"omitempty,quiz_status"`
	PassMark    float64    `json:"pass_mark" gorm:"not null" validate:"min=0,max=100"` // Percentage
	MaxAttempts int        `json:"max_attempts" gorm:"default:1" validate:"min=1,max=10"`

	// When set, effective per-question marks are equalized so the quiz totals this value
	TotalMarks *float64 `json:"total_marks" validate:"omitempty,gt=0"`

	// Schedule window
	OpensAt  *time.Time `json:"opens_at"`
	ClosesAt *time.Time `json:"closes_at"`

	// Metadata
	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Bumped on every publish, keys the cached question bank
	Version int `json:"version" gorm:"default:1"`

	// Relations
	Settings  QuizSettings `json:"settings" gorm:"foreignKey:QuizID"`
	Questions []Question   `json:"questions" gorm:"foreignKey:QuizID"`
	Creator   User         `json:"creator" gorm:"foreignKey:CreatedBy"`

	// Computed fields (not stored)
	QuestionsCount int `json:"questions_count" gorm:"-"`
	AttemptCount   int `json:"attempt_count" gorm:"-"`
}

type QuizSettings struct {
	QuizID uint `json:"quiz_id" gorm:"primaryKey"`

	// Presentation settings
	RandomizeQuestions bool `json:"randomize_questions" gorm:"default:false"`
	RandomizeOptions   bool `json:"randomize_options" gorm:"default:false"`

	// Result settings
	ShowResults        bool `json:"show_results" gorm:"default:true"`
	ShowCorrectAnswers bool `json:"show_correct_answers" gorm:"default:false"`

	// Time settings
	TimeLimitEnforced   bool `json:"time_limit_enforced" gorm:"default:true"`
	AutoSubmitOnTimeout bool `json:"auto_submit_on_timeout" gorm:"default:true"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

func (QuizSettings) TableName() string {
	return "quiz_settings"
}

// IsOpen reports whether the quiz accepts new attempts at the given time.
func (q *Quiz) IsOpen(at time.Time) bool {
	if q.Status != StatusPublished {
		return false
	}
	if q.OpensAt != nil && at.Before(*q.OpensAt) {
		return false
	}
	if q.ClosesAt != nil && at.After(*q.ClosesAt) {
		return false
	}
	return true
}
