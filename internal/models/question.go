package models

import (
	"time"
)

type QuestionType string

const (
	SingleChoice   QuestionType = "single_choice"
	MultipleChoice QuestionType = "multiple_choice"
	YesNo          QuestionType = "yes_no"
)

type Question struct {
	ID       uint         `json:"id" gorm:"primaryKey"`
	QuizID   uint         `json:"quiz_id" gorm:"not null;index"`
	Text     string       `json:"text" gorm:"not null;type:text" validate:"required,min=1"`
	Type     QuestionType `json:"type" gorm:"not null;size:20" validate:"required,question_type"`
	Marks    float64      `json:"marks" gorm:"not null" validate:"required,gt=0"`
	Position int          `json:"position" gorm:"not null;default:0"`

	// Correct value for yes_no questions; nil for choice types
	YesAnswer *bool `json:"yes_answer,omitempty"`

	Options []QuestionOption `json:"options" gorm:"foreignKey:QuestionID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type QuestionOption struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	Text       string `json:"text" gorm:"not null;size:500" validate:"required,min=1,max=500"`
	IsCorrect  bool   `json:"is_correct" gorm:"default:false"`
	Position   int    `json:"position" gorm:"not null;default:0"`
}

func (Question) TableName() string {
	return "questions"
}

func (QuestionOption) TableName() string {
	return "question_options"
}

// IsChoice reports whether the question presents selectable options.
func (q *Question) IsChoice() bool {
	return q.Type == SingleChoice || q.Type == MultipleChoice
}
