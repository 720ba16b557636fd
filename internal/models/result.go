package models

import (
	"time"

	"gorm.io/datatypes"
)

type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeBPlus Grade = "B+"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeF     Grade = "F"
)

// AttemptResult is the persisted outcome of scoring one attempt. The unique
// index on AttemptID guarantees at most one terminal result per attempt.
type AttemptResult struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	AttemptID uint   `json:"attempt_id" gorm:"not null;uniqueIndex"`
	QuizID    uint   `json:"quiz_id" gorm:"not null;index"`
	StudentID string `json:"student_id" gorm:"not null;size:255;index"`

	Score      float64 `json:"score" gorm:"not null"`
	MaxScore   float64 `json:"max_score" gorm:"not null"`
	Percentage float64 `json:"percentage" gorm:"not null"`
	Grade      Grade   `json:"grade" gorm:"not null;size:5"`
	Passed     bool    `json:"passed" gorm:"not null"`

	// Per-question breakdown, []QuestionBreakdown
	Breakdown datatypes.JSON `json:"breakdown" gorm:"type:jsonb"`

	GradedAt  time.Time `json:"graded_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Attempt QuizAttempt `json:"-" gorm:"foreignKey:AttemptID"`
}

// QuestionBreakdown is one entry of the per-question breakdown JSON.
type QuestionBreakdown struct {
	QuestionID uint    `json:"question_id"`
	Answered   bool    `json:"answered"`
	Awarded    float64 `json:"awarded"`
	Available  float64 `json:"available"`
	Outcome    string  `json:"outcome"`
}

func (AttemptResult) TableName() string {
	return "attempt_results"
}
