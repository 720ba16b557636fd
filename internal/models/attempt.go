package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AttemptStatus string

const (
	AttemptInProgress    AttemptStatus = "InProgress"
	AttemptSubmitted     AttemptStatus = "Submitted"
	AttemptAutoSubmitted AttemptStatus = "AutoSubmitted"
	AttemptGraded        AttemptStatus = "Graded"
)

// IsTerminalSubmission reports whether the attempt has left the in-progress
// state and is eligible for grading.
func (s AttemptStatus) IsTerminalSubmission() bool {
	return s == AttemptSubmitted || s == AttemptAutoSubmitted || s == AttemptGraded
}

type QuizAttempt struct {
	ID            uint          `json:"id" gorm:"primaryKey"`
	QuizID        uint          `json:"quiz_id" gorm:"not null;index"`
	StudentID     string        `json:"student_id" gorm:"not null;size:255;index"`
	Status        AttemptStatus `json:"status" gorm:"default:InProgress;index"`
	AttemptNumber int           `json:"attempt_number" gorm:"not null;default:1"`

	// Randomization seed fixed at start so resume reproduces the same order
	Seed int64 `json:"-" gorm:"not null"`

	// Version of the quiz the attempt was started against
	QuizVersion int `json:"quiz_version" gorm:"not null;default:1"`

	StartedAt   time.Time  `json:"started_at" gorm:"not null"`
	EndTime     *time.Time `json:"end_time"`
	SubmittedAt *time.Time `json:"submitted_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Quiz    Quiz            `json:"quiz" gorm:"foreignKey:QuizID"`
	Student User            `json:"student" gorm:"foreignKey:StudentID"`
	Answers []AttemptAnswer `json:"answers" gorm:"foreignKey:AttemptID"`
}

type AttemptAnswer struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	AttemptID  uint `json:"attempt_id" gorm:"not null;uniqueIndex:idx_attempt_question"`
	QuestionID uint `json:"question_id" gorm:"not null;uniqueIndex:idx_attempt_question"`

	// Response payload, shape depends on the question type
	Response datatypes.JSON `json:"response" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}

// Response payload shapes stored in AttemptAnswer.Response.

type ChoiceResponse struct {
	SelectedOptions []uint `json:"selected_options"`
}

type YesNoResponse struct {
	Answer bool `json:"answer"`
}

// HasExpired reports whether the attempt passed its end time.
func (a *QuizAttempt) HasExpired(at time.Time) bool {
	return a.EndTime != nil && at.After(*a.EndTime)
}
