package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

// EventType represents different types of quiz lifecycle events
type EventType string

const (
	// Quiz events
	EventQuizPublished EventType = "quiz.published"
	EventQuizArchived  EventType = "quiz.archived"

	// Attempt events
	EventAttemptStarted   EventType = "attempt.started"
	EventAttemptSubmitted EventType = "attempt.submitted"
	EventAttemptGraded    EventType = "attempt.graded"
)

// Event is the base structure for all published events
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

const eventSource = "quiz-service"

// Quiz event payloads

type QuizPublishedEvent struct {
	QuizID      uint       `json:"quiz_id"`
	QuizTitle   string     `json:"quiz_title"`
	QuizVersion int        `json:"quiz_version"`
	Duration    int        `json:"duration"` // minutes
	OpensAt     *time.Time `json:"opens_at,omitempty"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	CreatorID   string     `json:"creator_id"`
}

type QuizArchivedEvent struct {
	QuizID     uint      `json:"quiz_id"`
	QuizTitle  string    `json:"quiz_title"`
	ArchivedAt time.Time `json:"archived_at"`
	CreatorID  string    `json:"creator_id"`
}

// Attempt event payloads

type AttemptStartedEvent struct {
	AttemptID uint       `json:"attempt_id"`
	QuizID    uint       `json:"quiz_id"`
	QuizTitle string     `json:"quiz_title"`
	StudentID string     `json:"student_id"`
	StartedAt time.Time  `json:"started_at"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}

type AttemptSubmittedEvent struct {
	AttemptID   uint      `json:"attempt_id"`
	QuizID      uint      `json:"quiz_id"`
	StudentID   string    `json:"student_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	AutoSubmit  bool      `json:"auto_submit"`
}

type AttemptGradedEvent struct {
	AttemptID  uint      `json:"attempt_id"`
	QuizID     uint      `json:"quiz_id"`
	StudentID  string    `json:"student_id"`
	GradedAt   time.Time `json:"graded_at"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"max_score"`
	Percentage float64   `json:"percentage"`
	Grade      string    `json:"grade"`
	Passed     bool      `json:"passed"`
}

// Event factory functions

func NewQuizPublishedEvent(quizID uint, title string, version, duration int, opensAt, closesAt *time.Time, creatorID string) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      EventQuizPublished,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: QuizPublishedEvent{
			QuizID:      quizID,
			QuizTitle:   title,
			QuizVersion: version,
			Duration:    duration,
			OpensAt:     opensAt,
			ClosesAt:    closesAt,
			CreatorID:   creatorID,
		},
	}
}

func NewQuizArchivedEvent(quizID uint, title string, creatorID string) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      EventQuizArchived,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: QuizArchivedEvent{
			QuizID:     quizID,
			QuizTitle:  title,
			ArchivedAt: time.Now(),
			CreatorID:  creatorID,
		},
	}
}

func NewAttemptStartedEvent(attemptID, quizID uint, title, studentID string, startedAt time.Time, endTime *time.Time) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptStarted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: AttemptStartedEvent{
			AttemptID: attemptID,
			QuizID:    quizID,
			QuizTitle: title,
			StudentID: studentID,
			StartedAt: startedAt,
			EndTime:   endTime,
		},
	}
}

func NewAttemptSubmittedEvent(attemptID, quizID uint, studentID string, submittedAt time.Time, autoSubmit bool) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptSubmitted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: AttemptSubmittedEvent{
			AttemptID:   attemptID,
			QuizID:      quizID,
			StudentID:   studentID,
			SubmittedAt: submittedAt,
			AutoSubmit:  autoSubmit,
		},
	}
}

func NewAttemptGradedEvent(attemptID, quizID uint, studentID string, score, maxScore, percentage float64, grade string, passed bool) *Event {
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      EventAttemptGraded,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		Data: AttemptGradedEvent{
			AttemptID:  attemptID,
			QuizID:     quizID,
			StudentID:  studentID,
			GradedAt:   time.Now(),
			Score:      score,
			MaxScore:   maxScore,
			Percentage: percentage,
			Grade:      grade,
			Passed:     passed,
		},
	}
}
