package services

import (
	"context"
	"time"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/events"
	"github.com/lingodesk/quiz-service/internal/grading"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/lingodesk/quiz-service/internal/validator"
	"github.com/xuri/excelize/v2"
)

// ===== SERVICE INTERFACES =====

type QuizService interface {
	Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error)
	Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*models.Quiz, error)
	Delete(ctx context.Context, id uint, userID string) error
	GetByID(ctx context.Context, id uint) (*models.Quiz, error)
	GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error)
	List(ctx context.Context, filters repositories.QuizFilters) (*ListQuizzesResponse, error)
	Publish(ctx context.Context, id uint, userID string) (*models.Quiz, error)
	Archive(ctx context.Context, id uint, userID string) (*models.Quiz, error)
}

type AttemptService interface {
	Start(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error)
	Resume(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error)
	SaveAnswer(ctx context.Context, attemptID uint, studentID string, req *SaveAnswerRequest) error
	Submit(ctx context.Context, attemptID uint, studentID string) (*models.AttemptResult, error)
	HandleTimeout(ctx context.Context, attemptID uint) error
	SweepExpired(ctx context.Context) (int, error)
	GetByID(ctx context.Context, attemptID uint, studentID string) (*models.QuizAttempt, error)
}

type GradingService interface {
	GradeAttempt(ctx context.Context, attemptID uint) (*models.AttemptResult, error)
	RegradeQuiz(ctx context.Context, quizID uint, requestedBy string) (int, error)
	GetResult(ctx context.Context, attemptID uint, userID string, role models.UserRole) (*models.AttemptResult, error)
}

type ReportService interface {
	QuizReport(ctx context.Context, quizID uint, opts ReportOptions, userID string) (*QuizReport, error)
	StudentResults(ctx context.Context, studentID string) ([]*models.AttemptResult, error)
}

type ExportService interface {
	ExportQuizResults(ctx context.Context, quizID uint, userID string) (*excelize.File, error)
}

// ===== REQUEST / RESPONSE STRUCTURES =====

type OptionRequest struct {
	Text      string `json:"text" validate:"required,min=1,max=500"`
	IsCorrect bool   `json:"is_correct"`
}

type QuestionRequest struct {
	Text      string              `json:"text" validate:"required,min=1"`
	Type      models.QuestionType `json:"type" validate:"required,question_type"`
	Marks     float64             `json:"marks" validate:"required,gt=0"`
	YesAnswer *bool               `json:"yes_answer,omitempty"`
	Options   []OptionRequest     `json:"options,omitempty" validate:"omitempty,dive"`
}

type QuizSettingsRequest struct {
	RandomizeQuestions  bool `json:"randomize_questions"`
	RandomizeOptions    bool `json:"randomize_options"`
	ShowResults         bool `json:"show_results"`
	ShowCorrectAnswers  bool `json:"show_correct_answers"`
	TimeLimitEnforced   bool `json:"time_limit_enforced"`
	AutoSubmitOnTimeout bool `json:"auto_submit_on_timeout"`
}

type CreateQuizRequest struct {
	Title       string               `json:"title" validate:"required,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=1000"`
	Duration    int                  `json:"duration" validate:"required,min=1,max=300"`
	PassMark    float64              `json:"pass_mark" validate:"min=0,max=100"`
	MaxAttempts int                  `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	TotalMarks  *float64             `json:"total_marks" validate:"omitempty,gt=0"`
	OpensAt     *time.Time           `json:"opens_at"`
	ClosesAt    *time.Time           `json:"closes_at"`
	Settings    *QuizSettingsRequest `json:"settings"`
	Questions   []QuestionRequest    `json:"questions" validate:"omitempty,dive"`
}

type UpdateQuizRequest struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description" validate:"omitempty,max=1000"`
	Duration    *int                 `json:"duration" validate:"omitempty,min=1,max=300"`
	PassMark    *float64             `json:"pass_mark" validate:"omitempty,min=0,max=100"`
	MaxAttempts *int                 `json:"max_attempts" validate:"omitempty,min=1,max=10"`
	TotalMarks  *float64             `json:"total_marks" validate:"omitempty,gt=0"`
	OpensAt     *time.Time           `json:"opens_at"`
	ClosesAt    *time.Time           `json:"closes_at"`
	Settings    *QuizSettingsRequest `json:"settings"`

	// Replaces the full question set; rejected once the quiz is published
	Questions *[]QuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type ListQuizzesResponse struct {
	Items []*models.Quiz `json:"items"`
	Total int64          `json:"total"`
}

type SaveAnswerRequest struct {
	QuestionID      uint   `json:"question_id" validate:"required"`
	SelectedOptions []uint `json:"selected_options,omitempty"`
	YesNo           *bool  `json:"yes_no,omitempty"`
}

// AttemptResponse pairs the attempt with the presentation order derived from
// its seed.
type AttemptResponse struct {
	Attempt      *models.QuizAttempt  `json:"attempt"`
	Presentation grading.Presentation `json:"presentation"`
}

type ReportOptions struct {
	// Defaults to the quiz pass mark when nil
	PassThreshold *float64   `json:"pass_threshold,omitempty"`
	Batches       []string   `json:"batches,omitempty"`
	From          *time.Time `json:"from,omitempty"`
	To            *time.Time `json:"to,omitempty"`
}

type QuizReport struct {
	QuizID    uint                 `json:"quiz_id"`
	QuizTitle string               `json:"quiz_title"`
	Summary   *grading.Aggregation `json:"summary"`
}

// ===== SERVICE MANAGER =====

// ServiceManager bundles the services for handler wiring.
type ServiceManager interface {
	Quiz() QuizService
	Attempt() AttemptService
	Grading() GradingService
	Report() ReportService
	Export() ExportService
}

type serviceManager struct {
	quiz    QuizService
	attempt AttemptService
	grading GradingService
	report  ReportService
	export  ExportService
}

func NewServiceManager(
	repo repositories.Repository,
	logger utils.Logger,
	v *validator.Validator,
	banks *cache.BankCache,
	publisher events.EventPublisher,
) ServiceManager {
	gradingSvc := NewGradingService(repo, logger, banks, publisher)
	return &serviceManager{
		quiz:    NewQuizService(repo, logger, v, banks, publisher),
		attempt: NewAttemptService(repo, logger, v, banks, gradingSvc, publisher),
		grading: gradingSvc,
		report:  NewReportService(repo, logger),
		export:  NewExportService(repo, logger),
	}
}

func (m *serviceManager) Quiz() QuizService       { return m.quiz }
func (m *serviceManager) Attempt() AttemptService { return m.attempt }
func (m *serviceManager) Grading() GradingService { return m.grading }
func (m *serviceManager) Report() ReportService   { return m.report }
func (m *serviceManager) Export() ExportService   { return m.export }
