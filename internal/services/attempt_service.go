package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/events"
	"github.com/lingodesk/quiz-service/internal/grading"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/lingodesk/quiz-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
	banks     *cache.BankCache
	grading   GradingService
	publisher events.EventPublisher

	// Injectable clock for tests
	now func() time.Time
}

func NewAttemptService(
	repo repositories.Repository,
	logger utils.Logger,
	v *validator.Validator,
	banks *cache.BankCache,
	gradingSvc GradingService,
	publisher events.EventPublisher,
) AttemptService {
	return &attemptService{
		repo:      repo,
		logger:    logger,
		validator: v,
		banks:     banks,
		grading:   gradingSvc,
		publisher: publisher,
		now:       time.Now,
	}
}

// ===== LIFECYCLE =====

// Start opens a new attempt against the quiz's current published version. If
// the student already has an attempt in progress, that attempt is returned
// instead of opening a second one.
func (s *attemptService) Start(ctx context.Context, quizID uint, studentID string) (*AttemptResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}

	now := s.now()
	if quiz.Status != models.StatusPublished {
		return nil, ErrQuizNotPublished
	}
	if !quiz.IsOpen(now) {
		return nil, ErrQuizNotOpen
	}

	if _, err := s.repo.User().GetByID(ctx, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get student: %w", err)
	}

	if active, err := s.repo.Attempt().GetActiveAttempt(ctx, studentID, quizID); err != nil {
		return nil, fmt.Errorf("check active attempt: %w", err)
	} else if active != nil {
		return s.respond(ctx, quiz, active)
	}

	count, err := s.repo.Attempt().GetAttemptCount(ctx, studentID, quizID)
	if err != nil {
		return nil, fmt.Errorf("count attempts: %w", err)
	}
	limit := quiz.MaxAttempts
	if limit <= 0 {
		// Zero means the limit was never set; same default Create applies.
		limit = 1
	}
	if count >= limit {
		return nil, ErrAttemptLimitExceeded
	}

	settings, err := s.quizSettings(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt := &models.QuizAttempt{
		QuizID:        quizID,
		StudentID:     studentID,
		Status:        models.AttemptInProgress,
		AttemptNumber: count + 1,
		Seed:          now.UnixNano(),
		QuizVersion:   quiz.Version,
		StartedAt:     now,
	}
	if settings.TimeLimitEnforced {
		end := now.Add(time.Duration(quiz.Duration) * time.Minute)
		if quiz.ClosesAt != nil && quiz.ClosesAt.Before(end) {
			end = *quiz.ClosesAt
		}
		attempt.EndTime = &end
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("create attempt: %w", err)
	}

	s.publishEvent(ctx, events.NewAttemptStartedEvent(
		attempt.ID, quiz.ID, quiz.Title, studentID, attempt.StartedAt, attempt.EndTime,
	))

	s.logger.InfoContext(ctx, "attempt started",
		"attempt_id", attempt.ID,
		"quiz_id", quizID,
		"student_id", studentID,
		"attempt_number", attempt.AttemptNumber,
	)
	return s.respond(ctx, quiz, attempt)
}

// Resume returns an in-progress attempt with its presentation order
// re-derived from the stored seed, so the student sees exactly what they saw
// at start.
func (s *attemptService) Resume(ctx context.Context, attemptID uint, studentID string) (*AttemptResponse, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status != models.AttemptInProgress {
		return nil, ErrAttemptNotActive
	}
	if attempt.HasExpired(s.now()) {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return nil, ErrAttemptTimeExpired
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, attempt.QuizID)
	if err != nil {
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return s.respond(ctx, quiz, attempt)
}

// SaveAnswer records one answer, replacing any previous answer to the same
// question. The payload shape must match the question type.
func (s *attemptService) SaveAnswer(ctx context.Context, attemptID uint, studentID string, req *SaveAnswerRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}

	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return err
	}
	if attempt.Status != models.AttemptInProgress {
		return ErrAttemptNotActive
	}
	if attempt.HasExpired(s.now()) {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return err
		}
		return ErrAttemptTimeExpired
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, attempt.QuizID)
	if err != nil {
		return fmt.Errorf("get quiz: %w", err)
	}
	bank, err := resolveBank(ctx, s.repo, s.banks, quiz, attempt.QuizVersion)
	if err != nil {
		return err
	}

	question, ok := bank.Question(req.QuestionID)
	if !ok {
		return ErrQuestionNotFound
	}

	payload, err := encodeResponse(question, req)
	if err != nil {
		return err
	}

	answer := &models.AttemptAnswer{
		AttemptID:  attemptID,
		QuestionID: req.QuestionID,
		Response:   payload,
	}
	if err := s.repo.Attempt().UpsertAnswer(ctx, answer); err != nil {
		return fmt.Errorf("save answer: %w", err)
	}
	return nil
}

// Submit closes the attempt and grades it immediately.
func (s *attemptService) Submit(ctx context.Context, attemptID uint, studentID string) (*models.AttemptResult, error) {
	attempt, err := s.getOwnedAttempt(ctx, attemptID, studentID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminalSubmission() {
		return nil, ErrAttemptAlreadySubmitted
	}

	now := s.now()
	if attempt.HasExpired(now) {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			return nil, err
		}
		return nil, ErrAttemptTimeExpired
	}

	attempt.Status = models.AttemptSubmitted
	attempt.SubmittedAt = &now
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return nil, fmt.Errorf("submit attempt: %w", err)
	}

	s.publishEvent(ctx, events.NewAttemptSubmittedEvent(
		attempt.ID, attempt.QuizID, attempt.StudentID, now, false,
	))

	s.logger.InfoContext(ctx, "attempt submitted",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"student_id", attempt.StudentID,
	)
	return s.grading.GradeAttempt(ctx, attemptID)
}

// ===== TIMEOUT HANDLING =====

// HandleTimeout auto-submits an expired in-progress attempt and grades
// whatever answers were saved.
func (s *attemptService) HandleTimeout(ctx context.Context, attemptID uint) error {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("get attempt: %w", err)
	}
	if attempt.Status != models.AttemptInProgress {
		return nil
	}
	if !attempt.HasExpired(s.now()) {
		return ErrAttemptNotActive
	}
	return s.finalizeExpired(ctx, attempt)
}

// SweepExpired auto-submits every attempt past its end time. Returns the
// number of attempts closed.
func (s *attemptService) SweepExpired(ctx context.Context) (int, error) {
	expired, err := s.repo.Attempt().GetExpiredAttempts(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("list expired attempts: %w", err)
	}

	closed := 0
	for _, attempt := range expired {
		if err := s.finalizeExpired(ctx, attempt); err != nil {
			s.logger.ErrorContext(ctx, "expired attempt finalization failed", "attempt_id", attempt.ID, "error", err)
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *attemptService) GetByID(ctx context.Context, attemptID uint, studentID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByIDWithAnswers(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "read", "attempt belongs to another student")
	}
	return attempt, nil
}

// ===== HELPERS =====

// finalizeExpired flips the attempt to AutoSubmitted as of its end time and
// grades the saved answers.
func (s *attemptService) finalizeExpired(ctx context.Context, attempt *models.QuizAttempt) error {
	attempt.Status = models.AttemptAutoSubmitted
	submittedAt := s.now()
	if attempt.EndTime != nil {
		submittedAt = *attempt.EndTime
	}
	attempt.SubmittedAt = &submittedAt
	if err := s.repo.Attempt().Update(ctx, attempt); err != nil {
		return fmt.Errorf("auto-submit attempt: %w", err)
	}

	s.publishEvent(ctx, events.NewAttemptSubmittedEvent(
		attempt.ID, attempt.QuizID, attempt.StudentID, submittedAt, true,
	))

	s.logger.InfoContext(ctx, "attempt auto-submitted",
		"attempt_id", attempt.ID,
		"quiz_id", attempt.QuizID,
		"student_id", attempt.StudentID,
	)

	if _, err := s.grading.GradeAttempt(ctx, attempt.ID); err != nil {
		return fmt.Errorf("grade auto-submitted attempt: %w", err)
	}
	return nil
}

func (s *attemptService) getOwnedAttempt(ctx context.Context, attemptID uint, studentID string) (*models.QuizAttempt, error) {
	attempt, err := s.repo.Attempt().GetByID(ctx, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	if attempt.StudentID != studentID {
		return nil, NewPermissionError(studentID, attemptID, "attempt", "write", "attempt belongs to another student")
	}
	return attempt, nil
}

// respond derives the presentation order from the attempt's stored seed.
func (s *attemptService) respond(ctx context.Context, quiz *models.Quiz, attempt *models.QuizAttempt) (*AttemptResponse, error) {
	bank, err := resolveBank(ctx, s.repo, s.banks, quiz, attempt.QuizVersion)
	if err != nil {
		return nil, err
	}
	settings, err := s.quizSettings(ctx, quiz.ID)
	if err != nil {
		return nil, err
	}

	return &AttemptResponse{
		Attempt:      attempt,
		Presentation: grading.DerivePresentation(bank, shuffleSettings(settings), attempt.Seed),
	}, nil
}

func (s *attemptService) quizSettings(ctx context.Context, quizID uint) (*models.QuizSettings, error) {
	settings, err := s.repo.Quiz().GetSettings(ctx, quizID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			// Defaults apply when settings were never written
			return &models.QuizSettings{
				QuizID:              quizID,
				ShowResults:         true,
				TimeLimitEnforced:   true,
				AutoSubmitOnTimeout: true,
			}, nil
		}
		return nil, fmt.Errorf("get quiz settings: %w", err)
	}
	return settings, nil
}

func (s *attemptService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event publish failed", "event_type", event.Type, "error", err)
	}
}

// encodeResponse validates the answer payload against the question type and
// encodes it for storage.
func encodeResponse(question *grading.Question, req *SaveAnswerRequest) ([]byte, error) {
	switch question.Type {
	case grading.YesNo:
		if req.YesNo == nil {
			return nil, NewValidationError("yes_no", "is required for yes_no questions", nil)
		}
		return json.Marshal(models.YesNoResponse{Answer: *req.YesNo})
	default:
		known := make(map[uint]struct{}, len(question.Options))
		for _, opt := range question.Options {
			known[opt.ID] = struct{}{}
		}
		for _, id := range req.SelectedOptions {
			if _, ok := known[id]; !ok {
				return nil, NewValidationError("selected_options", "references an option not in the question", id)
			}
		}
		if question.Type == grading.SingleChoice && len(req.SelectedOptions) > 1 {
			return nil, NewValidationError("selected_options", "must contain at most one option for single_choice questions", len(req.SelectedOptions))
		}
		return json.Marshal(models.ChoiceResponse{SelectedOptions: req.SelectedOptions})
	}
}
