package services

import (
	"context"
	"fmt"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/events"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/lingodesk/quiz-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	logger    utils.Logger
	validator *validator.Validator
	banks     *cache.BankCache
	publisher events.EventPublisher
}

func NewQuizService(
	repo repositories.Repository,
	logger utils.Logger,
	v *validator.Validator,
	banks *cache.BankCache,
	publisher events.EventPublisher,
) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: v,
		banks:     banks,
		publisher: publisher,
	}
}

// ===== CRUD =====

func (s *quizService) Create(ctx context.Context, req *CreateQuizRequest, creatorID string) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	questions := questionsFromRequests(req.Questions)
	if len(questions) > 0 {
		if errs := s.validator.Question().ValidateBatch(questions); len(errs) > 0 {
			return nil, errs
		}
	}

	exists, err := s.repo.Quiz().ExistsByTitle(ctx, req.Title, creatorID, nil)
	if err != nil {
		return nil, fmt.Errorf("check quiz title: %w", err)
	}
	if exists {
		return nil, ErrQuizDuplicateTitle
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}

	quiz := &models.Quiz{
		Title:       req.Title,
		Description: req.Description,
		Duration:    req.Duration,
		Status:      models.StatusDraft,
		PassMark:    req.PassMark,
		MaxAttempts: maxAttempts,
		TotalMarks:  req.TotalMarks,
		OpensAt:     req.OpensAt,
		ClosesAt:    req.ClosesAt,
		CreatedBy:   creatorID,
		Version:     1,
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Quiz().Create(ctx, quiz); err != nil {
			return fmt.Errorf("create quiz: %w", err)
		}

		settings := settingsFromRequest(quiz.ID, req.Settings)
		if err := tx.Quiz().UpdateSettings(ctx, quiz.ID, settings); err != nil {
			return fmt.Errorf("create quiz settings: %w", err)
		}
		quiz.Settings = *settings

		if len(questions) > 0 {
			batch := make([]*models.Question, len(questions))
			for i := range questions {
				questions[i].QuizID = quiz.ID
				questions[i].Position = i
				batch[i] = &questions[i]
			}
			if err := tx.Question().CreateBatch(ctx, batch); err != nil {
				return fmt.Errorf("create questions: %w", err)
			}
			quiz.Questions = questions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	quiz.QuestionsCount = len(quiz.Questions)
	s.logger.InfoContext(ctx, "quiz created", "quiz_id", quiz.ID, "creator_id", creatorID, "questions", quiz.QuestionsCount)
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, id uint, req *UpdateQuizRequest, userID string) (*models.Quiz, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	quiz, err := s.getOwnedQuiz(ctx, id, userID, "update")
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.StatusDraft {
		return nil, ErrQuizNotEditable
	}

	if req.Title != nil && *req.Title != quiz.Title {
		exists, err := s.repo.Quiz().ExistsByTitle(ctx, *req.Title, userID, &id)
		if err != nil {
			return nil, fmt.Errorf("check quiz title: %w", err)
		}
		if exists {
			return nil, ErrQuizDuplicateTitle
		}
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = req.Description
	}
	if req.Duration != nil {
		quiz.Duration = *req.Duration
	}
	if req.PassMark != nil {
		quiz.PassMark = *req.PassMark
	}
	if req.MaxAttempts != nil {
		quiz.MaxAttempts = *req.MaxAttempts
	}
	if req.TotalMarks != nil {
		quiz.TotalMarks = req.TotalMarks
	}
	if req.OpensAt != nil {
		quiz.OpensAt = req.OpensAt
	}
	if req.ClosesAt != nil {
		quiz.ClosesAt = req.ClosesAt
	}

	var questions []models.Question
	if req.Questions != nil {
		questions = questionsFromRequests(*req.Questions)
		if errs := s.validator.Question().ValidateBatch(questions); len(errs) > 0 {
			return nil, errs
		}
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Quiz().Update(ctx, quiz); err != nil {
			return fmt.Errorf("update quiz: %w", err)
		}

		if req.Settings != nil {
			settings := settingsFromRequest(quiz.ID, req.Settings)
			if err := tx.Quiz().UpdateSettings(ctx, quiz.ID, settings); err != nil {
				return fmt.Errorf("update quiz settings: %w", err)
			}
			quiz.Settings = *settings
		}

		if req.Questions != nil {
			if err := tx.Question().DeleteByQuiz(ctx, quiz.ID); err != nil {
				return fmt.Errorf("replace questions: %w", err)
			}
			if len(questions) > 0 {
				batch := make([]*models.Question, len(questions))
				for i := range questions {
					questions[i].QuizID = quiz.ID
					questions[i].Position = i
					batch[i] = &questions[i]
				}
				if err := tx.Question().CreateBatch(ctx, batch); err != nil {
					return fmt.Errorf("replace questions: %w", err)
				}
			}
			quiz.Questions = questions
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "quiz updated", "quiz_id", quiz.ID, "user_id", userID)
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, id uint, userID string) error {
	quiz, err := s.getOwnedQuiz(ctx, id, userID, "delete")
	if err != nil {
		return err
	}

	hasAttempts, err := s.repo.Quiz().HasAttempts(ctx, id)
	if err != nil {
		return fmt.Errorf("check quiz attempts: %w", err)
	}
	if hasAttempts {
		return ErrQuizNotDeletable
	}

	if err := s.repo.Quiz().Delete(ctx, id); err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}

	if err := s.banks.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "bank cache invalidation failed", "quiz_id", id, "error", err)
	}

	s.logger.InfoContext(ctx, "quiz deleted", "quiz_id", quiz.ID, "user_id", userID)
	return nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	return quiz, nil
}

func (s *quizService) GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByIDWithDetails(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	quiz.QuestionsCount = len(quiz.Questions)
	return quiz, nil
}

func (s *quizService) List(ctx context.Context, filters repositories.QuizFilters) (*ListQuizzesResponse, error) {
	quizzes, total, err := s.repo.Quiz().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return &ListQuizzesResponse{Items: quizzes, Total: total}, nil
}

// ===== LIFECYCLE =====

// Publish validates the question set as a frozen bank, bumps the quiz version
// and caches the bank snapshot under the new version. Only draft quizzes can
// be published.
func (s *quizService) Publish(ctx context.Context, id uint, userID string) (*models.Quiz, error) {
	quiz, err := s.getOwnedQuiz(ctx, id, userID, "publish")
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.StatusDraft {
		return nil, ErrQuizInvalidStatus
	}

	questions, err := s.repo.Question().GetByQuiz(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrQuizHasNoQuestions
	}

	// Publishing fails if the question set does not form a valid bank, so
	// every published quiz is guaranteed scorable.
	quiz.Version++
	snapshot := snapshotForQuiz(quiz, questions)
	if _, err := snapshot.Build(); err != nil {
		quiz.Version--
		return nil, err
	}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Quiz().IncrementVersion(ctx, id); err != nil {
			return fmt.Errorf("bump quiz version: %w", err)
		}
		if err := tx.Quiz().UpdateStatus(ctx, id, models.StatusPublished); err != nil {
			return fmt.Errorf("publish quiz: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	quiz.Status = models.StatusPublished

	if err := s.banks.Set(ctx, snapshot); err != nil {
		s.logger.WarnContext(ctx, "bank snapshot caching failed", "quiz_id", id, "version", quiz.Version, "error", err)
	}

	s.publishEvent(ctx, events.NewQuizPublishedEvent(
		quiz.ID, quiz.Title, quiz.Version, quiz.Duration, quiz.OpensAt, quiz.ClosesAt, quiz.CreatedBy,
	))

	s.logger.InfoContext(ctx, "quiz published", "quiz_id", quiz.ID, "version", quiz.Version, "user_id", userID)
	return quiz, nil
}

func (s *quizService) Archive(ctx context.Context, id uint, userID string) (*models.Quiz, error) {
	quiz, err := s.getOwnedQuiz(ctx, id, userID, "archive")
	if err != nil {
		return nil, err
	}
	if quiz.Status != models.StatusPublished {
		return nil, ErrQuizInvalidStatus
	}

	if err := s.repo.Quiz().UpdateStatus(ctx, id, models.StatusArchived); err != nil {
		return nil, fmt.Errorf("archive quiz: %w", err)
	}
	quiz.Status = models.StatusArchived

	s.publishEvent(ctx, events.NewQuizArchivedEvent(quiz.ID, quiz.Title, quiz.CreatedBy))

	s.logger.InfoContext(ctx, "quiz archived", "quiz_id", quiz.ID, "user_id", userID)
	return quiz, nil
}

// ===== HELPERS =====

func (s *quizService) getOwnedQuiz(ctx context.Context, id uint, userID, action string) (*models.Quiz, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.CreatedBy != userID {
		return nil, NewPermissionError(userID, id, "quiz", action, "not the quiz owner")
	}
	return quiz, nil
}

func (s *quizService) publishEvent(ctx context.Context, event *events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "event publish failed", "event_type", event.Type, "error", err)
	}
}

func questionsFromRequests(reqs []QuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(reqs))
	for i, qr := range reqs {
		q := models.Question{
			Text:      qr.Text,
			Type:      qr.Type,
			Marks:     qr.Marks,
			Position:  i,
			YesAnswer: qr.YesAnswer,
		}
		for j, or := range qr.Options {
			q.Options = append(q.Options, models.QuestionOption{
				Text:      or.Text,
				IsCorrect: or.IsCorrect,
				Position:  j,
			})
		}
		questions = append(questions, q)
	}
	return questions
}

func settingsFromRequest(quizID uint, req *QuizSettingsRequest) *models.QuizSettings {
	if req == nil {
		return &models.QuizSettings{
			QuizID:              quizID,
			ShowResults:         true,
			TimeLimitEnforced:   true,
			AutoSubmitOnTimeout: true,
		}
	}
	return &models.QuizSettings{
		QuizID:              quizID,
		RandomizeQuestions:  req.RandomizeQuestions,
		RandomizeOptions:    req.RandomizeOptions,
		ShowResults:         req.ShowResults,
		ShowCorrectAnswers:  req.ShowCorrectAnswers,
		TimeLimitEnforced:   req.TimeLimitEnforced,
		AutoSubmitOnTimeout: req.AutoSubmitOnTimeout,
	}
}
