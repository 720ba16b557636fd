package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/events"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/utils"
	"github.com/lingodesk/quiz-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newQuizFixture() (*mockRepository, *events.MockEventPublisher, *cache.BankCache, QuizService) {
	repo := newMockRepository()
	publisher := events.NewMockEventPublisher(slog.Default())
	banks := cache.NewBankCache(newMemoryCache())
	svc := NewQuizService(repo, utils.NewDevelopmentLogger(), validator.New(), banks, publisher)
	return repo, publisher, banks, svc
}

func validCreateRequest() *CreateQuizRequest {
	return &CreateQuizRequest{
		Title:    "Basic Grammar",
		Duration: 30,
		PassMark: 50,
		Questions: []QuestionRequest{
			{
				Text:  "Pick the correct article",
				Type:  models.SingleChoice,
				Marks: 2,
				Options: []OptionRequest{
					{Text: "der"},
					{Text: "die", IsCorrect: true},
				},
			},
			{
				Text:      "Is 'Haus' neuter?",
				Type:      models.YesNo,
				Marks:     1,
				YesAnswer: boolPtr(true),
			},
		},
	}
}

func TestCreateQuiz(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	repo.quiz.On("ExistsByTitle", ctx, "Basic Grammar", "teacher-1", (*uint)(nil)).Return(false, nil)
	repo.quiz.On("Create", ctx, mock.AnythingOfType("*models.Quiz")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Quiz).ID = 1
	}).Return(nil)
	repo.quiz.On("UpdateSettings", ctx, uint(1), mock.AnythingOfType("*models.QuizSettings")).Return(nil)
	repo.question.On("CreateBatch", ctx, mock.AnythingOfType("[]*models.Question")).Return(nil)

	quiz, err := svc.Create(ctx, validCreateRequest(), "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, uint(1), quiz.ID)
	assert.Equal(t, models.StatusDraft, quiz.Status)
	assert.Equal(t, 1, quiz.Version)
	assert.Equal(t, 1, quiz.MaxAttempts)
	assert.Equal(t, 2, quiz.QuestionsCount)
	assert.True(t, quiz.Settings.ShowResults)

	repo.assertExpectations(t)
}

func TestCreateQuiz_DuplicateTitle(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	repo.quiz.On("ExistsByTitle", ctx, "Basic Grammar", "teacher-1", (*uint)(nil)).Return(true, nil)

	_, err := svc.Create(ctx, validCreateRequest(), "teacher-1")
	assert.ErrorIs(t, err, ErrQuizDuplicateTitle)
	repo.quiz.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateQuiz_InvalidQuestionContent(t *testing.T) {
	_, _, _, svc := newQuizFixture()
	ctx := context.Background()

	req := validCreateRequest()
	// single_choice with no correct option
	req.Questions[0].Options[1].IsCorrect = false

	_, err := svc.Create(ctx, req, "teacher-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestCreateQuiz_MissingRequiredFields(t *testing.T) {
	_, _, _, svc := newQuizFixture()
	ctx := context.Background()

	_, err := svc.Create(ctx, &CreateQuizRequest{Title: "", Duration: 0}, "teacher-1")
	require.Error(t, err)
	assert.True(t, IsValidation(err))
}

func TestUpdateQuiz_OnlyDrafts(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	quiz := testQuiz() // published
	repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)

	title := "Renamed"
	_, err := svc.Update(ctx, 1, &UpdateQuizRequest{Title: &title}, "teacher-1")
	assert.ErrorIs(t, err, ErrQuizNotEditable)
}

func TestUpdateQuiz_RequiresOwnership(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)

	title := "Renamed"
	_, err := svc.Update(ctx, 1, &UpdateQuizRequest{Title: &title}, "intruder")

	var permErr *PermissionError
	require.ErrorAs(t, err, &permErr)
	assert.Equal(t, "intruder", permErr.UserID)
}

func TestDeleteQuiz_BlockedByAttempts(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	quiz := testQuiz()
	quiz.Status = models.StatusDraft
	repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
	repo.quiz.On("HasAttempts", ctx, uint(1)).Return(true, nil)

	err := svc.Delete(ctx, 1, "teacher-1")
	assert.ErrorIs(t, err, ErrQuizNotDeletable)
	repo.quiz.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestPublishQuiz(t *testing.T) {
	repo, publisher, banks, svc := newQuizFixture()
	ctx := context.Background()

	quiz := testQuiz()
	quiz.Status = models.StatusDraft
	quiz.Version = 1

	repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
	repo.question.On("GetByQuiz", ctx, uint(1)).Return(testQuestions(), nil)
	repo.quiz.On("IncrementVersion", ctx, uint(1)).Return(nil)
	repo.quiz.On("UpdateStatus", ctx, uint(1), models.StatusPublished).Return(nil)

	published, err := svc.Publish(ctx, 1, "teacher-1")
	require.NoError(t, err)

	assert.Equal(t, models.StatusPublished, published.Status)
	assert.Equal(t, 2, published.Version)

	// Bank snapshot cached under the new version
	snapshot, err := banks.Get(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, snapshot.Questions, 2)

	eventsOut := publisher.GetPublishedEvents()
	require.Len(t, eventsOut, 1)
	assert.Equal(t, events.EventQuizPublished, eventsOut[0].Type)

	repo.assertExpectations(t)
}

func TestPublishQuiz_EmptyQuestionSet(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	quiz := testQuiz()
	quiz.Status = models.StatusDraft

	repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
	repo.question.On("GetByQuiz", ctx, uint(1)).Return([]*models.Question{}, nil)

	_, err := svc.Publish(ctx, 1, "teacher-1")
	assert.ErrorIs(t, err, ErrQuizHasNoQuestions)
}

func TestPublishQuiz_InvalidBankRejected(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	quiz := testQuiz()
	quiz.Status = models.StatusDraft
	quiz.Version = 1

	// yes_no question carrying options is invalid at publish time
	questions := testQuestions()
	questions[1].Options = []models.QuestionOption{{ID: 31, Text: "yes"}, {ID: 32, Text: "no"}}

	repo.quiz.On("GetByID", ctx, uint(1)).Return(quiz, nil)
	repo.question.On("GetByQuiz", ctx, uint(1)).Return(questions, nil)

	_, err := svc.Publish(ctx, 1, "teacher-1")
	require.Error(t, err)
	assert.Equal(t, 1, quiz.Version)
	repo.quiz.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublishQuiz_AlreadyPublished(t *testing.T) {
	repo, _, _, svc := newQuizFixture()
	ctx := context.Background()

	repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)

	_, err := svc.Publish(ctx, 1, "teacher-1")
	assert.ErrorIs(t, err, ErrQuizInvalidStatus)
}

func TestArchiveQuiz(t *testing.T) {
	repo, publisher, _, svc := newQuizFixture()
	ctx := context.Background()

	repo.quiz.On("GetByID", ctx, uint(1)).Return(testQuiz(), nil)
	repo.quiz.On("UpdateStatus", ctx, uint(1), models.StatusArchived).Return(nil)

	archived, err := svc.Archive(ctx, 1, "teacher-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusArchived, archived.Status)

	eventsOut := publisher.GetPublishedEvents()
	require.Len(t, eventsOut, 1)
	assert.Equal(t, events.EventQuizArchived, eventsOut[0].Type)
}
