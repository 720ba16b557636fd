package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/lingodesk/quiz-service/internal/cache"
	"github.com/lingodesk/quiz-service/internal/models"
	"github.com/lingodesk/quiz-service/internal/repositories"
	"github.com/stretchr/testify/mock"
)

// mockRepository bundles the per-entity mocks. WithTransaction runs the
// callback against the same bundle, which is enough for service tests.
type mockRepository struct {
	quiz     *mockQuizRepo
	question *mockQuestionRepo
	attempt  *mockAttemptRepo
	result   *mockResultRepo
	user     *mockUserRepo
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		quiz:     &mockQuizRepo{},
		question: &mockQuestionRepo{},
		attempt:  &mockAttemptRepo{},
		result:   &mockResultRepo{},
		user:     &mockUserRepo{},
	}
}

func (m *mockRepository) Quiz() repositories.QuizRepository         { return m.quiz }
func (m *mockRepository) Question() repositories.QuestionRepository { return m.question }
func (m *mockRepository) Attempt() repositories.AttemptRepository   { return m.attempt }
func (m *mockRepository) Result() repositories.ResultRepository     { return m.result }
func (m *mockRepository) User() repositories.UserRepository         { return m.user }

func (m *mockRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}

func (m *mockRepository) assertExpectations(t mock.TestingT) {
	m.quiz.AssertExpectations(t)
	m.question.AssertExpectations(t)
	m.attempt.AssertExpectations(t)
	m.result.AssertExpectations(t)
	m.user.AssertExpectations(t)
}

// ===== QUIZ =====

type mockQuizRepo struct{ mock.Mock }

func (m *mockQuizRepo) Create(ctx context.Context, quiz *models.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *mockQuizRepo) GetByID(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuizRepo) GetByIDWithDetails(ctx context.Context, id uint) (*models.Quiz, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Quiz), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuizRepo) Update(ctx context.Context, quiz *models.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *mockQuizRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQuizRepo) List(ctx context.Context, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, filters)
	var quizzes []*models.Quiz
	if q := args.Get(0); q != nil {
		quizzes = q.([]*models.Quiz)
	}
	return quizzes, args.Get(1).(int64), args.Error(2)
}

func (m *mockQuizRepo) GetByCreator(ctx context.Context, creatorID string, filters repositories.QuizFilters) ([]*models.Quiz, int64, error) {
	args := m.Called(ctx, creatorID, filters)
	var quizzes []*models.Quiz
	if q := args.Get(0); q != nil {
		quizzes = q.([]*models.Quiz)
	}
	return quizzes, args.Get(1).(int64), args.Error(2)
}

func (m *mockQuizRepo) GetByStatus(ctx context.Context, status models.QuizStatus, limit, offset int) ([]*models.Quiz, error) {
	args := m.Called(ctx, status, limit, offset)
	var quizzes []*models.Quiz
	if q := args.Get(0); q != nil {
		quizzes = q.([]*models.Quiz)
	}
	return quizzes, args.Error(1)
}

func (m *mockQuizRepo) UpdateStatus(ctx context.Context, id uint, status models.QuizStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockQuizRepo) IncrementVersion(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQuizRepo) IsOwner(ctx context.Context, quizID uint, userID string) (bool, error) {
	args := m.Called(ctx, quizID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuizRepo) ExistsByTitle(ctx context.Context, title string, creatorID string, excludeID *uint) (bool, error) {
	args := m.Called(ctx, title, creatorID, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuizRepo) HasAttempts(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockQuizRepo) GetSettings(ctx context.Context, quizID uint) (*models.QuizSettings, error) {
	args := m.Called(ctx, quizID)
	if s := args.Get(0); s != nil {
		return s.(*models.QuizSettings), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuizRepo) UpdateSettings(ctx context.Context, quizID uint, settings *models.QuizSettings) error {
	return m.Called(ctx, quizID, settings).Error(0)
}

func (m *mockQuizRepo) GetQuizStats(ctx context.Context, id uint) (*repositories.QuizStats, error) {
	args := m.Called(ctx, id)
	if s := args.Get(0); s != nil {
		return s.(*repositories.QuizStats), args.Error(1)
	}
	return nil, args.Error(1)
}

// ===== QUESTION =====

type mockQuestionRepo struct{ mock.Mock }

func (m *mockQuestionRepo) Create(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *mockQuestionRepo) CreateBatch(ctx context.Context, questions []*models.Question) error {
	return m.Called(ctx, questions).Error(0)
}

func (m *mockQuestionRepo) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	args := m.Called(ctx, id)
	if q := args.Get(0); q != nil {
		return q.(*models.Question), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockQuestionRepo) GetByQuiz(ctx context.Context, quizID uint) ([]*models.Question, error) {
	args := m.Called(ctx, quizID)
	var questions []*models.Question
	if q := args.Get(0); q != nil {
		questions = q.([]*models.Question)
	}
	return questions, args.Error(1)
}

func (m *mockQuestionRepo) Update(ctx context.Context, question *models.Question) error {
	return m.Called(ctx, question).Error(0)
}

func (m *mockQuestionRepo) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockQuestionRepo) DeleteByQuiz(ctx context.Context, quizID uint) error {
	return m.Called(ctx, quizID).Error(0)
}

func (m *mockQuestionRepo) CountByQuiz(ctx context.Context, quizID uint) (int64, error) {
	args := m.Called(ctx, quizID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockQuestionRepo) ReplaceOptions(ctx context.Context, questionID uint, options []models.QuestionOption) error {
	return m.Called(ctx, questionID, options).Error(0)
}

// ===== ATTEMPT =====

type mockAttemptRepo struct{ mock.Mock }

func (m *mockAttemptRepo) Create(ctx context.Context, attempt *models.QuizAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.QuizAttempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttemptRepo) GetByIDWithAnswers(ctx context.Context, id uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*models.QuizAttempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttemptRepo) Update(ctx context.Context, attempt *models.QuizAttempt) error {
	return m.Called(ctx, attempt).Error(0)
}

func (m *mockAttemptRepo) List(ctx context.Context, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, filters)
	var attempts []*models.QuizAttempt
	if a := args.Get(0); a != nil {
		attempts = a.([]*models.QuizAttempt)
	}
	return attempts, args.Get(1).(int64), args.Error(2)
}

func (m *mockAttemptRepo) GetByStudentAndQuiz(ctx context.Context, studentID string, quizID uint) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, studentID, quizID)
	var attempts []*models.QuizAttempt
	if a := args.Get(0); a != nil {
		attempts = a.([]*models.QuizAttempt)
	}
	return attempts, args.Error(1)
}

func (m *mockAttemptRepo) GetByQuiz(ctx context.Context, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, int64, error) {
	args := m.Called(ctx, quizID, filters)
	var attempts []*models.QuizAttempt
	if a := args.Get(0); a != nil {
		attempts = a.([]*models.QuizAttempt)
	}
	return attempts, args.Get(1).(int64), args.Error(2)
}

func (m *mockAttemptRepo) GetActiveAttempt(ctx context.Context, studentID string, quizID uint) (*models.QuizAttempt, error) {
	args := m.Called(ctx, studentID, quizID)
	if a := args.Get(0); a != nil {
		return a.(*models.QuizAttempt), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAttemptRepo) GetAttemptCount(ctx context.Context, studentID string, quizID uint) (int, error) {
	args := m.Called(ctx, studentID, quizID)
	return args.Int(0), args.Error(1)
}

func (m *mockAttemptRepo) UpdateStatus(ctx context.Context, id uint, status models.AttemptStatus) error {
	return m.Called(ctx, id, status).Error(0)
}

func (m *mockAttemptRepo) GetExpiredAttempts(ctx context.Context, cutoff time.Time) ([]*models.QuizAttempt, error) {
	args := m.Called(ctx, cutoff)
	var attempts []*models.QuizAttempt
	if a := args.Get(0); a != nil {
		attempts = a.([]*models.QuizAttempt)
	}
	return attempts, args.Error(1)
}

func (m *mockAttemptRepo) UpsertAnswer(ctx context.Context, answer *models.AttemptAnswer) error {
	return m.Called(ctx, answer).Error(0)
}

func (m *mockAttemptRepo) GetAnswers(ctx context.Context, attemptID uint) ([]*models.AttemptAnswer, error) {
	args := m.Called(ctx, attemptID)
	var answers []*models.AttemptAnswer
	if a := args.Get(0); a != nil {
		answers = a.([]*models.AttemptAnswer)
	}
	return answers, args.Error(1)
}

// ===== RESULT =====

type mockResultRepo struct{ mock.Mock }

func (m *mockResultRepo) Upsert(ctx context.Context, result *models.AttemptResult) error {
	return m.Called(ctx, result).Error(0)
}

func (m *mockResultRepo) GetByAttempt(ctx context.Context, attemptID uint) (*models.AttemptResult, error) {
	args := m.Called(ctx, attemptID)
	if r := args.Get(0); r != nil {
		return r.(*models.AttemptResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockResultRepo) GetByQuiz(ctx context.Context, quizID uint, filters repositories.ResultFilters) ([]*models.AttemptResult, error) {
	args := m.Called(ctx, quizID, filters)
	var results []*models.AttemptResult
	if r := args.Get(0); r != nil {
		results = r.([]*models.AttemptResult)
	}
	return results, args.Error(1)
}

func (m *mockResultRepo) GetByStudent(ctx context.Context, studentID string, filters repositories.ResultFilters) ([]*models.AttemptResult, error) {
	args := m.Called(ctx, studentID, filters)
	var results []*models.AttemptResult
	if r := args.Get(0); r != nil {
		return r.([]*models.AttemptResult), args.Error(1)
	}
	return results, args.Error(1)
}

// ===== USER =====

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	args := m.Called(ctx, ids)
	var users []*models.User
	if u := args.Get(0); u != nil {
		users = u.([]*models.User)
	}
	return users, args.Error(1)
}

func (m *mockUserRepo) GetByRole(ctx context.Context, role models.UserRole, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, role, limit, offset)
	var users []*models.User
	if u := args.Get(0); u != nil {
		users = u.([]*models.User)
	}
	return users, args.Error(1)
}

func (m *mockUserRepo) CountByRole(ctx context.Context, role models.UserRole) (int64, error) {
	args := m.Called(ctx, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) GetStudentsByBatch(ctx context.Context, batch string, limit, offset int) ([]*models.User, error) {
	args := m.Called(ctx, batch, limit, offset)
	var users []*models.User
	if u := args.Get(0); u != nil {
		users = u.([]*models.User)
	}
	return users, args.Error(1)
}

func (m *mockUserRepo) CountStudentsByBatch(ctx context.Context, batches []string) (int64, error) {
	args := m.Called(ctx, batches)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepo) ExistsByID(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) HasRole(ctx context.Context, id string, role models.UserRole) (bool, error) {
	args := m.Called(ctx, id, role)
	return args.Bool(0), args.Error(1)
}

// ===== IN-MEMORY CACHE =====

// memoryCache is a map-backed CacheService for tests.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = data
	return nil
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	data, ok := c.entries[key]
	c.mu.Unlock()
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}
