package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/lingodesk/quiz-service/internal/grading"
)

const bankTTL = 12 * time.Hour

// BankSnapshot is the cacheable form of a published question bank: the
// canonical questions plus the optional equalization target. The bank itself
// holds exact rationals and is rebuilt from the snapshot on read.
type BankSnapshot struct {
	QuizID     uint               `json:"quiz_id"`
	Version    int                `json:"version"`
	Questions  []grading.Question `json:"questions"`
	TotalMarks *float64           `json:"total_marks,omitempty"`
}

// Build reconstructs the frozen question bank from the snapshot.
func (s *BankSnapshot) Build() (*grading.QuestionBank, error) {
	bank, err := grading.BuildQuestionBank(s.Questions)
	if err != nil {
		return nil, err
	}
	if s.TotalMarks != nil {
		return bank.WithTotalMarks(*s.TotalMarks)
	}
	return bank, nil
}

// BankCache caches published question banks keyed by quiz id and version, so
// attempts started against an older publish keep scoring against the set they
// were presented with.
type BankCache struct {
	cache CacheService
}

func NewBankCache(cache CacheService) *BankCache {
	return &BankCache{cache: cache}
}

func (c *BankCache) Get(ctx context.Context, quizID uint, version int) (*BankSnapshot, error) {
	var snapshot BankSnapshot
	if err := c.cache.Get(ctx, bankKey(quizID, version), &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (c *BankCache) Set(ctx context.Context, snapshot *BankSnapshot) error {
	return c.cache.Set(ctx, bankKey(snapshot.QuizID, snapshot.Version), snapshot, bankTTL)
}

// Invalidate drops every cached version of the quiz's bank.
func (c *BankCache) Invalidate(ctx context.Context, quizID uint) error {
	return c.cache.DeletePattern(ctx, fmt.Sprintf("quiz:%d:bank:*", quizID))
}

func bankKey(quizID uint, version int) string {
	return fmt.Sprintf("quiz:%d:bank:v%d", quizID, version)
}
