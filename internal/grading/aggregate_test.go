package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestAggregate_EmptyInput(t *testing.T) {
	agg := Aggregate(nil, AggregateOptions{PassThreshold: 50, EnrolledCount: 30})

	assert.Equal(t, 0, agg.TotalAttempts)
	assert.Equal(t, 0.0, agg.CompletionRate)
	assert.Equal(t, 0.0, agg.AveragePercentage)
	assert.Equal(t, 0, agg.PassCount)
	assert.Equal(t, 0, agg.FailCount)
	assert.Empty(t, agg.Ranking)
	for _, count := range agg.Histogram {
		assert.Equal(t, 0, count)
	}
}

func TestAggregate_PassFailAndAverage(t *testing.T) {
	inputs := []AggregateInput{
		{StudentID: "a", Percentage: 80},
		{StudentID: "b", Percentage: 50},
		{StudentID: "c", Percentage: 40},
		{StudentID: "d", Percentage: 30},
	}

	agg := Aggregate(inputs, AggregateOptions{PassThreshold: 50, EnrolledCount: 8})

	assert.Equal(t, 4, agg.TotalAttempts)
	assert.Equal(t, 2, agg.PassCount, "threshold itself counts as a pass")
	assert.Equal(t, 2, agg.FailCount)
	assert.Equal(t, 50.0, agg.AveragePercentage)
	assert.Equal(t, 4, agg.StudentCount)
	assert.Equal(t, 50.0, agg.CompletionRate)
}

func TestAggregate_HistogramBins(t *testing.T) {
	inputs := []AggregateInput{
		{StudentID: "a", Percentage: 0},
		{StudentID: "b", Percentage: 9.99},
		{StudentID: "c", Percentage: 10},
		{StudentID: "d", Percentage: 89.99},
		{StudentID: "e", Percentage: 90},
		{StudentID: "f", Percentage: 100},
	}

	agg := Aggregate(inputs, AggregateOptions{})

	assert.Equal(t, 2, agg.Histogram[0])
	assert.Equal(t, 1, agg.Histogram[1])
	assert.Equal(t, 1, agg.Histogram[8])
	// 100 is inclusive on the last bin only.
	assert.Equal(t, 2, agg.Histogram[9])
}

func TestAggregate_RankingTieBreak(t *testing.T) {
	inputs := []AggregateInput{
		{StudentID: "carol", Percentage: 95},
		{StudentID: "bob", Percentage: 70},
		{StudentID: "bob", Percentage: 90},
		{StudentID: "alice", Percentage: 80},
	}

	agg := Aggregate(inputs, AggregateOptions{})

	require.Len(t, agg.Ranking, 3)

	// carol 95, then alice and bob tied at 80 broken by id ascending.
	assert.Equal(t, "carol", agg.Ranking[0].StudentID)
	assert.Equal(t, 1, agg.Ranking[0].Rank)

	assert.Equal(t, "alice", agg.Ranking[1].StudentID)
	assert.Equal(t, 80.0, agg.Ranking[1].AveragePercentage)
	assert.Equal(t, 2, agg.Ranking[1].Rank)

	assert.Equal(t, "bob", agg.Ranking[2].StudentID)
	assert.Equal(t, 80.0, agg.Ranking[2].AveragePercentage)
	assert.Equal(t, 2, agg.Ranking[2].Rank, "equal averages share a rank")
	assert.Equal(t, 2, agg.Ranking[2].Attempts)
}

func TestAggregate_BatchFilter(t *testing.T) {
	inputs := []AggregateInput{
		{StudentID: "a", Batch: "2026-spring", Percentage: 90},
		{StudentID: "b", Batch: "2026-spring", Percentage: 70},
		{StudentID: "c", Batch: "2025-fall", Percentage: 10},
	}

	agg := Aggregate(inputs, AggregateOptions{Batches: []string{"2026-spring"}})

	assert.Equal(t, 2, agg.TotalAttempts)
	assert.Equal(t, 80.0, agg.AveragePercentage)
	require.Len(t, agg.Ranking, 2)
}

func TestAggregate_DateRangeFilter(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inputs := []AggregateInput{
		{StudentID: "a", Percentage: 100, CompletedAt: base.AddDate(0, 0, -10)},
		{StudentID: "b", Percentage: 60, CompletedAt: base},
		{StudentID: "c", Percentage: 40, CompletedAt: base.AddDate(0, 0, 10)},
	}

	agg := Aggregate(inputs, AggregateOptions{
		From: timePtr(base.AddDate(0, 0, -1)),
		To:   timePtr(base.AddDate(0, 0, 1)),
	})

	assert.Equal(t, 1, agg.TotalAttempts)
	assert.Equal(t, 60.0, agg.AveragePercentage)
}

func TestAggregate_CompletionRateWithoutEnrollment(t *testing.T) {
	inputs := []AggregateInput{{StudentID: "a", Percentage: 50}}

	agg := Aggregate(inputs, AggregateOptions{})

	assert.Equal(t, 0.0, agg.CompletionRate, "unknown enrollment never divides by zero")
}
