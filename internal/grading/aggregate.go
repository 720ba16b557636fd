package grading

import (
	"sort"
	"time"
)

// HistogramBins is the fixed number of percentage buckets in an aggregation.
const HistogramBins = 10

// AggregateInput is one graded attempt as the aggregator consumes it.
type AggregateInput struct {
	StudentID   string    `json:"student_id"`
	Batch       string    `json:"batch,omitempty"`
	Percentage  float64   `json:"percentage"`
	CompletedAt time.Time `json:"completed_at"`
}

// AggregateOptions filters and parameterizes an aggregation.
type AggregateOptions struct {
	// Percentage at or above which an attempt counts as passed
	PassThreshold float64 `json:"pass_threshold"`

	// Number of students expected to attempt, for the completion rate.
	// Zero means unknown and yields a zero completion rate.
	EnrolledCount int `json:"enrolled_count"`

	// Optional filters
	Batches []string   `json:"batches,omitempty"`
	From    *time.Time `json:"from,omitempty"`
	To      *time.Time `json:"to,omitempty"`
}

// RankEntry is one row of the aggregation ranking.
type RankEntry struct {
	Rank              int     `json:"rank"`
	StudentID         string  `json:"student_id"`
	AveragePercentage float64 `json:"average_percentage"`
	Attempts          int     `json:"attempts"`
}

// Aggregation is the summary over a set of graded attempts.
type Aggregation struct {
	TotalAttempts     int                `json:"total_attempts"`
	StudentCount      int                `json:"student_count"`
	CompletionRate    float64            `json:"completion_rate"`
	AveragePercentage float64            `json:"average_percentage"`
	PassCount         int                `json:"pass_count"`
	FailCount         int                `json:"fail_count"`
	Histogram         [HistogramBins]int `json:"histogram"`
	Ranking           []RankEntry        `json:"ranking"`
}

// Aggregate summarizes graded attempts. Empty input yields a zero aggregation;
// it never divides by zero. Buckets are [0,10), [10,20), ... with the upper
// bound inclusive on the last bin only, so 100% lands in the final bucket.
// Ranking orders students by average percentage descending with ties broken
// by student id ascending; equal averages share a rank.
func Aggregate(inputs []AggregateInput, opts AggregateOptions) *Aggregation {
	agg := &Aggregation{Ranking: []RankEntry{}}

	batchFilter := make(map[string]struct{}, len(opts.Batches))
	for _, b := range opts.Batches {
		batchFilter[b] = struct{}{}
	}

	type studentAcc struct {
		sum   float64
		count int
	}
	perStudent := make(map[string]*studentAcc)

	sum := 0.0
	for _, in := range inputs {
		if len(batchFilter) > 0 {
			if _, ok := batchFilter[in.Batch]; !ok {
				continue
			}
		}
		if opts.From != nil && in.CompletedAt.Before(*opts.From) {
			continue
		}
		if opts.To != nil && in.CompletedAt.After(*opts.To) {
			continue
		}

		agg.TotalAttempts++
		sum += in.Percentage

		if in.Percentage >= opts.PassThreshold {
			agg.PassCount++
		} else {
			agg.FailCount++
		}

		agg.Histogram[histogramBin(in.Percentage)]++

		acc, ok := perStudent[in.StudentID]
		if !ok {
			acc = &studentAcc{}
			perStudent[in.StudentID] = acc
		}
		acc.sum += in.Percentage
		acc.count++
	}

	if agg.TotalAttempts == 0 {
		return agg
	}

	agg.AveragePercentage = round2(sum / float64(agg.TotalAttempts))
	agg.StudentCount = len(perStudent)
	if opts.EnrolledCount > 0 {
		agg.CompletionRate = round2(float64(agg.StudentCount) / float64(opts.EnrolledCount) * 100)
	}

	for id, acc := range perStudent {
		agg.Ranking = append(agg.Ranking, RankEntry{
			StudentID:         id,
			AveragePercentage: round2(acc.sum / float64(acc.count)),
			Attempts:          acc.count,
		})
	}
	sort.Slice(agg.Ranking, func(i, j int) bool {
		if agg.Ranking[i].AveragePercentage != agg.Ranking[j].AveragePercentage {
			return agg.Ranking[i].AveragePercentage > agg.Ranking[j].AveragePercentage
		}
		return agg.Ranking[i].StudentID < agg.Ranking[j].StudentID
	})
	for i := range agg.Ranking {
		if i > 0 && agg.Ranking[i].AveragePercentage == agg.Ranking[i-1].AveragePercentage {
			agg.Ranking[i].Rank = agg.Ranking[i-1].Rank
		} else {
			agg.Ranking[i].Rank = i + 1
		}
	}

	return agg
}

func histogramBin(percentage float64) int {
	if percentage < 0 {
		return 0
	}
	bin := int(percentage / 10)
	if bin >= HistogramBins {
		return HistogramBins - 1
	}
	return bin
}
