package grading

import (
	"fmt"
	"math"
	"sort"
)

// HistogramBuckets is the number of decile buckets in a Statistics histogram.
const HistogramBuckets = 10

// ScoreSet is an ordered list of percentage scores for one assignment.
type ScoreSet []float64

// Statistics is a read-only summary of a ScoreSet.
// Callers must check Count before displaying the other fields.
type Statistics struct {
	Count     int                   `json:"count"`
	Mean      float64               `json:"mean"`
	Median    float64               `json:"median"`
	Min       float64               `json:"min"`
	Max       float64               `json:"max"`
	StdDev    float64               `json:"std_dev"`
	Histogram [HistogramBuckets]int `json:"histogram"`
}

// ComputeStatistics summarises scores. An empty set yields a zero Statistics.
func ComputeStatistics(scores ScoreSet) Statistics {
	stats := Statistics{Count: len(scores)}
	if len(scores) == 0 {
		return stats
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	stats.Min = sorted[0]
	stats.Max = sorted[len(sorted)-1]
	stats.Mean, stats.StdDev = meanStdDev(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		stats.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		stats.Median = sorted[mid]
	}

	for _, s := range sorted {
		stats.Histogram[bucketFor(s)]++
	}
	return stats
}

// BucketLabel returns the human readable range of histogram bucket i, e.g. "50-59".
func BucketLabel(i int) string {
	if i < 0 || i >= HistogramBuckets {
		return ""
	}
	lo := i * 10
	hi := lo + 9
	if i == HistogramBuckets-1 {
		hi = 100
	}
	return fmt.Sprintf("%d-%d", lo, hi)
}

// meanStdDev returns the arithmetic mean and population standard deviation.
func meanStdDev(scores []float64) (float64, float64) {
	if len(scores) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))

	var sq float64
	for _, s := range scores {
		d := s - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(scores)))
}

func bucketFor(score float64) int {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	i := int(score / 10)
	if i >= HistogramBuckets {
		return HistogramBuckets - 1
	}
	return i
}
