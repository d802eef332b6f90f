// Package analytics holds the aggregation rules behind the lab dashboard:
// range acceptability, percentage rates, zero-guarded means, week-over-week
// trends and maintenance-due classification. Every function here is pure and
// total over in-memory data; callers fetch records first and pass them in.
package analytics

import (
	"math"
	"time"
)

// DaysPerYear is the fixed year length used for age calculations. It is not
// calendar aware.
const DaysPerYear = 365.25

// WithinRange reports whether actual falls inside [min, max]. Both bounds are
// inclusive. A NaN actual value is never within range.
func WithinRange(actual, min, max float64) bool {
	if math.IsNaN(actual) {
		return false
	}
	return actual >= min && actual <= max
}

// WithinRangePtr is WithinRange for an optional measurement. A missing value
// is treated as out of range.
func WithinRangePtr(actual *float64, min, max float64) bool {
	if actual == nil {
		return false
	}
	return WithinRange(*actual, min, max)
}

// Rate returns matching/total as a whole percentage rounded to the nearest
// integer, or 0 when total is zero. Halves round up, as SQL ROUND does.
func Rate(matching, total int) int {
	if total <= 0 {
		return 0
	}
	// scale before dividing so exact halves like 57.5 survive
	return int(math.Round(float64(100*matching) / float64(total)))
}

// RateOf returns the percentage of items that satisfy pred.
func RateOf[T any](items []T, pred func(T) bool) int {
	return Rate(Count(items, pred), len(items))
}

// Count returns how many items satisfy pred.
func Count[T any](items []T, pred func(T) bool) int {
	n := 0
	for _, it := range items {
		if pred(it) {
			n++
		}
	}
	return n
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// MeanOf averages f over items, or returns 0 for an empty slice.
func MeanOf[T any](items []T, f func(T) float64) float64 {
	if len(items) == 0 {
		return 0
	}
	var sum float64
	for _, it := range items {
		sum += f(it)
	}
	return sum / float64(len(items))
}

// AgeYears returns the number of whole years between purchased and now using
// a 365.25 day year. Purchases in the future have age 0.
func AgeYears(purchased, now time.Time) int {
	if !now.After(purchased) {
		return 0
	}
	days := now.Sub(purchased).Hours() / 24
	return int(math.Floor(days / DaysPerYear))
}

// CountBy groups items by key and counts each group.
func CountBy[T any](items []T, key func(T) string) map[string]int {
	out := make(map[string]int)
	for _, it := range items {
		out[key(it)]++
	}
	return out
}

// Round1 rounds to one decimal place for display.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
