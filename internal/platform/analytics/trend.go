package analytics

import "time"

// Window is the length of one trend comparison period.
const Window = 7 * 24 * time.Hour

// Direction is the week-over-week movement of a rate.
type Direction string

const (
	DirectionUp     Direction = "up"
	DirectionDown   Direction = "down"
	DirectionStable Direction = "stable"
)

// TrendResult compares the pass rate of the most recent window with the one
// before it.
//
// An empty window has rate 0, so a week with no data followed by a week of
// passes reads as "up" and the reverse reads as "down". RecentEmpty and
// PreviousEmpty let callers tell that apart from a real change.
type TrendResult struct {
	RecentPassRate   int       `json:"recent_pass_rate"`
	PreviousPassRate int       `json:"previous_pass_rate"`
	RecentCount      int       `json:"recent_count"`
	PreviousCount    int       `json:"previous_count"`
	Direction        Direction `json:"direction"`
	RecentEmpty      bool      `json:"recent_empty"`
	PreviousEmpty    bool      `json:"previous_empty"`
}

// Trend partitions items into [now-7d, now) and [now-14d, now-7d) by the time
// returned from at, computes the pass rate of each and classifies the change.
// Items with a zero time or outside both windows are ignored.
func Trend[T any](items []T, now time.Time, at func(T) time.Time, passed func(T) bool) TrendResult {
	recentStart := now.Add(-Window)
	previousStart := now.Add(-2 * Window)

	var recentTotal, recentPassed, prevTotal, prevPassed int
	for _, it := range items {
		t := at(it)
		if t.IsZero() {
			continue
		}
		switch {
		case inWindow(t, recentStart, now):
			recentTotal++
			if passed(it) {
				recentPassed++
			}
		case inWindow(t, previousStart, recentStart):
			prevTotal++
			if passed(it) {
				prevPassed++
			}
		}
	}

	res := TrendResult{
		RecentPassRate:   Rate(recentPassed, recentTotal),
		PreviousPassRate: Rate(prevPassed, prevTotal),
		RecentCount:      recentTotal,
		PreviousCount:    prevTotal,
		RecentEmpty:      recentTotal == 0,
		PreviousEmpty:    prevTotal == 0,
	}
	res.Direction = Compare(res.RecentPassRate, res.PreviousPassRate)
	return res
}

// Compare classifies recent against previous.
func Compare(recent, previous int) Direction {
	switch {
	case recent > previous:
		return DirectionUp
	case recent < previous:
		return DirectionDown
	default:
		return DirectionStable
	}
}

// inWindow reports whether t lies in the half-open interval [start, end).
func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}
