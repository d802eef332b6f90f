package qualitycontrol

import (
	"time"

	"github.com/google/uuid"

	"github.com/labdash/labdash/internal/platform/analytics"
)

const (
	StatusPassed  = "passed"
	StatusFailed  = "failed"
	StatusPending = "pending"
	StatusWarning = "warning"
)

var validStatuses = map[string]bool{
	StatusPassed: true, StatusFailed: true, StatusPending: true, StatusWarning: true,
}

// QCTest maps to the qc_test table. Status is entered by the operator and is
// never derived from the measured value.
type QCTest struct {
	ID                 uuid.UUID  `db:"id" json:"id"`
	TestName           string     `db:"test_name" json:"test_name"`
	Analyte            *string    `db:"analyte" json:"analyte,omitempty"`
	EquipmentID        *uuid.UUID `db:"equipment_id" json:"equipment_id,omitempty"`
	LotNumber          *string    `db:"lot_number" json:"lot_number,omitempty"`
	Level              *string    `db:"level" json:"level,omitempty"`
	TargetValue        float64    `db:"target_value" json:"target_value"`
	AcceptableRangeMin float64    `db:"acceptable_range_min" json:"acceptable_range_min"`
	AcceptableRangeMax float64    `db:"acceptable_range_max" json:"acceptable_range_max"`
	ActualValue        *float64   `db:"actual_value" json:"actual_value,omitempty"`
	Unit               *string    `db:"unit" json:"unit,omitempty"`
	Status             string     `db:"status" json:"status"`
	PerformedDate      *time.Time `db:"performed_date" json:"performed_date,omitempty"`
	PerformedBy        *string    `db:"performed_by" json:"performed_by,omitempty"`
	Notes              *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// WithinRange reports whether the measured value lies in the acceptable
// range, bounds included. A missing value is never within range.
func (q *QCTest) WithinRange() bool {
	return analytics.WithinRangePtr(q.ActualValue, q.AcceptableRangeMin, q.AcceptableRangeMax)
}

// Measured reports whether an actual value was recorded.
func (q *QCTest) Measured() bool {
	return q.ActualValue != nil
}

// StatusDisagrees is true when a passed/failed verdict contradicts the range
// check. Pending and warning never disagree, nor does an unmeasured test.
func (q *QCTest) StatusDisagrees() bool {
	if !q.Measured() {
		return false
	}
	switch q.Status {
	case StatusPassed:
		return !q.WithinRange()
	case StatusFailed:
		return q.WithinRange()
	}
	return false
}

// RangeConsistent checks min <= target <= max.
func (q *QCTest) RangeConsistent() bool {
	return q.AcceptableRangeMin <= q.TargetValue && q.TargetValue <= q.AcceptableRangeMax
}

// Passed is the predicate used for pass rates.
func (q *QCTest) Passed() bool {
	return q.Status == StatusPassed
}

func (q *QCTest) performedAt() time.Time {
	if q.PerformedDate == nil {
		return time.Time{}
	}
	return *q.PerformedDate
}

// Check is the acceptability verdict for a single test.
type Check struct {
	ID              uuid.UUID `json:"id"`
	Status          string    `json:"status"`
	Measured        bool      `json:"measured"`
	WithinRange     bool      `json:"within_range"`
	StatusDisagrees bool      `json:"status_disagrees"`
	RangeConsistent bool      `json:"range_consistent"`
	Deviation       *float64  `json:"deviation,omitempty"`
}

func (q *QCTest) Check() Check {
	c := Check{
		ID:              q.ID,
		Status:          q.Status,
		Measured:        q.Measured(),
		WithinRange:     q.WithinRange(),
		StatusDisagrees: q.StatusDisagrees(),
		RangeConsistent: q.RangeConsistent(),
	}
	if q.ActualValue != nil {
		d := *q.ActualValue - q.TargetValue
		c.Deviation = &d
	}
	return c
}

// Filter narrows list queries. Zero values are ignored.
type Filter struct {
	Status      string
	Analyte     string
	EquipmentID *uuid.UUID
	From        *time.Time
	To          *time.Time
}

// Summary is the QC view model. Counts per status plus range-check results.
type Summary struct {
	Total            int                   `json:"total"`
	Passed           int                   `json:"passed"`
	Failed           int                   `json:"failed"`
	Pending          int                   `json:"pending"`
	Warning          int                   `json:"warning"`
	PassRate         int                   `json:"pass_rate"`
	WithinRangeCount int                   `json:"within_range_count"`
	OutOfRangeCount  int                   `json:"out_of_range_count"`
	Unmeasured       int                   `json:"unmeasured"`
	Disagreements    int                   `json:"disagreements"`
	Trend            analytics.TrendResult `json:"trend"`
}

// Summarize computes the QC view model from already loaded tests.
func Summarize(tests []*QCTest, now time.Time) Summary {
	byStatus := analytics.CountBy(tests, func(q *QCTest) string { return q.Status })
	s := Summary{
		Total:   len(tests),
		Passed:  byStatus[StatusPassed],
		Failed:  byStatus[StatusFailed],
		Pending: byStatus[StatusPending],
		Warning: byStatus[StatusWarning],
	}
	s.PassRate = analytics.Rate(s.Passed, s.Total)
	for _, q := range tests {
		switch {
		case !q.Measured():
			s.Unmeasured++
		case q.WithinRange():
			s.WithinRangeCount++
		default:
			s.OutOfRangeCount++
		}
		if q.StatusDisagrees() {
			s.Disagreements++
		}
	}
	s.Trend = analytics.Trend(tests, now, (*QCTest).performedAt, (*QCTest).Passed)
	return s
}
