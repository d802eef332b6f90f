package qualitycontrol

import (
	"math"
	"testing"
)

func TestQCTest_WithinRange(t *testing.T) {
	base := QCTest{TargetValue: 100, AcceptableRangeMin: 95, AcceptableRangeMax: 105}
	tests := []struct {
		name   string
		actual *float64
		want   bool
	}{
		{"inside", ptrFloat(98), true},
		{"at min", ptrFloat(95), true},
		{"at max", ptrFloat(105), true},
		{"below", ptrFloat(94.999), false},
		{"above", ptrFloat(105.001), false},
		{"missing", nil, false},
		{"nan", ptrFloat(math.NaN()), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := base
			q.ActualValue = tt.actual
			if got := q.WithinRange(); got != tt.want {
				t.Errorf("WithinRange() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQCTest_StatusDisagrees(t *testing.T) {
	tests := []struct {
		status string
		actual *float64
		want   bool
	}{
		{StatusPassed, ptrFloat(100), false},
		{StatusPassed, ptrFloat(120), true},
		{StatusFailed, ptrFloat(120), false},
		{StatusFailed, ptrFloat(100), true},
		{StatusPending, ptrFloat(120), false},
		{StatusWarning, ptrFloat(120), false},
		{StatusPassed, nil, false},
	}
	for _, tt := range tests {
		q := QCTest{Status: tt.status, TargetValue: 100, AcceptableRangeMin: 95, AcceptableRangeMax: 105, ActualValue: tt.actual}
		if got := q.StatusDisagrees(); got != tt.want {
			t.Errorf("status=%s actual=%v: StatusDisagrees() = %v, want %v", tt.status, tt.actual, got, tt.want)
		}
	}
}

func TestQCTest_RangeConsistent(t *testing.T) {
	ok := QCTest{TargetValue: 95, AcceptableRangeMin: 95, AcceptableRangeMax: 105}
	if !ok.RangeConsistent() {
		t.Error("target on the lower bound should be consistent")
	}
	bad := QCTest{TargetValue: 110, AcceptableRangeMin: 95, AcceptableRangeMax: 105}
	if bad.RangeConsistent() {
		t.Error("target above max should be inconsistent")
	}
}

func TestQCTest_CheckWithoutValue(t *testing.T) {
	q := QCTest{Status: StatusPending, AcceptableRangeMin: 1, AcceptableRangeMax: 2, TargetValue: 1.5}
	c := q.Check()
	if c.Measured || c.WithinRange || c.Deviation != nil {
		t.Errorf("unexpected check for unmeasured test: %+v", c)
	}
}
