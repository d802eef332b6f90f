package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWithinRange_InclusiveBounds(t *testing.T) {
	assert.True(t, WithinRange(95, 95, 105))
	assert.True(t, WithinRange(105, 95, 105))
	assert.True(t, WithinRange(98, 95, 105))
	assert.False(t, WithinRange(95-1e-9, 95, 105))
	assert.False(t, WithinRange(105+1e-9, 95, 105))
}

func TestWithinRange_NaN(t *testing.T) {
	assert.False(t, WithinRange(math.NaN(), 95, 105))
}

func TestWithinRangePtr_Missing(t *testing.T) {
	assert.False(t, WithinRangePtr(nil, 0, 10))
	v := 5.0
	assert.True(t, WithinRangePtr(&v, 0, 10))
}

func TestRate(t *testing.T) {
	tests := []struct {
		matching, total, want int
	}{
		{0, 0, 0},
		{4, 6, 67},
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13}, // 12.5 rounds half up
		{23, 40, 58},
		{7, 40, 18},
		{29, 40, 73},
		{3, 3, 100},
		{0, 5, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Rate(tt.matching, tt.total), "Rate(%d, %d)", tt.matching, tt.total)
	}
}

func TestRate_AlwaysBetweenZeroAndHundred(t *testing.T) {
	for total := 1; total <= 50; total++ {
		for m := 0; m <= total; m++ {
			r := Rate(m, total)
			assert.GreaterOrEqual(t, r, 0)
			assert.LessOrEqual(t, r, 100)
			assert.Equal(t, int(math.Round(100*float64(m)/float64(total))), r)
		}
	}
}

func TestRateOf_OperationalEquipment(t *testing.T) {
	statuses := []string{"operational", "operational", "maintenance", "operational", "out_of_service", "operational"}
	got := RateOf(statuses, func(s string) bool { return s == "operational" })
	assert.Equal(t, 67, got)
}

func TestRateOf_Empty(t *testing.T) {
	assert.Equal(t, 0, RateOf([]string{}, func(string) bool { return true }))
	assert.Equal(t, 0, RateOf[string](nil, func(string) bool { return true }))
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-9)
}

func TestMeanOf(t *testing.T) {
	type eq struct{ util float64 }
	items := []eq{{80}, {60}, {70}}
	assert.InDelta(t, 70.0, MeanOf(items, func(e eq) float64 { return e.util }), 1e-9)
	assert.Equal(t, 0.0, MeanOf([]eq{}, func(e eq) float64 { return e.util }))
}

func TestAgeYears(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, AgeYears(now.AddDate(0, -6, 0), now))
	assert.Equal(t, 3, AgeYears(now.Add(-time.Duration(3*DaysPerYear*24)*time.Hour), now))
	assert.Equal(t, 2, AgeYears(now.Add(-time.Duration(3*DaysPerYear*24-1)*time.Hour), now))
	assert.Equal(t, 0, AgeYears(now.AddDate(1, 0, 0), now), "future purchase")
}

func TestCountBy(t *testing.T) {
	got := CountBy([]string{"stat", "routine", "stat"}, func(s string) string { return s })
	assert.Equal(t, map[string]int{"stat": 2, "routine": 1}, got)
}

func TestRound1(t *testing.T) {
	assert.Equal(t, 72.3, Round1(72.333))
	assert.Equal(t, 72.4, Round1(72.36))
	assert.Equal(t, 0.0, Round1(0))
}
