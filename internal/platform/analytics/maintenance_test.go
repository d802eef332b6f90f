package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassifyMaintenance(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		v := now.Add(d)
		return &v
	}

	tests := []struct {
		name string
		next *time.Time
		want MaintenanceStatus
	}{
		{"yesterday", at(-24 * time.Hour), MaintenanceOverdue},
		{"in three days", at(3 * 24 * time.Hour), MaintenanceDueSoon},
		{"exactly seven days", at(7 * 24 * time.Hour), MaintenanceDueSoon},
		{"right now", at(0), MaintenanceDueSoon},
		{"in thirty days", at(30 * 24 * time.Hour), MaintenanceScheduled},
		{"no date", nil, MaintenanceUnknown},
		{"zero date", &time.Time{}, MaintenanceUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyMaintenance(tt.next, now))
		})
	}
}

func TestClassifyMaintenanceWithin_CustomWindow(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	next := now.Add(10 * 24 * time.Hour)
	assert.Equal(t, MaintenanceScheduled, ClassifyMaintenance(&next, now))
	assert.Equal(t, MaintenanceDueSoon, ClassifyMaintenanceWithin(&next, now, 14*24*time.Hour))
}

func TestIsOverdue(t *testing.T) {
	now := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)
	assert.True(t, IsOverdue(&past, now))
	assert.False(t, IsOverdue(&future, now))
	assert.False(t, IsOverdue(nil, now))
}
