package analytics

import "time"

// DueSoonWindow is how far ahead a maintenance date counts as due soon.
const DueSoonWindow = 7 * 24 * time.Hour

// MaintenanceStatus classifies an item by its next maintenance date.
type MaintenanceStatus string

const (
	MaintenanceOverdue   MaintenanceStatus = "overdue"
	MaintenanceDueSoon   MaintenanceStatus = "due_soon"
	MaintenanceScheduled MaintenanceStatus = "scheduled"
	MaintenanceUnknown   MaintenanceStatus = "unknown"
)

// MaintenanceStatuses lists every classification in display order.
var MaintenanceStatuses = []MaintenanceStatus{
	MaintenanceOverdue, MaintenanceDueSoon, MaintenanceScheduled, MaintenanceUnknown,
}

// ClassifyMaintenance uses the default seven day due-soon window.
func ClassifyMaintenance(next *time.Time, now time.Time) MaintenanceStatus {
	return ClassifyMaintenanceWithin(next, now, DueSoonWindow)
}

// ClassifyMaintenanceWithin returns overdue when now is past next, due_soon
// when next is at most dueSoon away, scheduled otherwise and unknown when no
// date is set.
func ClassifyMaintenanceWithin(next *time.Time, now time.Time, dueSoon time.Duration) MaintenanceStatus {
	if next == nil || next.IsZero() {
		return MaintenanceUnknown
	}
	if now.After(*next) {
		return MaintenanceOverdue
	}
	if next.Sub(now) <= dueSoon {
		return MaintenanceDueSoon
	}
	return MaintenanceScheduled
}

// IsOverdue reports whether a maintenance date has passed.
func IsOverdue(next *time.Time, now time.Time) bool {
	return next != nil && !next.IsZero() && now.After(*next)
}
