package equipment

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/labdash/labdash/internal/platform/analytics"
)

const (
	StatusOperational  = "operational"
	StatusMaintenance  = "maintenance"
	StatusOutOfService = "out_of_service"
	StatusCalibration  = "calibration"
	StatusRetired      = "retired"
)

var validStatuses = map[string]bool{
	StatusOperational: true, StatusMaintenance: true, StatusOutOfService: true,
	StatusCalibration: true, StatusRetired: true,
}

// Equipment maps to the equipment table. Maintenance state is derived from
// NextMaintenance on read and never stored.
type Equipment struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Type            *string    `db:"equipment_type" json:"equipment_type,omitempty"`
	Manufacturer    *string    `db:"manufacturer" json:"manufacturer,omitempty"`
	Model           *string    `db:"model" json:"model,omitempty"`
	SerialNumber    *string    `db:"serial_number" json:"serial_number,omitempty"`
	Status          string     `db:"status" json:"status"`
	Location        *string    `db:"location" json:"location,omitempty"`
	PurchaseDate    *time.Time `db:"purchase_date" json:"purchase_date,omitempty"`
	LastMaintenance *time.Time `db:"last_maintenance" json:"last_maintenance,omitempty"`
	NextMaintenance *time.Time `db:"next_maintenance" json:"next_maintenance,omitempty"`
	UtilizationRate *float64   `db:"utilization_rate" json:"utilization_rate,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

func (e *Equipment) MaintenanceStatus(now time.Time, dueSoon time.Duration) analytics.MaintenanceStatus {
	return analytics.ClassifyMaintenanceWithin(e.NextMaintenance, now, dueSoon)
}

func (e *Equipment) Overdue(now time.Time) bool {
	return analytics.IsOverdue(e.NextMaintenance, now)
}

// AgeYears is 0 when the purchase date is unknown.
func (e *Equipment) AgeYears(now time.Time) int {
	if e.PurchaseDate == nil {
		return 0
	}
	return analytics.AgeYears(*e.PurchaseDate, now)
}

func (e *Equipment) Operational() bool {
	return e.Status == StatusOperational
}

// Filter narrows list queries.
type Filter struct {
	Status   string
	Type     string
	Location string
}

// ScheduleItem is one row of the maintenance schedule.
type ScheduleItem struct {
	ID              uuid.UUID                   `json:"id"`
	Name            string                      `json:"name"`
	Status          string                      `json:"status"`
	Location        *string                     `json:"location,omitempty"`
	NextMaintenance *time.Time                  `json:"next_maintenance,omitempty"`
	Maintenance     analytics.MaintenanceStatus `json:"maintenance"`
	DaysUntilDue    *int                        `json:"days_until_due,omitempty"`
}

var scheduleRank = map[analytics.MaintenanceStatus]int{
	analytics.MaintenanceOverdue:   0,
	analytics.MaintenanceDueSoon:   1,
	analytics.MaintenanceScheduled: 2,
	analytics.MaintenanceUnknown:   3,
}

// Schedule classifies every item and orders the result overdue first, then
// due soon, scheduled and undated; within a class by date, then name.
func Schedule(items []*Equipment, now time.Time, dueSoon time.Duration) []ScheduleItem {
	out := make([]ScheduleItem, 0, len(items))
	for _, e := range items {
		si := ScheduleItem{
			ID:              e.ID,
			Name:            e.Name,
			Status:          e.Status,
			Location:        e.Location,
			NextMaintenance: e.NextMaintenance,
			Maintenance:     e.MaintenanceStatus(now, dueSoon),
		}
		if e.NextMaintenance != nil && !e.NextMaintenance.IsZero() {
			// floor: due in 36h reads 1, overdue by 12h reads -1
			d := int(math.Floor(e.NextMaintenance.Sub(now).Hours() / 24))
			si.DaysUntilDue = &d
		}
		out = append(out, si)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if scheduleRank[a.Maintenance] != scheduleRank[b.Maintenance] {
			return scheduleRank[a.Maintenance] < scheduleRank[b.Maintenance]
		}
		if a.NextMaintenance != nil && b.NextMaintenance != nil && !a.NextMaintenance.Equal(*b.NextMaintenance) {
			return a.NextMaintenance.Before(*b.NextMaintenance)
		}
		return a.Name < b.Name
	})
	return out
}

// Summary is the equipment view model.
type Summary struct {
	Total           int                                 `json:"total"`
	Operational     int                                 `json:"operational"`
	OperationalRate int                                 `json:"operational_rate"`
	AvgUtilization  float64                             `json:"avg_utilization"`
	AvgAgeYears     float64                             `json:"avg_age_years"`
	Overdue         int                                 `json:"overdue"`
	Maintenance     map[analytics.MaintenanceStatus]int `json:"maintenance"`
	ByStatus        map[string]int                      `json:"by_status"`
}

// Summarize computes the equipment view model. Utilization is averaged over
// items that report it; age over items with a purchase date.
func Summarize(items []*Equipment, now time.Time, dueSoon time.Duration) Summary {
	s := Summary{
		Total:       len(items),
		Maintenance: make(map[analytics.MaintenanceStatus]int, len(analytics.MaintenanceStatuses)),
		ByStatus:    analytics.CountBy(items, func(e *Equipment) string { return e.Status }),
	}
	for _, ms := range analytics.MaintenanceStatuses {
		s.Maintenance[ms] = 0
	}

	var utilization, ages []float64
	for _, e := range items {
		ms := e.MaintenanceStatus(now, dueSoon)
		s.Maintenance[ms]++
		if ms == analytics.MaintenanceOverdue {
			s.Overdue++
		}
		if e.UtilizationRate != nil {
			utilization = append(utilization, *e.UtilizationRate)
		}
		if e.PurchaseDate != nil {
			ages = append(ages, float64(e.AgeYears(now)))
		}
	}
	s.Operational = s.ByStatus[StatusOperational]
	s.OperationalRate = analytics.Rate(s.Operational, s.Total)
	s.AvgUtilization = analytics.Round1(analytics.Mean(utilization))
	s.AvgAgeYears = analytics.Round1(analytics.Mean(ages))
	return s
}
