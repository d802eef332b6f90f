package laborder

import (
	"time"

	"github.com/google/uuid"

	"github.com/labdash/labdash/internal/platform/analytics"
)

// Workflow stages. Any stage may follow any other; the lab information
// system that sets them owns the workflow.
const (
	StatusOrdered    = "ordered"
	StatusCollected  = "collected"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	PriorityRoutine = "routine"
	PriorityUrgent  = "urgent"
	PriorityStat    = "stat"
)

var stageLabels = map[string]string{
	StatusOrdered:    "Ordered",
	StatusCollected:  "Specimen Collected",
	StatusInProgress: "In Progress",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

var validPriorities = map[string]bool{
	PriorityRoutine: true, PriorityUrgent: true, PriorityStat: true,
}

// Stages lists the workflow stages in display order.
var Stages = []string{StatusOrdered, StatusCollected, StatusInProgress, StatusCompleted, StatusCancelled}

// Priorities lists the urgency levels, most urgent last.
var Priorities = []string{PriorityRoutine, PriorityUrgent, PriorityStat}

// StageLabel returns the display label of a stage, "Unknown" for anything else.
func StageLabel(status string) string {
	if l, ok := stageLabels[status]; ok {
		return l
	}
	return "Unknown"
}

func ValidStage(status string) bool {
	_, ok := stageLabels[status]
	return ok
}

// LabOrder maps to the lab_order table.
type LabOrder struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	OrderNumber string     `db:"order_number" json:"order_number"`
	PatientRef  string     `db:"patient_ref" json:"patient_ref"`
	TestCode    *string    `db:"test_code" json:"test_code,omitempty"`
	TestName    string     `db:"test_name" json:"test_name"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	OrderedAt   time.Time  `db:"ordered_at" json:"ordered_at"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

func (o *LabOrder) Completed() bool {
	return o.Status == StatusCompleted
}

// Open is true for orders that are neither completed nor cancelled.
func (o *LabOrder) Open() bool {
	return o.Status != StatusCompleted && o.Status != StatusCancelled
}

// Turnaround is the time from order to completion, if both are known.
func (o *LabOrder) Turnaround() (time.Duration, bool) {
	if o.CompletedAt == nil || o.OrderedAt.IsZero() || o.CompletedAt.Before(o.OrderedAt) {
		return 0, false
	}
	return o.CompletedAt.Sub(o.OrderedAt), true
}

type Filter struct {
	Status     string
	Priority   string
	PatientRef string
}

// Summary is the lab order view model.
type Summary struct {
	Total              int            `json:"total"`
	Open               int            `json:"open"`
	ByStatus           map[string]int `json:"by_status"`
	ByPriority         map[string]int `json:"by_priority"`
	CompletionRate     int            `json:"completion_rate"`
	StatCount          int            `json:"stat_count"`
	OpenStatCount      int            `json:"open_stat_count"`
	AvgTurnaroundHours float64        `json:"avg_turnaround_hours"`
}

func Summarize(orders []*LabOrder) Summary {
	s := Summary{
		Total:      len(orders),
		ByStatus:   make(map[string]int, len(Stages)),
		ByPriority: make(map[string]int, len(Priorities)),
	}
	for _, st := range Stages {
		s.ByStatus[st] = 0
	}
	for _, p := range Priorities {
		s.ByPriority[p] = 0
	}

	var turnaround []float64
	for _, o := range orders {
		s.ByStatus[o.Status]++
		s.ByPriority[o.Priority]++
		if o.Open() {
			s.Open++
			if o.Priority == PriorityStat {
				s.OpenStatCount++
			}
		}
		if d, ok := o.Turnaround(); ok && o.Completed() {
			turnaround = append(turnaround, d.Hours())
		}
	}
	s.StatCount = s.ByPriority[PriorityStat]
	s.CompletionRate = analytics.Rate(s.ByStatus[StatusCompleted], s.Total)
	s.AvgTurnaroundHours = analytics.Round1(analytics.Mean(turnaround))
	return s
}
