package compliance

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/labdash/labdash/internal/platform/analytics"
)

const (
	StatusCompliant    = "compliant"
	StatusNonCompliant = "non_compliant"
	StatusPending      = "pending"
	StatusInReview     = "in_review"
)

var validStatuses = map[string]bool{
	StatusCompliant: true, StatusNonCompliant: true, StatusPending: true, StatusInReview: true,
}

// Entry maps to the compliance_entry table: one regulatory or accreditation
// requirement and where the lab stands on it.
type Entry struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Requirement   string     `db:"requirement" json:"requirement"`
	Category      *string    `db:"category" json:"category,omitempty"`
	Status        string     `db:"status" json:"status"`
	DueDate       *time.Time `db:"due_date" json:"due_date,omitempty"`
	CompletedDate *time.Time `db:"completed_date" json:"completed_date,omitempty"`
	Owner         *string    `db:"owner" json:"owner,omitempty"`
	Notes         *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (e *Entry) Compliant() bool {
	return e.Status == StatusCompliant
}

// PastDue is true for an open entry whose due date has passed.
func (e *Entry) PastDue(now time.Time) bool {
	return !e.Compliant() && e.CompletedDate == nil && analytics.IsOverdue(e.DueDate, now)
}

const uncategorized = "uncategorized"

func (e *Entry) category() string {
	if e.Category == nil || *e.Category == "" {
		return uncategorized
	}
	return *e.Category
}

// CategoryRate is the compliance rate of one category.
type CategoryRate struct {
	Category  string `json:"category"`
	Total     int    `json:"total"`
	Compliant int    `json:"compliant"`
	Rate      int    `json:"rate"`
}

// Summary is the compliance view model.
type Summary struct {
	Total          int            `json:"total"`
	Compliant      int            `json:"compliant"`
	NonCompliant   int            `json:"non_compliant"`
	Pending        int            `json:"pending"`
	InReview       int            `json:"in_review"`
	PastDue        int            `json:"past_due"`
	ComplianceRate int            `json:"compliance_rate"`
	ByCategory     []CategoryRate `json:"by_category"`
}

func Summarize(entries []*Entry, now time.Time) Summary {
	byStatus := analytics.CountBy(entries, func(e *Entry) string { return e.Status })
	s := Summary{
		Total:        len(entries),
		Compliant:    byStatus[StatusCompliant],
		NonCompliant: byStatus[StatusNonCompliant],
		Pending:      byStatus[StatusPending],
		InReview:     byStatus[StatusInReview],
	}
	s.ComplianceRate = analytics.Rate(s.Compliant, s.Total)
	s.PastDue = analytics.Count(entries, func(e *Entry) bool { return e.PastDue(now) })

	groups := make(map[string][]*Entry)
	for _, e := range entries {
		groups[e.category()] = append(groups[e.category()], e)
	}
	s.ByCategory = make([]CategoryRate, 0, len(groups))
	for cat, es := range groups {
		compliant := analytics.Count(es, (*Entry).Compliant)
		s.ByCategory = append(s.ByCategory, CategoryRate{
			Category:  cat,
			Total:     len(es),
			Compliant: compliant,
			Rate:      analytics.Rate(compliant, len(es)),
		})
	}
	sort.Slice(s.ByCategory, func(i, j int) bool { return s.ByCategory[i].Category < s.ByCategory[j].Category })
	return s
}
