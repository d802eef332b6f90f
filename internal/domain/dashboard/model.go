package dashboard

import (
	"context"
	"time"

	"github.com/labdash/labdash/internal/domain/compliance"
	"github.com/labdash/labdash/internal/domain/equipment"
	"github.com/labdash/labdash/internal/domain/laborder"
	"github.com/labdash/labdash/internal/domain/qualitycontrol"
)

// Dashboard is the read-only view model behind the lab dashboard. It is
// rebuilt from the records on every uncached request.
type Dashboard struct {
	TenantID    string                 `json:"tenant_id,omitempty"`
	GeneratedAt time.Time              `json:"generated_at"`
	QC          qualitycontrol.Summary `json:"qc"`
	Equipment   equipment.Summary      `json:"equipment"`
	Compliance  compliance.Summary     `json:"compliance"`
	Orders      laborder.Summary       `json:"orders"`
	Cached      bool                   `json:"cached"`
}

// Records is a full snapshot of one lab's data, used for offline analysis.
type Records struct {
	QCTests    []*qualitycontrol.QCTest
	Equipment  []*equipment.Equipment
	Compliance []*compliance.Entry
	Orders     []*laborder.LabOrder
}

// Compute builds the dashboard from an in-memory snapshot.
func Compute(r Records, now time.Time, dueSoon time.Duration) Dashboard {
	return Dashboard{
		GeneratedAt: now,
		QC:          qualitycontrol.Summarize(r.QCTests, now),
		Equipment:   equipment.Summarize(r.Equipment, now, dueSoon),
		Compliance:  compliance.Summarize(r.Compliance, now),
		Orders:      laborder.Summarize(r.Orders),
	}
}

type QCSource interface {
	Summary(ctx context.Context, now time.Time) (qualitycontrol.Summary, error)
	AllQCTests(ctx context.Context) ([]*qualitycontrol.QCTest, error)
}

type EquipmentSource interface {
	Summary(ctx context.Context, now time.Time) (equipment.Summary, error)
	Schedule(ctx context.Context, now time.Time) ([]equipment.ScheduleItem, error)
}

type ComplianceSource interface {
	Summary(ctx context.Context, now time.Time) (compliance.Summary, error)
}

type OrderSource interface {
	Summary(ctx context.Context) (laborder.Summary, error)
}
