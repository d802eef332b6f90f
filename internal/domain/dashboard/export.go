package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/labdash/labdash/internal/domain/equipment"
	"github.com/labdash/labdash/internal/domain/qualitycontrol"
	"github.com/labdash/labdash/internal/platform/analytics"
	"github.com/labdash/labdash/internal/platform/export"
)

// Export renders a freshly built dashboard as an XLSX workbook with a
// Summary, a QC and an Equipment sheet. The cache is bypassed.
func (s *Service) Export(ctx context.Context, now time.Time) ([]byte, error) {
	d, err := s.Build(ctx, now, true)
	if err != nil {
		return nil, err
	}

	var (
		tests    []*qualitycontrol.QCTest
		schedule []equipment.ScheduleItem
	)
	if err := s.withScope(ctx, func(ctx context.Context) (err error) {
		tests, err = s.qc.AllQCTests(ctx)
		return err
	}); err != nil {
		return nil, fmt.Errorf("export qc tests: %w", err)
	}
	if err := s.withScope(ctx, func(ctx context.Context) (err error) {
		schedule, err = s.equipment.Schedule(ctx, now)
		return err
	}); err != nil {
		return nil, fmt.Errorf("export equipment schedule: %w", err)
	}

	data, err := export.Workbook(summarySheet(d), qcSheet(tests), equipmentSheet(schedule))
	if err != nil {
		return nil, err
	}
	s.metrics.exported()
	return data, nil
}

func (s *Service) withScope(ctx context.Context, fn func(context.Context) error) error {
	sctx, release, err := s.scope(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(sctx)
}

func summarySheet(d Dashboard) export.Sheet {
	rows := [][]interface{}{
		{"Generated at", d.GeneratedAt.UTC().Format(time.RFC3339)},
		{"QC tests", d.QC.Total},
		{"QC pass rate (%)", d.QC.PassRate},
		{"QC within range", d.QC.WithinRangeCount},
		{"QC out of range", d.QC.OutOfRangeCount},
		{"QC status/range disagreements", d.QC.Disagreements},
		{"QC pass rate last 7 days (%)", d.QC.Trend.RecentPassRate},
		{"QC pass rate previous 7 days (%)", d.QC.Trend.PreviousPassRate},
		{"QC trend", string(d.QC.Trend.Direction)},
		{"Equipment", d.Equipment.Total},
		{"Equipment operational (%)", d.Equipment.OperationalRate},
		{"Average utilization (%)", d.Equipment.AvgUtilization},
		{"Average age (years)", d.Equipment.AvgAgeYears},
	}
	for _, m := range analytics.MaintenanceStatuses {
		rows = append(rows, []interface{}{"Maintenance " + string(m), d.Equipment.Maintenance[m]})
	}
	rows = append(rows,
		[]interface{}{"Compliance entries", d.Compliance.Total},
		[]interface{}{"Compliance rate (%)", d.Compliance.ComplianceRate},
		[]interface{}{"Compliance past due", d.Compliance.PastDue},
		[]interface{}{"Lab orders", d.Orders.Total},
		[]interface{}{"Lab orders open", d.Orders.Open},
		[]interface{}{"Order completion rate (%)", d.Orders.CompletionRate},
		[]interface{}{"STAT orders", d.Orders.StatCount},
	)
	return export.Sheet{
		Name:    "Summary",
		Headers: []string{"Measure", "Value"},
		Rows:    rows,
		Widths:  []float64{36, 24},
	}
}

func qcSheet(tests []*qualitycontrol.QCTest) export.Sheet {
	rows := make([][]interface{}, 0, len(tests))
	for _, q := range tests {
		rows = append(rows, []interface{}{
			q.TestName,
			deref(q.Analyte),
			q.TargetValue,
			q.AcceptableRangeMin,
			q.AcceptableRangeMax,
			floatCell(q.ActualValue),
			deref(q.Unit),
			q.Status,
			yesNo(q.WithinRange()),
			yesNo(q.StatusDisagrees()),
			timeCell(q.PerformedDate),
		})
	}
	return export.Sheet{
		Name: "QC",
		Headers: []string{
			"Test", "Analyte", "Target", "Min", "Max", "Actual", "Unit",
			"Status", "Within range", "Status disagrees", "Performed",
		},
		Rows:   rows,
		Widths: []float64{28, 16, 10, 10, 10, 10, 8, 10, 13, 16, 22},
	}
}

func equipmentSheet(items []equipment.ScheduleItem) export.Sheet {
	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		days := interface{}("")
		if it.DaysUntilDue != nil {
			days = *it.DaysUntilDue
		}
		rows = append(rows, []interface{}{
			it.Name,
			it.Status,
			deref(it.Location),
			timeCell(it.NextMaintenance),
			string(it.Maintenance),
			days,
		})
	}
	return export.Sheet{
		Name:    "Equipment",
		Headers: []string{"Name", "Status", "Location", "Next maintenance", "Maintenance", "Days until due"},
		Rows:    rows,
		Widths:  []float64{28, 16, 18, 22, 14, 15},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func floatCell(f *float64) interface{} {
	if f == nil {
		return ""
	}
	return *f
}

func timeCell(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
