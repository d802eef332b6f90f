package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/labdash/labdash/internal/domain/compliance"
	"github.com/labdash/labdash/internal/domain/dashboard"
	"github.com/labdash/labdash/internal/domain/equipment"
	"github.com/labdash/labdash/internal/domain/laborder"
	"github.com/labdash/labdash/internal/domain/qualitycontrol"
	"github.com/labdash/labdash/internal/platform/analytics"
	"github.com/labdash/labdash/pkg/isodate"
)

// recordFile is the JSON export read by analyze. Dates may be RFC 3339
// instants or bare YYYY-MM-DD dates.
type recordFile struct {
	QCTests    []qcRecord         `json:"qc_tests"`
	Equipment  []equipmentRecord  `json:"equipment"`
	Compliance []complianceRecord `json:"compliance"`
	LabOrders  []orderRecord      `json:"lab_orders"`
}

type qcRecord struct {
	ID                 uuid.UUID    `json:"id"`
	TestName           string       `json:"test_name"`
	Analyte            *string      `json:"analyte"`
	TargetValue        float64      `json:"target_value"`
	AcceptableRangeMin float64      `json:"acceptable_range_min"`
	AcceptableRangeMax float64      `json:"acceptable_range_max"`
	ActualValue        *float64     `json:"actual_value"`
	Unit               *string      `json:"unit"`
	Status             string       `json:"status"`
	PerformedDate      isodate.Time `json:"performed_date"`
}

type equipmentRecord struct {
	ID              uuid.UUID    `json:"id"`
	Name            string       `json:"name"`
	Type            *string      `json:"equipment_type"`
	Status          string       `json:"status"`
	Location        *string      `json:"location"`
	PurchaseDate    isodate.Time `json:"purchase_date"`
	LastMaintenance isodate.Time `json:"last_maintenance"`
	NextMaintenance isodate.Time `json:"next_maintenance"`
	UtilizationRate *float64     `json:"utilization_rate"`
}

type complianceRecord struct {
	ID            uuid.UUID    `json:"id"`
	Requirement   string       `json:"requirement"`
	Category      *string      `json:"category"`
	Status        string       `json:"status"`
	DueDate       isodate.Time `json:"due_date"`
	CompletedDate isodate.Time `json:"completed_date"`
}

type orderRecord struct {
	ID          uuid.UUID    `json:"id"`
	OrderNumber string       `json:"order_number"`
	TestName    string       `json:"test_name"`
	Status      string       `json:"status"`
	Priority    string       `json:"priority"`
	OrderedAt   isodate.Time `json:"ordered_at"`
	CompletedAt isodate.Time `json:"completed_at"`
}

func (f recordFile) records() dashboard.Records {
	var r dashboard.Records
	for _, q := range f.QCTests {
		r.QCTests = append(r.QCTests, &qualitycontrol.QCTest{
			ID:                 q.ID,
			TestName:           q.TestName,
			Analyte:            q.Analyte,
			TargetValue:        q.TargetValue,
			AcceptableRangeMin: q.AcceptableRangeMin,
			AcceptableRangeMax: q.AcceptableRangeMax,
			ActualValue:        q.ActualValue,
			Unit:               q.Unit,
			Status:             q.Status,
			PerformedDate:      q.PerformedDate.Ptr(),
		})
	}
	for _, e := range f.Equipment {
		r.Equipment = append(r.Equipment, &equipment.Equipment{
			ID:              e.ID,
			Name:            e.Name,
			Type:            e.Type,
			Status:          e.Status,
			Location:        e.Location,
			PurchaseDate:    e.PurchaseDate.Ptr(),
			LastMaintenance: e.LastMaintenance.Ptr(),
			NextMaintenance: e.NextMaintenance.Ptr(),
			UtilizationRate: e.UtilizationRate,
		})
	}
	for _, c := range f.Compliance {
		r.Compliance = append(r.Compliance, &compliance.Entry{
			ID:            c.ID,
			Requirement:   c.Requirement,
			Category:      c.Category,
			Status:        c.Status,
			DueDate:       c.DueDate.Ptr(),
			CompletedDate: c.CompletedDate.Ptr(),
		})
	}
	for _, o := range f.LabOrders {
		r.Orders = append(r.Orders, &laborder.LabOrder{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			TestName:    o.TestName,
			Status:      o.Status,
			Priority:    o.Priority,
			OrderedAt:   o.OrderedAt.Time,
			CompletedAt: o.CompletedAt.Ptr(),
		})
	}
	return r
}

// analyze decodes a record export from in and writes the dashboard computed
// at now to out.
func analyze(in io.Reader, out io.Writer, now time.Time, dueSoon time.Duration) error {
	var f recordFile
	if err := json.NewDecoder(in).Decode(&f); err != nil {
		return fmt.Errorf("decode records: %w", err)
	}
	d := dashboard.Compute(f.records(), now.UTC(), dueSoon)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func analyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Compute the dashboard from a JSON record export without a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			nowFlag, _ := cmd.Flags().GetString("now")
			days, _ := cmd.Flags().GetInt("due-soon-days")

			now := time.Now()
			if nowFlag != "" {
				t, err := isodate.Parse(nowFlag)
				if err != nil {
					return fmt.Errorf("--now: %w", err)
				}
				now = t
			}
			dueSoon := analytics.DueSoonWindow
			if days > 0 {
				dueSoon = time.Duration(days) * 24 * time.Hour
			}

			in := cmd.InOrStdin()
			if file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return err
				}
				defer fh.Close()
				in = fh
			}
			return analyze(in, cmd.OutOrStdout(), now, dueSoon)
		},
	}
	cmd.Flags().String("file", "-", "Record export to read, - for stdin")
	cmd.Flags().String("now", "", "Evaluation time (RFC 3339 or YYYY-MM-DD), defaults to the current time")
	cmd.Flags().Int("due-soon-days", 0, "Maintenance look-ahead in days, defaults to 7")
	return cmd
}
