// Package reporting evaluates predefined SQL measures over the lab tables of
// the tenant schema.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/labdash/labdash/internal/platform/auth"
	"github.com/labdash/labdash/internal/platform/db"
	"github.com/labdash/labdash/pkg/isodate"
)

// MeasureDefinition is a named SQL query. Parameters are optional timestamps
// bound positionally ($1, $2, ...) in the listed order; a missing one binds
// NULL and the query treats it as unbounded.
type MeasureDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	SQL         string   `json:"sql"`
	Parameters  []string `json:"parameters"`
}

type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
	Parameters  map[string]string        `json:"parameters,omitempty"`
}

var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "qc-pass-rate-by-analyte",
		Name:        "QC Pass Rate by Analyte",
		Description: "QC tests and pass rate per analyte, optionally limited to a performed-date window [from, to)",
		SQL: `SELECT COALESCE(analyte, 'unspecified') AS analyte,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'passed') AS passed,
       COALESCE(ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'passed') / NULLIF(COUNT(*), 0))::int, 0) AS pass_rate
FROM qc_test
WHERE ($1::timestamptz IS NULL OR performed_date >= $1::timestamptz)
  AND ($2::timestamptz IS NULL OR performed_date < $2::timestamptz)
GROUP BY COALESCE(analyte, 'unspecified')
ORDER BY total DESC, analyte`,
		Parameters: []string{"from", "to"},
	},
	{
		ID:          "qc-out-of-range",
		Name:        "QC Results Outside Acceptable Range",
		Description: "Measured QC tests whose actual value falls outside the acceptable range, with the recorded status",
		SQL: `SELECT status, COUNT(*) AS total
FROM qc_test
WHERE actual_value IS NOT NULL
  AND (actual_value < acceptable_range_min OR actual_value > acceptable_range_max)
GROUP BY status
ORDER BY total DESC`,
		Parameters: []string{},
	},
	{
		ID:          "equipment-by-status",
		Name:        "Equipment by Status",
		Description: "Equipment count and average utilization per status",
		SQL: `SELECT status, COUNT(*) AS total,
       COALESCE(ROUND(AVG(utilization_rate)::numeric, 1)::float8, 0) AS avg_utilization
FROM equipment
GROUP BY status
ORDER BY total DESC`,
		Parameters: []string{},
	},
	{
		ID:          "equipment-maintenance-overdue",
		Name:        "Overdue Equipment Maintenance",
		Description: "Equipment whose next maintenance date has passed",
		SQL: `SELECT name, status, next_maintenance
FROM equipment
WHERE next_maintenance < NOW()
ORDER BY next_maintenance`,
		Parameters: []string{},
	},
	{
		ID:          "orders-by-priority",
		Name:        "Lab Orders by Priority",
		Description: "Lab orders per priority and workflow stage, optionally limited to an ordered-at window [from, to)",
		SQL: `SELECT priority, status, COUNT(*) AS total
FROM lab_order
WHERE ($1::timestamptz IS NULL OR ordered_at >= $1::timestamptz)
  AND ($2::timestamptz IS NULL OR ordered_at < $2::timestamptz)
GROUP BY priority, status
ORDER BY priority, status`,
		Parameters: []string{"from", "to"},
	},
	{
		ID:          "compliance-by-category",
		Name:        "Compliance by Category",
		Description: "Compliance entries and compliance rate per category",
		SQL: `SELECT COALESCE(category, 'uncategorized') AS category,
       COUNT(*) AS total,
       COUNT(*) FILTER (WHERE status = 'compliant') AS compliant,
       COALESCE(ROUND(100.0 * COUNT(*) FILTER (WHERE status = 'compliant') / NULLIF(COUNT(*), 0))::int, 0) AS compliance_rate
FROM compliance_entry
GROUP BY COALESCE(category, 'uncategorized')
ORDER BY category`,
		Parameters: []string{},
	},
}

// Querier is satisfied by *pgxpool.Pool and *pgxpool.Conn.
type Querier interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

type Handler struct {
	pool Querier
	now  func() time.Time
}

// NewHandler creates a reporting handler. Queries run on the tenant
// connection from the request context and fall back to pool.
func NewHandler(pool Querier) *Handler {
	return &Handler{pool: pool, now: time.Now}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole(auth.RoleLabManager, auth.RoleViewer))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	params := map[string]string{}
	args := make([]interface{}, len(measure.Parameters))
	for i, p := range measure.Parameters {
		v := c.QueryParam(p)
		if v == "" {
			continue
		}
		t, err := isodate.Parse(v)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: %v", p, err))
		}
		args[i] = t
		params[p] = v
	}

	ctx := c.Request().Context()
	results, err := Evaluate(ctx, h.querier(ctx), measure, args...)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: h.now().UTC(),
		Results:     results,
		Parameters:  params,
	})
}

func (h *Handler) querier(ctx context.Context) Querier {
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return h.pool
}

// Evaluate runs the measure and returns each row keyed by column name.
func Evaluate(ctx context.Context, q Querier, m *MeasureDefinition, args ...interface{}) ([]map[string]interface{}, error) {
	rows, err := q.Query(ctx, m.SQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	results := []map[string]interface{}{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
