package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWorkbook(t *testing.T) {
	data, err := Workbook(
		Sheet{
			Name:    "Summary",
			Headers: []string{"Metric", "Value"},
			Rows: [][]interface{}{
				{"QC pass rate", 67},
				{"Operational rate", 83},
			},
			Widths: []float64{30, 12},
		},
		Sheet{
			Name:    "Equipment",
			Headers: []string{"Name", "Maintenance"},
			Rows:    [][]interface{}{{"Cobas", "overdue"}},
		},
	)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Equipment"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Metric", v)

	v, err = f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "67", v)

	v, err = f.GetCellValue("Equipment", "B2")
	require.NoError(t, err)
	assert.Equal(t, "overdue", v)

	w, err := f.GetColWidth("Summary", "A")
	require.NoError(t, err)
	assert.Equal(t, 30.0, w)
}

func TestWorkbook_NoSheets(t *testing.T) {
	_, err := Workbook()
	assert.Error(t, err)
}
