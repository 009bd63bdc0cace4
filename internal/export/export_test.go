package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tmtops/api/internal/costing"
	"tmtops/api/internal/records"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })
	return out
}

func TestPlanningWorkbook(t *testing.T) {
	f, err := Planning([]records.PlanningRecord{{
		Timestamp:      time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		HeatNo:         "H-101",
		Brand:          "JSW",
		Sizes:          []records.SizeQty{{Size: "8mm", Quantity: 12}, {Size: "10mm", Quantity: 4}},
		ProductionDate: "03/06/2024",
		Status:         records.StatusCompleted,
	}})
	require.NoError(t, err)

	wb := reopen(t, f)
	rows, err := wb.GetRows("Planning")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Heat No", rows[0][1])
	assert.Equal(t, "01/06/2024 09:30:00", rows[1][0])
	assert.Equal(t, "8mm:12, 10mm:4", rows[1][4])
	assert.Equal(t, "16", rows[1][5])
	assert.Equal(t, "completed", rows[1][11])
}

func TestCompositionWorkbook(t *testing.T) {
	c := records.CompositionRecord{
		Number:    "CN-002",
		HeatNo:    "H-7",
		Materials: []records.MaterialShare{{Material: "Scrap", Percent: "100"}},
		Totals:    costing.TotalsView{SellingPrice: "2229.59", GPPercentage: "n/a"},
	}
	f, err := Compositions([]records.CompositionRecord{c})
	require.NoError(t, err)

	wb := reopen(t, f)
	rows, err := wb.GetRows("Composition")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CN-002", rows[1][1])
	assert.Equal(t, "Scrap 100%", rows[1][5])
	assert.Equal(t, "2229.59", rows[1][15])
	assert.Equal(t, "n/a", rows[1][17])
}
