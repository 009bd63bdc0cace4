// Package export renders planning history and compositions as xlsx workbooks.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"tmtops/api/internal/costing"
	"tmtops/api/internal/records"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var planningHeaders = []string{
	"Timestamp", "Heat No", "Person", "Brand", "Sizes", "Total Qty",
	"Supervisor", "Production Date", "Remarks", "Planned", "Actual", "Status",
}

var compositionHeaders = []string{
	"Timestamp", "Composition No", "Heat No", "Product", "Brand", "Materials",
	"% Total", "Yield Total", "Fem Total", "Material Cost", "Manufacturing",
	"Interest Days", "Interest", "Transport", "Total Price", "Selling Price",
	"Variable Cost", "GP %",
}

func newWorkbook(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			f.Close()
			return nil, err
		}
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	_ = f.SetColWidth(sheet, "A", last, 16)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

// Planning writes one row per planning record. Sizes are flattened to
// "8mm:12, 10mm:4".
func Planning(ps []records.PlanningRecord) (*excelize.File, error) {
	const sheet = "Planning"
	f, err := newWorkbook(sheet, planningHeaders)
	if err != nil {
		return nil, err
	}
	for i, p := range ps {
		sizes := make([]string, len(p.Sizes))
		for j, s := range p.Sizes {
			sizes[j] = fmt.Sprintf("%s:%g", s.Size, s.Quantity)
		}
		ts := ""
		if !p.Timestamp.IsZero() {
			ts = p.Timestamp.Format(records.TimestampLayout)
		}
		if err := writeRow(f, sheet, i+2, []any{
			ts, p.HeatNo, p.Person, p.Brand, strings.Join(sizes, ", "), p.TotalQuantity(),
			p.Supervisor, p.ProductionDate, p.Remarks, p.Planned, p.Actual, p.Status,
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("planning row %d: %w", i+2, err)
		}
	}
	return f, nil
}

// Compositions writes one row per composition with the totals as numbers
// where they parse.
func Compositions(cs []records.CompositionRecord) (*excelize.File, error) {
	const sheet = "Composition"
	f, err := newWorkbook(sheet, compositionHeaders)
	if err != nil {
		return nil, err
	}
	for i, c := range cs {
		mats := make([]string, len(c.Materials))
		for j, m := range c.Materials {
			mats[j] = m.Material + " " + m.Percent + "%"
		}
		ts := ""
		if !c.Timestamp.IsZero() {
			ts = c.Timestamp.Format(records.TimestampLayout)
		}
		t := c.Totals
		row := []any{ts, c.Number, c.HeatNo, c.ProductName, c.Brand, strings.Join(mats, ", ")}
		for _, v := range []string{
			t.PercentTotal, t.Yield2Total, t.Fem2Total, t.Price2Total, t.ManufacturingCost,
			t.InterestDays, t.InterestAmount, t.Transporting, t.TotalPrice, t.SellingPrice,
			t.VariableCost, t.GPPercentage,
		} {
			row = append(row, amount(v))
		}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			f.Close()
			return nil, fmt.Errorf("composition row %d: %w", i+2, err)
		}
	}
	return f, nil
}

func amount(s string) any {
	d, err := costing.ParseAmount(s)
	if err != nil {
		return s
	}
	f, _ := d.Float64()
	return f
}
