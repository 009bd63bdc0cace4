package records

import (
	"fmt"
	"time"

	"tmtops/api/internal/costing"
	"tmtops/api/internal/rowfilter"
	"tmtops/api/internal/sheets"
)

// Composition sheet columns. Materials occupy costing.MaxRows (material,
// percent) pairs from CompositionMaterialsStart.
const (
	CompositionTimestamp      = 0
	CompositionNumber         = 1
	CompositionHeatNo         = 2
	CompositionProductName    = 3
	CompositionBrand          = 4
	CompositionPercentTotal   = 5
	CompositionYield2Total    = 6
	CompositionFem2Total      = 7
	CompositionPrice2Total    = 8
	CompositionManufacturing  = 9
	CompositionInterestDays   = 10
	CompositionInterestAmount = 11
	CompositionTransporting   = 12
	CompositionTotalPrice     = 13
	CompositionSellingPrice   = 14
	CompositionVariableCost   = 15
	CompositionGPPercentage   = 16
	CompositionMaterialsStart = 17
	compositionWidth          = CompositionMaterialsStart + 2*costing.MaxRows
)

// CompositionFilter only scopes by brand; compositions have no pending state.
var CompositionFilter = rowfilter.Columns{Status: CompositionNumber, Completion: CompositionNumber, Owner: CompositionBrand}

type MaterialShare struct {
	Material string `json:"material"`
	Percent  string `json:"percent"`
}

type CompositionRecord struct {
	Timestamp   time.Time          `json:"timestamp"`
	Number      string             `json:"compositionNumber"`
	HeatNo      string             `json:"heatNo"`
	ProductName string             `json:"productName"`
	Brand       string             `json:"brand"`
	Totals      costing.TotalsView `json:"totals"`
	Materials   []MaterialShare    `json:"materials"`
}

func NewComposition(number, heatNo, productName, brand string, t costing.Totals, now time.Time) CompositionRecord {
	view := t.View()
	view.Rows = nil
	c := CompositionRecord{
		Timestamp:   now,
		Number:      number,
		HeatNo:      heatNo,
		ProductName: productName,
		Brand:       brand,
		Totals:      view,
	}
	for _, r := range t.Rows {
		c.Materials = append(c.Materials, MaterialShare{Material: r.Particulars, Percent: r.Percent.String()})
	}
	return c
}

func DecodeComposition(r sheets.Row) (CompositionRecord, error) {
	c := CompositionRecord{
		Timestamp:   timestamp(r, CompositionTimestamp),
		Number:      text(r, CompositionNumber),
		HeatNo:      text(r, CompositionHeatNo),
		ProductName: text(r, CompositionProductName),
		Brand:       text(r, CompositionBrand),
		Totals: costing.TotalsView{
			PercentTotal:      text(r, CompositionPercentTotal),
			Yield2Total:       text(r, CompositionYield2Total),
			Fem2Total:         text(r, CompositionFem2Total),
			Price2Total:       text(r, CompositionPrice2Total),
			ManufacturingCost: text(r, CompositionManufacturing),
			InterestDays:      text(r, CompositionInterestDays),
			InterestAmount:    text(r, CompositionInterestAmount),
			Transporting:      text(r, CompositionTransporting),
			TotalPrice:        text(r, CompositionTotalPrice),
			SellingPrice:      text(r, CompositionSellingPrice),
			VariableCost:      text(r, CompositionVariableCost),
			GPPercentage:      text(r, CompositionGPPercentage),
		},
	}
	if !costing.IsNumber(c.Number) {
		return CompositionRecord{}, &SchemaError{Sheet: SheetComposition, Column: "compositionNumber", Err: fmt.Errorf("%q is not CN-NNN", c.Number)}
	}
	for i := 0; i < costing.MaxRows; i++ {
		col := CompositionMaterialsStart + 2*i
		m := text(r, col)
		if m == "" {
			continue
		}
		c.Materials = append(c.Materials, MaterialShare{Material: m, Percent: text(r, col+1)})
	}
	return c, nil
}

func (c CompositionRecord) Row() []any {
	row := make([]any, compositionWidth)
	for i := range row {
		row[i] = ""
	}
	row[CompositionTimestamp] = formatTime(c.Timestamp)
	row[CompositionNumber] = c.Number
	row[CompositionHeatNo] = c.HeatNo
	row[CompositionProductName] = c.ProductName
	row[CompositionBrand] = c.Brand
	row[CompositionPercentTotal] = c.Totals.PercentTotal
	row[CompositionYield2Total] = c.Totals.Yield2Total
	row[CompositionFem2Total] = c.Totals.Fem2Total
	row[CompositionPrice2Total] = c.Totals.Price2Total
	row[CompositionManufacturing] = c.Totals.ManufacturingCost
	row[CompositionInterestDays] = c.Totals.InterestDays
	row[CompositionInterestAmount] = c.Totals.InterestAmount
	row[CompositionTransporting] = c.Totals.Transporting
	row[CompositionTotalPrice] = c.Totals.TotalPrice
	row[CompositionSellingPrice] = c.Totals.SellingPrice
	row[CompositionVariableCost] = c.Totals.VariableCost
	row[CompositionGPPercentage] = c.Totals.GPPercentage
	for i, m := range c.Materials {
		if i >= costing.MaxRows {
			break
		}
		row[CompositionMaterialsStart+2*i] = m.Material
		row[CompositionMaterialsStart+2*i+1] = m.Percent
	}
	return row
}

// CompositionNumbers lists the number column of every row;
// costing.NextNumber ignores anything that is not CN-NNN.
func CompositionNumbers(rows []sheets.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, text(r, CompositionNumber))
	}
	return out
}
