package records

import (
	"errors"
	"strings"
	"time"

	"tmtops/api/internal/rowfilter"
	"tmtops/api/internal/sheets"
)

// Planning sheet columns. Sizes occupy MaxSizes (size, qty) pairs from
// PlanningSizesStart.
const (
	PlanningTimestamp      = 0
	PlanningHeatNo         = 1
	PlanningPerson         = 2
	PlanningBrand          = 3
	PlanningSizesStart     = 4
	PlanningSupervisor     = 24
	PlanningProductionDate = 25
	PlanningRemarks        = 26
	PlanningPlanned        = 27
	PlanningActual         = 28
	planningWidth          = 29
)

const MaxSizes = 10

// PlanningFilter splits planning rows: planned set and actual empty is pending.
var PlanningFilter = rowfilter.Columns{Status: PlanningPlanned, Completion: PlanningActual, Owner: PlanningBrand}

type SizeQty struct {
	Size     string  `json:"size"`
	Quantity float64 `json:"quantity"`
}

type PlanningRecord struct {
	ID             string    `json:"id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	HeatNo         string    `json:"heatNo"`
	Person         string    `json:"person"`
	Brand          string    `json:"brand"`
	Sizes          []SizeQty `json:"sizes"`
	Supervisor     string    `json:"supervisor"`
	ProductionDate string    `json:"productionDate"`
	Remarks        string    `json:"remarks"`
	Status         string    `json:"status"`
	SyncedToSheet  bool      `json:"syncedToSheet"`
	Planned        string    `json:"planned,omitempty"`
	Actual         string    `json:"actual,omitempty"`
}

var errNoHeat = errors.New("heat number is empty")

func DecodePlanning(r sheets.Row) (PlanningRecord, error) {
	p := PlanningRecord{
		Timestamp:      timestamp(r, PlanningTimestamp),
		HeatNo:         text(r, PlanningHeatNo),
		Person:         text(r, PlanningPerson),
		Brand:          text(r, PlanningBrand),
		Supervisor:     text(r, PlanningSupervisor),
		ProductionDate: dateString(r, PlanningProductionDate),
		Remarks:        text(r, PlanningRemarks),
		Planned:        display(r, PlanningPlanned),
		Actual:         display(r, PlanningActual),
		SyncedToSheet:  true,
	}
	if p.HeatNo == "" {
		return PlanningRecord{}, &SchemaError{Sheet: SheetPlanning, Column: "heatNo", Err: errNoHeat}
	}
	for i := 0; i < MaxSizes; i++ {
		col := PlanningSizesStart + 2*i
		size := text(r, col)
		if size == "" {
			continue
		}
		p.Sizes = append(p.Sizes, SizeQty{Size: size, Quantity: number(r, col+1)})
	}
	p.Status = StatusPending
	if rowfilter.IsCompleted(r, PlanningFilter) {
		p.Status = StatusCompleted
	}
	return p, nil
}

// Normalize trims the free-text fields, drops blank size pairs and rewrites
// the production date as DD/MM/YYYY, then validates.
func (p *PlanningRecord) Normalize() error {
	p.HeatNo = strings.TrimSpace(p.HeatNo)
	p.Person = strings.TrimSpace(p.Person)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Supervisor = strings.TrimSpace(p.Supervisor)
	p.Remarks = strings.TrimSpace(p.Remarks)

	sizes := make([]SizeQty, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		s.Size = strings.TrimSpace(s.Size)
		if s.Size == "" && s.Quantity == 0 {
			continue
		}
		sizes = append(sizes, s)
	}
	p.Sizes = sizes

	var bad []string
	if p.HeatNo == "" {
		bad = append(bad, "heatNo")
	}
	if p.Brand == "" {
		bad = append(bad, "brand")
	}
	if len(p.Sizes) == 0 || len(p.Sizes) > MaxSizes {
		bad = append(bad, "sizes")
	} else {
		for _, s := range p.Sizes {
			if s.Size == "" || s.Quantity <= 0 {
				bad = append(bad, "sizes")
				break
			}
		}
	}
	if strings.TrimSpace(p.ProductionDate) == "" {
		bad = append(bad, "productionDate")
	} else if d, err := NormalizeDate(p.ProductionDate); err != nil {
		bad = append(bad, "productionDate")
	} else {
		p.ProductionDate = d
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	return nil
}

// Row lays the record out in Planning sheet order. The planned sentinel is
// the creation timestamp; actual stays blank until production is recorded.
func (p PlanningRecord) Row() []any {
	row := make([]any, planningWidth)
	for i := range row {
		row[i] = ""
	}
	row[PlanningTimestamp] = formatTime(p.Timestamp)
	row[PlanningHeatNo] = p.HeatNo
	row[PlanningPerson] = p.Person
	row[PlanningBrand] = p.Brand
	for i, s := range p.Sizes {
		if i >= MaxSizes {
			break
		}
		row[PlanningSizesStart+2*i] = s.Size
		row[PlanningSizesStart+2*i+1] = formatNumber(s.Quantity)
	}
	row[PlanningSupervisor] = p.Supervisor
	row[PlanningProductionDate] = p.ProductionDate
	row[PlanningRemarks] = p.Remarks
	planned := p.Planned
	if planned == "" {
		planned = formatTime(p.Timestamp)
	}
	row[PlanningPlanned] = planned
	row[PlanningActual] = p.Actual
	return row
}

func (p PlanningRecord) TotalQuantity() float64 {
	var n float64
	for _, s := range p.Sizes {
		n += s.Quantity
	}
	return n
}
