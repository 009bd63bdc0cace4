package records

import (
	"errors"
	"math"
	"strings"
	"time"

	"tmtops/api/internal/rowfilter"
	"tmtops/api/internal/sheets"
)

// Production sheet columns.
const (
	ProductionTimestamp   = 0
	ProductionHeatNo      = 1
	ProductionJobCard     = 2
	ProductionStartTime   = 3
	ProductionEndTime     = 4
	ProductionPieces      = 5
	ProductionBrand       = 6
	ProductionSize        = 7
	ProductionHours       = 8
	ProductionBreakdown   = 9
	ProductionGap         = 10
	ProductionRemarks     = 11
	ProductionStatus      = 12
	ProductionKittingDone = 13
	productionWidth       = 14
)

// KittingFilter: a production row is waiting for full kitting until the
// kitting-done column is stamped.
var KittingFilter = rowfilter.Columns{Status: ProductionTimestamp, Completion: ProductionKittingDone, Owner: ProductionBrand}

// ProductionFilter scopes the production history by brand.
var ProductionFilter = rowfilter.Columns{Status: ProductionTimestamp, Completion: ProductionStatus, Owner: ProductionBrand}

type ProductionRecord struct {
	ID            string    `json:"id,omitempty"`
	PlanningID    string    `json:"planningId,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	HeatNo        string    `json:"heatNo"`
	JobCard       string    `json:"jobCard"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Pieces        int       `json:"pieces"`
	Brand         string    `json:"brand"`
	Size          string    `json:"size"`
	Hours         float64   `json:"hours"`
	BreakdownTime string    `json:"breakdownTime"`
	Gap           string    `json:"gap"`
	Remarks       string    `json:"remarks"`
	Status        string    `json:"status"`
	KittingDone   string    `json:"kittingDone,omitempty"`
	SyncedToSheet bool      `json:"syncedToSheet"`
}

func DecodeProduction(r sheets.Row) (ProductionRecord, error) {
	p := ProductionRecord{
		Timestamp:     timestamp(r, ProductionTimestamp),
		HeatNo:        text(r, ProductionHeatNo),
		JobCard:       text(r, ProductionJobCard),
		StartTime:     display(r, ProductionStartTime),
		EndTime:       display(r, ProductionEndTime),
		Pieces:        int(number(r, ProductionPieces)),
		Brand:         text(r, ProductionBrand),
		Size:          text(r, ProductionSize),
		Hours:         number(r, ProductionHours),
		BreakdownTime: display(r, ProductionBreakdown),
		Gap:           display(r, ProductionGap),
		Remarks:       text(r, ProductionRemarks),
		Status:        text(r, ProductionStatus),
		KittingDone:   display(r, ProductionKittingDone),
		SyncedToSheet: true,
	}
	if p.HeatNo == "" {
		return ProductionRecord{}, &SchemaError{Sheet: SheetProduction, Column: "heatNo", Err: errNoHeat}
	}
	if _, ok := r.Float(ProductionPieces); !ok {
		return ProductionRecord{}, &SchemaError{Sheet: SheetProduction, Column: "pieces", Err: errors.New("not a number")}
	}
	return p, nil
}

func (p *ProductionRecord) Normalize() error {
	p.HeatNo = strings.TrimSpace(p.HeatNo)
	p.JobCard = strings.TrimSpace(p.JobCard)
	p.StartTime = strings.TrimSpace(p.StartTime)
	p.EndTime = strings.TrimSpace(p.EndTime)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Size = strings.TrimSpace(p.Size)
	p.Remarks = strings.TrimSpace(p.Remarks)

	var bad []string
	if p.HeatNo == "" && p.PlanningID == "" {
		bad = append(bad, "heatNo")
	}
	if p.JobCard == "" {
		bad = append(bad, "jobCard")
	}
	if _, err := time.Parse(clockLayout, p.StartTime); err != nil {
		bad = append(bad, "startTime")
	}
	if _, err := time.Parse(clockLayout, p.EndTime); err != nil {
		bad = append(bad, "endTime")
	}
	if p.Pieces <= 0 {
		bad = append(bad, "pieces")
	}
	if p.Hours < 0 {
		bad = append(bad, "hours")
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	if p.Hours == 0 {
		p.Hours, _ = ShiftHours(p.StartTime, p.EndTime)
	}
	if p.Status == "" {
		p.Status = StatusCompleted
	}
	return nil
}

const clockLayout = "15:04"

// ShiftHours is the length of an HH:MM range in hours, two decimals. An end
// before the start runs past midnight.
func ShiftHours(start, end string) (float64, bool) {
	s, err := time.Parse(clockLayout, strings.TrimSpace(start))
	if err != nil {
		return 0, false
	}
	e, err := time.Parse(clockLayout, strings.TrimSpace(end))
	if err != nil {
		return 0, false
	}
	if e.Before(s) {
		e = e.Add(24 * time.Hour)
	}
	return math.Round(e.Sub(s).Hours()*100) / 100, true
}

func (p ProductionRecord) Row() []any {
	row := make([]any, productionWidth)
	for i := range row {
		row[i] = ""
	}
	row[ProductionTimestamp] = formatTime(p.Timestamp)
	row[ProductionHeatNo] = p.HeatNo
	row[ProductionJobCard] = p.JobCard
	row[ProductionStartTime] = p.StartTime
	row[ProductionEndTime] = p.EndTime
	row[ProductionPieces] = p.Pieces
	row[ProductionBrand] = p.Brand
	row[ProductionSize] = p.Size
	row[ProductionHours] = formatNumber(p.Hours)
	row[ProductionBreakdown] = p.BreakdownTime
	row[ProductionGap] = p.Gap
	row[ProductionRemarks] = p.Remarks
	row[ProductionStatus] = p.Status
	row[ProductionKittingDone] = p.KittingDone
	return row
}
