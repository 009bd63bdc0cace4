// Package records maps spreadsheet rows onto typed records. The column
// positions declared here are the storage schema of every sheet: the Apps
// Script endpoint writes rows positionally and the gviz reads return them in
// the same order.
package records

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"tmtops/api/internal/sheets"
)

const (
	SheetLogin       = "Login"
	SheetPlanning    = "Planning"
	SheetProduction  = "Production"
	SheetComposition = "Composition"
	SheetMaterials   = "Materials"
	SheetWorkingDays = "Working Day Calender"
	SheetDelegation  = "DELEGATION"
	SheetChecklist   = "Checklist"
)

// TimestampLayout is how timestamps are written back to the sheets.
const TimestampLayout = "02/01/2006 15:04:05"

// DateLayout is the DD/MM/YYYY form used for plain dates.
const DateLayout = "02/01/2006"

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

// SchemaError reports a row that does not fit its sheet's column map.
type SchemaError struct {
	Sheet  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("records: %s.%s: %v", e.Sheet, e.Column, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "records: invalid or missing fields: " + strings.Join(e.Fields, ", ")
}

// DecodeAll decodes rows, skipping and logging rows that fail.
func DecodeAll[T any](sheet string, rows []sheets.Row, decode func(sheets.Row) (T, error)) []T {
	out := make([]T, 0, len(rows))
	for i, r := range rows {
		v, err := decode(r)
		if err != nil {
			slog.Debug("skipping row", "sheet", sheet, "row", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func text(r sheets.Row, i int) string {
	return strings.TrimSpace(r.String(i))
}

func display(r sheets.Row, i int) string {
	return strings.TrimSpace(r.Display(i))
}

func number(r sheets.Row, i int) float64 {
	f, _ := r.Float(i)
	return f
}

func timestamp(r sheets.Row, i int) time.Time {
	t, _ := r.Time(i)
	return t
}

// dateString renders a date cell as DD/MM/YYYY whatever form gviz used.
func dateString(r sheets.Row, i int) string {
	if t, ok := r.Time(i); ok {
		return t.Format(DateLayout)
	}
	return display(r, i)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(TimestampLayout)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func parseYesNo(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// NormalizeDate accepts any date form the sheets or the API clients use and
// returns DD/MM/YYYY.
func NormalizeDate(s string) (string, error) {
	t, err := sheets.ParseDate(s)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}
