// Package tasks expands a delegated task into its due dates, placing every
// occurrence on a working day from the calendar sheet.
package tasks

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is DD/MM/YYYY, the format the destination sheets store.
const DateLayout = "02/01/2006"

const (
	DefaultHorizonYears = 2
	maxAttempts         = 100
)

var ErrEmptyCalendar = errors.New("tasks: working-day calendar is empty")

type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "tasks: missing required fields: " + strings.Join(e.Missing, ", ")
}

// Calendar is the set of working days keyed by DD/MM/YYYY.
type Calendar map[string]struct{}

func NewCalendar(days ...time.Time) Calendar {
	c := make(Calendar, len(days))
	for _, d := range days {
		c[d.Format(DateLayout)] = struct{}{}
	}
	return c
}

func (c Calendar) Has(t time.Time) bool {
	_, ok := c[t.Format(DateLayout)]
	return ok
}

type Request struct {
	Start     time.Time
	Frequency Frequency
	Doer      string
	Title     string
}

type Options struct {
	HorizonYears   int
	StrictCalendar bool
}

type Occurrence struct {
	Due time.Time
}

func (o Occurrence) DueDate() string {
	return o.Due.Format(DateLayout)
}

func (o Occurrence) MarshalText() ([]byte, error) {
	return []byte(o.DueDate()), nil
}

func Validate(req Request) error {
	var missing []string
	if req.Start.IsZero() {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(req.Doer) == "" {
		missing = append(missing, "doer")
	}
	if strings.TrimSpace(req.Title) == "" {
		missing = append(missing, "title")
	}
	if req.Frequency == "" {
		missing = append(missing, "frequency")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Generate steps from req.Start by the frequency until the horizon and moves
// each stop forward to the first working day not already taken in this run.
// Stops with no free working day within 100 days are dropped. An empty
// calendar uses the stepped dates as they are unless opts.StrictCalendar.
func Generate(req Request, cal Calendar, opts Options) ([]Occurrence, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	if len(cal) == 0 && opts.StrictCalendar {
		return nil, ErrEmptyCalendar
	}
	years := opts.HorizonYears
	if years <= 0 {
		years = DefaultHorizonYears
	}

	start := dateOnly(req.Start)
	used := make(map[string]bool)
	place := func(stop time.Time) (time.Time, bool) {
		if len(cal) == 0 {
			return stop, true
		}
		d := stop
		for i := 0; i < maxAttempts; i++ {
			key := d.Format(DateLayout)
			if _, ok := cal[key]; ok && !used[key] {
				used[key] = true
				return d, true
			}
			d = d.AddDate(0, 0, 1)
		}
		return time.Time{}, false
	}

	if !req.Frequency.Recurring() {
		if d, ok := place(start); ok {
			return []Occurrence{{Due: d}}, nil
		}
		return nil, nil
	}

	end := start.AddDate(years, 0, 0)
	var out []Occurrence
	for cur := start; !cur.After(end); cur = req.Frequency.next(cur) {
		if d, ok := place(cur); ok {
			out = append(out, Occurrence{Due: d})
		}
	}
	return out, nil
}

// NextTaskID is max(existing)+1, or 1 for an empty sheet.
func NextTaskID(existing []int) int {
	hi := 0
	for _, id := range existing {
		if id > hi {
			hi = id
		}
	}
	return hi + 1
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
