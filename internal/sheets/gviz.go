// Package sheets reads Google Sheets through the public gviz endpoint and
// writes through the Apps Script web app that fronts the same spreadsheet.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

var ErrMalformedResponse = errors.New("sheets: malformed gviz response")

// Reader fetches a whole sheet as a table.
type Reader interface {
	FetchTable(ctx context.Context, sheetID, sheet string) (*Table, error)
}

type Cell struct {
	V any    `json:"v"`
	F string `json:"f,omitempty"`
}

type Row struct {
	C []*Cell `json:"c"`
}

type Column struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type Table struct {
	Cols []Column `json:"cols"`
	Rows []Row    `json:"rows"`
}

// NewRow builds a row from plain values; nil values become null cells.
func NewRow(values ...any) Row {
	r := Row{C: make([]*Cell, len(values))}
	for i, v := range values {
		if v != nil {
			r.C[i] = &Cell{V: v}
		}
	}
	return r
}

// Cell returns the cell at i, or nil when the column is missing or null.
func (r Row) Cell(i int) *Cell {
	if i < 0 || i >= len(r.C) {
		return nil
	}
	return r.C[i]
}

// String renders the raw cell value. Whole numbers print without a fraction.
func (r Row) String(i int) string {
	c := r.Cell(i)
	if c == nil || c.V == nil {
		return ""
	}
	switch v := c.V.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// Display prefers the formatted value gviz sends alongside dates and numbers.
func (r Row) Display(i int) string {
	if c := r.Cell(i); c != nil && c.F != "" {
		return c.F
	}
	return r.String(i)
}

func (r Row) Float(i int) (float64, bool) {
	c := r.Cell(i)
	if c == nil || c.V == nil {
		return 0, false
	}
	switch v := c.V.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%")), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (r Row) Time(i int) (time.Time, bool) {
	s := strings.TrimSpace(r.String(i))
	if s == "" {
		return time.Time{}, false
	}
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseGviz extracts the table from a gviz response. The payload arrives
// wrapped in a JS callback, so the JSON object is cut out between the first
// '{' and the last '}'.
func ParseGviz(body []byte) (*Table, error) {
	start := bytes.IndexByte(body, '{')
	end := bytes.LastIndexByte(body, '}')
	if start < 0 || end <= start {
		return nil, ErrMalformedResponse
	}

	var payload struct {
		Status string `json:"status"`
		Errors []struct {
			Reason          string `json:"reason"`
			Message         string `json:"message"`
			DetailedMessage string `json:"detailed_message"`
		} `json:"errors"`
		Table *Table `json:"table"`
	}
	if err := json.Unmarshal(body[start:end+1], &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.Status == "error" {
		msg := "unknown error"
		if len(payload.Errors) > 0 {
			msg = payload.Errors[0].Message
			if payload.Errors[0].DetailedMessage != "" {
				msg = payload.Errors[0].DetailedMessage
			}
		}
		return nil, fmt.Errorf("sheets: gviz error: %s", msg)
	}
	if payload.Table == nil {
		return &Table{}, nil
	}
	return payload.Table, nil
}

var dateLiteral = regexp.MustCompile(`^Date\((\d+),(\d+),(\d+)(?:,(\d+),(\d+),(\d+))?\)$`)

var dateLayouts = []struct {
	layout  string
	instant bool
}{
	{time.RFC3339, true},
	{"2006-01-02T15:04:05.000Z", true},
	{"2006-01-02", false},
	{"02/01/2006 15:04:05", false},
	{"02/01/2006", false},
	{"2/1/2006", false},
}

// SheetLocation is the time zone the spreadsheet is kept in. ISO instants are
// moved into it before their calendar date is read.
var SheetLocation = time.Local

// ParseDate parses s in SheetLocation. See ParseDateIn.
func ParseDate(s string) (time.Time, error) {
	return ParseDateIn(s, SheetLocation)
}

// ParseDateIn understands the gviz Date(Y,M,D[,h,m,s]) literal with a
// zero-indexed month, ISO strings and DD/MM/YYYY. The result carries the
// sheet's wall clock in UTC, so an ISO instant is first converted to loc.
func ParseDateIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if m := dateLiteral.FindStringSubmatch(s); m != nil {
		n := make([]int, 6)
		for i := 1; i < len(m); i++ {
			if m[i] == "" {
				continue
			}
			v, err := strconv.Atoi(m[i])
			if err != nil {
				return time.Time{}, fmt.Errorf("sheets: bad date literal %q", s)
			}
			n[i-1] = v
		}
		return time.Date(n[0], time.Month(n[1]+1), n[2], n[3], n[4], n[5], 0, time.UTC), nil
	}
	for _, l := range dateLayouts {
		t, err := time.Parse(l.layout, s)
		if err != nil {
			continue
		}
		if l.instant && loc != nil {
			t = t.In(loc)
			t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("sheets: unrecognized date %q", s)
}

// Client reads sheets over the gviz endpoint.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{HTTP: hc, BaseURL: DefaultBaseURL}
}

func (c *Client) FetchTable(ctx context.Context, sheetID, sheet string) (*Table, error) {
	if strings.TrimSpace(sheetID) == "" {
		return nil, errors.New("sheets: spreadsheet id not configured")
	}
	// headers=1 pins row 1 as the header, so Rows[0] is always sheet row 2.
	u := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json&headers=1&sheet=%s",
		strings.TrimRight(c.BaseURL, "/"), url.PathEscape(sheetID), url.QueryEscape(sheet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets: fetch %s: %w", sheet, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sheets: read %s: %w", sheet, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets: fetch %s: status %d", sheet, resp.StatusCode)
	}
	t, err := ParseGviz(body)
	if err != nil {
		return nil, fmt.Errorf("sheets: parse %s: %w", sheet, err)
	}
	return t, nil
}
