// Package rowfilter applies the list-screen convention shared by every sheet:
// two sentinel columns split pending from completed rows, and non-admin
// users only see rows whose owner column names them.
package rowfilter

import (
	"strings"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/sheets"
)

type View string

const (
	Pending   View = "pending"
	Completed View = "completed"
	All       View = "all"
)

// ParseView accepts the query values used by the list screens. "history" is
// an alias for completed; empty means pending.
func ParseView(s string) (View, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pending":
		return Pending, true
	case "completed", "history":
		return Completed, true
	case "all":
		return All, true
	}
	return "", false
}

// Columns holds the zero-based sentinel positions for one sheet. A negative
// Owner disables ownership scoping for that sheet.
type Columns struct {
	Status     int
	Completion int
	Owner      int
}

func IsEmpty(r sheets.Row, col int) bool {
	return strings.TrimSpace(r.String(col)) == ""
}

func IsPending(r sheets.Row, cols Columns) bool {
	return !IsEmpty(r, cols.Status) && IsEmpty(r, cols.Completion)
}

func IsCompleted(r sheets.Row, cols Columns) bool {
	return !IsEmpty(r, cols.Status) && !IsEmpty(r, cols.Completion)
}

// Visible reports whether u may see r. Admins, full or limited, see every
// row; everyone else needs a case-insensitive owner match on username.
func Visible(u auth.User, r sheets.Row, ownerCol int) bool {
	if u.IsAdmin() || ownerCol < 0 {
		return true
	}
	return strings.EqualFold(r.String(ownerCol), u.Username)
}

func Filter(rows []sheets.Row, u auth.User, cols Columns, v View) []sheets.Row {
	out := make([]sheets.Row, 0, len(rows))
	for _, r := range rows {
		switch v {
		case Pending:
			if !IsPending(r, cols) {
				continue
			}
		case Completed:
			if !IsCompleted(r, cols) {
				continue
			}
		}
		if !Visible(u, r, cols.Owner) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Count splits rows visible to u into pending and completed totals.
func Count(rows []sheets.Row, u auth.User, cols Columns) (pending, completed int) {
	for _, r := range rows {
		if !Visible(u, r, cols.Owner) {
			continue
		}
		switch {
		case IsPending(r, cols):
			pending++
		case IsCompleted(r, cols):
			completed++
		}
	}
	return pending, completed
}
