package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/records"
	"tmtops/api/internal/rowfilter"
	"tmtops/api/internal/sheets"
)

// firstDataRow is the sheet row number of gviz row 0; row 1 is the header.
const firstDataRow = 2

func (a *App) readRows(ctx context.Context, sheetID, sheet string) ([]sheets.Row, error) {
	tbl, err := a.sheets.FetchTable(ctx, sheetID, sheet)
	if err != nil {
		return nil, err
	}
	return tbl.Rows, nil
}

// findOpenRow returns the index of the last row whose key column matches
// value and whose sentinel column is still empty.
func findOpenRow(rows []sheets.Row, keyCol, sentinelCol int, value string) (int, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if strings.EqualFold(strings.TrimSpace(rows[i].String(keyCol)), value) && rowfilter.IsEmpty(rows[i], sentinelCol) {
			return i, true
		}
	}
	return 0, false
}

// stampOpenRow stamps the current time into the sentinel column of the open
// row for value. The write is fire-and-forget; failures are only logged.
func (a *App) stampOpenRow(ctx context.Context, sheet string, keyCol, sentinelCol int, value string) {
	rows, err := a.readRows(ctx, a.cfg.SheetID, sheet)
	if err != nil {
		slog.WarnContext(ctx, "stamp: read sheet", "sheet", sheet, "error", err)
		return
	}
	i, ok := findOpenRow(rows, keyCol, sentinelCol, value)
	if !ok {
		slog.WarnContext(ctx, "stamp: no open row", "sheet", sheet, "key", value)
		return
	}
	err = a.script.Fire(ctx, sheets.Request{
		Action:    sheets.ActionUpdateTimestamp,
		SheetName: sheet,
		Fields: map[string]string{
			"rowIndex":    strconv.Itoa(i + firstDataRow),
			"columnIndex": strconv.Itoa(sentinelCol + 1),
			"timestamp":   a.now().Format(records.TimestampLayout),
		},
	})
	if err != nil {
		slog.WarnContext(ctx, "stamp: fire", "sheet", sheet, "error", err)
	}
}

func (a *App) insertRow(ctx context.Context, w sheets.Writer, sheet string, row []any) error {
	_, err := w.Submit(ctx, sheets.Request{
		Action:    sheets.ActionInsert,
		SheetName: sheet,
		RowData:   row,
	})
	return err
}

// brandScope is the brand a user's local lists are limited to; admins get
// every brand.
func brandScope(u auth.User) string {
	if u.IsAdmin() {
		return ""
	}
	return u.Username
}

// writeBrand resolves the brand a write is recorded under. Admins may write
// for any brand; other users only for their own, which is also the default.
func writeBrand(u auth.User, brand string) (string, bool) {
	brand = strings.TrimSpace(brand)
	if u.IsAdmin() {
		return brand, true
	}
	if brand == "" {
		return u.Username, true
	}
	return brand, strings.EqualFold(brand, u.Username)
}

func writeForbiddenBrand(w http.ResponseWriter) {
	writeAPIError(w, http.StatusForbidden, "FORBIDDEN", "cannot write records for another brand")
}

func newestFirst[T any](items []T, ts func(T) time.Time) {
	slices.SortStableFunc(items, func(x, y T) int {
		return ts(y).Compare(ts(x))
	})
}
