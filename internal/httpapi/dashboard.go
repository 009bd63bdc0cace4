package httpapi

import (
	"log/slog"
	"net/http"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/export"
	"tmtops/api/internal/records"
	"tmtops/api/internal/rowfilter"
)

type stageCount struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
}

func (a *App) handleDashboard(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())

	planning, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetPlanning)
	if err != nil {
		writeUpstream(w, r, "could not read planning sheet", err)
		return
	}
	production, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetProduction)
	if err != nil {
		writeUpstream(w, r, "could not read production sheet", err)
		return
	}

	var plan, prod, kit stageCount
	plan.Pending, plan.Completed = rowfilter.Count(planning, u, records.PlanningFilter)
	// Production is pending while its planning row is.
	prod.Pending = plan.Pending
	prod.Completed = len(rowfilter.Filter(production, u, records.ProductionFilter, rowfilter.All))
	kit.Pending, kit.Completed = rowfilter.Count(production, u, records.KittingFilter)

	writeJSON(w, http.StatusOK, map[string]any{
		"planning":   plan,
		"production": prod,
		"kitting":    kit,
	})
}

func (a *App) handleExportPlanning(w http.ResponseWriter, r *http.Request) {
	view := rowfilter.All
	if q := r.URL.Query().Get("view"); q != "" {
		v, ok := rowfilter.ParseView(q)
		if !ok {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "view must be pending|history|all")
			return
		}
		view = v
	}
	u, _ := auth.FromContext(r.Context())
	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetPlanning)
	if err != nil {
		writeUpstream(w, r, "could not read planning sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.PlanningFilter, view)
	items := records.DecodeAll(records.SheetPlanning, rows, records.DecodePlanning)

	f, err := export.Planning(items)
	if err != nil {
		writeInternal(w, r, "could not build workbook", err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="planning.xlsx"`)
	if err := f.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "write workbook", "error", err)
	}
}

func (a *App) handleExportCompositions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetComposition)
	if err != nil {
		writeUpstream(w, r, "could not read composition sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.CompositionFilter, rowfilter.All)
	items := records.DecodeAll(records.SheetComposition, rows, records.DecodeComposition)

	f, err := export.Compositions(items)
	if err != nil {
		writeInternal(w, r, "could not build workbook", err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="compositions.xlsx"`)
	if err := f.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "write workbook", "error", err)
	}
}
