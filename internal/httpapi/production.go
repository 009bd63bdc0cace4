package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/db"
	"tmtops/api/internal/records"
	"tmtops/api/internal/rowfilter"
)

type productionBody struct {
	PlanningID    string  `json:"planningId"`
	HeatNo        string  `json:"heatNo"`
	JobCard       string  `json:"jobCard"`
	StartTime     string  `json:"startTime"`
	EndTime       string  `json:"endTime"`
	Pieces        int     `json:"pieces"`
	Brand         string  `json:"brand"`
	Size          string  `json:"size"`
	Hours         float64 `json:"hours"`
	BreakdownTime string  `json:"breakdownTime"`
	Gap           string  `json:"gap"`
	Remarks       string  `json:"remarks"`
}

// handleListProduction serves the production screen: pending is the planning
// backlog still waiting for a run, history the recorded runs.
func (a *App) handleListProduction(w http.ResponseWriter, r *http.Request) {
	view, ok := rowfilter.ParseView(r.URL.Query().Get("view"))
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "view must be pending|history|all")
		return
	}
	u, _ := auth.FromContext(r.Context())

	if view == rowfilter.Pending {
		rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetPlanning)
		if err != nil {
			writeUpstream(w, r, "could not read planning sheet", err)
			return
		}
		rows = rowfilter.Filter(rows, u, records.PlanningFilter, rowfilter.Pending)
		items := records.DecodeAll(records.SheetPlanning, rows, records.DecodePlanning)
		writeJSON(w, http.StatusOK, map[string]any{"view": view, "items": items})
		return
	}

	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetProduction)
	if err != nil {
		writeUpstream(w, r, "could not read production sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.ProductionFilter, view)
	items := records.DecodeAll(records.SheetProduction, rows, records.DecodeProduction)
	newestFirst(items, func(p records.ProductionRecord) time.Time { return p.Timestamp })
	writeJSON(w, http.StatusOK, map[string]any{"view": view, "items": items})
}

// handleCreateProduction records a run, completes the planning record it
// came from and stamps the planning row's actual column.
func (a *App) handleCreateProduction(w http.ResponseWriter, r *http.Request) {
	var body productionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	u, _ := auth.FromContext(r.Context())
	p := records.ProductionRecord{
		PlanningID:    body.PlanningID,
		Timestamp:     a.now(),
		HeatNo:        body.HeatNo,
		JobCard:       body.JobCard,
		StartTime:     body.StartTime,
		EndTime:       body.EndTime,
		Pieces:        body.Pieces,
		Brand:         body.Brand,
		Size:          body.Size,
		Hours:         body.Hours,
		BreakdownTime: body.BreakdownTime,
		Gap:           body.Gap,
		Remarks:       body.Remarks,
	}
	if p.PlanningID != "" {
		plan, err := a.store.GetPlanning(r.Context(), p.PlanningID)
		if errors.Is(err, db.ErrNotFound) {
			writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "planning record not found")
			return
		}
		if err != nil {
			writeInternal(w, r, "could not load planning record", err)
			return
		}
		if _, ok := writeBrand(u, plan.Brand); !ok {
			writeForbiddenBrand(w)
			return
		}
		if plan.Status == records.StatusCompleted {
			writeAPIError(w, http.StatusConflict, "CONFLICT", "planning record already completed")
			return
		}
		if p.HeatNo == "" {
			p.HeatNo = plan.HeatNo
		}
		if p.Brand == "" {
			p.Brand = plan.Brand
		}
	}
	brand, ok := writeBrand(u, p.Brand)
	if !ok {
		writeForbiddenBrand(w)
		return
	}
	p.Brand = brand
	if err := p.Normalize(); err != nil {
		if !writeInvalid(w, err) {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		}
		return
	}

	err := a.store.CreateProduction(r.Context(), &p)
	switch {
	case errors.Is(err, db.ErrNotFound):
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "planning record not found")
		return
	case errors.Is(err, db.ErrAlreadyCompleted):
		writeAPIError(w, http.StatusConflict, "CONFLICT", "planning record already completed")
		return
	case err != nil:
		writeInternal(w, r, "could not save production record", err)
		return
	}

	if err := a.syncProduction(r.Context(), &p); err != nil {
		writeUpstream(w, r, "production saved locally but the sheet write failed", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"record": p})
}

// syncProduction writes a locally stored run to the Production sheet, marks
// it synced and stamps the planning row's actual column.
func (a *App) syncProduction(ctx context.Context, p *records.ProductionRecord) error {
	if err := a.insertRow(ctx, a.script, records.SheetProduction, p.Row()); err != nil {
		return err
	}
	if err := a.store.MarkProductionSynced(ctx, p.ID); err != nil {
		return fmt.Errorf("mark production synced: %w", err)
	}
	p.SyncedToSheet = true
	a.stampOpenRow(ctx, records.SheetPlanning, records.PlanningHeatNo, records.PlanningActual, p.HeatNo)
	return nil
}

func (a *App) handleListLocalProduction(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	items, err := a.store.ListProduction(r.Context(), brandScope(u))
	if err != nil {
		writeInternal(w, r, "could not list production records", err)
		return
	}
	unsynced := 0
	for _, p := range items {
		if !p.SyncedToSheet {
			unsynced++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "unsynced": unsynced})
}

// handleSyncProduction retries the sheet write of a run that was saved
// locally but never reached the sheet.
func (a *App) handleSyncProduction(w http.ResponseWriter, r *http.Request) {
	p, err := a.store.GetProduction(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "production record not found")
		return
	}
	if err != nil {
		writeInternal(w, r, "could not load production record", err)
		return
	}
	if p.SyncedToSheet {
		writeJSON(w, http.StatusOK, map[string]any{"record": p, "alreadySynced": true})
		return
	}
	if err := a.syncProduction(r.Context(), &p); err != nil {
		writeUpstream(w, r, "sheet write failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"record": p})
}
