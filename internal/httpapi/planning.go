package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/db"
	"tmtops/api/internal/records"
	"tmtops/api/internal/rowfilter"
)

type planningBody struct {
	HeatNo         string            `json:"heatNo"`
	Person         string            `json:"person"`
	Brand          string            `json:"brand"`
	Sizes          []records.SizeQty `json:"sizes"`
	Supervisor     string            `json:"supervisor"`
	ProductionDate string            `json:"productionDate"`
	Remarks        string            `json:"remarks"`
}

func (a *App) handleListPlanning(w http.ResponseWriter, r *http.Request) {
	view, ok := rowfilter.ParseView(r.URL.Query().Get("view"))
	if !ok {
		writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", "view must be pending|history|all")
		return
	}
	u, _ := auth.FromContext(r.Context())

	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetPlanning)
	if err != nil {
		writeUpstream(w, r, "could not read planning sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.PlanningFilter, view)
	items := records.DecodeAll(records.SheetPlanning, rows, records.DecodePlanning)
	newestFirst(items, func(p records.PlanningRecord) time.Time { return p.Timestamp })
	writeJSON(w, http.StatusOK, map[string]any{"view": view, "items": items})
}

// handleCreatePlanning keeps the record locally first so a failed sheet
// write can be resynced later.
func (a *App) handleCreatePlanning(w http.ResponseWriter, r *http.Request) {
	var body planningBody
	if !decodeJSON(w, r, &body) {
		return
	}
	u, _ := auth.FromContext(r.Context())
	brand, ok := writeBrand(u, body.Brand)
	if !ok {
		writeForbiddenBrand(w)
		return
	}
	p := records.PlanningRecord{
		Timestamp:      a.now(),
		HeatNo:         body.HeatNo,
		Person:         body.Person,
		Brand:          brand,
		Sizes:          body.Sizes,
		Supervisor:     body.Supervisor,
		ProductionDate: body.ProductionDate,
		Remarks:        body.Remarks,
	}
	if err := p.Normalize(); err != nil {
		if !writeInvalid(w, err) {
			writeAPIError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		}
		return
	}
	if err := a.store.CreatePlanning(r.Context(), &p); err != nil {
		writeInternal(w, r, "could not save planning record", err)
		return
	}

	if err := a.insertRow(r.Context(), a.script, records.SheetPlanning, p.Row()); err != nil {
		writeUpstream(w, r, "planning saved locally but the sheet write failed", err)
		return
	}
	if err := a.store.MarkPlanningSynced(r.Context(), p.ID); err != nil {
		writeInternal(w, r, "could not mark planning synced", err)
		return
	}
	p.SyncedToSheet = true
	writeJSON(w, http.StatusCreated, map[string]any{"record": p})
}

func (a *App) handleListLocalPlanning(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	items, err := a.store.ListPlanning(r.Context(), brandScope(u))
	if err != nil {
		writeInternal(w, r, "could not list planning records", err)
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

func (a *App) handleSyncPlanning(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := a.store.GetPlanning(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "planning record not found")
		return
	}
	if err != nil {
		writeInternal(w, r, "could not load planning record", err)
		return
	}
	if p.SyncedToSheet {
		writeJSON(w, http.StatusOK, map[string]any{"record": p, "alreadySynced": true})
		return
	}
	if err := a.insertRow(r.Context(), a.script, records.SheetPlanning, p.Row()); err != nil {
		writeUpstream(w, r, "sheet write failed", err)
		return
	}
	if err := a.store.MarkPlanningSynced(r.Context(), p.ID); err != nil {
		writeInternal(w, r, "could not mark planning synced", err)
		return
	}
	p.SyncedToSheet = true
	writeJSON(w, http.StatusOK, map[string]any{"record": p})
}

// handleDeletePlanning removes the local record only; sheet rows stay.
func (a *App) handleDeletePlanning(w http.ResponseWriter, r *http.Request) {
	err := a.store.DeletePlanning(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, db.ErrNotFound) {
		writeAPIError(w, http.StatusNotFound, "NOT_FOUND", "planning record not found")
		return
	}
	if err != nil {
		writeInternal(w, r, "could not delete planning record", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
