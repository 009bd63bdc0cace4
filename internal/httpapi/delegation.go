package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/records"
	"tmtops/api/internal/sheets"
	"tmtops/api/internal/tasks"
)

type taskBody struct {
	Date              string `json:"date"`
	Frequency         string `json:"frequency"`
	Doer              string `json:"doer"`
	Title             string `json:"title"`
	Description       string `json:"description"`
	Department        string `json:"department"`
	GivenBy           string `json:"givenBy"`
	EnableReminders   bool   `json:"enableReminders"`
	RequireAttachment bool   `json:"requireAttachment"`
}

func (a *App) calendar(ctx context.Context) (tasks.Calendar, error) {
	rows, err := a.readRows(ctx, a.cfg.DelegationSheetID, records.SheetWorkingDays)
	if err != nil {
		return nil, err
	}
	return tasks.NewCalendar(records.WorkingDays(rows)...), nil
}

func (a *App) handleCalendar(w http.ResponseWriter, r *http.Request) {
	rows, err := a.readRows(r.Context(), a.cfg.DelegationSheetID, records.SheetWorkingDays)
	if err != nil {
		writeUpstream(w, r, "could not read working-day calendar", err)
		return
	}
	days := records.WorkingDays(rows)
	out := make([]string, len(days))
	for i, d := range days {
		out[i] = d.Format(tasks.DateLayout)
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": out})
}

// generate validates the body and runs the task generator against the
// working-day calendar. It writes the error response itself.
func (a *App) generate(w http.ResponseWriter, r *http.Request, body taskBody) (tasks.Request, []tasks.Occurrence, bool) {
	req := tasks.Request{Doer: strings.TrimSpace(body.Doer), Title: strings.TrimSpace(body.Title)}
	var bad []string
	if s := strings.TrimSpace(body.Date); s != "" {
		d, err := sheets.ParseDate(s)
		if err != nil {
			bad = append(bad, "date")
		}
		req.Start = d
	}
	if s := strings.TrimSpace(body.Frequency); s != "" {
		f, ok := tasks.ParseFrequency(s)
		if !ok {
			bad = append(bad, "frequency")
		}
		req.Frequency = f
	}
	if len(bad) > 0 {
		writeValidation(w, bad)
		return tasks.Request{}, nil, false
	}
	if err := tasks.Validate(req); err != nil {
		writeInvalid(w, err)
		return tasks.Request{}, nil, false
	}

	cal, err := a.calendar(r.Context())
	if err != nil {
		writeUpstream(w, r, "could not read working-day calendar", err)
		return tasks.Request{}, nil, false
	}
	occ, err := tasks.Generate(req, cal, tasks.Options{
		HorizonYears:   a.cfg.TaskHorizonYears,
		StrictCalendar: a.cfg.StrictCalendar,
	})
	if errors.Is(err, tasks.ErrEmptyCalendar) {
		writeAPIError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "working-day calendar is empty")
		return tasks.Request{}, nil, false
	}
	if err != nil {
		if !writeInvalid(w, err) {
			writeInternal(w, r, "task generation failed", err)
		}
		return tasks.Request{}, nil, false
	}
	return req, occ, true
}

func (a *App) handleTaskPreview(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, occ, ok := a.generate(w, r, body)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sheet": records.DelegationSheet(req.Frequency),
		"count": len(occ),
		"dates": occ,
	})
}

func (a *App) handleCreateTasks(w http.ResponseWriter, r *http.Request) {
	var body taskBody
	if !decodeJSON(w, r, &body) {
		return
	}
	req, occ, ok := a.generate(w, r, body)
	if !ok {
		return
	}
	if len(occ) == 0 {
		writeAPIError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "no working day found for the requested schedule")
		return
	}

	u, _ := auth.FromContext(r.Context())
	givenBy := strings.TrimSpace(body.GivenBy)
	if givenBy == "" {
		givenBy = u.Username
	}
	tmpl := records.DelegationTask{
		Timestamp:         a.now(),
		Department:        strings.TrimSpace(body.Department),
		GivenBy:           givenBy,
		Doer:              req.Doer,
		Title:             req.Title,
		Description:       strings.TrimSpace(body.Description),
		Frequency:         req.Frequency,
		EnableReminders:   body.EnableReminders,
		RequireAttachment: body.RequireAttachment,
	}
	sheet := records.DelegationSheet(req.Frequency)

	out, err := a.writeTasks(r.Context(), sheet, tmpl, occ)
	if err != nil {
		writeUpstream(w, r, "could not write tasks", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"sheet": sheet, "tasks": out})
}

func (a *App) writeTasks(ctx context.Context, sheet string, tmpl records.DelegationTask, occ []tasks.Occurrence) ([]records.DelegationTask, error) {
	a.allocMu.Lock()
	defer a.allocMu.Unlock()

	rows, err := a.readRows(ctx, a.cfg.DelegationSheetID, sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	out := records.ExpandDelegation(tmpl, occ, tasks.NextTaskID(records.TaskIDs(rows)))
	payload := make([][]any, len(out))
	for i, t := range out {
		payload[i] = t.Row()
	}
	if _, err := a.delegation.Submit(ctx, sheets.Request{
		Action:    sheets.ActionInsert,
		SheetName: sheet,
		Tasks:     payload,
	}); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", sheet, err)
	}
	return out, nil
}
