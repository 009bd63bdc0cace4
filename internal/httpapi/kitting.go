package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/costing"
	"tmtops/api/internal/records"
	"tmtops/api/internal/rowfilter"
)

// amount accepts a JSON number or a numeric string; forms post either.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	switch {
	case string(b) == "null":
		*a = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(s)
	default:
		*a = amount(b)
	}
	return nil
}

type costBody struct {
	Rows []struct {
		Particulars string `json:"particulars"`
		Percent     amount `json:"percent"`
	} `json:"rows"`
	ManufacturingCost amount `json:"manufacturingCost"`
	InterestDays      amount `json:"interestDays"`
	Transporting      amount `json:"transporting"`
	// SellingPrice left blank is derived from the total price.
	SellingPrice amount `json:"sellingPrice"`
}

type compositionBody struct {
	costBody
	HeatNo      string `json:"heatNo"`
	ProductName string `json:"productName"`
	Brand       string `json:"brand"`
}

func (a *App) materials(ctx context.Context) (records.MaterialIndex, []records.Material, error) {
	rows, err := a.readRows(ctx, a.cfg.SheetID, records.SheetMaterials)
	if err != nil {
		return nil, nil, err
	}
	ms := records.DecodeAll(records.SheetMaterials, rows, records.DecodeMaterial)
	return records.NewMaterialIndex(ms), ms, nil
}

// costRows resolves the posted rows against the materials master. It returns
// the names of the offending fields when any row is unusable.
func costRows(body costBody, idx records.MaterialIndex) ([]costing.MaterialRow, costing.Inputs, []string) {
	var bad []string
	if len(body.Rows) > costing.MaxRows {
		return nil, costing.Inputs{}, []string{"rows"}
	}
	rows := make([]costing.MaterialRow, 0, len(body.Rows))
	for i, in := range body.Rows {
		name := strings.TrimSpace(in.Particulars)
		if name == "" {
			continue
		}
		m, ok := idx.Lookup(name)
		if !ok {
			bad = append(bad, fmt.Sprintf("rows[%d].particulars", i))
			continue
		}
		pct, err := costing.ParseAmount(string(in.Percent))
		if err != nil || pct.IsNegative() {
			bad = append(bad, fmt.Sprintf("rows[%d].percent", i))
			continue
		}
		rows = append(rows, costing.MaterialRow{
			Particulars: m.Particulars,
			Yield1:      m.Yield,
			Fem1:        m.Fem,
			Price1:      m.Price,
			Percent:     pct,
		})
	}

	var in costing.Inputs
	parse := func(field string, raw amount, dst *decimal.Decimal) {
		d, err := costing.ParseAmount(string(raw))
		if err != nil {
			bad = append(bad, field)
			return
		}
		*dst = d
	}
	parse("manufacturingCost", body.ManufacturingCost, &in.ManufacturingCost)
	parse("interestDays", body.InterestDays, &in.InterestDays)
	parse("transporting", body.Transporting, &in.Transporting)
	if s := strings.TrimSpace(string(body.SellingPrice)); s != "" {
		sp, err := costing.ParseAmount(s)
		if err != nil {
			bad = append(bad, "sellingPrice")
		} else {
			in.SellingPrice = &sp
		}
	}
	return rows, in, bad
}

func (a *App) handleKittingPending(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetProduction)
	if err != nil {
		writeUpstream(w, r, "could not read production sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.KittingFilter, rowfilter.Pending)
	items := records.DecodeAll(records.SheetProduction, rows, records.DecodeProduction)
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) handleMaterials(w http.ResponseWriter, r *http.Request) {
	_, ms, err := a.materials(r.Context())
	if err != nil {
		writeUpstream(w, r, "could not read materials sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ms})
}

// invalidator is implemented by readers that cache master sheets.
type invalidator interface {
	Invalidate(ctx context.Context, sheetID, sheet string) error
}

// handleRefreshMasters drops the cached Materials and Working Day sheets so
// the next read goes to the spreadsheet.
func (a *App) handleRefreshMasters(w http.ResponseWriter, r *http.Request) {
	inv, ok := a.sheets.(invalidator)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"refreshed": []string{}})
		return
	}
	refreshed := []string{}
	for _, m := range []struct{ id, sheet string }{
		{a.cfg.SheetID, records.SheetMaterials},
		{a.cfg.DelegationSheetID, records.SheetWorkingDays},
	} {
		if err := inv.Invalidate(r.Context(), m.id, m.sheet); err != nil {
			writeInternal(w, r, "could not drop cached sheet", err)
			return
		}
		refreshed = append(refreshed, m.sheet)
	}
	writeJSON(w, http.StatusOK, map[string]any{"refreshed": refreshed})
}

func (a *App) computeCost(w http.ResponseWriter, r *http.Request, body costBody) (costing.Totals, bool) {
	idx, _, err := a.materials(r.Context())
	if err != nil {
		writeUpstream(w, r, "could not read materials sheet", err)
		return costing.Totals{}, false
	}
	rows, in, bad := costRows(body, idx)
	if len(bad) > 0 {
		writeValidation(w, bad)
		return costing.Totals{}, false
	}
	t, err := costing.Compute(rows, in)
	if err != nil {
		writeValidation(w, []string{"rows"})
		return costing.Totals{}, false
	}
	return t, true
}

func (a *App) handleCostPreview(w http.ResponseWriter, r *http.Request) {
	var body costBody
	if !decodeJSON(w, r, &body) {
		return
	}
	t, ok := a.computeCost(w, r, body)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"totals": t.View()})
}

func (a *App) handleListCompositions(w http.ResponseWriter, r *http.Request) {
	u, _ := auth.FromContext(r.Context())
	rows, err := a.readRows(r.Context(), a.cfg.SheetID, records.SheetComposition)
	if err != nil {
		writeUpstream(w, r, "could not read composition sheet", err)
		return
	}
	rows = rowfilter.Filter(rows, u, records.CompositionFilter, rowfilter.All)
	items := records.DecodeAll(records.SheetComposition, rows, records.DecodeComposition)
	newestFirst(items, func(c records.CompositionRecord) time.Time { return c.Timestamp })
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// handleCreateComposition numbers and writes a composition, then marks the
// heat's production row as kitted.
func (a *App) handleCreateComposition(w http.ResponseWriter, r *http.Request) {
	var body compositionBody
	if !decodeJSON(w, r, &body) {
		return
	}
	u, _ := auth.FromContext(r.Context())
	heatNo := strings.TrimSpace(body.HeatNo)
	brand, ok := writeBrand(u, body.Brand)
	if !ok {
		writeForbiddenBrand(w)
		return
	}
	if heatNo == "" {
		writeValidation(w, []string{"heatNo"})
		return
	}
	t, ok := a.computeCost(w, r, body.costBody)
	if !ok {
		return
	}
	if err := t.Validate(); err != nil {
		writeValidation(w, []string{"rows"})
		return
	}

	c, err := a.writeComposition(r.Context(), heatNo, strings.TrimSpace(body.ProductName), brand, t)
	if err != nil {
		writeUpstream(w, r, "could not write composition", err)
		return
	}
	a.stampOpenRow(r.Context(), records.SheetProduction, records.ProductionHeatNo, records.ProductionKittingDone, heatNo)

	writeJSON(w, http.StatusCreated, map[string]any{"composition": c})
}

func (a *App) writeComposition(ctx context.Context, heatNo, product, brand string, t costing.Totals) (records.CompositionRecord, error) {
	a.allocMu.Lock()
	defer a.allocMu.Unlock()

	rows, err := a.readRows(ctx, a.cfg.SheetID, records.SheetComposition)
	if err != nil {
		return records.CompositionRecord{}, fmt.Errorf("read compositions: %w", err)
	}
	number := costing.NextNumber(records.CompositionNumbers(rows))
	c := records.NewComposition(number, heatNo, product, brand, t, a.now())
	if err := a.insertRow(ctx, a.script, records.SheetComposition, c.Row()); err != nil {
		return records.CompositionRecord{}, fmt.Errorf("insert %s: %w", number, err)
	}
	return c, nil
}
