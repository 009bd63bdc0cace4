package records

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tmtops/api/internal/auth"
	"tmtops/api/internal/sheets"
)

// Login sheet columns.
const (
	LoginUsername    = 0
	LoginPassword    = 1
	LoginDisplayName = 2
	LoginUserType    = 3
	LoginDepartment  = 4
)

// Materials master columns.
const (
	MaterialParticulars = 0
	MaterialYield       = 1
	MaterialFem         = 2
	MaterialPrice       = 3
)

// Working day calendar column.
const WorkingDayDate = 0

func DecodeCredential(r sheets.Row) (auth.Credential, error) {
	c := auth.Credential{
		Username:    r.String(LoginUsername),
		Password:    r.String(LoginPassword),
		DisplayName: text(r, LoginDisplayName),
		UserType:    text(r, LoginUserType),
		Department:  text(r, LoginDepartment),
	}
	if strings.TrimSpace(c.Username) == "" {
		return auth.Credential{}, &SchemaError{Sheet: SheetLogin, Column: "username", Err: errors.New("empty")}
	}
	return c, nil
}

type Material struct {
	Particulars string          `json:"particulars"`
	Yield       decimal.Decimal `json:"yield"`
	Fem         decimal.Decimal `json:"fem"`
	Price       decimal.Decimal `json:"price"`
}

func DecodeMaterial(r sheets.Row) (Material, error) {
	m := Material{Particulars: text(r, MaterialParticulars)}
	if m.Particulars == "" {
		return Material{}, &SchemaError{Sheet: SheetMaterials, Column: "particulars", Err: errors.New("empty")}
	}
	for _, f := range []struct {
		col  int
		name string
		dst  *decimal.Decimal
	}{
		{MaterialYield, "yield", &m.Yield},
		{MaterialFem, "fem", &m.Fem},
		{MaterialPrice, "price", &m.Price},
	} {
		v, ok := r.Float(f.col)
		if !ok {
			if strings.TrimSpace(r.String(f.col)) != "" {
				return Material{}, &SchemaError{Sheet: SheetMaterials, Column: f.name, Err: errors.New("not a number")}
			}
			continue
		}
		*f.dst = decimal.NewFromFloat(v)
	}
	return m, nil
}

// MaterialIndex keys materials by name, case-insensitively.
type MaterialIndex map[string]Material

func NewMaterialIndex(ms []Material) MaterialIndex {
	idx := make(MaterialIndex, len(ms))
	for _, m := range ms {
		idx[strings.ToLower(m.Particulars)] = m
	}
	return idx
}

func (idx MaterialIndex) Lookup(name string) (Material, bool) {
	m, ok := idx[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// WorkingDays reads every parseable date from the calendar sheet.
func WorkingDays(rows []sheets.Row) []time.Time {
	out := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		if t, ok := r.Time(WorkingDayDate); ok {
			out = append(out, t)
		}
	}
	return out
}
