// Package costing prices a kitting composition: a mix of raw materials at
// given percentages, plus manufacturing, interest and transport on top.
package costing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxRows = 15

var (
	hundred      = decimal.NewFromInt(100)
	interestRate = decimal.RequireFromString("0.18")
	daysPerYear  = decimal.NewFromInt(365)
	costRatio    = decimal.RequireFromString("0.75")
)

var ErrTooManyRows = fmt.Errorf("costing: at most %d material rows", MaxRows)

// MaterialRow is one line of the kitting modal. Yield1, Fem1 and Price1 come
// from the materials master; Percent is the user's share.
type MaterialRow struct {
	Particulars string
	Yield1      decimal.Decimal
	Fem1        decimal.Decimal
	Price1      decimal.Decimal
	Percent     decimal.Decimal

	Yield2 decimal.Decimal
	Fem2   decimal.Decimal
	Price2 decimal.Decimal
}

func (r MaterialRow) Selected() bool {
	return strings.TrimSpace(r.Particulars) != ""
}

// Derive fills the percentage-weighted fields. Yield and fem keep four
// decimals, price two.
func Derive(r MaterialRow) MaterialRow {
	r.Yield2 = r.Yield1.Mul(r.Percent).Div(hundred).Round(4)
	r.Fem2 = r.Fem1.Mul(r.Percent).Div(hundred).Round(4)
	r.Price2 = r.Price1.Mul(r.Percent).Div(hundred).Round(2)
	return r
}

type Inputs struct {
	ManufacturingCost decimal.Decimal
	InterestDays      decimal.Decimal
	Transporting      decimal.Decimal
	// SellingPrice, when set, replaces the derived selling price verbatim.
	SellingPrice *decimal.Decimal
}

type Totals struct {
	Rows []MaterialRow

	PercentTotal decimal.Decimal
	Yield2Total  decimal.Decimal
	Fem2Total    decimal.Decimal
	Price2Total  decimal.Decimal

	ManufacturingCost decimal.Decimal
	InterestDays      decimal.Decimal
	InterestAmount    decimal.Decimal
	Transporting      decimal.Decimal
	TotalPrice        decimal.Decimal
	SellingPrice      decimal.Decimal
	VariableCost      decimal.Decimal
	GPPercentage      decimal.Decimal
}

// Compute derives every selected row and the composition totals. Rows with
// no material are dropped. Variable cost is the material cost alone.
func Compute(rows []MaterialRow, in Inputs) (Totals, error) {
	if len(rows) > MaxRows {
		return Totals{}, ErrTooManyRows
	}

	t := Totals{
		ManufacturingCost: in.ManufacturingCost,
		InterestDays:      in.InterestDays,
		Transporting:      in.Transporting,
	}
	for _, r := range rows {
		if !r.Selected() {
			continue
		}
		r = Derive(r)
		t.Rows = append(t.Rows, r)
		t.PercentTotal = t.PercentTotal.Add(r.Percent)
		t.Yield2Total = t.Yield2Total.Add(r.Yield2)
		t.Fem2Total = t.Fem2Total.Add(r.Fem2)
		t.Price2Total = t.Price2Total.Add(r.Price2)
	}

	t.InterestAmount = Interest(t.Price2Total, in.InterestDays)
	t.TotalPrice = t.Price2Total.Add(in.ManufacturingCost).Add(t.InterestAmount).Add(in.Transporting).Round(2)

	if in.SellingPrice != nil {
		t.SellingPrice = *in.SellingPrice
	} else {
		t.SellingPrice = t.TotalPrice.Div(costRatio).Round(2)
	}

	t.VariableCost = t.Price2Total
	t.GPPercentage = GrossProfit(t.SellingPrice, t.VariableCost)
	return t, nil
}

// Interest is simple interest at 18% a year on the material cost.
func Interest(principal, days decimal.Decimal) decimal.Decimal {
	return principal.Mul(interestRate).Mul(days).Div(daysPerYear).Round(2)
}

// GrossProfit is (selling - variable) / selling as a percentage, zero when
// there is no positive selling price.
func GrossProfit(selling, variable decimal.Decimal) decimal.Decimal {
	if !selling.IsPositive() {
		return decimal.Zero
	}
	return selling.Sub(variable).Div(selling).Mul(hundred).Round(2)
}

var errEmptyComposition = errors.New("costing: select at least one material")

// Validate rejects compositions that would persist no material rows.
func (t Totals) Validate() error {
	if len(t.Rows) == 0 {
		return errEmptyComposition
	}
	return nil
}
