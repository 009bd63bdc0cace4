package costing

import (
	"strings"

	"github.com/shopspring/decimal"
)

// RowView and TotalsView render amounts with the fixed decimals the sheet
// displays, e.g. "0.00".
type RowView struct {
	Particulars string `json:"particulars"`
	Yield1      string `json:"yield1"`
	Fem1        string `json:"fem1"`
	Price1      string `json:"price1"`
	Percent     string `json:"percent"`
	Yield2      string `json:"yield2"`
	Fem2        string `json:"fem2"`
	Price2      string `json:"price2"`
}

type TotalsView struct {
	Rows              []RowView `json:"rows,omitempty"`
	PercentTotal      string    `json:"percentTotal"`
	Yield2Total       string    `json:"yield2Total"`
	Fem2Total         string    `json:"fem2Total"`
	Price2Total       string    `json:"price2Total"`
	ManufacturingCost string    `json:"manufacturingCost"`
	InterestDays      string    `json:"interestDays"`
	InterestAmount    string    `json:"interestAmount"`
	Transporting      string    `json:"transporting"`
	TotalPrice        string    `json:"totalPrice"`
	SellingPrice      string    `json:"sellingPrice"`
	VariableCost      string    `json:"variableCost"`
	GPPercentage      string    `json:"gpPercentage"`
}

func (r MaterialRow) View() RowView {
	return RowView{
		Particulars: r.Particulars,
		Yield1:      r.Yield1.String(),
		Fem1:        r.Fem1.String(),
		Price1:      r.Price1.String(),
		Percent:     r.Percent.String(),
		Yield2:      r.Yield2.StringFixed(4),
		Fem2:        r.Fem2.StringFixed(4),
		Price2:      r.Price2.StringFixed(2),
	}
}

func (t Totals) View() TotalsView {
	rows := make([]RowView, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = r.View()
	}
	return TotalsView{
		Rows:              rows,
		PercentTotal:      t.PercentTotal.StringFixed(2),
		Yield2Total:       t.Yield2Total.StringFixed(4),
		Fem2Total:         t.Fem2Total.StringFixed(4),
		Price2Total:       t.Price2Total.StringFixed(2),
		ManufacturingCost: t.ManufacturingCost.StringFixed(2),
		InterestDays:      t.InterestDays.String(),
		InterestAmount:    t.InterestAmount.StringFixed(2),
		Transporting:      t.Transporting.StringFixed(2),
		TotalPrice:        t.TotalPrice.StringFixed(2),
		SellingPrice:      atLeast2dp(t.SellingPrice),
		VariableCost:      t.VariableCost.StringFixed(2),
		GPPercentage:      t.GPPercentage.StringFixed(2),
	}
}

// atLeast2dp keeps every digit of d but pads to two decimals. A selling
// price override is shown exactly as entered.
func atLeast2dp(d decimal.Decimal) string {
	places := int32(2)
	if e := -d.Exponent(); e > places {
		places = e
	}
	return d.StringFixed(places)
}

// ParseAmount reads a user-entered number; blank is zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
