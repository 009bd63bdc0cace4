package costing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s got %s", want, got)
}

func TestDerive(t *testing.T) {
	r := Derive(MaterialRow{Particulars: "Sponge Iron", Yield1: d("90"), Fem1: d("60"), Price1: d("1000"), Percent: d("50")})
	assertDec(t, "45", r.Yield2)
	assertDec(t, "30", r.Fem2)
	assertDec(t, "500", r.Price2)

	v := r.View()
	assert.Equal(t, "45.0000", v.Yield2)
	assert.Equal(t, "30.0000", v.Fem2)
	assert.Equal(t, "500.00", v.Price2)
}

func TestDeriveRounding(t *testing.T) {
	r := Derive(MaterialRow{Particulars: "Scrap", Yield1: d("87.33333"), Fem1: d("1"), Price1: d("333.335"), Percent: d("33")})
	assertDec(t, "28.82", r.Yield2)
	assertDec(t, "0.33", r.Fem2)
	assertDec(t, "110.0", r.Price2)
	assert.Equal(t, "28.8200", r.View().Yield2)
}

func TestInterest(t *testing.T) {
	assertDec(t, "14.79", Interest(d("1000"), d("30")))
	assertDec(t, "0", Interest(d("1000"), d("0")))
}

func TestGrossProfitZeroGuard(t *testing.T) {
	gp := GrossProfit(decimal.Zero, d("1234"))
	assert.Equal(t, "0.00", gp.StringFixed(2))
	assert.Equal(t, "0.00", GrossProfit(d("-5"), d("1")).StringFixed(2))
	assertDec(t, "40", GrossProfit(d("2500"), d("1500")))
}

func TestCompute(t *testing.T) {
	rows := []MaterialRow{
		{Particulars: "Sponge Iron", Yield1: d("90"), Fem1: d("60"), Price1: d("1000"), Percent: d("50")},
		{Particulars: "", Yield1: d("99"), Fem1: d("99"), Price1: d("99999"), Percent: d("40")},
		{Particulars: "Pig Iron", Yield1: d("80"), Fem1: d("50"), Price1: d("2000"), Percent: d("50")},
	}
	tot, err := Compute(rows, Inputs{
		ManufacturingCost: d("100"),
		InterestDays:      d("30"),
		Transporting:      d("50"),
	})
	require.NoError(t, err)
	require.NoError(t, tot.Validate())

	require.Len(t, tot.Rows, 2, "empty material rows are excluded")
	assertDec(t, "100", tot.PercentTotal)
	assertDec(t, "85", tot.Yield2Total)
	assertDec(t, "55", tot.Fem2Total)
	assertDec(t, "1500", tot.Price2Total)
	assertDec(t, "22.19", tot.InterestAmount)
	assertDec(t, "1672.19", tot.TotalPrice)
	assertDec(t, "2229.59", tot.SellingPrice)
	assertDec(t, "1500", tot.VariableCost)
	assertDec(t, "32.72", tot.GPPercentage)

	v := tot.View()
	assert.Equal(t, "2229.59", v.SellingPrice)
	assert.Equal(t, "85.0000", v.Yield2Total)
	assert.Equal(t, "100.00", v.PercentTotal)
}

func TestComputeSellingOverride(t *testing.T) {
	rows := []MaterialRow{{Particulars: "Sponge Iron", Yield1: d("90"), Fem1: d("60"), Price1: d("1000"), Percent: d("100")}}
	sp := d("2500")
	tot, err := Compute(rows, Inputs{SellingPrice: &sp})
	require.NoError(t, err)
	assertDec(t, "2500", tot.SellingPrice)
	assertDec(t, "1000", tot.TotalPrice)
	assertDec(t, "60", tot.GPPercentage)
	assert.Equal(t, "2500.00", tot.View().SellingPrice)

	precise := d("2500.125")
	tot, err = Compute(rows, Inputs{SellingPrice: &precise})
	require.NoError(t, err)
	assert.Equal(t, "2500.125", tot.View().SellingPrice)

	zero := decimal.Zero
	tot, err = Compute(rows, Inputs{SellingPrice: &zero})
	require.NoError(t, err)
	assert.Equal(t, "0.00", tot.View().GPPercentage)
}

func TestComputeLimits(t *testing.T) {
	rows := make([]MaterialRow, MaxRows+1)
	_, err := Compute(rows, Inputs{})
	assert.ErrorIs(t, err, ErrTooManyRows)

	tot, err := Compute(make([]MaterialRow, 3), Inputs{})
	require.NoError(t, err)
	assert.Error(t, tot.Validate())
	assert.Equal(t, "0.00", tot.View().GPPercentage)
}

func TestNextNumber(t *testing.T) {
	assert.Equal(t, "CN-001", NextNumber(nil))
	assert.Equal(t, "CN-008", NextNumber([]string{"CN-001", "CN-007", "CN-003"}))
	assert.Equal(t, "CN-013", NextNumber([]string{"", "draft", "CN-012", "cn-500"}))
	assert.Equal(t, "CN-1000", NextNumber([]string{"CN-999"}))
}

func TestIsNumber(t *testing.T) {
	assert.True(t, IsNumber("CN-001"))
	assert.True(t, IsNumber("CN-1000"))
	assert.False(t, IsNumber("Composition No"))
	assert.False(t, IsNumber("CN-"))
	assert.False(t, IsNumber("draft CN-004"))
}

func TestParseAmount(t *testing.T) {
	v, err := ParseAmount(" 12.5 ")
	require.NoError(t, err)
	assertDec(t, "12.5", v)

	v, err = ParseAmount("")
	require.NoError(t, err)
	assert.True(t, v.IsZero())

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}
