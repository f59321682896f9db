package portfolio

import (
	"testing"
	"time"

	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(price, change string) model.QuoteEntry {
	return model.QuoteEntry{
		Price:   decimal.RequireFromString(price),
		Change:  decimal.RequireFromString(change),
		Updated: time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC),
		Source:  model.SourceProvider,
	}
}

func position(symbol string, qty int64, avg decimal.NullDecimal) model.Position {
	return model.Position{Code: symbol, Name: symbol, Quantity: qty, AvgPrice: avg, Color: "#2e5bff"}
}

func TestValuateEmpty(t *testing.T) {
	rows, totals := Valuate(nil, map[string]model.QuoteEntry{"PETR4": quote("36", "0")})

	assert.Empty(t, rows)
	assert.True(t, totals.Value.IsZero())
	assert.True(t, totals.Profit.IsZero())
	assert.True(t, totals.CostBasis.IsZero())
	assert.False(t, totals.ProfitPercent.Valid)
}

func TestValuateWithCost(t *testing.T) {
	rows, totals := Valuate(
		[]model.Position{position("PETR4", 200, cost("32.00"))},
		map[string]model.QuoteEntry{"PETR4": quote("36.00", "1.25")},
	)

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "7200", r.CurrentValue.String())
	assert.Equal(t, "6400", r.CostBasis.String())
	assert.Equal(t, "800", r.Profit.Decimal.String())
	assert.Equal(t, "12.5", r.ProfitPercent.Decimal.String())
	assert.Equal(t, "1.25", r.PercentChange.Decimal.String())
	assert.Equal(t, "100", r.Weight.String())
	assert.True(t, r.HasCost)

	assert.Equal(t, "7200", totals.Value.String())
	assert.Equal(t, "800", totals.Profit.String())
	assert.Equal(t, "12.5", totals.ProfitPercent.Decimal.String())
}

func TestValuateWithoutCost(t *testing.T) {
	rows, totals := Valuate(
		[]model.Position{position("VALE3", 50, noCost)},
		map[string]model.QuoteEntry{"VALE3": quote("70.00", "-0.5")},
	)

	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "3500", r.CurrentValue.String())
	assert.True(t, r.CostBasis.IsZero())
	assert.False(t, r.HasCost)
	assert.False(t, r.Profit.Valid, "profit is not applicable without a cost basis")
	assert.False(t, r.ProfitPercent.Valid)

	assert.Equal(t, "3500", totals.Value.String())
	assert.True(t, totals.CostBasis.IsZero())
	assert.True(t, totals.Profit.IsZero())
	assert.False(t, totals.ProfitPercent.Valid)
}

func TestValuateMissingQuote(t *testing.T) {
	rows, totals := Valuate([]model.Position{position("XPTO11", 10, cost("5"))}, nil)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].CurrentPrice.IsZero())
	assert.True(t, rows[0].CurrentValue.IsZero())
	assert.False(t, rows[0].PercentChange.Valid)
	assert.Equal(t, "-50", rows[0].Profit.Decimal.String())
	assert.Equal(t, "-100", rows[0].ProfitPercent.Decimal.String())
	assert.True(t, rows[0].Weight.IsZero())
	assert.Equal(t, "-100", totals.ProfitPercent.Decimal.String())
}

func TestValuatePlaceholder(t *testing.T) {
	rows, _ := Valuate(
		[]model.Position{position("XPTO", 10, noCost)},
		map[string]model.QuoteEntry{"XPTO": {Price: model.PlaceholderPrice, Source: model.SourcePlaceholder}},
	)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].CurrentValue.Equal(decimal.NewFromInt(10).Mul(model.PlaceholderPrice)))
	assert.True(t, rows[0].CurrentValue.IsPositive())
}

func TestValuateZeroCostBasis(t *testing.T) {
	rows, totals := Valuate(
		[]model.Position{position("BBAS3", 10, cost("0"))},
		map[string]model.QuoteEntry{"BBAS3": quote("56.60", "0")},
	)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Profit.Valid)
	assert.Equal(t, "566", rows[0].Profit.Decimal.String())
	assert.False(t, rows[0].ProfitPercent.Valid, "percent is undefined over a zero cost basis")
	assert.False(t, totals.ProfitPercent.Valid)
}

func TestValuateMixed(t *testing.T) {
	positions := []model.Position{
		position("PETR4", 100, cost("30")),
		position("VALE3", 50, noCost),
		position("ITUB4", 10, cost("40")),
	}
	quotes := map[string]model.QuoteEntry{
		"PETR4": quote("35", "0"),
		"VALE3": quote("70", "0"),
		"ITUB4": quote("30", "0"),
	}

	rows, totals := Valuate(positions, quotes)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"PETR4", "VALE3", "ITUB4"}, []string{rows[0].Symbol, rows[1].Symbol, rows[2].Symbol})

	// value 3500 + 3500 + 300, cost 3000 + 400, profit 500 - 100
	assert.Equal(t, "7300", totals.Value.String())
	assert.Equal(t, "3400", totals.CostBasis.String())
	assert.Equal(t, "400", totals.Profit.String())
	assert.Equal(t, "11.76", totals.ProfitPercent.Decimal.Round(2).String())

	weight := decimal.Zero
	for _, r := range rows {
		weight = weight.Add(r.Weight)
	}
	assert.Equal(t, "100", weight.Round(6).String())
}
