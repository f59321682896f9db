package portfolio

import (
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Valuate joins positions with quotes. It has no side effects. A position without a
// quote is valued at zero; profit figures are null when no cost basis was recorded.
func Valuate(positions []model.Position, quotes map[string]model.QuoteEntry) ([]model.Row, model.Totals) {
	rows := make([]model.Row, 0, len(positions))
	totals := model.Totals{
		Value:     decimal.Zero,
		CostBasis: decimal.Zero,
		Profit:    decimal.Zero,
	}

	for _, p := range positions {
		qty := decimal.NewFromInt(p.Quantity)
		row := model.Row{
			Symbol:       p.Code,
			Name:         p.Name,
			Quantity:     p.Quantity,
			CurrentPrice: decimal.Zero,
			CostBasis:    decimal.Zero,
			HasCost:      p.HasCost(),
			Color:        p.Color,
		}

		if q, ok := quotes[p.Code]; ok {
			row.CurrentPrice = q.Price
			row.PercentChange = decimal.NewNullDecimal(q.Change)
		}
		row.CurrentValue = qty.Mul(row.CurrentPrice)

		if p.HasCost() {
			row.CostBasis = qty.Mul(p.AvgPrice.Decimal)
			profit := row.CurrentValue.Sub(row.CostBasis)
			row.Profit = decimal.NewNullDecimal(profit)
			row.ProfitPercent = percentOf(profit, row.CostBasis)

			totals.CostBasis = totals.CostBasis.Add(row.CostBasis)
			totals.Profit = totals.Profit.Add(profit)
		}

		totals.Value = totals.Value.Add(row.CurrentValue)
		rows = append(rows, row)
	}

	for i := range rows {
		rows[i].Weight = decimal.Zero
		if totals.Value.IsPositive() {
			rows[i].Weight = rows[i].CurrentValue.Div(totals.Value).Mul(hundred)
		}
	}
	totals.ProfitPercent = percentOf(totals.Profit, totals.CostBasis)

	return rows, totals
}

func percentOf(part, whole decimal.Decimal) decimal.NullDecimal {
	if whole.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(part.Div(whole).Mul(hundred))
}
