package model

import "github.com/shopspring/decimal"

// Row is the valuation of a single position. Null decimals mean "not applicable".
type Row struct {
	Symbol        string              `json:"symbol"`
	Name          string              `json:"name"`
	Quantity      int64               `json:"quantity"`
	CurrentPrice  decimal.Decimal     `json:"current_price"`
	CostBasis     decimal.Decimal     `json:"cost_basis"`
	HasCost       bool                `json:"has_cost"`
	CurrentValue  decimal.Decimal     `json:"current_value"`
	Profit        decimal.NullDecimal `json:"profit"`
	ProfitPercent decimal.NullDecimal `json:"profit_percent"`
	PercentChange decimal.NullDecimal `json:"percent_change"`
	Weight        decimal.Decimal     `json:"weight"`
	Color         string              `json:"color"`
}

type Totals struct {
	Value         decimal.Decimal     `json:"value"`
	CostBasis     decimal.Decimal     `json:"cost_basis"`
	Profit        decimal.Decimal     `json:"profit"`
	ProfitPercent decimal.NullDecimal `json:"profit_percent"`
}
