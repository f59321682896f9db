package tools

import (
	"math"
	"strings"
	"time"

	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	_moneyFormat   = "#.###,##"
	_percentFormat = "#.###,##"
)

// DisplayPolicy renders valuation figures. Not applicable values are always rendered as
// NotApplicable, never as a zero.
type DisplayPolicy struct {
	NotApplicable  string
	CurrencySymbol string
}

func NewDisplayPolicy(notApplicable, currencySymbol string) DisplayPolicy {
	return DisplayPolicy{
		NotApplicable:  notApplicable,
		CurrencySymbol: currencySymbol,
	}
}

// Money formats d in pt-BR style: "R$ 1.234,56", negatives as "-R$ 3,00".
func (p DisplayPolicy) Money(d decimal.Decimal) string {
	s := p.CurrencySymbol + " " + humanize.FormatFloat(_moneyFormat, d.Abs().Round(2).InexactFloat64())
	if d.Round(2).IsNegative() {
		return "-" + s
	}
	return s
}

// SignedMoney is Money with an explicit plus sign for positive values.
func (p DisplayPolicy) SignedMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return p.NotApplicable
	}
	if d.Decimal.Round(2).IsPositive() {
		return "+" + p.Money(d.Decimal)
	}
	return p.Money(d.Decimal)
}

func (p DisplayPolicy) Percent(d decimal.NullDecimal) string {
	if !d.Valid {
		return p.NotApplicable
	}
	v := d.Decimal.Round(2)
	s := humanize.FormatFloat(_percentFormat, v.Abs().InexactFloat64()) + "%"
	switch {
	case v.IsPositive():
		return "+" + s
	case v.IsNegative():
		return "-" + s
	default:
		return s
	}
}

func (p DisplayPolicy) Quantity(q int64) string {
	return strings.ReplaceAll(humanize.Comma(q), ",", ".")
}

var relTimeMagnitudes = []humanize.RelTimeMagnitude{
	{D: 2 * time.Minute, Format: "%s 1 minuto", DivBy: 1},
	{D: time.Hour, Format: "%s %d minutos", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "%s 1 hora", DivBy: 1},
	{D: humanize.Day, Format: "%s %d horas", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "%s 1 dia", DivBy: 1},
	{D: math.MaxInt64, Format: "%s %d dias", DivBy: humanize.Day},
}

// Since renders how long ago t was in pt-BR: "agora mesmo", "há 5 minutos", "nunca" for the zero time.
func (p DisplayPolicy) Since(now, t time.Time) string {
	if t.IsZero() {
		return "nunca"
	}
	if d := now.Sub(t); d < time.Minute && d > -time.Minute {
		return "agora mesmo"
	}
	return humanize.CustomRelTime(t, now, "há", "em", relTimeMagnitudes)
}

type DisplayRow struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Quantity      string `json:"quantity"`
	CurrentPrice  string `json:"current_price"`
	CostBasis     string `json:"cost_basis"`
	CurrentValue  string `json:"current_value"`
	Profit        string `json:"profit"`
	ProfitPercent string `json:"profit_percent"`
	PercentChange string `json:"percent_change"`
	Weight        string `json:"weight"`
	Color         string `json:"color"`
}

type DisplayTotals struct {
	Value         string `json:"value"`
	CostBasis     string `json:"cost_basis"`
	Profit        string `json:"profit"`
	ProfitPercent string `json:"profit_percent"`
}

func (p DisplayPolicy) Row(r model.Row) DisplayRow {
	costBasis := p.NotApplicable
	if r.HasCost {
		costBasis = p.Money(r.CostBasis)
	}
	return DisplayRow{
		Symbol:        r.Symbol,
		Name:          r.Name,
		Quantity:      p.Quantity(r.Quantity),
		CurrentPrice:  p.Money(r.CurrentPrice),
		CostBasis:     costBasis,
		CurrentValue:  p.Money(r.CurrentValue),
		Profit:        p.SignedMoney(r.Profit),
		ProfitPercent: p.Percent(r.ProfitPercent),
		PercentChange: p.Percent(r.PercentChange),
		Weight:        strings.TrimPrefix(p.Percent(decimal.NewNullDecimal(r.Weight)), "+"),
		Color:         r.Color,
	}
}

func (p DisplayPolicy) Rows(rows []model.Row) []DisplayRow {
	out := make([]DisplayRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, p.Row(r))
	}
	return out
}

func (p DisplayPolicy) Totals(t model.Totals) DisplayTotals {
	profit := decimal.NewNullDecimal(t.Profit)
	if !t.ProfitPercent.Valid {
		profit = decimal.NullDecimal{}
	}
	return DisplayTotals{
		Value:         p.Money(t.Value),
		CostBasis:     p.Money(t.CostBasis),
		Profit:        p.SignedMoney(profit),
		ProfitPercent: p.Percent(t.ProfitPercent),
	}
}
