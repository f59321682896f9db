package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type QuoteSource string

const (
	SourceProvider    QuoteSource = "provider"
	SourceStatic      QuoteSource = "static"
	SourcePlaceholder QuoteSource = "placeholder"
)

// QuoteEntry is the last known market data for a symbol.
type QuoteEntry struct {
	Price   decimal.Decimal `json:"price"`
	Name    string          `json:"name"`
	Updated time.Time       `json:"updated"`
	Change  decimal.Decimal `json:"change"`
	Source  QuoteSource     `json:"source"`
}

// ProviderQuote is a single symbol result as returned by a quote provider.
type ProviderQuote struct {
	Symbol        string
	Price         decimal.Decimal
	Name          string
	ChangePercent decimal.Decimal
}
