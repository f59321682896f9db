// Package quotestest provides an in-process quotes.Provider for tests.
package quotestest

import (
	"context"
	"sync"

	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
)

// Provider answers from a fixed price table. Batch requests (more than one symbol) fail
// with BatchErr when set, single requests fail with SingleErr when set.
type Provider struct {
	mu        sync.Mutex
	prices    map[string]model.ProviderQuote
	BatchErr  error
	SingleErr error
	calls     [][]string
}

func NewProvider() *Provider {
	return &Provider{prices: make(map[string]model.ProviderQuote)}
}

func (p *Provider) Set(symbol, price, name string) *Provider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = model.ProviderQuote{
		Symbol:        symbol,
		Price:         decimal.RequireFromString(price),
		Name:          name,
		ChangePercent: decimal.RequireFromString("1.5"),
	}
	return p
}

func (p *Provider) Quotes(_ context.Context, symbols ...string) (map[string]model.ProviderQuote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, symbols)
	if len(symbols) > 1 && p.BatchErr != nil {
		return nil, p.BatchErr
	}
	if len(symbols) == 1 && p.SingleErr != nil {
		return nil, p.SingleErr
	}

	out := make(map[string]model.ProviderQuote, len(symbols))
	for _, s := range symbols {
		if q, ok := p.prices[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

// Calls returns the symbol lists of every request made so far.
func (p *Provider) Calls() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]string(nil), p.calls...)
}
