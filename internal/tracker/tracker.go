// Package tracker ties the position book, the quote cache and the fetcher together into
// the operations the outer surfaces (HTTP API, CLI, scheduler) call.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/STTM-NSU/financeel/internal/portfolio"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/shopspring/decimal"
)

var (
	ErrValidation       = errors.New("invalid position")
	ErrSymbolNotFound   = quotes.ErrSymbolNotFound
	ErrPriceUnavailable = errors.New("price unavailable")
)

type Tracker struct {
	book    *portfolio.Book
	cache   *quotes.Cache
	fetcher *quotes.Fetcher
	known   map[string]model.SymbolInfo

	logger logger.Logger
}

func New(
	book *portfolio.Book,
	cache *quotes.Cache,
	fetcher *quotes.Fetcher,
	known map[string]model.SymbolInfo,
	logger logger.Logger,
) *Tracker {
	return &Tracker{
		book:    book,
		cache:   cache,
		fetcher: fetcher,
		known:   known,
		logger:  logger.With("component", "tracker"),
	}
}

func (t *Tracker) Load(ctx context.Context) error {
	if err := t.book.Load(ctx); err != nil {
		return err
	}
	if err := t.cache.Load(ctx); err != nil {
		return err
	}
	t.logger.Infof("loaded %d positions, %d cached quotes", t.book.Len(), len(t.cache.Snapshot()))
	return nil
}

func (t *Tracker) Save(ctx context.Context) error {
	return errors.Join(t.book.Save(ctx), t.cache.Save(ctx))
}

// AddPosition validates the input, checks the symbol against the quote provider and merges
// it into the book. Nothing is mutated when any check fails.
func (t *Tracker) AddPosition(ctx context.Context, symbol string, quantity int64, unitCost decimal.NullDecimal) (model.Position, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case symbol == "":
		return model.Position{}, fmt.Errorf("%w: symbol is required", ErrValidation)
	case quantity <= 0:
		return model.Position{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrValidation, quantity)
	case unitCost.Valid && unitCost.Decimal.IsNegative():
		return model.Position{}, fmt.Errorf("%w: unit cost can't be negative", ErrValidation)
	}

	r := t.fetcher.RefreshOne(ctx, symbol)
	if r.NotFound {
		return model.Position{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	if r.Err != nil || !r.Price.IsPositive() {
		return model.Position{}, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}

	name := ""
	if e, ok := t.cache.Get(symbol); ok {
		name = e.Name
	}
	if name == "" {
		name = quotes.Names(t.known).Name(symbol, "")
	}

	p := t.book.Add(symbol, quantity, unitCost, name)
	if err := t.book.Save(ctx); err != nil {
		return p, err
	}
	t.logger.Infof("added %d %s at %s from %s price", quantity, symbol, costString(unitCost), r.Source)
	return p, nil
}

func (t *Tracker) RemovePosition(ctx context.Context, index int) (model.Position, error) {
	p, err := t.book.Remove(index)
	if err != nil {
		return p, err
	}
	if err := t.book.Save(ctx); err != nil {
		return p, err
	}
	t.logger.Infof("removed %s", p.Code)
	return p, nil
}

func (t *Tracker) Clear(ctx context.Context) error {
	t.book.Clear()
	if err := t.book.Save(ctx); err != nil {
		return err
	}
	t.logger.Infof("portfolio cleared")
	return nil
}

// Refresh fetches prices for every held symbol plus the known symbol table.
func (t *Tracker) Refresh(ctx context.Context) error {
	return t.fetcher.RefreshAll(ctx, t.refreshSymbols())
}

func (t *Tracker) RefreshPrices(ctx context.Context) bool {
	if err := t.Refresh(ctx); err != nil {
		t.logger.Warnf("%s: refresh failed", err)
		return false
	}
	return true
}

func (t *Tracker) Refreshing() bool {
	return t.fetcher.Refreshing()
}

func (t *Tracker) refreshSymbols() []string {
	symbols := t.book.Symbols()
	return append(symbols, slices.Sorted(maps.Keys(t.known))...)
}

func (t *Tracker) Valuation() ([]model.Row, model.Totals) {
	return portfolio.Valuate(t.book.Positions(), t.cache.Snapshot())
}

func (t *Tracker) DisplayRows() []model.Row {
	rows, _ := t.Valuation()
	return rows
}

func (t *Tracker) Totals() model.Totals {
	_, totals := t.Valuation()
	return totals
}

func (t *Tracker) Positions() []model.Position {
	return t.book.Positions()
}

func (t *Tracker) LastRefreshed() time.Time {
	return t.cache.LastUpdate()
}

func costString(c decimal.NullDecimal) string {
	if !c.Valid {
		return "unknown cost"
	}
	return c.Decimal.StringFixed(2)
}
