package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

const (
	_symbolIntervalDefault = 100 * time.Millisecond
)

// PriceResult is the outcome of resolving a single symbol. NotFound is set when the
// provider answered but does not know the symbol, even if a fallback tier supplied a price.
type PriceResult struct {
	Symbol   string
	Price    decimal.Decimal
	Source   Source
	NotFound bool
	Err      error
}

type Fetcher struct {
	provider Provider
	cache    *Cache
	logger   logger.Logger

	limiter        ratelimit.Limiter
	names          Names
	staticFallback bool
	staticPrices   map[string]decimal.Decimal
	placeholder    decimal.Decimal
	now            func() time.Time

	strategies []Strategy
	inFlight   atomic.Bool
}

type Option func(*Fetcher)

// WithSymbolInterval sets the fixed spacing between per-symbol provider requests.
func WithSymbolInterval(d time.Duration) Option {
	return func(f *Fetcher) {
		f.limiter = ratelimit.New(1, ratelimit.Per(d), ratelimit.WithoutSlack)
	}
}

func WithLimiter(l ratelimit.Limiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Fetcher) {
		f.now = now
	}
}

func WithNames(known map[string]model.SymbolInfo) Option {
	return func(f *Fetcher) {
		f.names = known
	}
}

// WithStaticFallback replaces the demonstration price table and the placeholder price.
func WithStaticFallback(prices map[string]decimal.Decimal, placeholder decimal.Decimal) Option {
	return func(f *Fetcher) {
		f.staticFallback = true
		f.staticPrices = prices
		f.placeholder = placeholder
	}
}

func WithoutStaticFallback() Option {
	return func(f *Fetcher) {
		f.staticFallback = false
	}
}

func NewFetcher(provider Provider, cache *Cache, logger logger.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:       provider,
		cache:          cache,
		logger:         logger.With("component", "quotes"),
		limiter:        ratelimit.New(1, ratelimit.Per(_symbolIntervalDefault), ratelimit.WithoutSlack),
		names:          model.KnownSymbols,
		staticFallback: true,
		staticPrices:   model.FallbackPrices,
		placeholder:    model.PlaceholderPrice,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.strategies = []Strategy{
		&providerStrategy{provider: f.provider, limiter: f.limiter, names: f.names},
		&cacheStrategy{cache: f.cache},
	}
	if f.staticFallback {
		f.strategies = append(f.strategies,
			&staticStrategy{prices: f.staticPrices, names: f.names},
			&placeholderStrategy{price: f.placeholder, names: f.names},
		)
	}

	return f
}

// Chain lists the per-symbol fallback tiers in the order they are tried.
func (f *Fetcher) Chain() []string {
	names := make([]string, 0, len(f.strategies))
	for _, s := range f.strategies {
		names = append(names, s.Name())
	}
	return names
}

func (f *Fetcher) Refreshing() bool {
	return f.inFlight.Load()
}

// RefreshAll updates the cache for symbols: one batch request first, then symbol by symbol
// through the fallback chain if the batch fails. Only one refresh may run at a time.
func (f *Fetcher) RefreshAll(ctx context.Context, symbols []string) error {
	if !f.inFlight.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer f.inFlight.Store(false)

	symbols = NormalizeSymbols(symbols)
	if len(symbols) == 0 {
		return nil
	}

	stamp := f.now()
	log := f.logger.With("refresh_id", uuid.NewString())
	log.Infof("refreshing %d symbols", len(symbols))

	batchErr := f.refreshBatch(ctx, symbols, stamp, log)
	if batchErr == nil {
		return nil
	}
	log.Warnf("%s: batch refresh failed, falling back to per-symbol requests", batchErr)

	recovered := 0
	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: refresh interrupted after %d symbols", err, recovered)
		}
		r := f.resolve(ctx, symbol, stamp, log)
		if r.Err != nil {
			log.Warnf("%s: no price for %s", r.Err, symbol)
			continue
		}
		log.Debugf("%s resolved from %s: %s", symbol, r.Source, r.Price)
		recovered++
	}

	if recovered == 0 {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, batchErr)
	}
	log.Infof("per-symbol refresh recovered %d of %d symbols", recovered, len(symbols))
	return nil
}

// RefreshOne resolves a single symbol through the fallback chain.
func (f *Fetcher) RefreshOne(ctx context.Context, symbol string) PriceResult {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	return f.resolve(ctx, symbol, f.now(), f.logger.With("symbol", symbol))
}

func (f *Fetcher) refreshBatch(ctx context.Context, symbols []string, stamp time.Time, log logger.Logger) error {
	quotes, err := f.provider.Quotes(ctx, symbols...)
	if err != nil {
		return err
	}

	entries := make(map[string]model.QuoteEntry, len(quotes))
	for symbol, q := range quotes {
		entries[symbol] = entryFromProvider(q, f.names, stamp)
	}

	written, err := f.cache.Commit(ctx, stamp, entries)
	if err != nil {
		log.Errorf("%s: can't persist batch refresh", err)
	}
	log.Infof("batch refresh updated %d of %d symbols", written, len(symbols))
	return nil
}

func (f *Fetcher) resolve(ctx context.Context, symbol string, stamp time.Time, log logger.Logger) PriceResult {
	res := PriceResult{Symbol: symbol}
	for _, s := range f.strategies {
		r, err := s.Resolve(ctx, symbol, stamp)
		if err != nil {
			if errors.Is(err, ErrSymbolNotFound) {
				res.NotFound = true
			}
			log.Debugf("%s: %s tier has no price for %s", err, s.Name(), symbol)
			continue
		}

		// a symbol the provider rejected is never seeded into the cache from the static tiers
		if r.Commit && (r.Source == FromProvider || !res.NotFound) {
			if _, err := f.cache.Commit(ctx, stamp, map[string]model.QuoteEntry{symbol: r.Entry}); err != nil {
				log.Errorf("%s: can't persist quote for %s", err, symbol)
			}
		}

		res.Price = r.Entry.Price
		res.Source = r.Source
		return res
	}

	res.Err = fmt.Errorf("%w: %s", ErrRefreshFailed, symbol)
	return res
}

// NormalizeSymbols upper-cases, trims and de-duplicates symbols keeping their first-seen order.
func NormalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
