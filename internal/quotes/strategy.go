package quotes

import (
	"context"
	"fmt"
	"time"

	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
	"go.uber.org/ratelimit"
)

// Resolution is what a Strategy produced for a symbol. Commit tells the fetcher to write Entry to the cache.
type Resolution struct {
	Entry  model.QuoteEntry
	Source Source
	Commit bool
}

type Source string

const (
	FromProvider    Source = "provider"
	FromCache       Source = "cache"
	FromStatic      Source = "static"
	FromPlaceholder Source = "placeholder"
)

// Strategy is one tier of the per-symbol fallback chain. Returning an error hands the symbol to the next tier.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, symbol string, stamp time.Time) (Resolution, error)
}

type providerStrategy struct {
	provider Provider
	limiter  ratelimit.Limiter
	names    Names
}

func (s *providerStrategy) Name() string { return string(FromProvider) }

func (s *providerStrategy) Resolve(ctx context.Context, symbol string, stamp time.Time) (Resolution, error) {
	s.limiter.Take()
	quotes, err := s.provider.Quotes(ctx, symbol)
	if err != nil {
		return Resolution{}, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s", ErrSymbolNotFound, symbol)
	}
	return Resolution{
		Entry:  entryFromProvider(q, s.names, stamp),
		Source: FromProvider,
		Commit: true,
	}, nil
}

type cacheStrategy struct {
	cache *Cache
}

func (s *cacheStrategy) Name() string { return string(FromCache) }

func (s *cacheStrategy) Resolve(_ context.Context, symbol string, _ time.Time) (Resolution, error) {
	e, ok := s.cache.Get(symbol)
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %s not cached", errUnavailable, symbol)
	}
	return Resolution{Entry: e, Source: FromCache}, nil
}

type staticStrategy struct {
	prices map[string]decimal.Decimal
	names  Names
}

func (s *staticStrategy) Name() string { return string(FromStatic) }

func (s *staticStrategy) Resolve(_ context.Context, symbol string, stamp time.Time) (Resolution, error) {
	price, ok := s.prices[symbol]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: no static price for %s", errUnavailable, symbol)
	}
	return Resolution{
		Entry: model.QuoteEntry{
			Price:   price,
			Name:    s.names.Name(symbol, ""),
			Updated: stamp,
			Source:  model.SourceStatic,
		},
		Source: FromStatic,
		Commit: true,
	}, nil
}

type placeholderStrategy struct {
	price decimal.Decimal
	names Names
}

func (s *placeholderStrategy) Name() string { return string(FromPlaceholder) }

func (s *placeholderStrategy) Resolve(_ context.Context, symbol string, stamp time.Time) (Resolution, error) {
	return Resolution{
		Entry: model.QuoteEntry{
			Price:   s.price,
			Name:    s.names.Name(symbol, ""),
			Updated: stamp,
			Source:  model.SourcePlaceholder,
		},
		Source: FromPlaceholder,
		Commit: true,
	}, nil
}

// Names resolves display names: provider name first, then the known symbol table, then the symbol itself.
type Names map[string]model.SymbolInfo

func (n Names) Name(symbol, fromProvider string) string {
	if fromProvider != "" {
		return fromProvider
	}
	if info, ok := n[symbol]; ok && info.Name != "" {
		return info.Name
	}
	return symbol
}

func entryFromProvider(q model.ProviderQuote, names Names, stamp time.Time) model.QuoteEntry {
	return model.QuoteEntry{
		Price:   q.Price,
		Name:    names.Name(q.Symbol, q.Name),
		Updated: stamp,
		Change:  q.ChangePercent,
		Source:  model.SourceProvider,
	}
}
