package tracker

import (
	"context"
	"testing"
	"time"

	"github.com/STTM-NSU/financeel/internal/kv"
	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/STTM-NSU/financeel/internal/portfolio"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/STTM-NSU/financeel/internal/quotes/quotestest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"
)

var now = time.Date(2024, 5, 10, 15, 0, 0, 0, time.UTC)

func cost(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func newTestTracker(t *testing.T, p quotes.Provider, store kv.Store, opts ...quotes.Option) *Tracker {
	t.Helper()
	log := logger.NewNop()
	cache := quotes.NewCache(store)
	opts = append([]quotes.Option{
		quotes.WithLimiter(ratelimit.NewUnlimited()),
		quotes.WithClock(func() time.Time { return now }),
	}, opts...)
	fetcher := quotes.NewFetcher(p, cache, log, opts...)
	book := portfolio.NewBook(store, model.KnownSymbols, model.Palette)

	tr := New(book, cache, fetcher, model.KnownSymbols, log)
	require.NoError(t, tr.Load(context.Background()))
	return tr
}

func TestAddPositionValidation(t *testing.T) {
	p := quotestest.NewProvider().Set("PETR4", "36", "")
	tr := newTestTracker(t, p, kv.NewMemoryStore())

	tests := []struct {
		name     string
		symbol   string
		quantity int64
		cost     decimal.NullDecimal
	}{
		{name: "empty symbol", symbol: "  ", quantity: 1},
		{name: "zero quantity", symbol: "PETR4", quantity: 0},
		{name: "negative quantity", symbol: "PETR4", quantity: -5},
		{name: "negative cost", symbol: "PETR4", quantity: 1, cost: cost("-1")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.AddPosition(context.Background(), tt.symbol, tt.quantity, tt.cost)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	assert.Empty(t, tr.Positions())
	assert.Empty(t, p.Calls(), "validation happens before any lookup")
}

func TestAddPositionScenario(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	p := quotestest.NewProvider().Set("PETR4", "36.00", "PETROBRAS PN")
	tr := newTestTracker(t, p, store)

	_, err := tr.AddPosition(ctx, "petr4", 100, cost("30.00"))
	require.NoError(t, err)
	pos, err := tr.AddPosition(ctx, "PETR4", 100, cost("34.00"))
	require.NoError(t, err)

	assert.Equal(t, int64(200), pos.Quantity)
	assert.Equal(t, "32", pos.AvgPrice.Decimal.String())
	assert.Equal(t, "PETROBRAS PN", pos.Name)

	rows := tr.DisplayRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "7200", rows[0].CurrentValue.String())
	assert.Equal(t, "800", tr.Totals().Profit.String())

	// persisted on every mutation
	reloaded := newTestTracker(t, quotestest.NewProvider(), store)
	require.Len(t, reloaded.Positions(), 1)
	assert.Equal(t, int64(200), reloaded.Positions()[0].Quantity)
}

func TestAddPositionNotFound(t *testing.T) {
	tr := newTestTracker(t, quotestest.NewProvider(), kv.NewMemoryStore())

	_, err := tr.AddPosition(context.Background(), "XPTO", 10, decimal.NullDecimal{})
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Empty(t, tr.Positions())
}

func TestAddPositionOffline(t *testing.T) {
	p := quotestest.NewProvider()
	p.SingleErr = quotes.ErrNetwork

	t.Run("placeholder price is accepted", func(t *testing.T) {
		tr := newTestTracker(t, p, kv.NewMemoryStore())

		_, err := tr.AddPosition(context.Background(), "XPTO", 10, decimal.NullDecimal{})
		require.NoError(t, err)

		rows := tr.DisplayRows()
		require.Len(t, rows, 1)
		assert.True(t, rows[0].CurrentValue.Equal(decimal.NewFromInt(10).Mul(model.PlaceholderPrice)))
	})

	t.Run("no fallback", func(t *testing.T) {
		tr := newTestTracker(t, p, kv.NewMemoryStore(), quotes.WithoutStaticFallback())

		_, err := tr.AddPosition(context.Background(), "PETR4", 10, decimal.NullDecimal{})
		assert.ErrorIs(t, err, ErrPriceUnavailable)
		assert.Empty(t, tr.Positions())
	})
}

func TestRemovePosition(t *testing.T) {
	ctx := context.Background()
	p := quotestest.NewProvider().Set("PETR4", "36", "").Set("VALE3", "70", "")
	tr := newTestTracker(t, p, kv.NewMemoryStore())

	_, err := tr.AddPosition(ctx, "PETR4", 1, decimal.NullDecimal{})
	require.NoError(t, err)
	_, err = tr.AddPosition(ctx, "VALE3", 1, decimal.NullDecimal{})
	require.NoError(t, err)

	removed, err := tr.RemovePosition(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "PETR4", removed.Code)

	rows := tr.DisplayRows()
	require.Len(t, rows, 1)
	assert.Equal(t, "VALE3", rows[0].Symbol)

	_, err = tr.RemovePosition(ctx, 3)
	assert.ErrorIs(t, err, portfolio.ErrIndexOutOfRange)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	tr := newTestTracker(t, quotestest.NewProvider().Set("PETR4", "36", ""), store)

	_, err := tr.AddPosition(ctx, "PETR4", 1, decimal.NullDecimal{})
	require.NoError(t, err)
	require.NoError(t, tr.Clear(ctx))

	assert.Empty(t, tr.DisplayRows())
	assert.Empty(t, newTestTracker(t, quotestest.NewProvider(), store).Positions())
}

func TestRefreshPrices(t *testing.T) {
	ctx := context.Background()
	p := quotestest.NewProvider().Set("PETR4", "36", "").Set("XPTO11", "9.50", "")
	tr := newTestTracker(t, p, kv.NewMemoryStore())

	_, err := tr.AddPosition(ctx, "XPTO11", 1, decimal.NullDecimal{})
	require.NoError(t, err)

	assert.True(t, tr.RefreshPrices(ctx))
	assert.True(t, tr.LastRefreshed().Equal(now))

	calls := p.Calls()
	batch := calls[len(calls)-1]
	assert.Equal(t, "XPTO11", batch[0], "held symbols come first")
	assert.Contains(t, batch, "PETR4")
	assert.Len(t, batch, 1+len(model.KnownSymbols))
}

func TestRefreshPricesFailure(t *testing.T) {
	p := quotestest.NewProvider()
	p.BatchErr = quotes.ErrNetwork
	p.SingleErr = quotes.ErrNetwork
	tr := newTestTracker(t, p, kv.NewMemoryStore(), quotes.WithoutStaticFallback())

	assert.False(t, tr.RefreshPrices(context.Background()))
	assert.True(t, tr.LastRefreshed().IsZero())
}
