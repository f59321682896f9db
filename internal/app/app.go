// Package app wires the tracker and its collaborators from a loaded config.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/STTM-NSU/financeel/internal/config"
	"github.com/STTM-NSU/financeel/internal/kv"
	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/portfolio"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/STTM-NSU/financeel/internal/quotes/hgbrasil"
	"github.com/STTM-NSU/financeel/internal/tools"
	"github.com/STTM-NSU/financeel/internal/tracker"
)

type App struct {
	Tracker *tracker.Tracker
	Display tools.DisplayPolicy

	client     *hgbrasil.Client
	closeStore func() error
	logger     logger.Logger
}

func New(ctx context.Context, cfg config.Config, logger logger.Logger) (*App, error) {
	store, closeStore, err := kv.Open(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: can't open storage", err)
	}

	if cfg.Quotes.APIKey == "" {
		logger.Warnf("HG_BRASIL_API_KEY is not set, requests may be rate limited by the provider")
	}
	client := hgbrasil.NewClient(cfg.Quotes.Address, cfg.Quotes.APIKey, cfg.Quotes.Timeout, logger)

	opts := []quotes.Option{
		quotes.WithSymbolInterval(cfg.Quotes.SymbolInterval),
		quotes.WithNames(cfg.Symbols.Known),
	}
	if *cfg.Quotes.StaticFallback {
		opts = append(opts, quotes.WithStaticFallback(cfg.FallbackPrices(), cfg.Placeholder()))
	} else {
		opts = append(opts, quotes.WithoutStaticFallback())
	}

	cache := quotes.NewCache(store)
	fetcher := quotes.NewFetcher(client, cache, logger, opts...)
	book := portfolio.NewBook(store, cfg.Symbols.Known, cfg.Symbols.Palette)
	t := tracker.New(book, cache, fetcher, cfg.Symbols.Known, logger)

	a := &App{
		Tracker:    t,
		Display:    tools.NewDisplayPolicy(cfg.Display.NotApplicable, cfg.Display.CurrencySymbol),
		client:     client,
		closeStore: closeStore,
		logger:     logger,
	}

	if err := t.Load(ctx); err != nil {
		_ = a.release()
		return nil, fmt.Errorf("%w: can't load state", err)
	}
	logger.Debugf("fallback chain: %v", fetcher.Chain())

	return a, nil
}

// Close persists the tracker state and releases the provider client and the store.
func (a *App) Close(ctx context.Context) error {
	return errors.Join(a.Tracker.Save(ctx), a.release())
}

func (a *App) release() error {
	return errors.Join(a.client.Close(), a.closeStore())
}
