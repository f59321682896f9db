// Package kv persists JSON documents under string keys.
package kv

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
)

// Keys used by the tracker, kept compatible with the browser storage layout.
const (
	PortfolioKey  = "financeel_portfolio"
	PriceCacheKey = "price_cache"
	LastUpdateKey = "last_update"
)

type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// GetJSON decodes the value stored under key into v. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, v any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := sonic.UnmarshalString(raw, v); err != nil {
		return false, fmt.Errorf("%w: can't decode %s", err, key)
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := sonic.MarshalString(v)
	if err != nil {
		return fmt.Errorf("%w: can't encode %s", err, key)
	}
	return s.Set(ctx, key, raw)
}
