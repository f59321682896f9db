package quotes

import "errors"

var (
	ErrNetwork           = errors.New("quote provider unreachable")
	ErrMalformedResponse = errors.New("malformed quote provider response")
	ErrSymbolNotFound    = errors.New("symbol not found in quote provider")
	ErrRefreshInProgress = errors.New("refresh already in progress")
	ErrRefreshFailed     = errors.New("refresh failed for every symbol")

	errUnavailable = errors.New("price unavailable")
)
