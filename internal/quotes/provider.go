package quotes

import (
	"context"

	"github.com/STTM-NSU/financeel/internal/model"
)

// Provider resolves current quotes for one or more symbols in a single request.
// Symbols the provider does not know are left out of the result. Transport failures
// wrap ErrNetwork, unexpected payloads wrap ErrMalformedResponse.
type Provider interface {
	Quotes(ctx context.Context, symbols ...string) (map[string]model.ProviderQuote, error)
}
