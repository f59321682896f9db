// Package hgbrasil implements quotes.Provider on top of the HG Brasil finance API.
package hgbrasil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/STTM-NSU/financeel/internal/logger"
	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/STTM-NSU/financeel/internal/quotes"
	"github.com/shopspring/decimal"
	"resty.dev/v3"
)

const (
	_stockPriceURL = "/finance/stock_price"
)

type stockResult struct {
	Symbol             string   `json:"symbol"`
	Name               string   `json:"name"`
	RegularMarketPrice *float64 `json:"regular_market_price"`
	OfferPrice         *float64 `json:"offer_price"`
	Price              *float64 `json:"price"`
	ChangePercent      *float64 `json:"change_percent"`
	Error              bool     `json:"error"`
	Message            string   `json:"message"`
}

// price picks the first price field present, in the order the provider documents them.
func (r stockResult) price() decimal.Decimal {
	for _, p := range []*float64{r.RegularMarketPrice, r.OfferPrice, r.Price} {
		if p != nil {
			return decimal.NewFromFloat(*p)
		}
	}
	return decimal.Zero
}

type stockPriceResponse struct {
	By       string                 `json:"by"`
	ValidKey bool                   `json:"valid_key"`
	Results  map[string]stockResult `json:"results"`
}

type errorResponse struct {
	Message string `json:"message"`
}

type Client struct {
	c      *resty.Client
	apiKey string

	logger logger.Logger
}

func NewClient(address, apiKey string, timeout time.Duration, logger logger.Logger) *Client {
	client := resty.New().
		SetLogger(logger).
		SetBaseURL(address).
		SetTimeout(timeout)

	return &Client{
		c:      client,
		apiKey: apiKey,
		logger: logger.With("component", "hgbrasil"),
	}
}

func (c *Client) Close() error {
	return c.c.Close()
}

// curl "https://api.hgbrasil.com/finance/stock_price?key=KEY&symbol=PETR4,VALE3"
func (c *Client) Quotes(ctx context.Context, symbols ...string) (map[string]model.ProviderQuote, error) {
	if len(symbols) == 0 {
		return map[string]model.ProviderQuote{}, nil
	}

	params := map[string]string{
		"format": "json",
		"symbol": strings.Join(symbols, ","),
	}
	if c.apiKey != "" {
		params["key"] = c.apiKey
	}

	req := c.c.R().
		SetQueryParams(params).
		SetResult(&stockPriceResponse{}).
		SetError(&errorResponse{}).
		SetContext(ctx)

	resp, err := req.Get(_stockPriceURL)
	if err != nil {
		// a 2xx that failed anyway means the body could not be decoded
		if isDecodeError(err) || (resp != nil && resp.StatusCode() >= 200 && resp.StatusCode() < 300) {
			return nil, fmt.Errorf("%w: %w", quotes.ErrMalformedResponse, err)
		}
		return nil, fmt.Errorf("%w: %w", quotes.ErrNetwork, err)
	}
	defer resp.Body.Close()

	c.logger.Debugf("got response %s status: %s, %s", resp.Request.URL, resp.Status(), resp.Duration())

	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*errorResponse); ok && e.Message != "" {
			msg = e.Message
		}
		return nil, fmt.Errorf("%w: stock price request error: %s", quotes.ErrNetwork, msg)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: unexpected status %s", quotes.ErrNetwork, resp.Status())
	}

	body, ok := resp.Result().(*stockPriceResponse)
	if !ok || body == nil || body.Results == nil {
		return nil, fmt.Errorf("%w: no results in response", quotes.ErrMalformedResponse)
	}

	out := make(map[string]model.ProviderQuote, len(body.Results))
	for key, r := range body.Results {
		symbol := strings.ToUpper(key)
		if r.Error {
			c.logger.Debugf("%s: provider doesn't know %s", r.Message, symbol)
			continue
		}

		q := model.ProviderQuote{
			Symbol: symbol,
			Price:  r.price(),
			Name:   r.Name,
		}
		if r.ChangePercent != nil {
			q.ChangePercent = decimal.NewFromFloat(*r.ChangePercent)
		}
		out[symbol] = q
	}

	return out, nil
}

func isDecodeError(err error) bool {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}
