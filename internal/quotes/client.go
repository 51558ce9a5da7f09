package quotes

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// ErrSymbolNotFound signals that the provider does not know the ticker.
var ErrSymbolNotFound = errors.New("symbol not found")

type Quote struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// Provider resolves a ticker symbol to its current price and display name.
type Provider interface {
	Lookup(ctx context.Context, symbol string) (Quote, error)
}

type Client struct {
	client *resty.Client
	apiKey string
}

func NewClient(baseURL, apiKey string) *Client {
	c := resty.New()
	c.SetBaseURL(baseURL)
	c.SetTimeout(10 * time.Second)
	return &Client{client: c, apiKey: apiKey}
}

type quoteResponse struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"companyName"`
	LatestPrice float64 `json:"latestPrice"`
}

func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

func (c *Client) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return Quote{}, ErrSymbolNotFound
	}
	var out quoteResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParam("token", c.apiKey).
		SetResult(&out).
		Get("/stable/stock/{symbol}/quote")
	if err != nil {
		return Quote{}, fmt.Errorf("quote lookup for %s: %w", symbol, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return Quote{}, ErrSymbolNotFound
	}
	if resp.StatusCode() != http.StatusOK {
		return Quote{}, fmt.Errorf("quote provider returned %d", resp.StatusCode())
	}
	price := decimal.NewFromFloat(out.LatestPrice)
	if price.LessThanOrEqual(decimal.Zero) {
		return Quote{}, ErrSymbolNotFound
	}
	return Quote{Symbol: symbol, Name: out.CompanyName, Price: price}, nil
}
