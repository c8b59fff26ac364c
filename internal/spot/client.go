// Package spot looks up crypto asset spot prices in USD from the Coinbase
// public prices API and relates them to the expense total.
package spot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://api.coinbase.com/v2/prices"
	DefaultTimeout = 10 * time.Second
)

var (
	ErrPriceUnavailable = errors.New("spot price unavailable")
	ErrInvalidSymbol    = errors.New("invalid asset symbol")
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9]{1,10}$`)

// NormalizeSymbol upper-cases s and checks it is a plain ticker.
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if !symbolPattern.MatchString(sym) {
		return "", fmt.Errorf("%w: %q", ErrInvalidSymbol, s)
	}
	return sym, nil
}

// PriceSource returns the USD spot price of one asset.
type PriceSource interface {
	Spot(ctx context.Context, symbol string) (decimal.Decimal, error)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ PriceSource = (*Client)(nil)

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type spotResponse struct {
	Data *struct {
		Base     string  `json:"base"`
		Currency string  `json:"currency"`
		Amount   *string `json:"amount"`
	} `json:"data"`
}

// Spot fetches GET {base}/{SYMBOL}-USD/spot and returns data.amount. The
// price must be a positive decimal string.
func (c *Client) Spot(ctx context.Context, symbol string) (decimal.Decimal, error) {
	sym, err := NormalizeSymbol(symbol)
	if err != nil {
		return decimal.Zero, err
	}
	endpoint := fmt.Sprintf("%s/%s-USD/spot", c.baseURL, sym)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return decimal.Zero, fmt.Errorf("%w: status %d: %s", ErrPriceUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode body: %v", ErrPriceUnavailable, err)
	}
	if out.Data == nil || out.Data.Amount == nil {
		return decimal.Zero, fmt.Errorf("%w: response has no data.amount", ErrPriceUnavailable)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(*out.Data.Amount))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q: %v", ErrPriceUnavailable, *out.Data.Amount, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", ErrPriceUnavailable, price)
	}
	return price, nil
}
