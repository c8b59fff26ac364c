// Package rates converts USD amounts into other currencies using the
// openexchangerates.org latest-rates endpoint.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultBaseURL = "https://openexchangerates.org/api/latest.json"
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrRateUnavailable covers transport failures, non-2xx responses and
	// bodies that do not match the expected schema.
	ErrRateUnavailable = errors.New("exchange rates unavailable")
	// ErrRateMissing means the response had no rate for the requested code.
	ErrRateMissing = errors.New("exchange rate missing")
)

// Rates maps a currency code to units of that currency per USD.
type Rates map[string]decimal.Decimal

// Source fetches the current rate table.
type Source interface {
	Latest(ctx context.Context) (Rates, error)
}

type Client struct {
	baseURL    string
	appID      string
	httpClient *http.Client
}

var _ Source = (*Client)(nil)

// NewClient builds a client. Empty baseURL and nil httpClient fall back to
// DefaultBaseURL and a client with DefaultTimeout.
func NewClient(baseURL, appID string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, appID: appID, httpClient: httpClient}
}

type latestResponse struct {
	Base  string                     `json:"base"`
	Rates map[string]decimal.Decimal `json:"rates"`
}

// Latest issues one GET for the whole rate table. There is no retry.
func (c *Client) Latest(ctx context.Context) (Rates, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", ErrRateUnavailable, err)
	}
	q := u.Query()
	q.Set("app_id", c.appID)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRateUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrRateUnavailable, err)
	}
	if out.Rates == nil {
		return nil, fmt.Errorf("%w: response has no rates object", ErrRateUnavailable)
	}
	return Rates(out.Rates), nil
}
