// Package dhan is a minimal Dhan v2 REST client: fund limits, intraday
// candles, last traded price and (optional) order placement. Dhan
// authenticates with a long-lived access token sent on every request,
// there is no login flow.
package dhan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

// DefaultURL is the Dhan API host, same for sandbox and live accounts.
const DefaultURL = "https://api.dhan.co/v2"

// NSE equity segment identifier in Dhan vocabulary.
const segmentNSE = "NSE_EQ"

type Client struct {
	baseURL     string
	clientID    string
	accessToken string
	httpClient  *http.Client
}

func NewClient(clientID, accessToken string) *Client {
	return &Client{
		baseURL:     DefaultURL,
		clientID:    clientID,
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL points the client somewhere else, used by tests.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// FundLimits is the account cash view, used as a connectivity check.
type FundLimits struct {
	AvailableBalance   float64 `json:"availableBalance"`
	UtilizedAmount     float64 `json:"utilizedAmount"`
	WithdrawableAmount float64 `json:"withdrawableBalance"`
}

func (c *Client) FundLimits(ctx context.Context) (FundLimits, error) {
	var out FundLimits
	err := c.do(ctx, http.MethodGet, "/fundlimit", nil, &out)
	return out, err
}

func dhanInterval(i market.Interval) string {
	switch i {
	case market.Minute:
		return "1"
	case market.FiveMinute:
		return "5"
	case market.FifteenMinute:
		return "15"
	case market.Hour:
		return "60"
	default:
		return "5"
	}
}

// intradayResponse is columnar: parallel arrays indexed by candle.
type intradayResponse struct {
	Open      []float64 `json:"open"`
	High      []float64 `json:"high"`
	Low       []float64 `json:"low"`
	Close     []float64 `json:"close"`
	Volume    []float64 `json:"volume"`
	Timestamp []int64   `json:"timestamp"`
}

// HistoricalBars fetches intraday candles for one instrument.
func (c *Client) HistoricalBars(ctx context.Context, inst market.Instrument, interval market.Interval, from, to time.Time) ([]market.Bar, error) {
	if inst.DhanSecurityID == "" {
		return nil, fmt.Errorf("%s has no dhan security id: %w", inst.Symbol, broker.ErrDataUnavailable)
	}

	const layout = "2006-01-02 15:04:05"

	body := map[string]any{
		"securityId":      inst.DhanSecurityID,
		"exchangeSegment": segmentNSE,
		"instrument":      "EQUITY",
		"interval":        dhanInterval(interval),
		"fromDate":        from.Format(layout),
		"toDate":          to.Format(layout),
	}

	var out intradayResponse
	if err := c.do(ctx, http.MethodPost, "/charts/intraday", body, &out); err != nil {
		return nil, fmt.Errorf("intraday %s: %w", inst.Symbol, err)
	}

	n := len(out.Timestamp)
	if n == 0 {
		return nil, fmt.Errorf("intraday %s: empty response: %w", inst.Symbol, broker.ErrDataUnavailable)
	}
	if len(out.Open) != n || len(out.High) != n || len(out.Low) != n || len(out.Close) != n || len(out.Volume) != n {
		return nil, fmt.Errorf("intraday %s: ragged columnar response", inst.Symbol)
	}

	bars := make([]market.Bar, 0, n)
	for i := 0; i < n; i++ {
		bars = append(bars, market.Bar{
			Time:   time.Unix(out.Timestamp[i], 0).UTC(),
			Open:   out.Open[i],
			High:   out.High[i],
			Low:    out.Low[i],
			Close:  out.Close[i],
			Volume: int64(out.Volume[i]),
		})
	}

	return bars, nil
}

// LTP returns the last traded price for one instrument.
func (c *Client) LTP(ctx context.Context, inst market.Instrument) (float64, error) {
	body := map[string][]string{
		segmentNSE: {inst.DhanSecurityID},
	}

	var out struct {
		Data map[string]map[string]struct {
			LastPrice float64 `json:"last_price"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/marketfeed/ltp", body, &out); err != nil {
		return 0, fmt.Errorf("ltp %s: %w", inst.Symbol, err)
	}

	q, ok := out.Data[segmentNSE][inst.DhanSecurityID]
	if !ok {
		return 0, fmt.Errorf("ltp %s: security %s missing from response", inst.Symbol, inst.DhanSecurityID)
	}

	return q.LastPrice, nil
}

// OrderParams is a plain equity order request.
type OrderParams struct {
	SecurityID string
	Side       broker.Side
	Quantity   int
	OrderType  string // MARKET or LIMIT
	Price      float64
	Product    string // CNC, INTRADAY
}

// OrderResponse reports the broker-side order id and its initial status.
type OrderResponse struct {
	OrderID     string `json:"orderId"`
	OrderStatus string `json:"orderStatus"`
}

// PlaceOrder submits a live order. Paper sessions never call this; it
// exists for the live-order path where any failure is reported as a
// rejected order upstream.
func (c *Client) PlaceOrder(ctx context.Context, p OrderParams) (OrderResponse, error) {
	if p.OrderType == "" {
		p.OrderType = "MARKET"
	}
	if p.Product == "" {
		p.Product = "CNC"
	}

	body := map[string]any{
		"dhanClientId":    c.clientID,
		"transactionType": string(p.Side),
		"exchangeSegment": segmentNSE,
		"productType":     p.Product,
		"orderType":       p.OrderType,
		"validity":        "DAY",
		"securityId":      p.SecurityID,
		"quantity":        p.Quantity,
	}
	if p.OrderType == "LIMIT" {
		body["price"] = p.Price
	}

	var out OrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &out); err != nil {
		return OrderResponse{}, fmt.Errorf("place order %s security %s: %w", p.Side, p.SecurityID, err)
	}

	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("access-token", c.accessToken)
	req.Header.Set("client-id", c.clientID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			ErrorType    string `json:"errorType"`
			ErrorMessage string `json:"errorMessage"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.ErrorMessage != "" {
			return fmt.Errorf("dhan API error (status %d, %s): %s", resp.StatusCode, apiErr.ErrorType, apiErr.ErrorMessage)
		}
		return fmt.Errorf("dhan API error (status %d): %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}
