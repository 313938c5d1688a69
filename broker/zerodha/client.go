// Package zerodha is a minimal Kite Connect v3 REST client covering the
// calls a paper-trading session needs: session token exchange, profile,
// historical candles, last traded price and (optional) order placement.
package zerodha

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

const (
	// DefaultURL is the Kite Connect API host.
	DefaultURL = "https://api.kite.trade"
	// LoginBase is where the browser-side OAuth flow starts.
	LoginBase = "https://kite.zerodha.com/connect/login"

	apiVersion = "3"
)

// Client talks to the Kite Connect REST API. AccessToken is empty until
// GenerateSession or SetAccessToken runs.
type Client struct {
	baseURL     string
	apiKey      string
	apiSecret   string
	accessToken string
	httpClient  *http.Client
}

func NewClient(apiKey, apiSecret string) *Client {
	return &Client{
		baseURL:   DefaultURL,
		apiKey:    apiKey,
		apiSecret: apiSecret,
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

// SetAccessToken installs a previously saved token, skipping the login
// flow. Kite tokens expire daily around 6 AM IST.
func (c *Client) SetAccessToken(token string) {
	c.accessToken = token
}

// LoginURL returns the URL the user must visit to obtain a request token.
func (c *Client) LoginURL() string {
	return fmt.Sprintf("%s?v=%s&api_key=%s", LoginBase, apiVersion, url.QueryEscape(c.apiKey))
}

// Session is the result of the token exchange.
type Session struct {
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	AccessToken string `json:"access_token"`
}

// GenerateSession exchanges the request token from the login redirect for
// an access token. The checksum is SHA-256 over apiKey+requestToken+apiSecret.
func (c *Client) GenerateSession(ctx context.Context, requestToken string) (Session, error) {
	sum := sha256.Sum256([]byte(c.apiKey + requestToken + c.apiSecret))

	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", hex.EncodeToString(sum[:]))

	var out Session
	if err := c.do(ctx, http.MethodPost, "/session/token", form, &out); err != nil {
		return Session{}, err
	}

	c.accessToken = out.AccessToken

	return out, nil
}

// Profile is the authenticated user's identity, used as a connectivity
// check after login.
type Profile struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	Broker   string `json:"broker"`
}

func (c *Client) Profile(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/user/profile", nil, &out)
	return out, err
}

func kiteInterval(i market.Interval) string {
	switch i {
	case market.Minute:
		return "minute"
	case market.FiveMinute:
		return "5minute"
	case market.FifteenMinute:
		return "15minute"
	case market.Hour:
		return "60minute"
	case market.Day:
		return "day"
	default:
		return "5minute"
	}
}

// HistoricalBars fetches candles for one instrument. Kite returns each
// candle as a positional array [time, open, high, low, close, volume].
func (c *Client) HistoricalBars(ctx context.Context, inst market.Instrument, interval market.Interval, from, to time.Time) ([]market.Bar, error) {
	if inst.KiteToken == 0 {
		return nil, fmt.Errorf("%s has no kite instrument token: %w", inst.Symbol, broker.ErrDataUnavailable)
	}

	const layout = "2006-01-02 15:04:05"

	params := url.Values{}
	params.Set("from", from.Format(layout))
	params.Set("to", to.Format(layout))

	path := fmt.Sprintf("/instruments/historical/%d/%s?%s", inst.KiteToken, kiteInterval(interval), params.Encode())

	var out struct {
		Candles [][]json.RawMessage `json:"candles"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("historical %s: %w", inst.Symbol, err)
	}
	if len(out.Candles) == 0 {
		return nil, fmt.Errorf("historical %s: empty response: %w", inst.Symbol, broker.ErrDataUnavailable)
	}

	bars := make([]market.Bar, 0, len(out.Candles))

	for _, raw := range out.Candles {
		if len(raw) < 6 {
			return nil, fmt.Errorf("historical %s: short candle row", inst.Symbol)
		}

		var ts string
		if err := json.Unmarshal(raw[0], &ts); err != nil {
			return nil, fmt.Errorf("historical %s: candle time: %w", inst.Symbol, err)
		}
		t, err := parseKiteTime(ts)
		if err != nil {
			return nil, fmt.Errorf("historical %s: %w", inst.Symbol, err)
		}

		var ohlcv [5]float64
		for i := 0; i < 5; i++ {
			if err := json.Unmarshal(raw[i+1], &ohlcv[i]); err != nil {
				return nil, fmt.Errorf("historical %s: candle field %d: %w", inst.Symbol, i+1, err)
			}
		}

		bars = append(bars, market.Bar{
			Time:   t,
			Open:   ohlcv[0],
			High:   ohlcv[1],
			Low:    ohlcv[2],
			Close:  ohlcv[3],
			Volume: int64(ohlcv[4]),
		})
	}

	return bars, nil
}

// LTP returns the last traded price for one instrument.
func (c *Client) LTP(ctx context.Context, inst market.Instrument) (float64, error) {
	key := inst.Exchange + ":" + inst.Symbol

	params := url.Values{}
	params.Set("i", key)

	var out map[string]struct {
		LastPrice float64 `json:"last_price"`
	}
	if err := c.do(ctx, http.MethodGet, "/quote/ltp?"+params.Encode(), nil, &out); err != nil {
		return 0, fmt.Errorf("ltp %s: %w", key, err)
	}

	q, ok := out[key]
	if !ok {
		return 0, fmt.Errorf("ltp %s: missing from response", key)
	}

	return q.LastPrice, nil
}

// OrderParams is a regular-variety order request.
type OrderParams struct {
	Symbol    string
	Exchange  string
	Side      broker.Side
	Quantity  int
	OrderType string // MARKET or LIMIT
	Price     float64
	Product   string // CNC, MIS
}

// PlaceOrder submits a live order and returns the broker order id. Paper
// sessions never call this; it exists for the live-order path where any
// failure is reported as a rejected order upstream.
func (c *Client) PlaceOrder(ctx context.Context, p OrderParams) (string, error) {
	if p.OrderType == "" {
		p.OrderType = "MARKET"
	}
	if p.Product == "" {
		p.Product = "CNC"
	}

	form := url.Values{}
	form.Set("tradingsymbol", p.Symbol)
	form.Set("exchange", p.Exchange)
	form.Set("transaction_type", string(p.Side))
	form.Set("quantity", fmt.Sprintf("%d", p.Quantity))
	form.Set("order_type", p.OrderType)
	form.Set("product", p.Product)
	if p.OrderType == "LIMIT" {
		form.Set("price", fmt.Sprintf("%.2f", p.Price))
	}

	var out struct {
		OrderID string `json:"order_id"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/regular", form, &out); err != nil {
		return "", fmt.Errorf("place order %s %s: %w", p.Side, p.Symbol, err)
	}

	return out.OrderID, nil
}

// parseKiteTime accepts the timestamp shapes Kite emits for candles.
func parseKiteTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q", s)
}

// do runs one API call. Every Kite response wraps its payload in
// {"status": "...", "data": ...}.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-Kite-Version", apiVersion)
	if c.accessToken != "" {
		req.Header.Set("Authorization", "token "+c.apiKey+":"+c.accessToken)
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Message   string `json:"message"`
			ErrorType string `json:"error_type"`
		}
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("kite API error (status %d, %s): %s", resp.StatusCode, apiErr.ErrorType, apiErr.Message)
		}
		return fmt.Errorf("kite API error (status %d): %s", resp.StatusCode, string(raw))
	}

	if out == nil {
		return nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}

	return nil
}
