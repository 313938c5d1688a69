package dhan

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rdholakia/kaagaz/broker"
	"github.com/rdholakia/kaagaz/market"
)

func TestFundLimits(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/fundlimit", r.URL.Path)
		assert.Equal(t, "tok-123", r.Header.Get("access-token"))
		assert.Equal(t, "client-1", r.Header.Get("client-id"))

		w.Write([]byte(`{"availableBalance":500000.0,"utilizedAmount":0,"withdrawableBalance":500000.0}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	fl, err := c.FundLimits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500000.0, fl.AvailableBalance)
}

func TestHistoricalBars(t *testing.T) {
	base := time.Date(2025, 3, 3, 9, 15, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/charts/intraday", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2885", body["securityId"])
		assert.Equal(t, "NSE_EQ", body["exchangeSegment"])
		assert.Equal(t, "5", body["interval"])

		resp := intradayResponse{
			Open:      []float64{2450, 2452.25},
			High:      []float64{2455.5, 2458},
			Low:       []float64{2448, 2451},
			Close:     []float64{2452.25, 2457},
			Volume:    []float64{125000, 98000},
			Timestamp: []int64{base.Unix(), base.Add(5 * time.Minute).Unix()},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	inst, err := market.Lookup("RELIANCE")
	require.NoError(t, err)

	bars, err := c.HistoricalBars(context.Background(), inst, market.FiveMinute, base, base.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, base, bars[0].Time)
	assert.Equal(t, 2452.25, bars[0].Close)
	assert.Equal(t, int64(98000), bars[1].Volume)
}

func TestHistoricalBarsEmptyIsDataUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"open":[],"high":[],"low":[],"close":[],"volume":[],"timestamp":[]}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	inst, err := market.Lookup("TCS")
	require.NoError(t, err)

	_, err = c.HistoricalBars(context.Background(), inst, market.FiveMinute, time.Now().Add(-time.Hour), time.Now())
	assert.ErrorIs(t, err, broker.ErrDataUnavailable)
}

func TestHistoricalBarsRaggedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"open":[1],"high":[1,2],"low":[1],"close":[1],"volume":[1],"timestamp":[1700000000]}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	inst, err := market.Lookup("TCS")
	require.NoError(t, err)

	_, err = c.HistoricalBars(context.Background(), inst, market.FiveMinute, time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ragged")
}

func TestLTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/marketfeed/ltp", r.URL.Path)

		var body map[string][]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []string{"1594"}, body["NSE_EQ"])

		w.Write([]byte(`{"data":{"NSE_EQ":{"1594":{"last_price":1812.35}}}}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	inst, err := market.Lookup("INFY")
	require.NoError(t, err)

	ltp, err := c.LTP(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, 1812.35, ltp)
}

func TestPlaceOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client-1", body["dhanClientId"])
		assert.Equal(t, "BUY", body["transactionType"])
		assert.Equal(t, "MARKET", body["orderType"])
		assert.Equal(t, "2885", body["securityId"])
		assert.Equal(t, float64(5), body["quantity"])

		w.Write([]byte(`{"orderId":"112111182198","orderStatus":"PENDING"}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "tok-123").WithBaseURL(server.URL)

	resp, err := c.PlaceOrder(context.Background(), OrderParams{
		SecurityID: "2885", Side: broker.Buy, Quantity: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "112111182198", resp.OrderID)
	assert.Equal(t, "PENDING", resp.OrderStatus)
}

func TestAPIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errorType":"Invalid_Authentication","errorMessage":"Client ID or user generated access token is invalid or expired."}`))
	}))
	defer server.Close()

	c := NewClient("client-1", "bad").WithBaseURL(server.URL)

	_, err := c.FundLimits(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid_Authentication")
}
