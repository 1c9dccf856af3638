package coingecko

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcleozier/creator-log/internal/apperr"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(apiKey string, handler func(*http.Request) (*http.Response, error)) *Client {
	client := NewClient(Config{
		BaseURL: "http://gecko.local/api/v3",
		APIKey:  apiKey,
		RPS:     1000,
		Burst:   10,
		Timeout: time.Second,
	})
	client.httpClient = &http.Client{Transport: roundTripFunc(handler)}
	return client
}

func jsonHTTPResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestMarkets_Success(t *testing.T) {
	client := newTestClient("", func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v3/coins/markets", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "usd", q.Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", q.Get("order"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "50", q.Get("per_page"))
		assert.Empty(t, r.Header.Get(apiKeyHeader))
		return jsonHTTPResponse(http.StatusOK, `[{"id":"bitcoin","symbol":"btc","name":"Bitcoin","market_cap":1.2e12,"market_cap_rank":1,"max_supply":null}]`), nil
	})

	coins, err := client.Markets(context.Background(), 2, 50)
	require.NoError(t, err)
	require.Len(t, coins, 1)
	assert.Equal(t, "bitcoin", coins[0].ID)
	require.NotNil(t, coins[0].MarketCapRank)
	assert.Equal(t, 1, *coins[0].MarketCapRank)
	assert.Nil(t, coins[0].MaxSupply)
}

func TestMarkets_EmptyBodyArray(t *testing.T) {
	client := newTestClient("", func(r *http.Request) (*http.Response, error) {
		return jsonHTTPResponse(http.StatusOK, `null`), nil
	})
	coins, err := client.Markets(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, coins)
	assert.Empty(t, coins)
}

func TestCoin_SendsAPIKeyAndDecodes(t *testing.T) {
	client := newTestClient("demo-key", func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v3/coins/bitcoin", r.URL.Path)
		assert.Equal(t, "demo-key", r.Header.Get(apiKeyHeader))
		assert.Equal(t, "true", r.URL.Query().Get("developer_data"))
		return jsonHTTPResponse(http.StatusOK, `{
			"id":"bitcoin","symbol":"btc","name":"Bitcoin",
			"image":{"large":"https://img/large.png"},
			"genesis_date":"2009-01-03",
			"market_cap_rank":1,
			"market_data":{"current_price":{"usd":60000},"market_cap":{"usd":1.2e12},"max_supply":21000000},
			"developer_data":{"commit_count_4_weeks":42},
			"community_data":{"twitter_followers":null}
		}`), nil
	})

	coin, err := client.Coin(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", coin.Name)
	assert.Equal(t, 60000.0, coin.MarketData.CurrentPrice[Currency])
	require.NotNil(t, coin.MarketData.MaxSupply)
	assert.Equal(t, 21e6, *coin.MarketData.MaxSupply)
	require.NotNil(t, coin.DeveloperData)
	assert.Equal(t, 42.0, *coin.DeveloperData.CommitCount4Weeks)
	require.NotNil(t, coin.CommunityData)
	assert.Nil(t, coin.CommunityData.TwitterFollowers)
}

func TestCoin_PathEscapesID(t *testing.T) {
	client := newTestClient("", func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/v3/coins/a%2Fb", r.URL.EscapedPath())
		return jsonHTTPResponse(http.StatusOK, `{"id":"a/b"}`), nil
	})
	_, err := client.Coin(context.Background(), "a/b")
	require.NoError(t, err)
}

func TestCoin_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"not found", http.StatusNotFound, `{"error":"coin not found"}`, apperr.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, `{}`, apperr.ErrUpstreamUnavailable},
		{"server error", http.StatusBadGateway, ``, apperr.ErrUpstreamUnavailable},
		{"bad json", http.StatusOK, `{"id":`, apperr.ErrMalformedPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient("", func(r *http.Request) (*http.Response, error) {
				return jsonHTTPResponse(tt.status, tt.body), nil
			})
			_, err := client.Coin(context.Background(), "nope")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestCoin_TransportError(t *testing.T) {
	client := newTestClient("", func(r *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.Coin(context.Background(), "bitcoin")
	assert.True(t, errors.Is(err, apperr.ErrUpstreamUnavailable))
}

func TestWait_RespectsContext(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://gecko.local", RPS: 0.001, Burst: 1, Timeout: time.Second})
	require.NoError(t, client.wait(context.Background()), "burst token is free")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := client.wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
