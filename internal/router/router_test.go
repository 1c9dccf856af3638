package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/coingecko"
	"github.com/rcleozier/creator-log/internal/handler"
	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/service"
	"github.com/rcleozier/creator-log/internal/sheet"
	"github.com/rcleozier/creator-log/internal/snapshot"
)

const testCSV = `Case ID,Channel Name,Channel URL,Channel Status,Appeal Status,Reason,Submitted Date,Status
014,Retro Repair,https://youtube.com/@RetroRepair,Terminated,Denied,Spam,2025-01-08,approved
,Quiet Trails,https://youtube.com/@quiettrails,Reinstated,Overturned,Circumvention,2025-02-15,approved
`

type stubSheet struct {
	table *sheet.Table
	err   error
}

func (s *stubSheet) Fetch(ctx context.Context) (*sheet.Table, error) {
	return s.table, s.err
}

type stubMarket struct{}

func (stubMarket) Markets(ctx context.Context, page, perPage int) ([]coingecko.MarketCoin, error) {
	return []coingecko.MarketCoin{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"}}, nil
}

func (stubMarket) Coin(ctx context.Context, id string) (*coingecko.CoinDetail, error) {
	if id != "bitcoin" {
		return nil, fmt.Errorf("coin %s: %w", id, apperr.ErrNotFound)
	}
	rank := 1
	price, mcap := 65000.0, 1.2e12
	return &coingecko.CoinDetail{
		ID:            "bitcoin",
		Symbol:        "btc",
		Name:          "Bitcoin",
		MarketCapRank: &rank,
		MarketData: coingecko.MarketData{
			CurrentPrice: map[string]float64{"usd": price},
			MarketCap:    map[string]float64{"usd": mcap},
			TotalVolume:  map[string]float64{"usd": 30e9},
		},
	}, nil
}

type testEnv struct {
	app      *fiber.App
	snapshot *snapshot.Store
}

func newTestEnv(t *testing.T, src service.SheetSource) *testEnv {
	t.Helper()
	store := snapshot.NewStore(t.TempDir())
	cache := service.NewMemoryCache()
	cases := service.NewCaseService(src, nil, store, cache, time.Minute)
	grades := service.NewGradeService(stubMarket{}, cache, service.GradeConfig{CacheTTL: time.Minute, Concurrency: 2, BatchMax: 5})

	app := fiber.New()
	Setup(app, &Handlers{
		Case:        handler.NewCaseHandler(cases),
		Termination: handler.NewTerminationHandler(cases),
		Stats:       handler.NewStatsHandler(cases),
		Export:      handler.NewExportHandler(store),
		Coin:        handler.NewCoinHandler(grades),
		Grade:       handler.NewGradeHandler(grades),
		Health:      handler.NewHealthHandler(nil, nil, cases),
	}, nil, "*")
	return &testEnv{app: app, snapshot: store}
}

func liveSheet(t *testing.T) *stubSheet {
	t.Helper()
	table, err := sheet.Parse([]byte(testCSV))
	require.NoError(t, err)
	return &stubSheet{table: table}
}

func (e *testEnv) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	return e.do(t, httptest.NewRequest(http.MethodGet, path, nil))
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &env))
	return env.Error.Code
}

func TestHealthLive(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))
	resp, body := env.get(t, "/health/live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestHealthReady(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, _ := env.get(t, "/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	env.get(t, "/api/cases")
	resp, body := env.get(t, "/health/ready")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"source":"sheet"`)
}

func TestCases_ListAndETag(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/cases")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SourceSheet, resp.Header.Get("X-Data-Source"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var cases []model.Case
	require.NoError(t, json.Unmarshal(body, &cases))
	assert.Len(t, cases, 2)

	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	again, _ := env.get(t, "/api/cases")
	assert.Equal(t, etag, again.Header.Get("ETag"))

	req := httptest.NewRequest(http.MethodGet, "/api/cases", nil)
	req.Header.Set("If-None-Match", etag)
	resp, _ = env.do(t, req)
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestCases_Filtering(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/cases?status=reinstated")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cases []model.Case
	require.NoError(t, json.Unmarshal(body, &cases))
	require.Len(t, cases, 1)
	assert.Equal(t, "quiettrails", cases[0].ID)

	resp, body = env.get(t, "/api/cases?sort=random")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_FIELD", errorCode(t, body))
}

func TestCases_FallbackHeader(t *testing.T) {
	env := newTestEnv(t, &stubSheet{err: fmt.Errorf("down: %w", apperr.ErrUpstreamUnavailable)})

	resp, _ := env.get(t, "/api/cases")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, model.SourceBundled, resp.Header.Get("X-Data-Source"))
}

func TestCases_Get(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	for _, id := range []string{"014", "case-014", "CASE-014", "14"} {
		resp, body := env.get(t, "/api/cases/"+id)
		require.Equal(t, http.StatusOK, resp.StatusCode, id)
		var c model.Case
		require.NoError(t, json.Unmarshal(body, &c))
		assert.Equal(t, "014", c.ID)
	}

	resp, body := env.get(t, "/api/cases/missing")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))
}

func TestCases_GetEscapedIDs(t *testing.T) {
	table, err := sheet.Parse([]byte("Case ID,Channel Name,Channel URL,Channel Status\n" +
		"A 7,Spaced,,Terminated\n" +
		"ñandú,Bird Watch,,Terminated\n" +
		",Plus Channel,https://youtube.com/c/foo+bar,Terminated\n"))
	require.NoError(t, err)
	env := newTestEnv(t, &stubSheet{table: table})

	_, body := env.get(t, "/api/cases")
	var listed []model.Case
	require.NoError(t, json.Unmarshal(body, &listed))
	ids := make([]string, 0, len(listed))
	for _, c := range listed {
		ids = append(ids, c.ID)
	}
	assert.ElementsMatch(t, []string{"A 7", "ñandú", "foo+bar"}, ids)

	tests := []struct {
		path string
		want string
	}{
		{"/api/cases/A%207", "A 7"},
		{"/api/cases/a%207", "A 7"},
		{"/api/cases/%C3%B1and%C3%BA", "ñandú"},
		{"/api/cases/foo+bar", "foo+bar"},
		{"/api/cases/foo%2Bbar", "foo+bar"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, body := env.get(t, tt.path)
			require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			var c model.Case
			require.NoError(t, json.Unmarshal(body, &c))
			assert.Equal(t, tt.want, c.ID)
		})
	}
}

func TestStatsAndAnalytics(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/stats")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"totalCases":2,"reinstated":1,"terminated":1,"underReview":0}`, string(body))

	resp, body = env.get(t, "/api/analytics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var a model.Analytics
	require.NoError(t, json.Unmarshal(body, &a))
	assert.Equal(t, 2, a.Stats.TotalCases)
	assert.InDelta(t, 50.0, a.ReinstatementRate, 1e-9)
}

func TestTerminations(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))
	resp, body := env.get(t, "/api/terminations")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out model.TerminationsResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Meta.TotalRows)
	assert.NotContains(t, out.Meta.DisplayColumns, "Status")

	down := newTestEnv(t, &stubSheet{err: fmt.Errorf("html: %w", apperr.ErrMalformedPayload)})
	resp, body = down.get(t, "/api/terminations")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "MALFORMED_PAYLOAD", errorCode(t, body))
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, _ := env.get(t, "/api/cases/export")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	path, err := env.snapshot.Write([]model.Case{{ID: "x", ChannelName: "X"}}, time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err)

	resp, body := env.get(t, "/api/cases/export")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), filepath.Base(path))
	assert.Contains(t, string(body), `"channelName": "X"`)
}

func TestCoins(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))
	resp, body := env.get(t, "/api/coins?per_page=1000")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"id":"bitcoin"`)
}

func TestGrade(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/grade/bitcoin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report model.GradeReport
	require.NoError(t, json.Unmarshal(body, &report))
	assert.Equal(t, "BTC", report.Coin.Symbol)
	assert.Len(t, report.Breakdown, 8)

	resp, body = env.get(t, "/api/grade/unknown-coin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(t, body))

	resp, _ = env.get(t, "/api/grade/Bad%20Id")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradesEnveloped(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/grades/bitcoin?format=summary")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Success  bool                   `json:"success"`
		Data     model.GradeSummaryView `json:"data"`
		Metadata struct {
			Format string `json:"format"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Success)
	assert.Equal(t, "summary", out.Metadata.Format)
	assert.Len(t, out.Data.Breakdown, 8)

	resp, body = env.get(t, "/api/grades/unknown-coin")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), `"success":false`)
	assert.Contains(t, string(body), `"error":"Coin not found"`)

	resp, _ = env.get(t, "/api/grades/bitcoin?format=xml")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradesList(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	resp, body := env.get(t, "/api/grades?coins=bitcoin,unknown-coin")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"count":1`)
	assert.NotContains(t, string(body), `"pagination"`)

	resp, body = env.get(t, "/api/grades?limit=2&offset=0")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"pagination":{"limit":2,"offset":0,"total":1}`)
	assert.Contains(t, string(body), `"source":"CoinGecko API + Custom Grading Algorithm"`)

	resp, _ = env.get(t, "/api/grades?limit=500")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGradesBatch(t *testing.T) {
	env := newTestEnv(t, liveSheet(t))

	post := func(body string) (*http.Response, []byte) {
		req := httptest.NewRequest(http.MethodPost, "/api/grades", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return env.do(t, req)
	}

	resp, body := post(`{"coinIds":["bitcoin","unknown-coin"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"count":1`)
	assert.Contains(t, string(body), `"requested":2`)
	assert.NotContains(t, string(body), `"breakdown"`)

	resp, body = post(`{"coinIds":["bitcoin"],"includeDetails":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"breakdown"`)

	for _, bad := range []string{`{}`, `{"coinIds":"bitcoin"}`, `{"coinIds":null}`, `not json`} {
		resp, body = post(bad)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, bad)
		assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body), bad)
	}

	resp, body = post(`{"coinIds":["a1","a2","a3","a4","a5","a6"]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}
