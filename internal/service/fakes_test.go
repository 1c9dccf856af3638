package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/coingecko"
	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/sheet"
)

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

const sheetCSV = `Case ID,Channel Name,Channel URL,Channel Status,Appeal Status,Reason,Submitted Date,Subscriber Count,Status
014,Retro Repair,https://youtube.com/@RetroRepair,Terminated,Denied,Spam,2025-01-08,48200,approved
,Quiet Trails,https://youtube.com/@quiettrails,Reinstated,Overturned,Circumvention,2025-02-15,"12,900",approved
,Night Owl Gaming,,Terminated,Under Review,Spam,2025-02-20,1.2M,pending
`

func mustTable(t *testing.T, csv string) *sheet.Table {
	t.Helper()
	table, err := sheet.Parse([]byte(csv))
	require.NoError(t, err)
	return table
}

type fakeSheet struct {
	mu    sync.Mutex
	table *sheet.Table
	err   error
	calls atomic.Int32
}

func (f *fakeSheet) Fetch(ctx context.Context) (*sheet.Table, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.table, nil
}

func (f *fakeSheet) fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

type fakeArchive struct {
	saved  []*model.Dataset
	latest *model.Dataset
	err    error
}

func (f *fakeArchive) Save(ctx context.Context, ds *model.Dataset) (bool, error) {
	f.saved = append(f.saved, ds)
	return true, nil
}

func (f *fakeArchive) Latest(ctx context.Context) (*model.Dataset, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.latest, nil
}

type fakeSnapshots struct {
	cases []model.Case
	err   error
}

func (f *fakeSnapshots) Latest() ([]model.Case, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return f.cases, "data/cases-20250101-000000.json", nil
}

type fakeMarket struct {
	mu       sync.Mutex
	coins    map[string]*coingecko.CoinDetail
	markets  []coingecko.MarketCoin
	pages    [][2]int
	coinHits map[string]int
}

func newFakeMarket(ids ...string) *fakeMarket {
	m := &fakeMarket{coins: map[string]*coingecko.CoinDetail{}, coinHits: map[string]int{}}
	for i, id := range ids {
		m.coins[id] = coinDetail(id, i+1)
		m.markets = append(m.markets, coingecko.MarketCoin{ID: id, Symbol: id[:3], Name: id})
	}
	return m
}

func (m *fakeMarket) Markets(ctx context.Context, page, perPage int) ([]coingecko.MarketCoin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages = append(m.pages, [2]int{page, perPage})
	return m.markets, nil
}

func (m *fakeMarket) Coin(ctx context.Context, id string) (*coingecko.CoinDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coinHits[id]++
	c, ok := m.coins[id]
	if !ok {
		return nil, fmt.Errorf("coin %s: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

func (m *fakeMarket) hits(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.coinHits[id]
}

func f64(v float64) *float64 { return &v }
func intp(v int) *int         { return &v }

func coinDetail(id string, rank int) *coingecko.CoinDetail {
	genesis := "2015-07-30"
	return &coingecko.CoinDetail{
		ID:            id,
		Symbol:        id[:3],
		Name:          id,
		GenesisDate:   &genesis,
		MarketCapRank: intp(rank),
		MarketData: coingecko.MarketData{
			CurrentPrice:             map[string]float64{"usd": 100},
			MarketCap:                map[string]float64{"usd": 20e9},
			TotalVolume:              map[string]float64{"usd": 1e9},
			ATH:                      map[string]float64{"usd": 150},
			ATL:                      map[string]float64{"usd": 1},
			PriceChangePercentage24h: f64(2),
			PriceChangePercentage7d:  f64(-4),
			PriceChangePercentage30d: f64(9),
			PriceChangePercentage1y:  f64(30),
			CirculatingSupply:        f64(100e6),
			TotalSupply:              f64(120e6),
		},
	}
}
