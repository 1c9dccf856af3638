package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/coingecko"
	"github.com/rcleozier/creator-log/internal/grading"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/model"
)

// MarketData is the subset of the CoinGecko client the grader needs.
type MarketData interface {
	Markets(ctx context.Context, page, perPage int) ([]coingecko.MarketCoin, error)
	Coin(ctx context.Context, id string) (*coingecko.CoinDetail, error)
}

type GradeConfig struct {
	CacheTTL    time.Duration
	Concurrency int
	BatchMax    int
}

// GradeService grades coins from live market data. Reports are cached for
// the revalidation window and never stored.
type GradeService struct {
	market      MarketData
	cache       *CacheService
	ttl         time.Duration
	concurrency int
	batchMax    int
	now         func() time.Time
	log         zerolog.Logger
}

func NewGradeService(market MarketData, cache *CacheService, cfg GradeConfig) *GradeService {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.BatchMax < 1 {
		cfg.BatchMax = 1
	}
	return &GradeService{
		market:      market,
		cache:       cache,
		ttl:         cfg.CacheTTL,
		concurrency: cfg.Concurrency,
		batchMax:    cfg.BatchMax,
		now:         time.Now,
		log:         logging.Component("grader"),
	}
}

// BatchMax is the largest batch Batch accepts.
func (s *GradeService) BatchMax() int {
	return s.batchMax
}

// Grade returns the report for one coin. Unknown coins wrap
// apperr.ErrNotFound.
func (s *GradeService) Grade(ctx context.Context, coinID string) (*model.GradeReport, error) {
	coinID = strings.TrimSpace(coinID)
	if coinID == "" {
		return nil, fmt.Errorf("coin id is required: %w", apperr.ErrValidation)
	}

	key := gradeKey(coinID)
	var cached model.GradeReport
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	detail, err := s.market.Coin(ctx, coinID)
	if err != nil {
		return nil, fmt.Errorf("grade %s: %w", coinID, err)
	}
	report := grading.Report(detail, s.now())
	metrics.GradesComputed.WithLabelValues(report.Grade.Final).Inc()

	if err := s.cache.SetJSON(ctx, key, report, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("coin", coinID).Msg("failed to cache grade")
	}
	return report, nil
}

// Batch grades ids concurrently. Coins that fail to grade are dropped and
// the rest keep their request order.
func (s *GradeService) Batch(ctx context.Context, ids []string) ([]*model.GradeReport, error) {
	if len(ids) > s.batchMax {
		return nil, fmt.Errorf("at most %d coins per request, got %d: %w", s.batchMax, len(ids), apperr.ErrValidation)
	}

	results := make([]*model.GradeReport, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			report, err := s.Grade(gctx, id)
			if err != nil {
				s.log.Warn().Err(err).Str("coin", id).Msg("dropping coin from batch")
				return nil
			}
			results[i] = report
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*model.GradeReport, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// Top grades the coins on the market-cap page containing offset. limit is
// clamped to 1..BatchMax.
func (s *GradeService) Top(ctx context.Context, limit, offset int) ([]*model.GradeReport, error) {
	limit = clamp(limit, 1, s.batchMax)
	if offset < 0 {
		offset = 0
	}
	page := offset/limit + 1

	coins, err := s.Markets(ctx, page, limit)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(coins))
	for _, c := range coins {
		ids = append(ids, c.ID)
	}
	return s.Batch(ctx, ids)
}

// Markets returns one page of coins ordered by market cap. perPage is
// clamped to 1..250 and page to at least 1.
func (s *GradeService) Markets(ctx context.Context, page, perPage int) ([]coingecko.MarketCoin, error) {
	perPage = clamp(perPage, 1, coingecko.MaxPerPage)
	if page < 1 {
		page = 1
	}

	key := marketsKey(page, perPage)
	var cached []coingecko.MarketCoin
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}

	coins, err := s.market.Markets(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("markets page %d: %w", page, err)
	}
	if err := s.cache.SetJSON(ctx, key, coins, s.ttl); err != nil {
		s.log.Warn().Err(err).Int("page", page).Msg("failed to cache markets page")
	}
	return coins, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
