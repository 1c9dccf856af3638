package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/model"
)

// Refresher reloads the case dataset from the sheet.
type Refresher interface {
	Refresh(ctx context.Context) (*model.Dataset, error)
}

// Pruner trims the snapshot archive to the newest keep entries.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// RefreshWorker is a periodic background job that re-reads the sheet so the
// cache stays warm and the archive keeps up with edits.
type RefreshWorker struct {
	cases    Refresher
	pruner   Pruner
	keep     int
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	log      zerolog.Logger
}

// NewRefreshWorker creates a worker that ticks every interval. pruner may
// be nil; otherwise the archive is trimmed to keep snapshots after each
// successful refresh.
func NewRefreshWorker(cases Refresher, pruner Pruner, keep int, interval time.Duration) *RefreshWorker {
	return &RefreshWorker{
		cases:    cases,
		pruner:   pruner,
		keep:     keep,
		interval: interval,
		stopCh:   make(chan struct{}),
		log:      logging.Component("refresh-worker"),
	}
}

// Start runs one tick immediately, then every interval, until ctx is
// cancelled or Stop is called. It blocks.
func (w *RefreshWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("starting")

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-ctx.Done():
			w.log.Info().Msg("stopping (context cancelled)")
			return
		case <-w.stopCh:
			w.log.Info().Msg("stopping (stop signal)")
			return
		}
	}
}

// Stop signals the worker to stop. Safe to call more than once.
func (w *RefreshWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
}

func (w *RefreshWorker) tick(ctx context.Context) {
	start := time.Now()
	defer func() { metrics.RefreshTickDuration.Observe(time.Since(start).Seconds()) }()

	ds, err := w.cases.Refresh(ctx)
	if err != nil {
		w.log.Warn().Err(err).Msg("refresh failed, keeping cached data")
		return
	}

	ev := w.log.Info().Int("cases", len(ds.Cases)).Str("checksum", ds.Checksum)
	if w.pruner != nil && w.keep > 0 {
		pruned, err := w.pruner.Prune(ctx, w.keep)
		if err != nil {
			w.log.Warn().Err(err).Msg("archive prune failed")
		} else {
			ev = ev.Int64("pruned", pruned)
		}
	}
	ev.Dur("elapsed", time.Since(start)).Msg("tick complete")
}
