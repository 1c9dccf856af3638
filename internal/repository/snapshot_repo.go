package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/model"
)

const schema = `
	CREATE TABLE IF NOT EXISTS case_snapshots (
		id           BIGSERIAL PRIMARY KEY,
		checksum     TEXT        NOT NULL UNIQUE,
		source       TEXT        NOT NULL,
		case_count   INTEGER     NOT NULL,
		cases        JSONB       NOT NULL,
		fetched_at   TIMESTAMPTZ NOT NULL,
		last_seen_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS case_snapshots_last_seen_idx ON case_snapshots (last_seen_at DESC);`

// SnapshotRepo archives every distinct case list fetched from the sheet.
// Identical lists share one row keyed by checksum.
type SnapshotRepo struct {
	pool *pgxpool.Pool
}

func NewSnapshotRepo(pool *pgxpool.Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// EnsureSchema creates the archive table if it does not exist.
func (r *SnapshotRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// Save archives ds. It reports whether a new row was created; a list seen
// before only has its last_seen_at bumped.
func (r *SnapshotRepo) Save(ctx context.Context, ds *model.Dataset) (bool, error) {
	payload, err := json.Marshal(ds.Cases)
	if err != nil {
		return false, fmt.Errorf("encode snapshot: %w", err)
	}

	query := `
		INSERT INTO case_snapshots (checksum, source, case_count, cases, fetched_at, last_seen_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (checksum) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
		RETURNING (xmax = 0) AS inserted`

	var inserted bool
	err = r.pool.QueryRow(ctx, query,
		ds.Checksum, ds.Source, len(ds.Cases), payload, ds.FetchedAt,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("save snapshot: %w", err)
	}
	return inserted, nil
}

// Latest returns the most recently seen archived list. It wraps
// apperr.ErrNotFound when the archive is empty.
func (r *SnapshotRepo) Latest(ctx context.Context) (*model.Dataset, error) {
	query := `
		SELECT checksum, cases, last_seen_at
		FROM case_snapshots
		ORDER BY last_seen_at DESC
		LIMIT 1`

	var (
		ds      model.Dataset
		payload []byte
		seen    time.Time
	)
	err := r.pool.QueryRow(ctx, query).Scan(&ds.Checksum, &payload, &seen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: snapshot archive is empty", apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if err := json.Unmarshal(payload, &ds.Cases); err != nil {
		return nil, fmt.Errorf("%w: archived cases: %v", apperr.ErrMalformedPayload, err)
	}
	if ds.Cases == nil {
		ds.Cases = []model.Case{}
	}
	ds.Source = model.SourceArchive
	ds.FetchedAt = seen
	return &ds, nil
}

// Prune keeps the newest keep snapshots and deletes the rest.
func (r *SnapshotRepo) Prune(ctx context.Context, keep int) (int64, error) {
	query := `
		DELETE FROM case_snapshots
		WHERE id NOT IN (
			SELECT id FROM case_snapshots ORDER BY last_seen_at DESC LIMIT $1
		)`

	tag, err := r.pool.Exec(ctx, query, keep)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}
