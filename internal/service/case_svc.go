package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/logging"
	"github.com/rcleozier/creator-log/internal/metrics"
	"github.com/rcleozier/creator-log/internal/model"
	"github.com/rcleozier/creator-log/internal/normalize"
	"github.com/rcleozier/creator-log/internal/sheet"
	"github.com/rcleozier/creator-log/internal/snapshot"
	"github.com/rcleozier/creator-log/pkg/checksum"
)

// SheetSource fetches the published case sheet.
type SheetSource interface {
	Fetch(ctx context.Context) (*sheet.Table, error)
}

// Archive stores every distinct sheet dataset. Optional.
type Archive interface {
	Save(ctx context.Context, ds *model.Dataset) (bool, error)
	Latest(ctx context.Context) (*model.Dataset, error)
}

// SnapshotSource returns the newest snapshot file written to disk.
type SnapshotSource interface {
	Latest() ([]model.Case, string, error)
}

// Sort orders accepted by List.
const (
	SortNewest      = "newest"
	SortOldest      = "oldest"
	SortName        = "name"
	SortSubscribers = "subscribers"
)

// Filter narrows a case list. Empty fields match everything.
type Filter struct {
	Status       string
	AppealStatus string
	Search       string
	Sort         string
}

// CaseService serves the case list. The sheet is the source of truth; when
// it cannot be read the service falls back to the archive, the newest
// snapshot file and finally the bundled copy, so reads never fail.
type CaseService struct {
	sheet     SheetSource
	archive   Archive
	snapshots SnapshotSource
	cache     *CacheService
	ttl       time.Duration
	now       func() time.Time
	group     singleflight.Group
	log       zerolog.Logger
}

// NewCaseService wires the fallback chain. archive and snapshots may be nil.
func NewCaseService(src SheetSource, archive Archive, snapshots SnapshotSource, cache *CacheService, ttl time.Duration) *CaseService {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &CaseService{
		sheet:     src,
		archive:   archive,
		snapshots: snapshots,
		cache:     cache,
		ttl:       ttl,
		now:       time.Now,
		log:       logging.Component("cases"),
	}
}

// Dataset returns the current case list from the cache, loading it through
// the fallback chain on a miss. Concurrent misses share one load.
func (s *CaseService) Dataset(ctx context.Context) *model.Dataset {
	var ds model.Dataset
	if s.cache.GetJSON(ctx, CasesKey, &ds) {
		return &ds
	}

	v, _, _ := s.group.Do(CasesKey, func() (any, error) {
		// Another caller may have filled the cache since our lookup.
		var fresh model.Dataset
		if s.cache.GetJSON(ctx, CasesKey, &fresh) {
			return &fresh, nil
		}
		loaded := s.load(ctx)
		if err := s.cache.SetJSON(ctx, CasesKey, loaded, s.ttl); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache dataset")
		}
		return loaded, nil
	})
	return v.(*model.Dataset)
}

// Peek returns the cached dataset without loading one.
func (s *CaseService) Peek(ctx context.Context) (*model.Dataset, bool) {
	var ds model.Dataset
	if s.cache.GetJSON(ctx, CasesKey, &ds) {
		return &ds, true
	}
	return nil, false
}

// Refresh fetches the sheet unconditionally and replaces the cached
// dataset. Unlike Dataset it reports sheet failures and leaves the cache
// untouched.
func (s *CaseService) Refresh(ctx context.Context) (*model.Dataset, error) {
	v, err, _ := s.group.Do("refresh", func() (any, error) {
		ds, err := s.fromSheet(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetJSON(ctx, CasesKey, ds, s.ttl); err != nil {
			s.log.Warn().Err(err).Msg("failed to cache dataset")
		}
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Dataset), nil
}

func (s *CaseService) load(ctx context.Context) *model.Dataset {
	ds, err := s.fromSheet(ctx)
	if err == nil {
		return ds
	}
	s.log.Warn().Err(err).Msg("sheet unavailable, falling back to archive")

	if s.archive != nil {
		archived, err := s.archive.Latest(ctx)
		if err == nil {
			s.record(archived)
			return archived
		}
		s.log.Warn().Err(err).Msg("archive unavailable, falling back to snapshot file")
	}

	if s.snapshots != nil {
		cases, path, err := s.snapshots.Latest()
		if err == nil {
			return s.dataset(cases, model.SourceSnapshot, path)
		}
		s.log.Warn().Err(err).Msg("no snapshot file, falling back to bundled data")
	}

	cases, err := snapshot.Bundled()
	if err == nil {
		return s.dataset(cases, model.SourceBundled, "")
	}
	s.log.Error().Err(err).Msg("bundled data unreadable, serving empty list")
	return s.dataset([]model.Case{}, model.SourceEmpty, "")
}

func (s *CaseService) fromSheet(ctx context.Context) (*model.Dataset, error) {
	table, err := s.sheet.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	cases := normalize.Cases(table, normalize.Options{Now: s.now})
	ds := s.dataset(cases, model.SourceSheet, "")

	if s.archive != nil {
		inserted, err := s.archive.Save(ctx, ds)
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to archive dataset")
		} else if inserted {
			s.log.Info().Int("cases", len(cases)).Str("checksum", ds.Checksum).Msg("archived new dataset")
		}
	}
	return ds, nil
}

func (s *CaseService) dataset(cases []model.Case, source, origin string) *model.Dataset {
	sum, _, err := checksum.JSON(cases)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to checksum dataset")
	}
	ds := &model.Dataset{
		Cases:     cases,
		Source:    source,
		FetchedAt: s.now().UTC(),
		Checksum:  sum,
	}
	ev := s.log.Debug().Str("source", source).Int("cases", len(cases))
	if origin != "" {
		ev = ev.Str("path", origin)
	}
	ev.Msg("dataset loaded")
	s.record(ds)
	return ds
}

func (s *CaseService) record(ds *model.Dataset) {
	metrics.CaseSourceTotal.WithLabelValues(ds.Source).Inc()
	metrics.CasesLoaded.Set(float64(len(ds.Cases)))
}

// List returns the cases matching f, together with the dataset they came
// from. The returned slice is never nil.
func (s *CaseService) List(ctx context.Context, f Filter) ([]model.Case, *model.Dataset) {
	ds := s.Dataset(ctx)

	status := normalizeFilter(f.Status)
	appeal := normalizeFilter(f.AppealStatus)

	out := make([]model.Case, 0, len(ds.Cases))
	for _, c := range ds.Cases {
		if status != "" && string(c.Status) != status {
			continue
		}
		if appeal != "" && string(c.AppealStatus) != appeal {
			continue
		}
		if !normalize.Matches(c, f.Search) {
			continue
		}
		out = append(out, c)
	}
	sortCases(out, f.Sort)
	return out, ds
}

// Get returns the case addressed by id.
func (s *CaseService) Get(ctx context.Context, id string) (model.Case, error) {
	ds := s.Dataset(ctx)
	c, ok := normalize.Lookup(ds.Cases, id)
	if !ok {
		return model.Case{}, fmt.Errorf("case %q: %w", id, apperr.ErrNotFound)
	}
	return c, nil
}

// Stats returns the headline counters.
func (s *CaseService) Stats(ctx context.Context) model.CaseStats {
	return BuildStats(s.Dataset(ctx).Cases)
}

// Analytics returns chart-ready aggregates over the whole case list.
func (s *CaseService) Analytics(ctx context.Context) model.Analytics {
	ds := s.Dataset(ctx)
	a := BuildAnalytics(ds.Cases)
	a.Source = ds.Source
	return a
}

// Rows returns the sheet as raw column→value rows. There is no fallback:
// the raw view is only meaningful for the live sheet.
func (s *CaseService) Rows(ctx context.Context) (*model.TerminationsResponse, error) {
	var cached model.TerminationsResponse
	if s.cache.GetJSON(ctx, TerminationsKey, &cached) {
		return &cached, nil
	}

	table, err := s.sheet.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet rows: %w", err)
	}
	resp := &model.TerminationsResponse{
		Data: table.Records(),
		Meta: model.TerminationsMeta{
			TotalRows:      len(table.Rows),
			Columns:        table.Columns,
			DisplayColumns: normalize.DisplayColumns(table.Columns),
			ParsedAt:       s.now().UTC().Format(time.RFC3339),
		},
	}
	if err := s.cache.SetJSON(ctx, TerminationsKey, resp, s.ttl); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache raw rows")
	}
	return resp, nil
}

// IsUnavailable reports whether err means the sheet could not be read, as
// opposed to a programming error.
func IsUnavailable(err error) bool {
	return errors.Is(err, apperr.ErrUpstreamUnavailable) || errors.Is(err, apperr.ErrMalformedPayload)
}

func normalizeFilter(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, "all") {
		return ""
	}
	return strings.ToUpper(strings.Join(strings.FieldsFunc(v, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	}), "_"))
}

func sortCases(cases []model.Case, order string) {
	switch order {
	case SortNewest:
		sort.SliceStable(cases, func(i, j int) bool {
			return dateKey(cases[i].SubmittedDate).After(dateKey(cases[j].SubmittedDate))
		})
	case SortOldest:
		sort.SliceStable(cases, func(i, j int) bool {
			return dateKey(cases[i].SubmittedDate).Before(dateKey(cases[j].SubmittedDate))
		})
	case SortName:
		sort.SliceStable(cases, func(i, j int) bool {
			return strings.ToLower(cases[i].ChannelName) < strings.ToLower(cases[j].ChannelName)
		})
	case SortSubscribers:
		sort.SliceStable(cases, func(i, j int) bool {
			return subscribers(cases[i]) > subscribers(cases[j])
		})
	}
}

// dateKey parses a case date for ordering. Unparseable dates sort as the
// zero time.
func dateKey(s string) time.Time {
	t, _ := parseDate(s)
	return t
}

func subscribers(c model.Case) int {
	if c.SubscriberCount == nil {
		return -1
	}
	return *c.SubscriberCount
}
