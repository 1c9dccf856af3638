package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcleozier/creator-log/internal/apperr"
	"github.com/rcleozier/creator-log/internal/model"
)

var errSheetDown = fmt.Errorf("sheet: %w", apperr.ErrUpstreamUnavailable)

func newCaseService(t *testing.T, src *fakeSheet, archive Archive, snaps SnapshotSource) *CaseService {
	t.Helper()
	svc := NewCaseService(src, archive, snaps, NewMemoryCache(), time.Minute)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func caseIDs(cases []model.Case) []string {
	ids := make([]string, 0, len(cases))
	for _, c := range cases {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestDataset_FromSheet(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	archive := &fakeArchive{}
	svc := newCaseService(t, src, archive, nil)

	ds := svc.Dataset(context.Background())

	assert.Equal(t, model.SourceSheet, ds.Source)
	assert.Equal(t, []string{"014", "quiettrails", "night-owl-gaming"}, caseIDs(ds.Cases))
	assert.Len(t, ds.Checksum, 16)
	assert.Equal(t, fixedNow, ds.FetchedAt)
	require.Len(t, archive.saved, 1)
	assert.Equal(t, ds.Checksum, archive.saved[0].Checksum)
}

func TestDataset_CachedWithinTTL(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	svc := newCaseService(t, src, nil, nil)

	first := svc.Dataset(context.Background())
	second := svc.Dataset(context.Background())

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, first.Checksum, second.Checksum)
}

func TestDataset_ConcurrentMissesShareOneFetch(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	svc := newCaseService(t, src, nil, nil)

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.Dataset(context.Background())
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
}

func TestDataset_SameRowsSameChecksum(t *testing.T) {
	a := newCaseService(t, &fakeSheet{table: mustTable(t, sheetCSV)}, nil, nil).Dataset(context.Background())
	b := newCaseService(t, &fakeSheet{table: mustTable(t, sheetCSV)}, nil, nil).Dataset(context.Background())
	assert.Equal(t, a.Checksum, b.Checksum)
}

func TestDataset_FallbackChain(t *testing.T) {
	archived := &model.Dataset{
		Cases:    []model.Case{{ID: "from-archive", Status: model.StatusTerminated}},
		Source:   model.SourceArchive,
		Checksum: "abc",
	}
	fileCases := []model.Case{{ID: "from-file"}}

	tests := []struct {
		name     string
		archive  Archive
		snaps    SnapshotSource
		wantSrc  string
		wantID   string
		wantSize int
	}{
		{
			name:    "archive",
			archive: &fakeArchive{latest: archived},
			snaps:   &fakeSnapshots{cases: fileCases},
			wantSrc: model.SourceArchive,
			wantID:  "from-archive",
		},
		{
			name:    "snapshot file when archive is empty",
			archive: &fakeArchive{err: apperr.ErrNotFound},
			snaps:   &fakeSnapshots{cases: fileCases},
			wantSrc: model.SourceSnapshot,
			wantID:  "from-file",
		},
		{
			name:    "snapshot file without archive",
			snaps:   &fakeSnapshots{cases: fileCases},
			wantSrc: model.SourceSnapshot,
			wantID:  "from-file",
		},
		{
			name:    "bundled",
			archive: &fakeArchive{err: apperr.ErrNotFound},
			snaps:   &fakeSnapshots{err: apperr.ErrNotFound},
			wantSrc: model.SourceBundled,
			wantID:  "001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSheet{err: errSheetDown}
			svc := newCaseService(t, src, tt.archive, tt.snaps)

			ds := svc.Dataset(context.Background())

			assert.Equal(t, tt.wantSrc, ds.Source)
			require.NotEmpty(t, ds.Cases)
			assert.Equal(t, tt.wantID, ds.Cases[0].ID)
		})
	}
}

func TestRefresh_ErrorKeepsCache(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	svc := newCaseService(t, src, nil, nil)
	before := svc.Dataset(context.Background())

	src.fail(errSheetDown)
	_, err := svc.Refresh(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstreamUnavailable))

	after := svc.Dataset(context.Background())
	assert.Equal(t, before.Checksum, after.Checksum)
	assert.Equal(t, model.SourceSheet, after.Source)
}

func TestRefresh_ReplacesCache(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	svc := newCaseService(t, src, nil, nil)
	svc.Dataset(context.Background())

	src.mu.Lock()
	src.table = mustTable(t, "Channel Name\nSolo Channel\n")
	src.mu.Unlock()

	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ds := svc.Dataset(context.Background())
	assert.Equal(t, []string{"solo-channel"}, caseIDs(ds.Cases))
}

func TestList_Filters(t *testing.T) {
	svc := newCaseService(t, &fakeSheet{table: mustTable(t, sheetCSV)}, nil, nil)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"no filter keeps sheet order", Filter{}, []string{"014", "quiettrails", "night-owl-gaming"}},
		{"status", Filter{Status: "terminated"}, []string{"014", "night-owl-gaming"}},
		{"status all", Filter{Status: "all"}, []string{"014", "quiettrails", "night-owl-gaming"}},
		{"appeal status with spaces", Filter{AppealStatus: "under review"}, []string{"night-owl-gaming"}},
		{"search reason", Filter{Search: "CIRCUM"}, []string{"quiettrails"}},
		{"search name", Filter{Search: "owl"}, []string{"night-owl-gaming"}},
		{"no match", Filter{Search: "nothing like this"}, []string{}},
		{"newest", Filter{Sort: SortNewest}, []string{"night-owl-gaming", "quiettrails", "014"}},
		{"oldest", Filter{Sort: SortOldest}, []string{"014", "quiettrails", "night-owl-gaming"}},
		{"name", Filter{Sort: SortName}, []string{"night-owl-gaming", "quiettrails", "014"}},
		{"subscribers", Filter{Sort: SortSubscribers}, []string{"night-owl-gaming", "014", "quiettrails"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ds := svc.List(context.Background(), tt.filter)
			assert.Equal(t, tt.want, caseIDs(got))
			assert.Equal(t, model.SourceSheet, ds.Source)
		})
	}
}

func TestGet(t *testing.T) {
	svc := newCaseService(t, &fakeSheet{table: mustTable(t, sheetCSV)}, nil, nil)

	for _, id := range []string{"014", "case-014", "CASE-014", "14", "QuietTrails"} {
		t.Run(id, func(t *testing.T) {
			_, err := svc.Get(context.Background(), id)
			assert.NoError(t, err)
		})
	}

	_, err := svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestStats(t *testing.T) {
	svc := newCaseService(t, &fakeSheet{table: mustTable(t, sheetCSV)}, nil, nil)

	st := svc.Stats(context.Background())
	assert.Equal(t, model.CaseStats{TotalCases: 3, Reinstated: 1, Terminated: 2, UnderReview: 1}, st)
}

func TestRows(t *testing.T) {
	src := &fakeSheet{table: mustTable(t, sheetCSV)}
	svc := newCaseService(t, src, nil, nil)

	resp, err := svc.Rows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Meta.TotalRows)
	assert.Contains(t, resp.Meta.Columns, "Status")
	assert.NotContains(t, resp.Meta.DisplayColumns, "Status")
	assert.Equal(t, "2025-03-14T09:30:00Z", resp.Meta.ParsedAt)
	assert.Equal(t, "Retro Repair", resp.Data[0]["Channel Name"])

	_, err = svc.Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
}

func TestRows_NoFallback(t *testing.T) {
	svc := newCaseService(t, &fakeSheet{err: errSheetDown}, nil, &fakeSnapshots{cases: []model.Case{{ID: "x"}}})

	_, err := svc.Rows(context.Background())
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
}
