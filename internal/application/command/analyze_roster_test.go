package command

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alem-hub/roster-insights/internal/domain/relations"
	"github.com/alem-hub/roster-insights/internal/domain/report"
	"github.com/alem-hub/roster-insights/internal/domain/roster"
	"github.com/alem-hub/roster-insights/internal/domain/shared"
	"github.com/alem-hub/roster-insights/internal/infrastructure/persistence/memory"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeCache struct {
	mu       sync.Mutex
	byID     map[uuid.UUID]*report.Report
	byFP     map[string]*report.Report
	failWith error
}

func newFakeCache() *fakeCache {
	return &fakeCache{byID: map[uuid.UUID]*report.Report{}, byFP: map[string]*report.Report{}}
}

func (c *fakeCache) Get(_ context.Context, id uuid.UUID) (*report.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.byID[id], nil
}

func (c *fakeCache) GetByFingerprint(_ context.Context, fp string) (*report.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return nil, c.failWith
	}
	return c.byFP[fp], nil
}

func (c *fakeCache) Set(_ context.Context, r *report.Report, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWith != nil {
		return c.failWith
	}
	c.byID[r.ID] = r
	c.byFP[r.Fingerprint] = r
	return nil
}

type failingRepo struct{ *memory.ReportStore }

func (failingRepo) Save(context.Context, *report.Report) error {
	return errors.New("connection refused")
}

func scenarioTable() *roster.Table {
	return roster.NewTable(
		[]string{"ΟΝΟΜΑ", "ΦΥΛΟ", "ΒΗΜΑ6_ΣΕΝΑΡΙΟ_3", "ΦΙΛΟΣ", "ΣΥΓΚΡΟΥΣΕΙΣ"},
		[][]string{
			{"Γιώργος", "Α", "Α1", "Άννα", "Νίκος"},
			{"Άννα", "Κ", "Α2", "Γιώργος", ""},
			{"Νίκος", "Α", "Α1", "", ""},
			{"Ελένη", "Κ", "Α10", "", ""},
		},
	)
}

func newHandler(repo report.Repository, cache report.Cache) *AnalyzeRosterHandler {
	return NewAnalyzeRosterHandler(repo, cache, nil, DefaultAnalyzeRosterHandlerConfig())
}

func TestAnalyzeRoster(t *testing.T) {
	store := memory.NewReportStore()
	h := newHandler(store, nil)

	res, err := h.Handle(context.Background(), AnalyzeRosterCommand{Table: scenarioTable()})
	require.NoError(t, err)
	require.False(t, res.Cached)

	rep := res.Report
	assert.Equal(t, 4, rep.RowCount)
	assert.Equal(t, "ΒΗΜΑ6_ΣΕΝΑΡΙΟ_3", rep.ScenarioColumn)
	assert.Equal(t, map[string]string{"ΦΙΛΟΣ": "ΦΙΛΟΙ", "ΣΥΓΚΡΟΥΣΕΙΣ": "ΣΥΓΚΡΟΥΣΗ"}, rep.Renames)
	assert.Equal(t, []string{"ΠΑΙΔΙ_ΕΚΠΑΙΔΕΥΤΙΚΟΥ", "ΖΩΗΡΟΣ", "ΙΔΙΑΙΤΕΡΟΤΗΤΑ", "ΚΑΛΗ_ΓΝΩΣΗ_ΕΛΛΗΝΙΚΩΝ"}, rep.MissingColumns)

	labels := make([]string, 0, len(rep.Statistics.Classes))
	for _, cs := range rep.Statistics.Classes {
		labels = append(labels, cs.ClassLabel)
	}
	assert.Equal(t, []string{"Α1", "Α2", "Α10"}, labels)

	a1, ok := rep.Statistics.Class("Α1")
	require.True(t, ok)
	assert.Equal(t, 2, a1.Attributes[roster.StatBoys])
	assert.Equal(t, 1, a1.Conflicts)
	assert.Equal(t, 1, a1.BrokenFriendships)
	assert.Equal(t, 2, a1.Total)

	assert.Equal(t, []relations.BrokenPair{
		{A: "Γιώργος", AClass: "Α1", B: "Άννα", BClass: "Α2", ARow: 0, BRow: 1},
	}, rep.BrokenPairs)
	require.Len(t, rep.ConflictingStudents, 1)
	assert.Equal(t, "Νίκος", rep.ConflictingStudents[0].Names)

	stored, err := store.GetByID(context.Background(), rep.ID)
	require.NoError(t, err)
	assert.Same(t, rep, stored)
}

func TestAnalyzeRoster_ReusesEarlierReport(t *testing.T) {
	ctx := context.Background()

	t.Run("from repository", func(t *testing.T) {
		store := memory.NewReportStore()
		h := newHandler(store, nil)

		first, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
		require.NoError(t, err)
		second, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
		require.NoError(t, err)

		assert.True(t, second.Cached)
		assert.Equal(t, first.Report.ID, second.Report.ID)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("from cache", func(t *testing.T) {
		store := memory.NewReportStore()
		cache := newFakeCache()
		h := newHandler(store, cache)

		first, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
		require.NoError(t, err)
		assert.Same(t, first.Report, cache.byFP[first.Report.Fingerprint])

		second, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
		require.NoError(t, err)
		assert.True(t, second.Cached)
		assert.Same(t, first.Report, second.Report)
	})

	t.Run("skip cache", func(t *testing.T) {
		store := memory.NewReportStore()
		h := newHandler(store, nil)

		first, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
		require.NoError(t, err)
		second, err := h.Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable(), SkipCache: true})
		require.NoError(t, err)

		assert.False(t, second.Cached)
		assert.NotEqual(t, first.Report.ID, second.Report.ID)
		assert.Equal(t, 2, store.Len())
	})
}

func TestAnalyzeRoster_CacheFailuresAreNotFatal(t *testing.T) {
	cache := newFakeCache()
	cache.failWith = errors.New("redis down")

	res, err := newHandler(memory.NewReportStore(), cache).Handle(context.Background(), AnalyzeRosterCommand{Table: scenarioTable()})
	require.NoError(t, err)
	assert.NotNil(t, res.Report)
}

func TestAnalyzeRoster_Errors(t *testing.T) {
	tests := []struct {
		name  string
		table *roster.Table
		repo  report.Repository
		check func(t *testing.T, err error)
	}{
		{
			name:  "nil table",
			table: nil,
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, shared.ErrEmptyTable) },
		},
		{
			name:  "no rows",
			table: roster.NewTable([]string{"ΟΝΟΜΑ"}, nil),
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, shared.ErrEmptyTable) },
		},
		{
			name:  "ambiguous scenario",
			table: roster.NewTable([]string{"ΒΗΜΑ6_ΣΕΝΑΡΙΟ_1", "ΒΗΜΑ6_ΣΕΝΑΡΙΟ_2"}, [][]string{{"Α1", "Α2"}}),
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, shared.ErrAmbiguousScenario) },
		},
		{
			name:  "store failure",
			table: scenarioTable(),
			repo:  failingRepo{memory.NewReportStore()},
			check: func(t *testing.T, err error) { assert.True(t, shared.IsExternalService(err)) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := tt.repo
			if repo == nil {
				repo = memory.NewReportStore()
			}
			_, err := newHandler(repo, nil).Handle(context.Background(), AnalyzeRosterCommand{Table: tt.table})
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestAnalyzeRoster_RowLimit(t *testing.T) {
	cfg := DefaultAnalyzeRosterHandlerConfig()
	cfg.MaxRows = 2
	h := NewAnalyzeRosterHandler(memory.NewReportStore(), nil, nil, cfg)

	_, err := h.Handle(context.Background(), AnalyzeRosterCommand{Table: scenarioTable()})
	assert.ErrorIs(t, err, shared.ErrRosterTooLarge)
	assert.True(t, shared.IsValidation(err))
}

func TestAnalyzeRoster_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newHandler(memory.NewReportStore(), nil).Handle(ctx, AnalyzeRosterCommand{Table: scenarioTable()})
	assert.ErrorIs(t, err, context.Canceled)
}
