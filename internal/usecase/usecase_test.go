package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	"SessionEdge/internal/report"
	"SessionEdge/internal/repository"
	"SessionEdge/internal/services/cohort"
	"SessionEdge/internal/services/probability"
	"SessionEdge/pkg/cache"
)

const testDays = 6

// bars builds n rising bars per day starting 09:15, one day per step.
func bars(days, n int, step time.Duration) models.BarSeries {
	var out []models.Bar
	for d := 0; d < days; d++ {
		start := time.Date(2024, 5, 6+d, 9, 15, 0, 0, time.UTC)
		base := 100 + float64(d)*10
		for i := 0; i < n; i++ {
			o := base + float64(i)
			c := o + 0.5
			out = append(out, models.Bar{
				Timestamp: start.Add(time.Duration(i) * step),
				Open:      o, High: c + 1, Low: o - 1, Close: c,
			})
		}
	}
	return models.NewBarSeries("NIFTY", out)
}

type fakeSource struct {
	series map[domrepo.Timeframe]models.BarSeries
	err    error
}

func (f *fakeSource) LoadBars(_ context.Context, tf domrepo.Timeframe) (models.BarSeries, error) {
	if f.err != nil {
		return models.BarSeries{}, f.err
	}
	s, ok := f.series[tf]
	if !ok {
		return models.BarSeries{}, domrepo.ErrTimeframeUnavailable
	}
	return s, nil
}

func fullSource() *fakeSource {
	return &fakeSource{series: map[domrepo.Timeframe]models.BarSeries{
		domrepo.TF5m:   bars(testDays, 25, 5*time.Minute),
		domrepo.TF30m:  bars(testDays, 12, 30*time.Minute),
		domrepo.TF120m: bars(testDays, 3, 120*time.Minute),
	}}
}

type recordingSink struct {
	mu     sync.Mutex
	events []models.ProgressEvent
}

func (s *recordingSink) Publish(ev models.ProgressEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *recordingSink) stages() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]int{}
	for _, ev := range s.events {
		out[ev.Stage]++
	}
	return out
}

func TestAnalysisRun(t *testing.T) {
	sink := &recordingSink{}
	cfg := DefaultAnalysisConfig()
	uc := NewAnalysisUseCase(fullSource(), nil, nil, cfg, sink)

	res, err := uc.Run(context.Background(), RunParams{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.ID)
	assert.Equal(t, "NIFTY", res.Symbol)
	assert.Equal(t, models.RuleCloseVsEMA, res.Rule)
	assert.Equal(t, []float64{10}, res.Offsets)
	assert.Equal(t, testDays, res.Days)
	assert.Equal(t, testDays-1, res.LabeledDays)

	defs := cohort.Catalog(cohort.Options{Labels: res.Rule.Labels(), GapThreshold: 50, WickRatio: 0.1})
	require.Len(t, res.Cohorts, len(defs))
	for i, c := range res.Cohorts {
		assert.Equal(t, defs[i].ID, c.Cohort.ID)
		assert.Len(t, c.Tables, 2)
	}

	all, ok := res.Cohort("all")
	require.True(t, ok)
	assert.Equal(t, testDays, all.Days())
	assert.Equal(t, 0.0, all.Tables[0].Offset)
	assert.Equal(t, 10.0, all.Tables[1].Offset)
	require.Len(t, all.Merged.Rows, 25)
	assert.Equal(t, []string{"exact", "offset_10"}, all.Merged.Suffixes)

	require.NotNil(t, res.Window)
	require.NotNil(t, res.Patterns)
	assert.Equal(t, 3, res.Patterns.Bars)
	require.NotNil(t, res.Transitions)
	assert.Len(t, res.DayClose, 2)

	// every fixture day opens below the previous close
	require.Len(t, res.DayCloseByGap, 2*3)
	gapDays := 0
	for _, st := range res.DayCloseByGap {
		gapDays += st.Days
		if st.GapSide != models.GapDown {
			assert.Zero(t, st.Days, st.GapSide)
		}
	}
	assert.Equal(t, testDays-1, gapDays)

	require.Len(t, res.GapPatterns, 3)
	assert.Equal(t, 6, res.GapPatterns[1].Bars)
	assert.Equal(t, 1, res.GapPatterns[2].Skip)
	for _, rep := range res.GapPatterns {
		assert.True(t, rep.ByGap)
		bullRun := 0
		for _, st := range rep.Stats {
			if st.GapSide == models.GapDown && st.Pattern == strings.Repeat("Bull-", rep.Bars-1)+"Bull" {
				bullRun += st.Days
			}
		}
		assert.Equal(t, testDays-1, bullRun, "bars %d skip %d", rep.Bars, rep.Skip)
	}

	st := sink.stages()
	assert.Equal(t, 1, st[models.StageLoaded])
	assert.Equal(t, len(defs), st[models.StageCohort])
	assert.Equal(t, 1, st[models.StageAnalyzed])
}

func TestAnalysisRunOverrides(t *testing.T) {
	uc := NewAnalysisUseCase(fullSource(), nil, nil, DefaultAnalysisConfig(), nil)

	res, err := uc.Run(context.Background(), RunParams{Rule: models.RuleSlopeGated, Offsets: []float64{5, 20}})
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, models.RuleSlopeGated, res.Rule)
	assert.Len(t, res.DayClose, 3)
	all, _ := res.Cohort("all")
	assert.Len(t, all.Tables, 3)
}

func TestAnalysisRunWithoutPatternSeries(t *testing.T) {
	src := fullSource()
	delete(src.series, domrepo.TF30m)
	uc := NewAnalysisUseCase(src, nil, nil, DefaultAnalysisConfig(), nil)

	res, err := uc.Run(context.Background(), RunParams{})
	require.NoError(t, err)
	assert.Nil(t, res.Patterns)
	assert.Empty(t, res.GapPatterns)
	assert.NotEmpty(t, res.DayCloseByGap)
}

func TestAnalysisRunLoadErrors(t *testing.T) {
	sink := &recordingSink{}
	uc := NewAnalysisUseCase(&fakeSource{err: domrepo.ErrColumnMissing}, nil, nil, DefaultAnalysisConfig(), sink)
	_, err := uc.Run(context.Background(), RunParams{})
	assert.ErrorIs(t, err, domrepo.ErrColumnMissing)
	assert.Equal(t, 1, sink.stages()[models.StageFailed])

	empty := &fakeSource{series: map[domrepo.Timeframe]models.BarSeries{domrepo.TF5m: {Symbol: "NIFTY"}}}
	uc = NewAnalysisUseCase(empty, nil, nil, DefaultAnalysisConfig(), nil)
	_, err = uc.Run(context.Background(), RunParams{})
	assert.ErrorIs(t, err, domrepo.ErrNoBars)

	noTrend := fullSource()
	delete(noTrend.series, domrepo.TF120m)
	uc = NewAnalysisUseCase(noTrend, nil, nil, DefaultAnalysisConfig(), nil)
	_, err = uc.Run(context.Background(), RunParams{})
	assert.ErrorIs(t, err, domrepo.ErrTimeframeUnavailable)
}

func TestAnalysisRunInvalidConfig(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.Window = cohort.WindowSpec{Start: 10, End: 5, MinBars: 20}
	_, err := NewAnalysisUseCase(fullSource(), nil, nil, cfg, nil).Run(context.Background(), RunParams{})
	assert.Error(t, err)

	_, err = NewAnalysisUseCase(fullSource(), nil, nil, DefaultAnalysisConfig(), nil).
		Run(context.Background(), RunParams{Rule: "bogus"})
	assert.Error(t, err)
}

func TestAnalysisRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewAnalysisUseCase(fullSource(), nil, nil, DefaultAnalysisConfig(), nil).Run(ctx, RunParams{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCohortKind(t *testing.T) {
	cases := map[string]string{
		"all":            "all",
		"trend/up":       "trend",
		"up/gap/gap-up":  "gap",
		"down/gapup-any": "scenario",
	}
	for id, want := range cases {
		assert.Equal(t, want, cohortKind(id), id)
	}
}

type fakePublisher struct {
	mu        sync.Mutex
	summaries []models.RunSummary
	err       error
}

func (p *fakePublisher) PublishSummary(_ context.Context, s models.RunSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.summaries = append(p.summaries, s)
	return p.err
}

func (p *fakePublisher) PublishMessage(context.Context, string, []byte) error { return p.err }
func (p *fakePublisher) Close() error                                         { return nil }

func newRunService(t *testing.T, pub *fakePublisher, sink ProgressSink) (*RunService, *repository.CacheResultStore, string) {
	t.Helper()
	dir := t.TempDir()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	t.Cleanup(func() { _ = mc.Close() })
	store := repository.NewCacheResultStore(mc, time.Hour)

	analysis := NewAnalysisUseCase(fullSource(), nil, nil, DefaultAnalysisConfig(), sink)
	rep := NewReportUseCase(report.Options{
		Dir:       dir,
		Formats:   []string{report.FormatCSV, report.FormatMarkdown},
		Decimals:  2,
		TotalsRow: true,
	}, pub, store, nil, nil)
	return NewRunService(analysis, rep, store, sink, time.Minute, nil), store, dir
}

func TestRunServiceRunOnce(t *testing.T) {
	pub := &fakePublisher{}
	sink := &recordingSink{}
	svc, _, dir := newRunService(t, pub, sink)
	ctx := context.Background()

	res, out, err := svc.RunOnce(ctx, RunParams{ID: "batch"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "batch"), out)
	for _, f := range []string{"report.md", "probability/all.csv", "dates/trend/up.csv"} {
		_, err := os.Stat(filepath.Join(out, filepath.FromSlash(f)))
		assert.NoError(t, err, f)
	}
	require.Len(t, pub.summaries, 1)
	assert.Equal(t, "batch", pub.summaries[0].ID)
	assert.Equal(t, 1, sink.stages()[models.StageDelivered])

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.ID, latest.ID)
	assert.Len(t, latest.Cohorts, len(res.Cohorts))

	up, err := svc.Cohorts(ctx, "batch", models.TrendUp)
	require.NoError(t, err)
	require.NotEmpty(t, up)
	for _, c := range up {
		assert.Equal(t, models.TrendUp, c.Trend)
	}
	everything, err := svc.Cohorts(ctx, "batch", "")
	require.NoError(t, err)
	assert.Len(t, everything, len(res.Cohorts))

	c, err := svc.Cohort(ctx, "batch", "all")
	require.NoError(t, err)
	assert.Equal(t, testDays, c.Days())

	_, err = svc.Cohort(ctx, "batch", "missing")
	assert.ErrorIs(t, err, ErrCohortNotFound)
	_, err = svc.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunServicePublishFailureDoesNotFailDelivery(t *testing.T) {
	svc, _, _ := newRunService(t, &fakePublisher{err: errors.New("broker down")}, nil)
	_, _, err := svc.RunOnce(context.Background(), RunParams{ID: "r"})
	require.NoError(t, err)
}

func TestRunServiceRunOnceWritesNothingOnFailure(t *testing.T) {
	dir := t.TempDir()
	mc := cache.NewMemoryCache(cache.WithMemoryCleanup(0))
	defer mc.Close()
	store := repository.NewCacheResultStore(mc, time.Hour)
	analysis := NewAnalysisUseCase(&fakeSource{err: domrepo.ErrTimestamp}, nil, nil, DefaultAnalysisConfig(), nil)
	rep := NewReportUseCase(report.Options{Dir: dir, Formats: []string{report.FormatCSV}}, nil, store, nil, nil)
	svc := NewRunService(analysis, rep, store, nil, time.Minute, nil)

	_, _, err := svc.RunOnce(context.Background(), RunParams{})
	assert.ErrorIs(t, err, domrepo.ErrTimestamp)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	_, err = svc.Latest(context.Background())
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunServiceStart(t *testing.T) {
	svc, store, _ := newRunService(t, &fakePublisher{}, nil)
	ctx := context.Background()

	ok, err := store.TryLockRun(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = svc.Start(ctx, RunParams{})
	assert.ErrorIs(t, err, ErrRunInProgress)
	require.NoError(t, store.UnlockRun(ctx))

	_, err = svc.Start(ctx, RunParams{Rule: "nope"})
	assert.Error(t, err)

	id, err := svc.Start(ctx, RunParams{})
	require.NoError(t, err)
	svc.Wait()

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, latest.ID)

	ok, err = store.TryLockRun(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "lock released after the run")
}

func TestTradeIdeasGenerate(t *testing.T) {
	uc := NewTradeIdeasUseCase(probability.NewGenerator(nil, probability.DefaultGeneratorConfig()), nil)
	ctx := context.Background()

	plan, err := uc.Generate(ctx, models.TradeIdeasRequest{
		Open: 22000, High: 22060, Low: 21990, Close: 22050, PrevClose: 21900, MA: 21800, ATR: 120,
	})
	require.NoError(t, err)
	assert.Len(t, plan.Ideas, 3)
	assert.Equal(t, models.FirstBar{Open: 22000, High: 22060, Low: 21990, Close: 22050}, plan.Bar)

	_, err = uc.Generate(ctx, models.TradeIdeasRequest{Open: 10, High: 5, Low: 8, Close: 9, PrevClose: 10})
	assert.Error(t, err)
	_, err = uc.Generate(ctx, models.TradeIdeasRequest{Open: 10, High: 12, Low: 8, Close: 13, PrevClose: 10})
	assert.Error(t, err)
	_, err = uc.Generate(ctx, models.TradeIdeasRequest{Open: 10, High: 12, Low: 8, Close: 11})
	assert.Error(t, err)
}
