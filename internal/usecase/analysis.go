package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	"SessionEdge/internal/services/cohort"
	"SessionEdge/internal/services/features"
	"SessionEdge/internal/services/probability"
	"SessionEdge/internal/services/trend"
	applogger "SessionEdge/pkg/logger"
	pkgmetrics "SessionEdge/pkg/metrics"
)

// ProgressSink receives run progress. Publish must not block for long.
type ProgressSink interface {
	Publish(ev models.ProgressEvent)
}

type nopSink struct{}

func (nopSink) Publish(models.ProgressEvent) {}

// AnalysisConfig holds the thresholds of a run.
type AnalysisConfig struct {
	Symbol          string
	Trend           trend.Config
	GapThreshold    float64
	WickRatio       float64
	Offsets         []float64
	SessionClose    string
	Window          cohort.WindowSpec
	PatternBars     int
	GapPatterns     []cohort.PatternSpec
	StrongTrendBars int
	Workers         int
}

// DefaultAnalysisConfig mirrors the config file defaults.
func DefaultAnalysisConfig() AnalysisConfig {
	return AnalysisConfig{
		Trend:        trend.DefaultConfig(),
		GapThreshold: 50,
		WickRatio:    0.10,
		Offsets:      []float64{10},
		SessionClose: "15:25",
		Window:       cohort.DefaultWindow(),
		PatternBars:  3,
		GapPatterns:  []cohort.PatternSpec{{Bars: 3}, {Bars: 6}, {Bars: 3, Skip: 1}},
		Workers:      4,
	}
}

// RunParams overrides parts of the config for a single run.
type RunParams struct {
	ID      string
	Rule    models.TrendRule
	Offsets []float64
}

// AnalysisUseCase runs the full cohort analysis over a bar source.
type AnalysisUseCase struct {
	src      domrepo.BarSource
	metrics  domrepo.Metrics
	log      *applogger.Logger
	cfg      AnalysisConfig
	progress ProgressSink
	now      func() time.Time
}

func NewAnalysisUseCase(src domrepo.BarSource, metrics domrepo.Metrics, l *applogger.Logger, cfg AnalysisConfig, progress ProgressSink) *AnalysisUseCase {
	if progress == nil {
		progress = nopSink{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &AnalysisUseCase{src: src, metrics: metrics, log: l, cfg: cfg, progress: progress, now: time.Now}
}

// series loaded for one run
type runInput struct {
	fine    models.BarSeries
	pattern models.BarSeries
	trend   models.BarSeries
	// hasPattern is false when the source has no pattern timeframe.
	hasPattern bool
}

// Run executes one analysis and returns the in-memory result. Nothing is
// written to disk here.
func (uc *AnalysisUseCase) Run(ctx context.Context, p RunParams) (*models.RunResult, error) {
	start := uc.now()
	cfg := uc.cfg
	if p.Rule != "" {
		cfg.Trend.Rule = p.Rule
	}
	if len(p.Offsets) > 0 {
		cfg.Offsets = p.Offsets
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, fmt.Errorf("window: %w", err)
	}
	labeler, err := trend.NewLabeler(cfg.Trend)
	if err != nil {
		return nil, fmt.Errorf("trend labeler: %w", err)
	}
	closes, err := features.NewSessionCloseLookup(cfg.SessionClose)
	if err != nil {
		return nil, fmt.Errorf("session close: %w", err)
	}

	log := uc.log.With(applogger.String("run_id", p.ID), applogger.String("rule", string(cfg.Trend.Rule)))

	in, err := uc.load(ctx)
	if err != nil {
		uc.metrics.RecordError("load")
		uc.progress.Publish(models.ProgressEvent{RunID: p.ID, Stage: models.StageFailed, Error: err.Error(), At: uc.now()})
		return nil, err
	}

	trends, points := labeler.Label(in.trend)
	fs := features.Derive(in.fine)
	labels := cfg.Trend.Rule.Labels()
	defs := cohort.Catalog(cohort.Options{Labels: labels, GapThreshold: cfg.GapThreshold, WickRatio: cfg.WickRatio})
	cohorts := cohort.Build(fs, trends, defs)

	res := &models.RunResult{
		ID:        p.ID,
		Symbol:    in.fine.Symbol,
		Rule:      cfg.Trend.Rule,
		Offsets:   append([]float64(nil), cfg.Offsets...),
		StartedAt: start,
		Days:      len(fs.Days),
	}
	if res.Symbol == "" {
		res.Symbol = cfg.Symbol
	}
	for _, d := range fs.Days {
		if _, ok := trends.Get(d.Date); ok {
			res.LabeledDays++
		}
	}
	log.Info("series prepared",
		applogger.Int("days", res.Days),
		applogger.Int("labeled_days", res.LabeledDays),
		applogger.Int("trend_points", len(points)),
		applogger.Int("cohorts", len(cohorts)))
	uc.progress.Publish(models.ProgressEvent{RunID: p.ID, Stage: models.StageLoaded, Total: len(cohorts), At: uc.now()})

	results, err := uc.aggregate(ctx, p.ID, fs, cohorts, cfg.Offsets)
	if err != nil {
		uc.metrics.RecordError("aggregate")
		uc.progress.Publish(models.ProgressEvent{RunID: p.ID, Stage: models.StageFailed, Error: err.Error(), At: uc.now()})
		return nil, err
	}
	res.Cohorts = results

	win := cohort.WindowPlacement(fs, trends, cfg.Window, labels)
	res.Window = &win
	res.DayClose = cohort.DayCloseByTrend(fs, trends, closes, labels)
	res.DayCloseByGap = cohort.DayCloseByTrendAndGap(fs, trends, closes, labels)
	if in.hasPattern {
		pfs := features.Derive(in.pattern)
		if cfg.PatternBars > 0 {
			pr := cohort.PatternOutcomes(pfs, trends, cfg.PatternBars, labels)
			res.Patterns = &pr
		}
		for _, spec := range cfg.GapPatterns {
			res.GapPatterns = append(res.GapPatterns, cohort.PatternOutcomesByGap(pfs, trends, spec, labels))
		}
	}
	// Transitions always read the slope-gated per-bar states.
	ruleA := labeler.Points(in.trend, models.RuleSlopeGated)
	tr := trend.AnalyzeTransitions(trend.Segments(trend.States(ruleA)), cfg.StrongTrendBars)
	res.Transitions = &tr

	res.FinishedAt = uc.now()
	elapsed := res.FinishedAt.Sub(start)
	uc.metrics.RecordLatency("run", elapsed.Seconds())
	uc.progress.Publish(models.ProgressEvent{RunID: p.ID, Stage: models.StageAnalyzed, Done: len(cohorts), Total: len(cohorts), At: res.FinishedAt})
	log.Info("analysis complete", applogger.Duration("elapsed", elapsed), applogger.Int("cohorts", len(res.Cohorts)))
	return res, nil
}

func (uc *AnalysisUseCase) load(ctx context.Context) (runInput, error) {
	var in runInput
	var err error
	if in.fine, err = uc.loadOne(ctx, domrepo.TF5m); err != nil {
		return in, err
	}
	if in.trend, err = uc.loadOne(ctx, domrepo.TF120m); err != nil {
		return in, err
	}
	in.pattern, err = uc.loadOne(ctx, domrepo.TF30m)
	switch {
	case err == nil:
		in.hasPattern = true
	case errors.Is(err, domrepo.ErrTimeframeUnavailable):
		uc.log.Warn("pattern series not configured, skipping pattern outcomes")
	default:
		return in, err
	}
	return in, nil
}

func (uc *AnalysisUseCase) loadOne(ctx context.Context, tf domrepo.Timeframe) (models.BarSeries, error) {
	s, err := uc.src.LoadBars(ctx, tf)
	if err != nil {
		return models.BarSeries{}, fmt.Errorf("load %s bars: %w", tf, err)
	}
	if s.Len() == 0 {
		return models.BarSeries{}, fmt.Errorf("load %s bars: %w", tf, domrepo.ErrNoBars)
	}
	uc.metrics.RecordBarsLoaded(string(tf), s.Len())
	return s, nil
}

// aggregate computes every cohort's tables on a bounded pool. Results keep
// catalog order regardless of completion order.
func (uc *AnalysisUseCase) aggregate(ctx context.Context, runID string, fs features.FeaturedSeries, cohorts []models.Cohort, offsets []float64) ([]models.CohortResult, error) {
	out := make([]models.CohortResult, len(cohorts))
	errs := make([]error, len(cohorts))
	jobs := make(chan int)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	for w := 0; w < uc.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				c := cohorts[i]
				tables := probability.AggregateOffsets(fs, c.Dates, offsets)
				merged, err := probability.Merge(tables...)
				if err != nil {
					errs[i] = fmt.Errorf("cohort %s: %w", c.ID, err)
					continue
				}
				out[i] = models.CohortResult{Cohort: c, Tables: tables, Merged: merged}
				uc.metrics.RecordCohort(cohortKind(c.ID), c.Size())

				mu.Lock()
				done++
				ev := models.ProgressEvent{RunID: runID, Stage: models.StageCohort, Cohort: c.ID, Days: c.Size(), Done: done, Total: len(cohorts), At: uc.now()}
				mu.Unlock()
				uc.progress.Publish(ev)
			}
		}()
	}

feed:
	for i := range cohorts {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate cohorts: %w", err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// cohortKind groups cohort ids for metrics: all, trend, gap or scenario.
func cohortKind(id string) string {
	switch {
	case id == "all":
		return "all"
	case strings.HasPrefix(id, "trend/"):
		return "trend"
	case strings.Contains(id, "/gap/"):
		return "gap"
	default:
		return "scenario"
	}
}
