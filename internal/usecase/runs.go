package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	applogger "SessionEdge/pkg/logger"
)

var (
	ErrRunNotFound    = errors.New("run not found")
	ErrRunInProgress  = errors.New("a run is already in progress")
	ErrCohortNotFound = errors.New("cohort not found")
)

// RunService coordinates analysis and delivery, and serves completed runs.
type RunService struct {
	analysis *AnalysisUseCase
	report   *ReportUseCase
	results  domrepo.ResultCache
	progress ProgressSink
	lockTTL  time.Duration
	log      *applogger.Logger

	wg sync.WaitGroup
}

func NewRunService(analysis *AnalysisUseCase, rep *ReportUseCase, results domrepo.ResultCache, progress ProgressSink, lockTTL time.Duration, l *applogger.Logger) *RunService {
	if progress == nil {
		progress = nopSink{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	if lockTTL <= 0 {
		lockTTL = 15 * time.Minute
	}
	return &RunService{
		analysis: analysis,
		report:   rep,
		results:  results,
		progress: progress,
		lockTTL:  lockTTL,
		log:      l,
	}
}

// RunOnce analyses and delivers synchronously. It returns the result and the
// run directory.
func (s *RunService) RunOnce(ctx context.Context, p RunParams) (*models.RunResult, string, error) {
	res, err := s.analysis.Run(ctx, p)
	if err != nil {
		return nil, "", err
	}
	dir, err := s.report.Deliver(ctx, res)
	if err != nil {
		s.progress.Publish(models.ProgressEvent{RunID: res.ID, Stage: models.StageFailed, Error: err.Error(), At: time.Now()})
		return nil, "", err
	}
	s.progress.Publish(models.ProgressEvent{RunID: res.ID, Stage: models.StageDelivered, Done: len(res.Cohorts), Total: len(res.Cohorts), At: time.Now()})
	return res, dir, nil
}

// Start launches a run in the background and returns its id. Only one run
// may hold the lock at a time.
func (s *RunService) Start(ctx context.Context, p RunParams) (string, error) {
	if p.Rule != "" && !p.Rule.Valid() {
		return "", fmt.Errorf("unknown trend rule %q", p.Rule)
	}
	ok, err := s.results.TryLockRun(ctx, s.lockTTL)
	if err != nil {
		return "", fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return "", ErrRunInProgress
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// The request context ends with the HTTP call; the run must not.
		runCtx, cancel := context.WithTimeout(context.Background(), s.lockTTL)
		defer cancel()
		defer func() {
			if err := s.results.UnlockRun(context.Background()); err != nil {
				s.log.Warn("release run lock failed", applogger.Error(err))
			}
		}()
		if _, _, err := s.RunOnce(runCtx, p); err != nil {
			s.log.Error("background run failed", applogger.String("run_id", p.ID), applogger.Error(err))
		}
	}()
	return p.ID, nil
}

// Wait blocks until every background run has finished.
func (s *RunService) Wait() { s.wg.Wait() }

// Get loads a completed run.
func (s *RunService) Get(ctx context.Context, id string) (*models.RunResult, error) {
	r, err := s.results.LoadRun(ctx, id)
	if errors.Is(err, domrepo.ErrResultNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return r, nil
}

// Latest loads the most recently delivered run.
func (s *RunService) Latest(ctx context.Context) (*models.RunResult, error) {
	id, err := s.results.LatestRunID(ctx)
	if errors.Is(err, domrepo.ErrResultNotFound) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest run id: %w", err)
	}
	return s.Get(ctx, id)
}

// Cohorts lists the cohort summaries of a run, optionally for one trend.
func (s *RunService) Cohorts(ctx context.Context, id string, trend models.TrendLabel) ([]models.CohortSummary, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	all := r.Summary().Cohorts
	if trend == "" {
		return all, nil
	}
	out := make([]models.CohortSummary, 0, len(all))
	for _, c := range all {
		if c.Trend == trend {
			out = append(out, c)
		}
	}
	return out, nil
}

// Cohort returns one cohort result of a run.
func (s *RunService) Cohort(ctx context.Context, runID, cohortID string) (models.CohortResult, error) {
	r, err := s.Get(ctx, runID)
	if err != nil {
		return models.CohortResult{}, err
	}
	c, ok := r.Cohort(cohortID)
	if !ok {
		return models.CohortResult{}, ErrCohortNotFound
	}
	return c, nil
}
