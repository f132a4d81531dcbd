package usecase

import (
	"context"
	"fmt"
	"time"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	"SessionEdge/internal/report"
	applogger "SessionEdge/pkg/logger"
	pkgmetrics "SessionEdge/pkg/metrics"
)

// ReportUseCase turns a finished run into files, a published summary and a
// cached result. Files are the only durable output; publish and cache
// failures are logged and do not fail the delivery.
type ReportUseCase struct {
	opts    report.Options
	pub     domrepo.ReportPublisher
	cache   domrepo.ResultCache
	metrics domrepo.Metrics
	log     *applogger.Logger
}

func NewReportUseCase(opts report.Options, pub domrepo.ReportPublisher, cache domrepo.ResultCache, metrics domrepo.Metrics, l *applogger.Logger) *ReportUseCase {
	if l == nil {
		l = applogger.Nop()
	}
	if metrics == nil {
		metrics = pkgmetrics.Nop{}
	}
	return &ReportUseCase{opts: opts, pub: pub, cache: cache, metrics: metrics, log: l}
}

// Deliver writes the run directory and returns its path.
func (uc *ReportUseCase) Deliver(ctx context.Context, r *models.RunResult) (string, error) {
	if r == nil {
		return "", fmt.Errorf("run result is nil")
	}
	start := time.Now()
	log := uc.log.With(applogger.String("run_id", r.ID))

	bundle, err := report.Render(r, uc.opts)
	if err != nil {
		uc.metrics.RecordError("render")
		return "", fmt.Errorf("render report: %w", err)
	}
	dir, err := bundle.Commit(uc.opts.Dir)
	if err != nil {
		uc.metrics.RecordError("write")
		return "", fmt.Errorf("write report: %w", err)
	}
	log.Info("report written", applogger.String("dir", dir), applogger.Int("files", len(bundle.Files)))

	if uc.cache != nil {
		if err := uc.cache.SaveRun(ctx, r); err != nil {
			uc.metrics.RecordError("cache")
			log.Warn("cache run result failed", applogger.Error(err))
		}
	}
	if uc.pub != nil {
		if err := uc.pub.PublishSummary(ctx, r.Summary()); err != nil {
			uc.metrics.RecordError("publish")
			log.Warn("publish run summary failed", applogger.Error(err))
		}
	}
	uc.metrics.RecordLatency("deliver", time.Since(start).Seconds())
	return dir, nil
}
