package repository

import (
	"context"
	"errors"
	"time"

	"SessionEdge/internal/domain/models"
)

var (
	ErrNoBars               = errors.New("no bars")
	ErrColumnMissing        = errors.New("required column missing")
	ErrTimestamp            = errors.New("unparseable timestamp")
	ErrInvalidBar           = errors.New("invalid bar")
	ErrTimeframeUnavailable = errors.New("timeframe not configured")
	ErrResultNotFound       = errors.New("result not found")
)

// BarSource loads a complete bar series for one timeframe.
type BarSource interface {
	LoadBars(ctx context.Context, tf Timeframe) (models.BarSeries, error)
}

// ReportPublisher announces finished runs.
type ReportPublisher interface {
	PublishSummary(ctx context.Context, s models.RunSummary) error
	PublishMessage(ctx context.Context, key string, payload []byte) error
	Close() error
}

// ResultCache keeps completed runs for the read API.
type ResultCache interface {
	SaveRun(ctx context.Context, r *models.RunResult) error
	LoadRun(ctx context.Context, id string) (*models.RunResult, error)
	LatestRunID(ctx context.Context) (string, error)
	TryLockRun(ctx context.Context, ttl time.Duration) (bool, error)
	UnlockRun(ctx context.Context) error
}

type Metrics interface {
	RecordBarsLoaded(timeframe string, n int)
	RecordCohort(kind string, days int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
