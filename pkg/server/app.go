package server

import (
	"context"
	"errors"
	"fmt"
	"io"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/domain/repository"
	"SessionEdge/internal/handler/ws"
	"SessionEdge/internal/report"
	"SessionEdge/internal/usecase"
	"SessionEdge/pkg/config"
	xhttp "SessionEdge/pkg/http"
	applogger "SessionEdge/pkg/logger"
)

// App encapsulates the application lifecycle for every mode.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	runs       *usecase.RunService
	ideas      *usecase.TradeIdeasUseCase
	httpServer *xhttp.Server
	hub        *ws.ProgressHub
	pub        repository.ReportPublisher
	collector  *applogger.LogCollector
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	runs *usecase.RunService,
	ideas *usecase.TradeIdeasUseCase,
	httpServer *xhttp.Server,
	hub *ws.ProgressHub,
	pub repository.ReportPublisher,
	collector *applogger.LogCollector,
) *App {
	return &App{
		cfg:        cfg,
		log:        l,
		runs:       runs,
		ideas:      ideas,
		httpServer: httpServer,
		hub:        hub,
		pub:        pub,
		collector:  collector,
	}
}

// RunBatch performs one analysis and writes its report directory.
func (a *App) RunBatch(ctx context.Context) (string, error) {
	res, dir, err := a.runs.RunOnce(ctx, usecase.RunParams{})
	a.flushLogs(ctx)
	if err != nil {
		a.log.Error("batch run failed", applogger.Error(err))
		return "", err
	}
	a.log.Info("batch run complete",
		applogger.String("run_id", res.ID),
		applogger.String("dir", dir),
		applogger.Int("days", res.Days),
		applogger.Int("cohorts", len(res.Cohorts)),
	)
	return dir, nil
}

// Serve runs the read API until ctx is cancelled or the listener fails. When
// no completed run is cached yet, one is started in the background.
func (a *App) Serve(ctx context.Context) error {
	if _, err := a.runs.Latest(ctx); errors.Is(err, usecase.ErrRunNotFound) {
		id, err := a.runs.Start(ctx, usecase.RunParams{})
		if err != nil {
			a.log.Warn("initial run not started", applogger.Error(err))
		} else {
			a.log.Info("initial run started", applogger.String("run_id", id))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case serveErr = <-a.httpServer.Err():
	}
	return errors.Join(serveErr, a.shutdown())
}

// Ideas prints the trade plan for one opening bar.
func (a *App) Ideas(ctx context.Context, req models.TradeIdeasRequest, w io.Writer) error {
	if req.ATR <= 0 {
		req.ATR = a.cfg.TradeIdeas.DefaultATR
	}
	plan, err := a.ideas.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("trade ideas: %w", err)
	}
	return report.WriteTradePlan(w, plan)
}

// Close releases publishers and flushes collected logs.
func (a *App) Close() error {
	if a.collector != nil {
		a.collector.Close()
	}
	if a.pub != nil {
		return a.pub.Close()
	}
	return nil
}

// shutdown gracefully stops the server and waits for background runs.
func (a *App) shutdown() error {
	a.log.Info("shutting down...")
	var err error
	if stopErr := a.httpServer.Stop(context.Background()); stopErr != nil {
		a.log.Error("http shutdown error", applogger.Error(stopErr))
		err = stopErr
	}
	a.hub.Close()
	a.runs.Wait()
	a.flushLogs(context.Background())
	a.log.Info("shutdown complete")
	return err
}

func (a *App) flushLogs(ctx context.Context) {
	if a.collector == nil {
		return
	}
	if err := a.collector.Flush(ctx); err != nil {
		a.log.Warn("flush collected logs", applogger.Error(err))
	}
}
