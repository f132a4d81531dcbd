package api

import (
    "errors"
    "net/http"
    "strings"
    "time"

    models "SessionEdge/internal/domain/models"
    apimetrics "SessionEdge/internal/service/metrics"
    "SessionEdge/internal/service/ratelimit"
    "SessionEdge/internal/usecase"
    xhttp "SessionEdge/pkg/http"
    xlogger "SessionEdge/pkg/logger"

    "github.com/labstack/echo/v4"
)

// RunLimit bounds how often one client may start a run.
type RunLimit struct {
    PerMinute float64
    Burst     float64
}

// AnalysisEchoHandler serves completed runs, run triggers and trade ideas.
type AnalysisEchoHandler struct {
    logger *xlogger.Logger
    runs   *usecase.RunService
    ideas  *usecase.TradeIdeasUseCase
    rl     *ratelimit.Limiter
    limit  RunLimit
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, runs *usecase.RunService, ideas *usecase.TradeIdeasUseCase, rl *ratelimit.Limiter, limit RunLimit) *AnalysisEchoHandler {
    apimetrics.Register()
    if logger == nil {
        logger = xlogger.Nop()
    }
    if rl == nil {
        rl = ratelimit.New()
    }
    return &AnalysisEchoHandler{logger: logger, runs: runs, ideas: ideas, rl: rl, limit: limit}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", h.Health)
    g := e.Group("/api/v1")
    g.GET("/runs/latest", h.LatestRun)
    g.GET("/runs/:id/cohorts", h.Cohorts)
    g.GET("/runs/:id/cohorts/*", h.Cohort)
    g.POST("/runs", h.StartRun)
    g.GET("/trade-ideas", h.TradeIdeas)
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
    return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisEchoHandler) LatestRun(c echo.Context) error {
    defer observe(c, "runs_latest", time.Now())
    run, err := h.runs.Latest(c.Request().Context())
    if err != nil {
        return h.fail(c, "latest run", err)
    }
    c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
    return xhttp.SuccessResponse(c, run.Summary())
}

func (h *AnalysisEchoHandler) Cohorts(c echo.Context) error {
    defer observe(c, "cohorts", time.Now())
    req := &models.CohortListRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    var trend models.TrendLabel
    if req.Trend != "" {
        trend, _ = models.ParseTrendLabel(req.Trend)
    }
    ctx := c.Request().Context()
    id, err := h.resolveRunID(c, req.RunID)
    if err != nil {
        return h.fail(c, "resolve run", err)
    }
    rows, err := h.runs.Cohorts(ctx, id, trend)
    if err != nil {
        return h.fail(c, "list cohorts", err)
    }
    return xhttp.ListResponse(c, rows, len(rows))
}

func (h *AnalysisEchoHandler) Cohort(c echo.Context) error {
    defer observe(c, "cohort", time.Now())
    req := &models.CohortRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    cohortID := strings.Trim(c.Param("*"), "/")
    if cohortID == "" {
        return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("cohort id is required"))
    }
    id, err := h.resolveRunID(c, req.RunID)
    if err != nil {
        return h.fail(c, "resolve run", err)
    }
    res, err := h.runs.Cohort(c.Request().Context(), id, cohortID)
    if err != nil {
        return h.fail(c, "cohort", err)
    }
    return xhttp.SuccessResponse(c, limitRows(res, req.MaxBar))
}

func (h *AnalysisEchoHandler) StartRun(c echo.Context) error {
    defer observe(c, "runs_start", time.Now())
    if !h.rl.Allow(c.RealIP()+":runs", h.limit.Burst, ratelimit.PerMinute(h.limit.PerMinute)) {
        h.logger.Warn("runs.start rate_limited", xlogger.String("remote", c.RealIP()))
        return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many run requests"))
    }
    req := &models.RunRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    id, err := h.runs.Start(c.Request().Context(), usecase.RunParams{Rule: models.TrendRule(req.Rule), Offsets: req.Offsets})
    if err != nil {
        return h.fail(c, "start run", err)
    }
    h.logger.Info("run started", xlogger.String("run_id", id))
    return xhttp.AcceptedResponse(c, map[string]string{"run_id": id})
}

func (h *AnalysisEchoHandler) TradeIdeas(c echo.Context) error {
    defer observe(c, "trade_ideas", time.Now())
    req := &models.TradeIdeasRequest{}
    if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
        return xhttp.BadRequestResponse(c, verr)
    }
    plan, err := h.ideas.Generate(c.Request().Context(), *req)
    if err != nil {
        return xhttp.AppErrorResponse(c, xhttp.BadRequestErrorf("%v", err).WithError(err))
    }
    return xhttp.SuccessResponse(c, plan)
}

// resolveRunID accepts "latest" in place of a run id.
func (h *AnalysisEchoHandler) resolveRunID(c echo.Context, id string) (string, error) {
    if id != "latest" {
        return id, nil
    }
    run, err := h.runs.Latest(c.Request().Context())
    if err != nil {
        return "", err
    }
    return run.ID, nil
}

func (h *AnalysisEchoHandler) fail(c echo.Context, op string, err error) error {
    switch {
    case errors.Is(err, usecase.ErrRunNotFound):
        return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("run not found").WithError(err))
    case errors.Is(err, usecase.ErrCohortNotFound):
        return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("cohort %s not found", c.Param("*")).WithError(err))
    case errors.Is(err, usecase.ErrRunInProgress):
        return xhttp.AppErrorResponse(c, xhttp.ConflictError("a run is already in progress").WithError(err))
    }
    h.logger.Error(op+" usecase error", xlogger.Error(err))
    return xhttp.AppErrorResponse(c, xhttp.InternalError("Something went wrong").WithError(err))
}

// observe reads the failure from the written status; handlers render their
// own error envelopes and return nil.
func observe(c echo.Context, endpoint string, start time.Time) {
    apimetrics.Observe(endpoint, start, c.Response().Status >= http.StatusBadRequest)
}

// limitRows trims every table of r to bar indices <= maxBar; 0 keeps all.
func limitRows(r models.CohortResult, maxBar int) models.CohortResult {
    if maxBar <= 0 {
        return r
    }
    out := r
    out.Tables = make([]models.ProbTable, len(r.Tables))
    for i, t := range r.Tables {
        rows := make([]models.ProbRow, 0, len(t.Rows))
        for _, row := range t.Rows {
            if row.BarIndex <= maxBar {
                rows = append(rows, row)
            }
        }
        out.Tables[i] = models.ProbTable{Offset: t.Offset, Rows: rows}
    }
    merged := make([]models.MergedRow, 0, len(r.Merged.Rows))
    for _, row := range r.Merged.Rows {
        if row.BarIndex <= maxBar {
            merged = append(merged, row)
        }
    }
    out.Merged = models.MergedTable{Suffixes: r.Merged.Suffixes, Rows: merged}
    return out
}
