package di

import (
    "fmt"
    "time"

    "SessionEdge/internal/domain/models"
    "SessionEdge/internal/domain/repository"
    "SessionEdge/internal/handler/api"
    "SessionEdge/internal/handler/ws"
    "SessionEdge/internal/report"
    internalrepo "SessionEdge/internal/repository"
    "SessionEdge/internal/service/ratelimit"
    "SessionEdge/internal/services/cohort"
    "SessionEdge/internal/services/probability"
    "SessionEdge/internal/services/trend"
    "SessionEdge/internal/usecase"
    "SessionEdge/pkg/cache"
    pkgch "SessionEdge/pkg/clickhouse"
    "SessionEdge/pkg/config"
    xhttp "SessionEdge/pkg/http"
    pkgkafka "SessionEdge/pkg/kafka"
    applogger "SessionEdge/pkg/logger"
    "SessionEdge/pkg/metrics"
    "SessionEdge/pkg/server"
)

// ProvideLogger builds the application logger from the logging section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Output:     cfg.Logging.Output,
		TimeFormat: cfg.Logging.TimeFormat,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideLocation resolves the timezone naive timestamps are read in.
func ProvideLocation(cfg *config.Config) (*time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// ProvideMetrics creates a Prometheus metrics recorder, or a no-op one when
// metrics are disabled.
func ProvideMetrics(cfg *config.Config) repository.Metrics {
	if !cfg.Metrics.Enabled {
		return metrics.Nop{}
	}
	return metrics.New(cfg.Metrics.Namespace)
}

// ProvideClickHouseClient connects only when ClickHouse is the bar source.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Data.Source != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddress(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideBarSource picks the CSV files or the ClickHouse table.
func ProvideBarSource(cfg *config.Config, loc *time.Location, ch *pkgch.Client, l *applogger.Logger) (repository.BarSource, error) {
	if cfg.Data.Source == "clickhouse" {
		src, err := internalrepo.NewClickHouseBarSource(ch, cfg.ClickHouse.Table, cfg.Data.Symbol, loc, l)
		if err != nil {
			return nil, fmt.Errorf("clickhouse bar source: %w", err)
		}
		return src, nil
	}
	return internalrepo.NewCSVBarSource(cfg.Data.Symbol, map[repository.Timeframe]string{
		repository.TF5m:   cfg.Data.FinePath,
		repository.TF30m:  cfg.Data.PatternPath,
		repository.TF120m: cfg.Data.TrendPath,
	}, loc, l), nil
}

// ProvideKafkaProducer creates a Kafka producer; nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideReportPublisher publishes through Kafka when a producer exists.
func ProvideReportPublisher(producer *pkgkafka.Producer, l *applogger.Logger) repository.ReportPublisher {
	if producer == nil {
		return internalrepo.NopReportPublisher{}
	}
	return internalrepo.NewKafkaReportPublisher(producer, l)
}

// ProvideCache uses Redis when enabled and an in-process cache otherwise.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache()
		return mc, func() { _ = mc.Close() }, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, func() { _ = rc.Close() }, nil
}

func ProvideResultCache(c cache.Service, cfg *config.Config) repository.ResultCache {
	return internalrepo.NewCacheResultStore(c, cfg.Redis.TTL)
}

func ProvideProgressHub(l *applogger.Logger) *ws.ProgressHub {
	return ws.NewProgressHub(l)
}

func ProvideProgressSink(h *ws.ProgressHub) usecase.ProgressSink { return h }

// ProvideAnalysisConfig maps the analysis section onto the use case config.
func ProvideAnalysisConfig(cfg *config.Config) usecase.AnalysisConfig {
	a := cfg.Analysis
	gapPatterns := make([]cohort.PatternSpec, len(a.GapPatterns))
	for i, p := range a.GapPatterns {
		gapPatterns[i] = cohort.PatternSpec{Bars: p.Bars, Skip: p.Skip}
	}
	return usecase.AnalysisConfig{
		Symbol: cfg.Data.Symbol,
		Trend: trend.Config{
			Rule:           models.TrendRule(a.Trend.Rule),
			FastSpan:       a.Trend.FastSpan,
			SlowSpan:       a.Trend.SlowSpan,
			SlopeLookback:  a.Trend.SlopeLookback,
			SlopeThreshold: a.Trend.SlopeThreshold,
			SessionOpen:    a.Trend.SessionOpen,
		},
		GapThreshold:    a.GapThreshold,
		WickRatio:       a.StrongWickRatio,
		Offsets:         a.Offsets,
		SessionClose:    a.SessionClose,
		Window:          cohort.WindowSpec{Start: a.Window.Start, End: a.Window.End, MinBars: a.Window.MinBars},
		PatternBars:     a.PatternBars,
		GapPatterns:     gapPatterns,
		StrongTrendBars: a.StrongTrendBars,
		Workers:         a.Workers,
	}
}

// ProvideReportOptions maps the output section.
func ProvideReportOptions(cfg *config.Config) report.Options {
	return report.Options{
		Dir:       cfg.Output.Dir,
		Formats:   cfg.Output.Formats,
		Decimals:  cfg.Output.Decimals,
		MaxBar:    cfg.Analysis.MaxBarIndex,
		TotalsRow: cfg.Output.TotalsRow,
	}
}

func ProvideAnalysisUseCase(
	src repository.BarSource,
	m repository.Metrics,
	l *applogger.Logger,
	cfg usecase.AnalysisConfig,
	progress usecase.ProgressSink,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(src, m, l, cfg, progress)
}

func ProvideReportUseCase(
	opts report.Options,
	pub repository.ReportPublisher,
	results repository.ResultCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ReportUseCase {
	return usecase.NewReportUseCase(opts, pub, results, m, l)
}

func ProvideRunService(
	analysis *usecase.AnalysisUseCase,
	rep *usecase.ReportUseCase,
	results repository.ResultCache,
	progress usecase.ProgressSink,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RunService {
	return usecase.NewRunService(analysis, rep, results, progress, cfg.Redis.LockTTL, l)
}

func ProvideTradeIdeas(cfg *config.Config, l *applogger.Logger) *usecase.TradeIdeasUseCase {
	gen := probability.NewGenerator(probability.DefaultLookupTable(), probability.GeneratorConfig{
		DefaultATR:   cfg.TradeIdeas.DefaultATR,
		GapThreshold: cfg.Analysis.GapThreshold,
	})
	return usecase.NewTradeIdeasUseCase(gen, l)
}

func ProvideAPIHandler(cfg *config.Config, l *applogger.Logger, runs *usecase.RunService, ideas *usecase.TradeIdeasUseCase) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(l, runs, ideas, ratelimit.New(), api.RunLimit{
		PerMinute: cfg.Server.RunRatePerMin,
		Burst:     float64(cfg.Server.RunBurst),
	})
}

// ProvideHTTPHandler groups the REST routes and the progress websocket.
func ProvideHTTPHandler(h *api.AnalysisEchoHandler, hub *ws.ProgressHub) xhttp.Handler {
	return xhttp.HandlerGroup{h, hub}
}

func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithAddress("0.0.0.0", cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.Namespace, nil))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideLogCollector forwards aggregated warn/error lines to Kafka; nil
// when Kafka is disabled.
func ProvideLogCollector(cfg *config.Config, l *applogger.Logger, pub repository.ReportPublisher) *applogger.LogCollector {
	if !cfg.Kafka.Enabled {
		return nil
	}
	return l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   time.Minute,
		CountThreshold: 100,
		Key:            cfg.Kafka.LogsKey,
		Publisher:      pub,
	})
}

// ProvideApp creates the application.
func ProvideApp(
    cfg *config.Config,
    l *applogger.Logger,
    runs *usecase.RunService,
    ideas *usecase.TradeIdeasUseCase,
    httpServer *xhttp.Server,
    hub *ws.ProgressHub,
    pub repository.ReportPublisher,
    collector *applogger.LogCollector,
) *server.App {
    return server.New(cfg, l, runs, ideas, httpServer, hub, pub, collector)
}
