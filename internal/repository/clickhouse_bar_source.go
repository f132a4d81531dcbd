package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	pkgch "SessionEdge/pkg/clickhouse"
	applogger "SessionEdge/pkg/logger"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ClickHouseBarSource reads bars from a table shaped
// (symbol, timeframe, ts, open, high, low, close, volume).
type ClickHouseBarSource struct {
	ch     *pkgch.Client
	query  string
	symbol string
	loc    *time.Location
	l      *applogger.Logger
}

// NewClickHouseBarSource validates the table name and prepares the query.
func NewClickHouseBarSource(ch *pkgch.Client, table, symbol string, loc *time.Location, l *applogger.Logger) (*ClickHouseBarSource, error) {
	q, err := barsQuery(ch.Database(), table)
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &ClickHouseBarSource{ch: ch, query: q, symbol: symbol, loc: loc, l: l}, nil
}

func barsQuery(database, table string) (string, error) {
	if !identRe.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	from := table
	if database != "" {
		if !identRe.MatchString(database) {
			return "", fmt.Errorf("invalid database name %q", database)
		}
		from = database + "." + table
	}
	return fmt.Sprintf(`
        SELECT ts, open, high, low, close, volume
        FROM %s
        WHERE symbol = ? AND timeframe = ?
        ORDER BY ts ASC
    `, from), nil
}

func (s *ClickHouseBarSource) LoadBars(ctx context.Context, tf domrepo.Timeframe) (models.BarSeries, error) {
	if !domrepo.IsValidTimeframe(tf) {
		return models.BarSeries{}, fmt.Errorf("%s: %w", tf, domrepo.ErrTimeframeUnavailable)
	}
	start := time.Now()
	bars := make([]models.Bar, 0, 4096)
	err := s.ch.Query(ctx, s.query, func(rows *sql.Rows) error {
		var b models.Bar
		if err := rows.Scan(&b.Timestamp, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return fmt.Errorf("scan bar: %w", err)
		}
		b.Timestamp = b.Timestamp.In(s.loc)
		if err := checkBar(b); err != nil {
			return err
		}
		bars = append(bars, b)
		return nil
	}, s.symbol, string(tf))
	if err != nil {
		s.l.Error("clickhouse load_bars error",
			applogger.String("symbol", s.symbol),
			applogger.String("tf", string(tf)),
			applogger.Error(err),
		)
		return models.BarSeries{}, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) == 0 {
		return models.BarSeries{}, fmt.Errorf("%s %s: %w", s.symbol, tf, domrepo.ErrNoBars)
	}
	s.l.Info("bars loaded",
		applogger.String("source", "clickhouse"),
		applogger.String("timeframe", string(tf)),
		applogger.Int("bars", len(bars)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return models.NewBarSeries(s.symbol, bars), nil
}
