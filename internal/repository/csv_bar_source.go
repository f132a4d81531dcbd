package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"SessionEdge/internal/domain/models"
	domrepo "SessionEdge/internal/domain/repository"
	applogger "SessionEdge/pkg/logger"
	"SessionEdge/pkg/util"
)

// timeColumns are accepted names for the timestamp column, in preference order.
var timeColumns = []string{"date", "datetime", "timestamp"}

// CSVBarSource reads one CSV file per timeframe.
type CSVBarSource struct {
	symbol string
	paths  map[domrepo.Timeframe]string
	loc    *time.Location
	l      *applogger.Logger
}

// NewCSVBarSource maps each timeframe to its file. Naive timestamps are read in loc.
func NewCSVBarSource(symbol string, paths map[domrepo.Timeframe]string, loc *time.Location, l *applogger.Logger) *CSVBarSource {
	if loc == nil {
		loc = time.UTC
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CSVBarSource{symbol: symbol, paths: paths, loc: loc, l: l}
}

func (s *CSVBarSource) LoadBars(ctx context.Context, tf domrepo.Timeframe) (models.BarSeries, error) {
	path, ok := s.paths[tf]
	if !ok || path == "" {
		return models.BarSeries{}, fmt.Errorf("%s: %w", tf, domrepo.ErrTimeframeUnavailable)
	}
	start := time.Now()
	f, err := os.Open(path)
	if err != nil {
		s.l.Error("open bar file", applogger.String("path", path), applogger.Error(err))
		return models.BarSeries{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	series, err := ReadBarsCSV(ctx, f, s.symbol, s.loc)
	if err != nil {
		s.l.Error("read bar file", applogger.String("path", path), applogger.Error(err))
		return models.BarSeries{}, fmt.Errorf("%s: %w", path, err)
	}
	s.l.Info("bars loaded",
		applogger.String("path", path),
		applogger.String("timeframe", string(tf)),
		applogger.Int("bars", series.Len()),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return series, nil
}

type csvLayout struct {
	ts, open, high, low, close, volume int
}

func parseHeader(header []string) (csvLayout, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	lay := csvLayout{ts: -1, volume: -1}
	for _, name := range timeColumns {
		if i, ok := idx[name]; ok {
			lay.ts = i
			break
		}
	}
	if lay.ts < 0 {
		return lay, fmt.Errorf("%w: date", domrepo.ErrColumnMissing)
	}
	for name, dst := range map[string]*int{"open": &lay.open, "high": &lay.high, "low": &lay.low, "close": &lay.close} {
		i, ok := idx[name]
		if !ok {
			return lay, fmt.Errorf("%w: %s", domrepo.ErrColumnMissing, name)
		}
		*dst = i
	}
	if i, ok := idx["volume"]; ok {
		lay.volume = i
	}
	return lay, nil
}

// ReadBarsCSV parses a bar file. Any malformed row aborts the read.
func ReadBarsCSV(ctx context.Context, r io.Reader, symbol string, loc *time.Location) (models.BarSeries, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return models.BarSeries{}, domrepo.ErrNoBars
	}
	if err != nil {
		return models.BarSeries{}, fmt.Errorf("read header: %w", err)
	}
	lay, err := parseHeader(header)
	if err != nil {
		return models.BarSeries{}, err
	}

	var bars []models.Bar
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.BarSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		if line%10000 == 0 {
			if err := ctx.Err(); err != nil {
				return models.BarSeries{}, err
			}
		}
		b, err := parseRecord(rec, lay, loc)
		if err != nil {
			return models.BarSeries{}, fmt.Errorf("line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return models.BarSeries{}, domrepo.ErrNoBars
	}
	return models.NewBarSeries(symbol, bars), nil
}

func parseRecord(rec []string, lay csvLayout, loc *time.Location) (models.Bar, error) {
	field := func(i int) string {
		if i < 0 || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}
	ts, ok := util.ParseTimeIn(field(lay.ts), loc)
	if !ok {
		return models.Bar{}, fmt.Errorf("%w: %q", domrepo.ErrTimestamp, field(lay.ts))
	}
	b := models.Bar{Timestamp: ts}
	for _, c := range []struct {
		name string
		i    int
		dst  *float64
	}{
		{"open", lay.open, &b.Open},
		{"high", lay.high, &b.High},
		{"low", lay.low, &b.Low},
		{"close", lay.close, &b.Close},
	} {
		v, err := strconv.ParseFloat(field(c.i), 64)
		if err != nil {
			return models.Bar{}, fmt.Errorf("%s: %w", c.name, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.Bar{}, fmt.Errorf("%w: %s is %v", domrepo.ErrInvalidBar, c.name, v)
		}
		*c.dst = v
	}
	if err := checkBar(b); err != nil {
		return models.Bar{}, err
	}
	if raw := field(lay.volume); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			b.Volume = v
		}
	}
	return b, nil
}

// checkBar enforces high >= max(open, close) and low <= min(open, close).
func checkBar(b models.Bar) error {
	if b.High < math.Max(b.Open, b.Close) || b.Low > math.Min(b.Open, b.Close) {
		return fmt.Errorf("%w: %s o=%g h=%g l=%g c=%g", domrepo.ErrInvalidBar,
			b.Timestamp.Format(time.RFC3339), b.Open, b.High, b.Low, b.Close)
	}
	return nil
}
