package trend

import (
	"fmt"

	"SessionEdge/internal/domain/models"
	"SessionEdge/pkg/util"
)

// Config parameterises the trend labeler.
type Config struct {
	Rule           models.TrendRule
	FastSpan       int
	SlowSpan       int
	SlopeLookback  int
	SlopeThreshold float64
	// SessionOpen is the "HH:MM" bar the slope-gated day label is read from.
	// Empty means each day's first bar.
	SessionOpen string
}

func DefaultConfig() Config {
	return Config{
		Rule:           models.RuleCloseVsEMA,
		FastSpan:       11,
		SlowSpan:       21,
		SlopeLookback:  1,
		SlopeThreshold: 10,
		SessionOpen:    "09:15",
	}
}

// Labeler turns a higher-timeframe series into lagged per-day trend labels.
type Labeler struct {
	cfg     Config
	open    util.Clock
	hasOpen bool
}

func NewLabeler(cfg Config) (*Labeler, error) {
	if !cfg.Rule.Valid() {
		return nil, fmt.Errorf("unknown trend rule %q", cfg.Rule)
	}
	if cfg.FastSpan < 1 || cfg.SlowSpan < 1 {
		return nil, fmt.Errorf("ema spans must be positive: fast=%d slow=%d", cfg.FastSpan, cfg.SlowSpan)
	}
	if cfg.SlopeLookback < 1 {
		return nil, fmt.Errorf("slope lookback must be positive: %d", cfg.SlopeLookback)
	}
	open, ok, err := util.ParseClock(cfg.SessionOpen)
	if err != nil {
		return nil, fmt.Errorf("session open: %w", err)
	}
	return &Labeler{cfg: cfg, open: open, hasOpen: ok}, nil
}

func (l *Labeler) Rule() models.TrendRule { return l.cfg.Rule }

// Points computes both EMAs, the slow EMA slope and the per-bar state under rule.
func (l *Labeler) Points(s models.BarSeries, rule models.TrendRule) []models.TrendPoint {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	fast := EMA(closes, l.cfg.FastSpan)
	slow := EMA(closes, l.cfg.SlowSpan)
	slope := SlopeDegrees(slow, l.cfg.SlopeLookback)

	out := make([]models.TrendPoint, len(s.Bars))
	for i, b := range s.Bars {
		p := models.TrendPoint{
			Timestamp: b.Timestamp,
			Close:     b.Close,
			FastEMA:   fast[i],
			SlowEMA:   slow[i],
			Slope:     slope[i],
		}
		p.State = l.state(p, rule)
		out[i] = p
	}
	return out
}

func (l *Labeler) state(p models.TrendPoint, rule models.TrendRule) models.TrendLabel {
	if rule == models.RuleCloseVsEMA {
		if p.FastEMA > p.SlowEMA {
			return models.TrendUp
		}
		return models.TrendDown
	}
	switch {
	case p.FastEMA > p.SlowEMA && p.Slope > l.cfg.SlopeThreshold:
		return models.TrendUp
	case p.FastEMA < p.SlowEMA && p.Slope < -l.cfg.SlopeThreshold:
		return models.TrendDown
	default:
		return models.TrendNeutral
	}
}

// States extracts the per-bar states.
func States(points []models.TrendPoint) []models.TrendLabel {
	out := make([]models.TrendLabel, len(points))
	for i, p := range points {
		out[i] = p.State
	}
	return out
}

// Daily reduces per-bar points to one unlagged label per day. Slope-gated
// labels come from the session-open bar; a day without one is left undefined.
// Close-vs-EMA labels come from the day's last bar.
func (l *Labeler) Daily(points []models.TrendPoint, rule models.TrendRule) []models.DayLabel {
	var out []models.DayLabel
	for i := 0; i < len(points); {
		date := models.DateOf(points[i].Timestamp)
		j := i
		for j < len(points) && models.DateOf(points[j].Timestamp) == date {
			j++
		}
		day := points[i:j]
		dl := models.DayLabel{Date: date}
		if rule == models.RuleCloseVsEMA {
			dl.Label, dl.Defined = day[len(day)-1].State, true
		} else if !l.hasOpen {
			dl.Label, dl.Defined = day[0].State, true
		} else {
			for _, p := range day {
				if l.open.Matches(p.Timestamp) {
					dl.Label, dl.Defined = p.State, true
					break
				}
			}
		}
		out = append(out, dl)
		i = j
	}
	return out
}

// Lag shifts daily labels forward by one trading day: the label for day i is
// the label computed on day i-1. The first day, and any day whose predecessor
// is undefined, gets no entry.
func Lag(daily []models.DayLabel) models.DayTrends {
	out := make(models.DayTrends, len(daily))
	for i := 1; i < len(daily); i++ {
		if prev := daily[i-1]; prev.Defined {
			out[daily[i].Date] = prev.Label
		}
	}
	return out
}

// Label runs the whole pipeline with the configured rule.
func (l *Labeler) Label(s models.BarSeries) (models.DayTrends, []models.TrendPoint) {
	points := l.Points(s, l.cfg.Rule)
	return Lag(l.Daily(points, l.cfg.Rule)), points
}
