package models

import (
	"sort"
	"strings"
	"time"
)

// TrendLabel is the directional state of the higher-timeframe series.
type TrendLabel string

const (
	TrendUp      TrendLabel = "UP"
	TrendDown    TrendLabel = "DOWN"
	TrendNeutral TrendLabel = "NEUTRAL"
)

// Slug is the lowercase form used in cohort ids and file paths.
func (l TrendLabel) Slug() string { return strings.ToLower(string(l)) }

// ParseTrendLabel accepts either case.
func ParseTrendLabel(s string) (TrendLabel, bool) {
	switch TrendLabel(strings.ToUpper(s)) {
	case TrendUp:
		return TrendUp, true
	case TrendDown:
		return TrendDown, true
	case TrendNeutral:
		return TrendNeutral, true
	}
	return "", false
}

// TrendRule selects how per-bar trend state is computed.
type TrendRule string

const (
	// RuleSlopeGated: UP when fast > slow and slope > threshold, DOWN when fast < slow
	// and slope < -threshold, NEUTRAL otherwise. The day label is read at session open.
	RuleSlopeGated TrendRule = "slope_gated"
	// RuleCloseVsEMA: UP when fast > slow at the day's last bar, DOWN otherwise.
	RuleCloseVsEMA TrendRule = "close_vs_ema"
)

// Labels returns the labels the rule can produce.
func (r TrendRule) Labels() []TrendLabel {
	if r == RuleCloseVsEMA {
		return []TrendLabel{TrendUp, TrendDown}
	}
	return []TrendLabel{TrendUp, TrendDown, TrendNeutral}
}

func (r TrendRule) Valid() bool {
	return r == RuleSlopeGated || r == RuleCloseVsEMA
}

// TrendPoint is one bar of the higher-timeframe series with its indicators.
type TrendPoint struct {
	Timestamp time.Time  `json:"timestamp"`
	Close     float64    `json:"close"`
	FastEMA   float64    `json:"fast_ema"`
	SlowEMA   float64    `json:"slow_ema"`
	Slope     float64    `json:"slope"`
	State     TrendLabel `json:"state"`
}

// DayLabel is the unlagged label computed from one day's trend bars.
// Defined is false when the day has no bar at the reference time.
type DayLabel struct {
	Date    SessionDate `json:"date"`
	Label   TrendLabel  `json:"label,omitempty"`
	Defined bool        `json:"defined"`
}

// DayTrends maps a trading date to the label that applies when trading it.
// Labels are already lagged by one trading day.
type DayTrends map[SessionDate]TrendLabel

// Get returns the label for d.
func (t DayTrends) Get(d SessionDate) (TrendLabel, bool) {
	l, ok := t[d]
	return l, ok
}

// Dates returns labeled dates in ascending order.
func (t DayTrends) Dates() []SessionDate {
	out := make([]SessionDate, 0, len(t))
	for d := range t {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TrendSegment is a maximal run of identical per-bar states.
type TrendSegment struct {
	State  TrendLabel `json:"state"`
	Length int        `json:"length"`
}
