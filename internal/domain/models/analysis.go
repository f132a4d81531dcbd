package models

import "time"

// WindowStats is the bar-window placement outcome for one trend.
type WindowStats struct {
	Trend          TrendLabel    `json:"trend"`
	Days           int           `json:"days"`
	HighInWindow   int           `json:"high_in_window"`
	LowInWindow    int           `json:"low_in_window"`
	HighPct        Ratio         `json:"high_in_window_pct"`
	LowPct         Ratio         `json:"low_in_window_pct"`
	Reversals      int           `json:"reversals"`
	ReversalPct    Ratio         `json:"reversal_pct"`
	ReversalDates  []SessionDate `json:"reversal_dates,omitempty"`
	WindowDayDates []SessionDate `json:"window_dates,omitempty"`
}

// WindowReport covers bars Start..End (1-based, inclusive).
type WindowReport struct {
	Start   int           `json:"start"`
	End     int           `json:"end"`
	MinBars int           `json:"min_bars"`
	ByTrend []WindowStats `json:"by_trend"`
}

// DayCloseStats counts day close direction for one trend, optionally narrowed
// to one gap side.
type DayCloseStats struct {
	Trend   TrendLabel `json:"trend"`
	GapSide GapSide    `json:"gap_side,omitempty"`
	Days    int        `json:"days"`
	Bull    int        `json:"bull"`
	Bear    int        `json:"bear"`
	Flat    int        `json:"flat"`
	BullPct Ratio      `json:"bull_pct"`
	BearPct Ratio      `json:"bear_pct"`
}

// PatternStats is the day outcome of one opening pattern under one trend.
type PatternStats struct {
	Pattern   string        `json:"pattern"`
	Trend     TrendLabel    `json:"trend"`
	GapSide   GapSide       `json:"gap_side,omitempty"`
	Days      int           `json:"days"`
	BullClose int           `json:"bull_close"`
	BearClose int           `json:"bear_close"`
	BullPct   Ratio         `json:"bull_pct"`
	BearPct   Ratio         `json:"bear_pct"`
	Dates     []SessionDate `json:"dates,omitempty"`
}

// PatternReport lists every pattern key (plus the flat cohort) for each trend.
// Skip is the number of leading bars ignored before the pattern starts; a
// report split by gap side carries one row per trend, side and key.
type PatternReport struct {
	Bars  int            `json:"bars"`
	Skip  int            `json:"skip,omitempty"`
	ByGap bool           `json:"by_gap,omitempty"`
	Keys  []string       `json:"keys"`
	Stats []PatternStats `json:"stats"`
}

// TransitionStats counts what follows a neutral zone entered from one trend.
type TransitionStats struct {
	From            TrendLabel `json:"from"`
	Total           int        `json:"total"`
	Reversals       int        `json:"reversals"`
	Continuations   int        `json:"continuations"`
	ReversalPct     Ratio      `json:"reversal_pct"`
	ContinuationPct Ratio      `json:"continuation_pct"`
}

// TransitionReport summarises neutral zones on the higher-timeframe series.
type TransitionReport struct {
	MinTrendBars   int             `json:"min_trend_bars"`
	NeutralZones   int             `json:"neutral_zones"`
	AvgNeutralBars Ratio           `json:"avg_neutral_bars"`
	FromUp         TransitionStats `json:"from_up"`
	FromDown       TransitionStats `json:"from_down"`
}

// RunResult is everything one analysis run produced.
type RunResult struct {
	ID          string            `json:"id"`
	Symbol      string            `json:"symbol"`
	Rule        TrendRule         `json:"rule"`
	Offsets     []float64         `json:"offsets"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Days        int               `json:"days"`
	LabeledDays int               `json:"labeled_days"`
	Cohorts     []CohortResult    `json:"cohorts"`
	Window      *WindowReport     `json:"window,omitempty"`
	DayClose    []DayCloseStats   `json:"day_close,omitempty"`
	Patterns    *PatternReport    `json:"patterns,omitempty"`
	Transitions *TransitionReport `json:"transitions,omitempty"`

	DayCloseByGap []DayCloseStats `json:"day_close_by_gap,omitempty"`
	GapPatterns   []PatternReport `json:"gap_patterns,omitempty"`
}

// Cohort looks up a cohort result by id.
func (r *RunResult) Cohort(id string) (CohortResult, bool) {
	for _, c := range r.Cohorts {
		if c.Cohort.ID == id {
			return c, true
		}
	}
	return CohortResult{}, false
}

// CohortSummary is the compact form of a cohort result.
type CohortSummary struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Trend       TrendLabel `json:"trend,omitempty"`
	Days        int        `json:"days"`
	Bar1High    Ratio      `json:"bar1_prob_high"`
	Bar1Low     Ratio      `json:"bar1_prob_low"`
}

// RunSummary is published after a run and served by the API.
type RunSummary struct {
	ID          string          `json:"id"`
	Symbol      string          `json:"symbol"`
	Rule        TrendRule       `json:"rule"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
	Days        int             `json:"days"`
	LabeledDays int             `json:"labeled_days"`
	Cohorts     []CohortSummary `json:"cohorts"`
}

// Summary builds the compact form of r.
func (r *RunResult) Summary() RunSummary {
	s := RunSummary{
		ID:          r.ID,
		Symbol:      r.Symbol,
		Rule:        r.Rule,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		Days:        r.Days,
		LabeledDays: r.LabeledDays,
		Cohorts:     make([]CohortSummary, 0, len(r.Cohorts)),
	}
	for _, c := range r.Cohorts {
		cs := CohortSummary{
			ID:          c.Cohort.ID,
			Description: c.Cohort.Description,
			Trend:       c.Cohort.Trend,
			Days:        c.Days(),
			Bar1High:    Undefined(),
			Bar1Low:     Undefined(),
		}
		if row, ok := c.FirstBar(0); ok {
			cs.Bar1High = row.ProbHigh
			cs.Bar1Low = row.ProbLow
		}
		s.Cohorts = append(s.Cohorts, cs)
	}
	return s
}

// Progress stages of a run.
const (
	StageLoaded    = "loaded"
	StageCohort    = "cohort"
	StageAnalyzed  = "analyzed"
	StageDelivered = "delivered"
	StageFailed    = "failed"
)

// ProgressEvent reports how far a run has got.
type ProgressEvent struct {
	RunID  string    `json:"run_id"`
	Stage  string    `json:"stage"`
	Cohort string    `json:"cohort,omitempty"`
	Days   int       `json:"days,omitempty"`
	Done   int       `json:"done"`
	Total  int       `json:"total"`
	Error  string    `json:"error,omitempty"`
	At     time.Time `json:"at"`
}
