package cohort

import (
	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

// DayContext is everything a predicate may look at for one day.
type DayContext struct {
	Day      features.DayFeatures
	Bars     []features.FeaturedBar
	Trend    models.TrendLabel
	HasTrend bool
}

// Predicate decides cohort membership of one day.
type Predicate func(DayContext) bool

// Contexts pairs every day of fs with its lagged trend label.
func Contexts(fs features.FeaturedSeries, trends models.DayTrends) []DayContext {
	out := make([]DayContext, 0, len(fs.Days))
	for _, d := range fs.Days {
		dc := DayContext{Day: d, Bars: fs.Bars[d.Start:d.End]}
		dc.Trend, dc.HasTrend = trends.Get(d.Date)
		out = append(out, dc)
	}
	return out
}

func AllOf(ps ...Predicate) Predicate {
	return func(dc DayContext) bool {
		for _, p := range ps {
			if !p(dc) {
				return false
			}
		}
		return true
	}
}

func AnyOf(ps ...Predicate) Predicate {
	return func(dc DayContext) bool {
		for _, p := range ps {
			if p(dc) {
				return true
			}
		}
		return false
	}
}

func Not(p Predicate) Predicate {
	return func(dc DayContext) bool { return !p(dc) }
}

// Always matches every day.
func Always() Predicate { return func(DayContext) bool { return true } }

// TrendIs matches days whose lagged label is l. Unlabeled days never match.
func TrendIs(l models.TrendLabel) Predicate {
	return func(dc DayContext) bool { return dc.HasTrend && dc.Trend == l }
}

// HasGap matches days with a previous close.
func HasGap() Predicate {
	return func(dc DayContext) bool { return dc.Day.HasPrevClose }
}

// GapAtLeast matches gap >= g. Days without a previous close never match.
func GapAtLeast(g float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.HasPrevClose && dc.Day.Gap >= g }
}

// GapAtMost matches gap <= g. Days without a previous close never match.
func GapAtMost(g float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.HasPrevClose && dc.Day.Gap <= g }
}

// GapIn matches days whose gap falls in bucket b under threshold.
func GapIn(b models.GapBucket, threshold float64) Predicate {
	return func(dc DayContext) bool {
		return dc.Day.HasPrevClose && models.ClassifyGap(dc.Day.Gap, threshold) == b
	}
}

func OpeningBull() Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.IsBull() }
}

func OpeningBear() Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.IsBear() }
}

// UpperWickWithin is false on a zero-range opening bar.
func UpperWickWithin(ratio float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.UpperWickWithin(ratio) }
}

// LowerWickWithin is false on a zero-range opening bar.
func LowerWickWithin(ratio float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.LowerWickWithin(ratio) }
}

func OpeningStrongBull(ratio float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.StrongBull(ratio) }
}

func OpeningStrongBear(ratio float64) Predicate {
	return func(dc DayContext) bool { return dc.Day.Opening.StrongBear(ratio) }
}

// MinBars matches days with at least n bars.
func MinBars(n int) Predicate {
	return func(dc DayContext) bool { return dc.Day.Bars >= n }
}

// Select returns the dates of the contexts matching p, in order.
func Select(days []DayContext, p Predicate) []models.SessionDate {
	out := make([]models.SessionDate, 0)
	for _, dc := range days {
		if p(dc) {
			out = append(out, dc.Day.Date)
		}
	}
	return out
}
