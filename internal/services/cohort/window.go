package cohort

import (
	"fmt"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

// WindowSpec is a 1-based inclusive bar range plus the minimum day length.
type WindowSpec struct {
	Start   int
	End     int
	MinBars int
}

func DefaultWindow() WindowSpec { return WindowSpec{Start: 15, End: 19, MinBars: 20} }

func (w WindowSpec) Validate() error {
	if w.Start < 1 || w.End < w.Start {
		return fmt.Errorf("invalid window %d..%d", w.Start, w.End)
	}
	if w.MinBars < w.End {
		return fmt.Errorf("min bars %d shorter than window end %d", w.MinBars, w.End)
	}
	return nil
}

// Placement says whether the day's extremes fall inside the window.
type Placement struct {
	HighInWindow bool
	LowInWindow  bool
}

// PlacementOf compares the window extremes with the day extremes by exact
// equality. ok is false when the day is shorter than the window requires.
func PlacementOf(bars []features.FeaturedBar, w WindowSpec) (Placement, bool) {
	if len(bars) < w.MinBars || len(bars) < w.End {
		return Placement{}, false
	}
	win := bars[w.Start-1 : w.End]
	hi, lo := win[0].High, win[0].Low
	for _, b := range win[1:] {
		if b.High > hi {
			hi = b.High
		}
		if b.Low < lo {
			lo = b.Low
		}
	}
	return Placement{HighInWindow: hi == bars[0].DayHigh, LowInWindow: lo == bars[0].DayLow}, true
}

// WindowPlacement counts window placements per trend. An UP day whose high is
// in the window and that closes below its open is a reversal; DOWN is mirrored.
func WindowPlacement(fs features.FeaturedSeries, trends models.DayTrends, w WindowSpec, labels []models.TrendLabel) models.WindowReport {
	rep := models.WindowReport{Start: w.Start, End: w.End, MinBars: w.MinBars}
	byTrend := make(map[models.TrendLabel]*models.WindowStats, len(labels))
	for _, l := range labels {
		byTrend[l] = &models.WindowStats{Trend: l}
	}
	for _, dc := range Contexts(fs, trends) {
		if !dc.HasTrend {
			continue
		}
		st, ok := byTrend[dc.Trend]
		if !ok {
			continue
		}
		pl, ok := PlacementOf(dc.Bars, w)
		if !ok {
			continue
		}
		st.Days++
		if pl.HighInWindow {
			st.HighInWindow++
		}
		if pl.LowInWindow {
			st.LowInWindow++
		}
		if pl.HighInWindow || pl.LowInWindow {
			st.WindowDayDates = append(st.WindowDayDates, dc.Day.Date)
		}
		reversal := (dc.Trend == models.TrendUp && pl.HighInWindow && dc.Day.Close < dc.Day.Open) ||
			(dc.Trend == models.TrendDown && pl.LowInWindow && dc.Day.Close > dc.Day.Open)
		if reversal {
			st.Reversals++
			st.ReversalDates = append(st.ReversalDates, dc.Day.Date)
		}
	}
	for _, l := range labels {
		st := byTrend[l]
		st.HighPct = models.NewRatio(st.HighInWindow, st.Days)
		st.LowPct = models.NewRatio(st.LowInWindow, st.Days)
		switch l {
		case models.TrendUp:
			st.ReversalPct = models.NewRatio(st.Reversals, st.HighInWindow)
		case models.TrendDown:
			st.ReversalPct = models.NewRatio(st.Reversals, st.LowInWindow)
		default:
			st.ReversalPct = models.Undefined()
		}
		rep.ByTrend = append(rep.ByTrend, *st)
	}
	return rep
}
