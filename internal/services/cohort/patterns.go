package cohort

import (
	"fmt"
	"strings"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

const (
	// FlatKey collects days where any of the first k bars is flat.
	FlatKey        = "has-flat"
	patternDelimit = "-"
)

// PatternKeys enumerates all 2^k Bull/Bear sequences, Bull before Bear at
// every position.
func PatternKeys(k int) []string {
	if k < 1 {
		return nil
	}
	keys := []string{""}
	for i := 0; i < k; i++ {
		next := make([]string, 0, len(keys)*2)
		for _, p := range keys {
			for _, c := range []models.CandleClass{models.CandleBull, models.CandleBear} {
				if p == "" {
					next = append(next, string(c))
				} else {
					next = append(next, p+patternDelimit+string(c))
				}
			}
		}
		keys = next
	}
	return keys
}

// ClassifyPattern returns the key of the first k bars. A day with fewer than
// k bars has no pattern; a flat bar among them yields FlatKey.
func ClassifyPattern(bars []models.Bar, k int) (string, bool) {
	if k < 1 || len(bars) < k {
		return "", false
	}
	parts := make([]string, k)
	for i := 0; i < k; i++ {
		c := models.ClassOf(bars[i])
		if c == models.CandleFlat {
			return FlatKey, true
		}
		parts[i] = string(c)
	}
	return strings.Join(parts, patternDelimit), true
}

// PatternSpec selects bars skip+1 .. skip+bars of each day.
type PatternSpec struct {
	Bars int
	Skip int
}

func (s PatternSpec) String() string {
	if s.Skip == 0 {
		return fmt.Sprintf("first %d bars", s.Bars)
	}
	return fmt.Sprintf("bars %d-%d", s.Skip+1, s.Skip+s.Bars)
}

// PatternOutcomes tabulates, per trend and opening pattern, how the day
// closed relative to its open. Every key is listed, zero counts included.
func PatternOutcomes(fs features.FeaturedSeries, trends models.DayTrends, k int, labels []models.TrendLabel) models.PatternReport {
	return tabulatePatterns(fs, trends, PatternSpec{Bars: k}, labels, nil)
}

// PatternOutcomesByGap is PatternOutcomes split further by gap side. Days
// without a previous close are left out.
func PatternOutcomesByGap(fs features.FeaturedSeries, trends models.DayTrends, spec PatternSpec, labels []models.TrendLabel) models.PatternReport {
	return tabulatePatterns(fs, trends, spec, labels, models.GapSides())
}

// patternSlot keys one row; side is empty when the report is not split.
type patternSlot struct {
	trend models.TrendLabel
	side  models.GapSide
	key   string
}

func tabulatePatterns(fs features.FeaturedSeries, trends models.DayTrends, spec PatternSpec, labels []models.TrendLabel, sides []models.GapSide) models.PatternReport {
	keys := append(PatternKeys(spec.Bars), FlatKey)
	rep := models.PatternReport{Bars: spec.Bars, Skip: spec.Skip, ByGap: len(sides) > 0, Keys: keys}
	split := sides
	if len(split) == 0 {
		split = []models.GapSide{""}
	}

	pos := make(map[patternSlot]int, len(keys)*len(labels)*len(split))
	for _, l := range labels {
		for _, side := range split {
			for _, key := range keys {
				pos[patternSlot{l, side, key}] = len(rep.Stats)
				rep.Stats = append(rep.Stats, models.PatternStats{Pattern: key, Trend: l, GapSide: side})
			}
		}
	}

	for _, dc := range Contexts(fs, trends) {
		if !dc.HasTrend || spec.Skip < 0 || len(dc.Bars) < spec.Skip {
			continue
		}
		var side models.GapSide
		if rep.ByGap {
			if !dc.Day.HasPrevClose {
				continue
			}
			side = models.SideOf(dc.Day.Gap)
		}
		window := dc.Bars[spec.Skip:]
		bars := make([]models.Bar, len(window))
		for i, b := range window {
			bars[i] = b.Bar
		}
		key, ok := ClassifyPattern(bars, spec.Bars)
		if !ok {
			continue
		}
		i, ok := pos[patternSlot{dc.Trend, side, key}]
		if !ok {
			continue
		}
		st := &rep.Stats[i]
		st.Days++
		st.Dates = append(st.Dates, dc.Day.Date)
		switch {
		case dc.Day.Close > dc.Day.Open:
			st.BullClose++
		case dc.Day.Close < dc.Day.Open:
			st.BearClose++
		}
	}
	for i := range rep.Stats {
		rep.Stats[i].BullPct = models.NewRatio(rep.Stats[i].BullClose, rep.Stats[i].Days)
		rep.Stats[i].BearPct = models.NewRatio(rep.Stats[i].BearClose, rep.Stats[i].Days)
	}
	return rep
}
