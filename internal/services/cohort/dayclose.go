package cohort

import (
	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

// DayCloseByTrend counts bull, bear and flat closes per trend. The close is
// taken from closes, which falls back to the day's last bar.
func DayCloseByTrend(fs features.FeaturedSeries, trends models.DayTrends, closes features.SessionCloseLookup, labels []models.TrendLabel) []models.DayCloseStats {
	return tabulateDayClose(fs, trends, closes, labels, nil)
}

// DayCloseByTrendAndGap splits the day close counts by trend and gap side,
// one row per pair. Days without a previous close are left out.
func DayCloseByTrendAndGap(fs features.FeaturedSeries, trends models.DayTrends, closes features.SessionCloseLookup, labels []models.TrendLabel) []models.DayCloseStats {
	return tabulateDayClose(fs, trends, closes, labels, models.GapSides())
}

type closeSlot struct {
	trend models.TrendLabel
	side  models.GapSide
}

func tabulateDayClose(fs features.FeaturedSeries, trends models.DayTrends, closes features.SessionCloseLookup, labels []models.TrendLabel, sides []models.GapSide) []models.DayCloseStats {
	byGap := len(sides) > 0
	if !byGap {
		sides = []models.GapSide{""}
	}
	idx := make(map[closeSlot]int, len(labels)*len(sides))
	out := make([]models.DayCloseStats, 0, len(labels)*len(sides))
	for _, l := range labels {
		for _, side := range sides {
			idx[closeSlot{l, side}] = len(out)
			out = append(out, models.DayCloseStats{Trend: l, GapSide: side})
		}
	}
	for _, dc := range Contexts(fs, trends) {
		if !dc.HasTrend {
			continue
		}
		var side models.GapSide
		if byGap {
			if !dc.Day.HasPrevClose {
				continue
			}
			side = models.SideOf(dc.Day.Gap)
		}
		i, ok := idx[closeSlot{dc.Trend, side}]
		if !ok {
			continue
		}
		c, ok := closes.Close(dc.Bars)
		if !ok {
			continue
		}
		st := &out[i]
		st.Days++
		switch {
		case c > dc.Day.Open:
			st.Bull++
		case c < dc.Day.Open:
			st.Bear++
		default:
			st.Flat++
		}
	}
	for i := range out {
		out[i].BullPct = models.NewRatio(out[i].Bull, out[i].Days)
		out[i].BearPct = models.NewRatio(out[i].Bear, out[i].Days)
	}
	return out
}
