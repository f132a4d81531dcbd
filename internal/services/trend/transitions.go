package trend

import "SessionEdge/internal/domain/models"

// Segments compresses consecutive identical states into runs.
func Segments(states []models.TrendLabel) []models.TrendSegment {
	var out []models.TrendSegment
	for _, s := range states {
		if n := len(out); n > 0 && out[n-1].State == s {
			out[n-1].Length++
			continue
		}
		out = append(out, models.TrendSegment{State: s, Length: 1})
	}
	return out
}

// AnalyzeTransitions looks at every neutral run with a run on both sides. A run
// is counted when the run before it is a trend at least minTrendBars long;
// minTrendBars <= 0 counts all of them. The following run decides reversal or
// continuation.
func AnalyzeTransitions(segs []models.TrendSegment, minTrendBars int) models.TransitionReport {
	rep := models.TransitionReport{
		MinTrendBars: minTrendBars,
		FromUp:       models.TransitionStats{From: models.TrendUp},
		FromDown:     models.TransitionStats{From: models.TrendDown},
	}
	neutralBars := 0
	for i := 1; i+1 < len(segs); i++ {
		cur := segs[i]
		if cur.State != models.TrendNeutral {
			continue
		}
		prev, next := segs[i-1], segs[i+1]
		if prev.Length < minTrendBars {
			continue
		}
		var st *models.TransitionStats
		switch prev.State {
		case models.TrendUp:
			st = &rep.FromUp
		case models.TrendDown:
			st = &rep.FromDown
		default:
			continue
		}
		rep.NeutralZones++
		neutralBars += cur.Length
		st.Total++
		if next.State == prev.State {
			st.Continuations++
		} else {
			st.Reversals++
		}
	}
	rep.AvgNeutralBars = models.Undefined()
	if rep.NeutralZones > 0 {
		rep.AvgNeutralBars = models.Ratio(float64(neutralBars) / float64(rep.NeutralZones))
	}
	for _, st := range []*models.TransitionStats{&rep.FromUp, &rep.FromDown} {
		st.ReversalPct = models.NewRatio(st.Reversals, st.Total)
		st.ContinuationPct = models.NewRatio(st.Continuations, st.Total)
	}
	return rep
}
