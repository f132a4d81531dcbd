package probability

import (
	"sort"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

// Indicator is a per-bar boolean event.
type Indicator func(features.FeaturedBar) bool

// IndicatorRow is the count of one indicator at one bar index.
type IndicatorRow struct {
	BarIndex  int
	True      int
	TotalDays int
	Prob      models.Ratio
}

// CountByBarIndex counts, for every bar index present in the cohort, how many
// days have the indicator true at that index. TotalDays is the number of
// cohort days that have a bar at the index.
func CountByBarIndex(fs features.FeaturedSeries, dates []models.SessionDate, ind Indicator) []IndicatorRow {
	trues := map[int]int{}
	totals := map[int]int{}
	for _, d := range uniqueDates(dates) {
		for _, b := range fs.DayBars(d) {
			totals[b.BarIndex]++
			if ind(b) {
				trues[b.BarIndex]++
			}
		}
	}
	out := make([]IndicatorRow, 0, len(totals))
	for _, idx := range sortedKeys(totals) {
		out = append(out, IndicatorRow{
			BarIndex:  idx,
			True:      trues[idx],
			TotalDays: totals[idx],
			Prob:      models.NewRatio(trues[idx], totals[idx]),
		})
	}
	return out
}

// Aggregate builds the high/low/either-set table of a cohort at one offset.
func Aggregate(fs features.FeaturedSeries, dates []models.SessionDate, offset float64) models.ProbTable {
	type acc struct{ high, low, either, total int }
	counts := map[int]*acc{}
	for _, d := range uniqueDates(dates) {
		for _, b := range fs.DayBars(d) {
			a, ok := counts[b.BarIndex]
			if !ok {
				a = &acc{}
				counts[b.BarIndex] = a
			}
			a.total++
			hi, lo := features.IsHighSet(b, offset), features.IsLowSet(b, offset)
			if hi {
				a.high++
			}
			if lo {
				a.low++
			}
			if hi || lo {
				a.either++
			}
		}
	}
	t := models.ProbTable{Offset: offset, Rows: make([]models.ProbRow, 0, len(counts))}
	for _, idx := range sortedKeys(counts) {
		a := counts[idx]
		t.Rows = append(t.Rows, models.ProbRow{
			BarIndex:   idx,
			HighSet:    a.high,
			LowSet:     a.low,
			EitherSet:  a.either,
			TotalDays:  a.total,
			ProbHigh:   models.NewRatio(a.high, a.total),
			ProbLow:    models.NewRatio(a.low, a.total),
			ProbEither: models.NewRatio(a.either, a.total),
		})
	}
	return t
}

// AggregateOffsets returns the exact table followed by one table per
// distinct positive offset, in the given order.
func AggregateOffsets(fs features.FeaturedSeries, dates []models.SessionDate, offsets []float64) []models.ProbTable {
	out := []models.ProbTable{Aggregate(fs, dates, 0)}
	seen := map[float64]bool{0: true}
	for _, o := range offsets {
		if o < 0 || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, Aggregate(fs, dates, o))
	}
	return out
}

func uniqueDates(dates []models.SessionDate) []models.SessionDate {
	seen := make(map[models.SessionDate]bool, len(dates))
	out := make([]models.SessionDate, 0, len(dates))
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
