package cohort

import (
	"fmt"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/features"
)

// Definition names a cohort and its membership rule.
type Definition struct {
	ID          string
	Description string
	Trend       models.TrendLabel
	Predicate   Predicate
}

// Options carries the thresholds the catalog is parameterised by.
type Options struct {
	Labels       []models.TrendLabel
	GapThreshold float64
	WickRatio    float64
}

func DefaultOptions(rule models.TrendRule) Options {
	return Options{Labels: rule.Labels(), GapThreshold: 50, WickRatio: 0.10}
}

// Scenario is a trend-agnostic opening setup.
type Scenario struct {
	Name        string
	Description string
	Predicate   Predicate
}

// Scenarios returns the gap and opening-bar setups, large gaps first and the
// small-gap family after them.
func Scenarios(o Options) []Scenario {
	g, r := o.GapThreshold, o.WickRatio
	out := []Scenario{
		{
			Name:        "gapup-bull",
			Description: fmt.Sprintf("gap >= %g, bullish opening bar, upper wick <= %g of range", g, r),
			Predicate:   AllOf(GapAtLeast(g), OpeningBull(), UpperWickWithin(r)),
		},
		{
			Name:        "gapup-bear",
			Description: fmt.Sprintf("gap >= %g, bearish opening bar, lower wick <= %g of range", g, r),
			Predicate:   AllOf(GapAtLeast(g), OpeningBear(), LowerWickWithin(r)),
		},
		{
			Name:        "gapup-bull-simple",
			Description: fmt.Sprintf("gap >= %g, bullish opening bar", g),
			Predicate:   AllOf(GapAtLeast(g), OpeningBull()),
		},
		{
			Name:        "gapup-bear-simple",
			Description: fmt.Sprintf("gap >= %g, bearish opening bar", g),
			Predicate:   AllOf(GapAtLeast(g), OpeningBear()),
		},
		{
			Name:        "gapup-any",
			Description: fmt.Sprintf("gap >= %g", g),
			Predicate:   GapAtLeast(g),
		},
		{
			Name:        "gapdown-bull",
			Description: fmt.Sprintf("gap <= %g, bullish opening bar, upper wick <= %g of range", -g, r),
			Predicate:   AllOf(GapAtMost(-g), OpeningBull(), UpperWickWithin(r)),
		},
		{
			Name:        "gapdown-bear",
			Description: fmt.Sprintf("gap <= %g, bearish opening bar, lower wick <= %g of range", -g, r),
			Predicate:   AllOf(GapAtMost(-g), OpeningBear(), LowerWickWithin(r)),
		},
		{
			Name:        "gapdown-any",
			Description: fmt.Sprintf("gap <= %g", -g),
			Predicate:   GapAtMost(-g),
		},
	}
	return append(out, smallGapScenarios(g, r)...)
}

// smallGapScenarios splits the days inside the threshold by direction: up is
// 0 < gap < g, down is -g < gap <= 0.
func smallGapScenarios(g, r float64) []Scenario {
	sides := []struct {
		name   string
		bucket models.GapBucket
		desc   string
	}{
		{"smallgap-up", models.GapSmallUp, fmt.Sprintf("0 < gap < %g", g)},
		{"smallgap-down", models.GapSmallDown, fmt.Sprintf("%g < gap <= 0", -g)},
	}
	var out []Scenario
	for _, s := range sides {
		in := GapIn(s.bucket, g)
		out = append(out,
			Scenario{
				Name:        s.name + "-strong-bull",
				Description: fmt.Sprintf("%s, bullish opening bar, upper wick <= %g of range", s.desc, r),
				Predicate:   AllOf(in, OpeningBull(), UpperWickWithin(r)),
			},
			Scenario{
				Name:        s.name + "-strong-bear",
				Description: fmt.Sprintf("%s, bearish opening bar, lower wick <= %g of range", s.desc, r),
				Predicate:   AllOf(in, OpeningBear(), LowerWickWithin(r)),
			},
			Scenario{
				Name:        s.name + "-bull",
				Description: fmt.Sprintf("%s, bullish opening bar", s.desc),
				Predicate:   AllOf(in, OpeningBull()),
			},
			Scenario{
				Name:        s.name + "-bear",
				Description: fmt.Sprintf("%s, bearish opening bar", s.desc),
				Predicate:   AllOf(in, OpeningBear()),
			},
			Scenario{
				Name:        s.name + "-any",
				Description: s.desc,
				Predicate:   in,
			},
		)
	}
	return out
}

// Catalog lists every cohort of a run: all days, one per trend, one per
// trend and gap bucket, and every scenario under every trend.
func Catalog(o Options) []Definition {
	defs := []Definition{{ID: "all", Description: "every day", Predicate: Always()}}
	for _, l := range o.Labels {
		defs = append(defs, Definition{
			ID:          "trend/" + l.Slug(),
			Description: fmt.Sprintf("%s trend days", l),
			Trend:       l,
			Predicate:   TrendIs(l),
		})
	}
	for _, l := range o.Labels {
		for _, b := range models.GapBuckets() {
			defs = append(defs, Definition{
				ID:          fmt.Sprintf("%s/gap/%s", l.Slug(), b.Slug()),
				Description: fmt.Sprintf("%s trend, %s (threshold %g)", l, b, o.GapThreshold),
				Trend:       l,
				Predicate:   AllOf(TrendIs(l), GapIn(b, o.GapThreshold)),
			})
		}
	}
	for _, l := range o.Labels {
		for _, sc := range Scenarios(o) {
			defs = append(defs, Definition{
				ID:          l.Slug() + "/" + sc.Name,
				Description: fmt.Sprintf("%s trend, %s", l, sc.Description),
				Trend:       l,
				Predicate:   AllOf(TrendIs(l), sc.Predicate),
			})
		}
	}
	return defs
}

// Build evaluates every definition over the featured series.
func Build(fs features.FeaturedSeries, trends models.DayTrends, defs []Definition) []models.Cohort {
	days := Contexts(fs, trends)
	out := make([]models.Cohort, 0, len(defs))
	for _, d := range defs {
		out = append(out, models.Cohort{
			ID:          d.ID,
			Description: d.Description,
			Trend:       d.Trend,
			Dates:       Select(days, d.Predicate),
		})
	}
	return out
}
