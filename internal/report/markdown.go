package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"SessionEdge/internal/domain/models"
)

// MarkdownOptions controls the run summary.
type MarkdownOptions struct {
	// Bars is how many leading bar indices of each exact table are shown.
	Bars int
}

// WriteMarkdown renders a run as a markdown report.
func WriteMarkdown(w io.Writer, r *models.RunResult, opts MarkdownOptions) error {
	if opts.Bars <= 0 {
		opts.Bars = 3
	}
	bw := bufio.NewWriter(w)
	p := func(format string, a ...interface{}) { fmt.Fprintf(bw, format, a...) }

	p("# Session extremes: %s\n\n", r.Symbol)
	p("- Run: `%s`\n", r.ID)
	p("- Trend rule: `%s`\n", r.Rule)
	p("- Offsets: %s\n", offsetsList(r.Offsets))
	p("- Days: %d (labeled %d)\n", r.Days, r.LabeledDays)
	if !r.FinishedAt.IsZero() {
		p("- Finished: %s (%s)\n", r.FinishedAt.UTC().Format("2006-01-02 15:04:05 MST"), r.FinishedAt.Sub(r.StartedAt).Round(1e6))
	}
	p("\n## Cohorts\n\n")
	p("| Cohort | Days |")
	for i := 1; i <= opts.Bars; i++ {
		p(" Bar %d high | Bar %d low |", i, i)
	}
	p("\n|---|---:|%s\n", strings.Repeat("---:|---:|", opts.Bars))
	for _, c := range r.Cohorts {
		p("| %s | %d |", c.Cohort.ID, c.Days())
		for i := 1; i <= opts.Bars; i++ {
			hi, lo := models.Undefined(), models.Undefined()
			if len(c.Tables) > 0 {
				if row, ok := c.Tables[0].Row(i); ok {
					hi, lo = row.ProbHigh, row.ProbLow
				}
			}
			p(" %s | %s |", hi.Percent(), lo.Percent())
		}
		p("\n")
	}

	if r.Window != nil {
		writeWindow(p, r.Window)
	}
	if len(r.DayClose) > 0 {
		p("\n## Day close by trend\n\n")
		p("| Trend | Days | Bull | Bear | Flat | Bull %% | Bear %% |\n|---|---:|---:|---:|---:|---:|---:|\n")
		for _, s := range r.DayClose {
			p("| %s | %d | %d | %d | %d | %s | %s |\n", s.Trend, s.Days, s.Bull, s.Bear, s.Flat, s.BullPct.Percent(), s.BearPct.Percent())
		}
	}
	if r.Patterns != nil {
		p("\n## First %d bars\n\n", r.Patterns.Bars)
		p("| Pattern | Trend | Days | Bull close | Bear close | Bull %% | Bear %% |\n|---|---|---:|---:|---:|---:|---:|\n")
		for _, s := range r.Patterns.Stats {
			p("| %s | %s | %d | %d | %d | %s | %s |\n", s.Pattern, s.Trend, s.Days, s.BullClose, s.BearClose, s.BullPct.Percent(), s.BearPct.Percent())
		}
	}
	if len(r.DayCloseByGap) > 0 {
		p("\n## Day close by trend and gap\n\n")
		p("| Trend | Gap | Days | Bull | Bear | Flat | Bull %% | Bear %% |\n|---|---|---:|---:|---:|---:|---:|---:|\n")
		for _, s := range r.DayCloseByGap {
			p("| %s | %s | %d | %d | %d | %d | %s | %s |\n", s.Trend, s.GapSide, s.Days, s.Bull, s.Bear, s.Flat, s.BullPct.Percent(), s.BearPct.Percent())
		}
	}
	for _, gp := range r.GapPatterns {
		writeGapPatterns(p, gp)
	}
	if t := r.Transitions; t != nil {
		p("\n## Trend transitions\n\n")
		p("Neutral zones: %d, average length %s bars", t.NeutralZones, ratioNumber(t.AvgNeutralBars))
		if t.MinTrendBars > 0 {
			p(" (after trends of at least %d bars)", t.MinTrendBars)
		}
		p("\n\n| From | Zones | Reversals | Continuations | Reversal %% | Continuation %% |\n|---|---:|---:|---:|---:|---:|\n")
		for _, s := range []models.TransitionStats{t.FromUp, t.FromDown} {
			p("| %s | %d | %d | %d | %s | %s |\n", s.From, s.Total, s.Reversals, s.Continuations, s.ReversalPct.Percent(), s.ContinuationPct.Percent())
		}
	}
	return bw.Flush()
}

func writeWindow(p func(string, ...interface{}), w *models.WindowReport) {
	p("\n## Bars %d-%d\n\n", w.Start, w.End)
	p("Days with at least %d bars.\n\n", w.MinBars)
	p("| Trend | Days | High in window | Low in window | Reversals | Reversal %% |\n|---|---:|---:|---:|---:|---:|\n")
	for _, s := range w.ByTrend {
		p("| %s | %d | %d (%s) | %d (%s) | %d | %s |\n",
			s.Trend, s.Days, s.HighInWindow, s.HighPct.Percent(), s.LowInWindow, s.LowPct.Percent(), s.Reversals, s.ReversalPct.Percent())
	}
}

// writeGapPatterns lists only the rows that saw at least one day; the full
// key space of a 6-bar split runs to hundreds of rows.
func writeGapPatterns(p func(string, ...interface{}), rep models.PatternReport) {
	if rep.Skip == 0 {
		p("\n## First %d bars by gap\n\n", rep.Bars)
	} else {
		p("\n## Bars %d-%d by gap\n\n", rep.Skip+1, rep.Skip+rep.Bars)
	}
	p("| Pattern | Trend | Gap | Days | Bull close | Bear close | Bull %% | Bear %% |\n|---|---|---|---:|---:|---:|---:|---:|\n")
	for _, s := range rep.Stats {
		if s.Days == 0 {
			continue
		}
		p("| %s | %s | %s | %d | %d | %d | %s | %s |\n", s.Pattern, s.Trend, s.GapSide, s.Days, s.BullClose, s.BearClose, s.BullPct.Percent(), s.BearPct.Percent())
	}
}

func offsetsList(offsets []float64) string {
	if len(offsets) == 0 {
		return "exact only"
	}
	parts := make([]string, len(offsets))
	for i, o := range offsets {
		parts[i] = models.OffsetSuffix(o)
	}
	return strings.Join(parts, ", ")
}

func ratioNumber(r models.Ratio) string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", r.Float())
}
