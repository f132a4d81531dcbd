package report

import (
	"bufio"
	"fmt"
	"io"

	"SessionEdge/internal/domain/models"
)

// WriteTradePlan prints a plan for a terminal.
func WriteTradePlan(w io.Writer, plan models.TradePlan) error {
	bw := bufio.NewWriter(w)
	p := func(format string, a ...interface{}) { fmt.Fprintf(bw, format, a...) }
	ctx := plan.Context
	b := plan.Bar

	p("First bar  O %.2f  H %.2f  L %.2f  C %.2f\n", b.Open, b.High, b.Low, b.Close)
	p("Trend      %s (%.2f%% from MA)\n", ctx.Trend, ctx.TrendStrength)
	p("Gap        %s (%+.2f pts)\n", ctx.Gap, ctx.GapPoints)
	p("Bar type   %s\n", ctx.BarType)
	p("P(high)    %.1f%% exact, %.1f%% within 10 pts\n", ctx.Probs.ProbHigh*100, ctx.Probs.ProbHigh10*100)
	p("P(low)     %.1f%% exact, %.1f%% within 10 pts\n", ctx.Probs.ProbLow*100, ctx.Probs.ProbLow10*100)
	p("Lookup     %s, n=%d\n", ctx.LookupSource, ctx.Probs.SampleSize)
	p("Edge       %s  ratio %s\n", ctx.Edge, ratioNumber(ctx.HighLowRatio))
	p("Direction  %s  confidence %s\n", ctx.Direction, ctx.Confidence)

	for _, idea := range plan.Ideas {
		p("\n[%s] %s\n", idea.Strategy, idea.Name)
		if !idea.Tradeable() {
			p("  %s\n", idea.Notes)
			continue
		}
		p("  %s %s @ %.2f (zone %.2f - %.2f)\n", idea.Direction, idea.EntryType, idea.EntryPrice, idea.EntryZoneLow, idea.EntryZoneHigh)
		p("  stop %.2f (%.2f pts)\n", idea.StopLoss, idea.StopDistance)
		p("  targets %.2f / %.2f / %.2f\n", idea.Targets[0], idea.Targets[1], idea.Targets[2])
		p("  size %.2f%%  win %.1f%%  rr %.2f  ev %.2f\n", idea.PositionSize, idea.WinProbability*100, idea.RiskReward, idea.ExpectedValue)
		p("  trigger: %s\n", idea.Trigger)
	}
	if plan.Best != nil {
		p("\nBest: %s\n", plan.Best.Name)
	} else {
		p("\nBest: none\n")
	}
	return bw.Flush()
}
