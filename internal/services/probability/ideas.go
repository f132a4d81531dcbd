package probability

import (
	"fmt"
	"math"

	"SessionEdge/internal/domain/models"
)

const (
	strongBodyPct  = 0.60
	neutralBodyPct = 0.30
	confirmFillPct = 0.65
	scaledMaxWin   = 0.65
	scaledWinBoost = 0.08
	scaledSizeMult = 0.33
)

// ClassifyBar grades the first bar by body over range.
func ClassifyBar(b models.FirstBar) models.BarType {
	a := b.Anatomy()
	pct := a.BodyPct()
	if pct < neutralBodyPct {
		return models.BarNeutral
	}
	if a.IsBull() {
		if pct > strongBodyPct {
			return models.BarStrongBull
		}
		return models.BarBull
	}
	if pct > strongBodyPct {
		return models.BarStrongBear
	}
	return models.BarBear
}

// ClassifyTrend places price against its moving average. Large gaps use the
// bull/bear trend variants. The second value is the distance in percent.
func ClassifyTrend(price, ma float64, gap models.GapBucket) (models.TrendType, float64) {
	if ma == 0 {
		return models.TrendTypeUp, 0
	}
	diff := (price - ma) / ma * 100
	if gap.IsLarge() {
		if diff > 0 {
			return models.TrendTypeBull, diff
		}
		return models.TrendTypeBear, diff
	}
	if diff > 0 {
		return models.TrendTypeUp, diff
	}
	return models.TrendTypeDown, diff
}

// GeneratorConfig holds the trade-idea defaults.
type GeneratorConfig struct {
	DefaultATR   float64
	GapThreshold float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{DefaultATR: 100, GapThreshold: 50}
}

// Generator builds trade plans from a first bar and the lookup table.
type Generator struct {
	table *LookupTable
	cfg   GeneratorConfig
}

func NewGenerator(table *LookupTable, cfg GeneratorConfig) *Generator {
	if table == nil {
		table = DefaultLookupTable()
	}
	if cfg.DefaultATR <= 0 {
		cfg.DefaultATR = 100
	}
	if cfg.GapThreshold <= 0 {
		cfg.GapThreshold = 50
	}
	return &Generator{table: table, cfg: cfg}
}

// Context classifies the setup and attaches probabilities, edge and direction.
func (g *Generator) Context(bar models.FirstBar, prevClose, ma float64) models.MarketContext {
	barType := ClassifyBar(bar)
	gapPts := bar.Open - prevClose
	gap := models.ClassifyGap(gapPts, g.cfg.GapThreshold)
	trend, strength := ClassifyTrend(bar.Close, ma, gap)

	probs, src := g.table.Lookup(LookupKey{Trend: trend, Gap: gap, Bar: barType})
	ratio := HighLowRatio(probs.ProbHigh, probs.ProbLow)
	edge := EdgeStrengthOf(ratio)
	return models.MarketContext{
		Trend:         trend,
		Gap:           gap,
		BarType:       barType,
		GapPoints:     gapPts,
		TrendStrength: strength,
		Probs:         probs,
		ProbEither:    probs.ProbHigh + probs.ProbLow,
		LookupSource:  string(src),
		HighLowRatio:  models.Ratio(ratio),
		Edge:          edge,
		Direction:     DecideDirection(barType, edge, probs.ProbHigh, probs.ProbLow),
		Confidence:    ConfidenceFor(probs.SampleSize),
	}
}

// Generate returns the context, the three ideas and the best tradeable one.
// atr <= 0 uses the configured default.
func (g *Generator) Generate(bar models.FirstBar, prevClose, ma, atr float64) models.TradePlan {
	if atr <= 0 {
		atr = g.cfg.DefaultATR
	}
	ctx := g.Context(bar, prevClose, ma)
	plan := models.TradePlan{
		Bar:     bar,
		Context: ctx,
		Ideas: []models.TradeIdea{
			aggressiveFade(bar, ctx, atr),
			confirmation(bar, ctx, atr),
			scaled(bar, ctx, atr),
		},
	}
	for i := range plan.Ideas {
		idea := &plan.Ideas[i]
		if !idea.Tradeable() {
			continue
		}
		if plan.Best == nil || idea.ExpectedValue > plan.Best.ExpectedValue {
			plan.Best = idea
		}
	}
	return plan
}

// ExpectedValue is win*rr*risk - (1-win)*risk in points.
func ExpectedValue(win, rr, risk float64) float64 {
	return win*rr*risk - (1-win)*risk
}

// sign is -1 for shorts so targets and stops can be written once.
func sign(d models.Direction) float64 {
	if d == models.DirectionShort {
		return -1
	}
	return 1
}

// winProb10 is the offset-10 probability that the faded extreme holds.
func winProb10(ctx models.MarketContext) float64 {
	if ctx.Direction == models.DirectionShort {
		return ctx.Probs.ProbHigh10
	}
	return ctx.Probs.ProbLow10
}

// extreme is the bar end the stop sits beyond.
func extreme(bar models.FirstBar, d models.Direction) float64 {
	if d == models.DirectionShort {
		return bar.High
	}
	return bar.Low
}

func targets(entry, risk, s float64, mults [3]float64) [3]float64 {
	return [3]float64{entry + s*risk*mults[0], entry + s*risk*mults[1], entry + s*risk*mults[2]}
}

func aggressiveFade(bar models.FirstBar, ctx models.MarketContext, atr float64) models.TradeIdea {
	d := ctx.Direction
	if d == models.DirectionNoTrade {
		return noTrade(models.StrategyAggressiveFade, ctx)
	}
	s := sign(d)
	entry := bar.Close
	stop := extreme(bar, d) - s*atr*0.15
	risk := math.Abs(entry - stop)
	win := winProb10(ctx)
	const rr = 2.0
	hold := 30
	if ctx.BarType.Strong() {
		hold = 20
	}
	return models.TradeIdea{
		Name:           "Aggressive Fade",
		Strategy:       models.StrategyAggressiveFade,
		Direction:      d,
		EntryType:      "IMMEDIATE",
		EntryPrice:     entry,
		StopLoss:       stop,
		StopDistance:   risk,
		Targets:        targets(entry, risk, s, [3]float64{1, 2, 3}),
		TargetPcts:     defaultTargetPcts,
		PositionSize:   PositionSize(win, rr, ctx.Confidence),
		WinProbability: win,
		RiskReward:     rr,
		ExpectedValue:  ExpectedValue(win, rr, risk),
		MaxHoldingBars: hold,
		ValidUntilBar:  1,
		RiskLevel:      "HIGH",
		Confidence:     ctx.Confidence,
		Trigger:        fmt.Sprintf("Enter %s at %.0f immediately after bar 1 close", d, entry),
		Notes: fmt.Sprintf("Immediate entry against the %s first bar. High/low set at bar 1: %.0f%%/%.0f%% over %d days.",
			ctx.BarType, ctx.Probs.ProbHigh*100, ctx.Probs.ProbLow*100, ctx.Probs.SampleSize),
	}
}

func confirmation(bar models.FirstBar, ctx models.MarketContext, atr float64) models.TradeIdea {
	d := ctx.Direction
	if d == models.DirectionNoTrade {
		return noTrade(models.StrategyConfirmation, ctx)
	}
	s := sign(d)
	ext := extreme(bar, d)
	inner := ext + s*atr*0.20
	zoneLow, zoneHigh := math.Min(ext, inner), math.Max(ext, inner)
	entry := (zoneLow + zoneHigh) / 2
	stop := ext - s*atr*0.10
	risk := math.Abs(entry - stop)
	win := winProb10(ctx) * confirmFillPct
	const rr = 2.67
	verb := "dips"
	if d == models.DirectionShort {
		verb = "rallies"
	}
	return models.TradeIdea{
		Name:           "Confirmation Entry",
		Strategy:       models.StrategyConfirmation,
		Direction:      d,
		EntryType:      "LIMIT",
		EntryPrice:     entry,
		EntryZoneHigh:  zoneHigh,
		EntryZoneLow:   zoneLow,
		StopLoss:       stop,
		StopDistance:   risk,
		Targets:        targets(entry, risk, s, [3]float64{1.5, 2.5, 4}),
		TargetPcts:     defaultTargetPcts,
		PositionSize:   PositionSize(win/confirmFillPct, rr, ctx.Confidence),
		WinProbability: win,
		RiskReward:     rr,
		ExpectedValue:  ExpectedValue(win, rr, risk),
		MaxHoldingBars: 25,
		ValidUntilBar:  6,
		RiskLevel:      "MEDIUM",
		Confidence:     ctx.Confidence,
		Trigger:        fmt.Sprintf("Enter %s if price %s to %.0f-%.0f zone in bars 2-6", d, verb, zoneLow, zoneHigh),
		Notes:          "Wait for a pullback to the bar 1 extreme zone. Cancel if not filled by bar 6.",
	}
}

func scaled(bar models.FirstBar, ctx models.MarketContext, atr float64) models.TradeIdea {
	d := ctx.Direction
	if d == models.DirectionNoTrade {
		return noTrade(models.StrategyScaled, ctx)
	}
	s := sign(d)
	ext := extreme(bar, d)
	opposite := bar.High
	if d == models.DirectionShort {
		opposite = bar.Low
	}
	entries := [3]float64{bar.Close, ext + s*atr*0.05, opposite + s*atr*0.10}
	entry := (entries[0] + entries[1] + entries[2]) / 3
	stop := ext - s*atr*0.25
	risk := math.Abs(entry - stop)
	win := math.Min(scaledMaxWin, winProb10(ctx)+scaledWinBoost)
	const rr = 1.75
	return models.TradeIdea{
		Name:           "Scaled Position",
		Strategy:       models.StrategyScaled,
		Direction:      d,
		EntryType:      "SCALED",
		EntryPrice:     entry,
		EntryZoneHigh:  math.Max(entries[0], math.Max(entries[1], entries[2])),
		EntryZoneLow:   math.Min(entries[0], math.Min(entries[1], entries[2])),
		StopLoss:       stop,
		StopDistance:   risk,
		Targets:        targets(entry, risk, s, [3]float64{1, 1.75, 2.5}),
		TargetPcts:     [3]float64{40, 35, 25},
		PositionSize:   PositionSize(win, rr, ctx.Confidence) * scaledSizeMult,
		WinProbability: win,
		RiskReward:     rr,
		ExpectedValue:  ExpectedValue(win, rr, risk),
		MaxHoldingBars: 35,
		ValidUntilBar:  10,
		RiskLevel:      "LOW",
		Confidence:     ctx.Confidence,
		Trigger: fmt.Sprintf("Scale into %s: T1=%.0f (now), T2=%.0f (pullback), T3=%.0f (breakout)",
			d, entries[0], entries[1], entries[2]),
		Notes: "Three equal tranches. Adjust the stop if only partially filled.",
	}
}

var defaultTargetPcts = [3]float64{33, 33, 34}

func noTrade(st models.StrategyType, ctx models.MarketContext) models.TradeIdea {
	return models.TradeIdea{
		Name:       fmt.Sprintf("No Trade (%s)", st),
		Strategy:   st,
		Direction:  models.DirectionNoTrade,
		EntryType:  "NONE",
		TargetPcts: defaultTargetPcts,
		RiskLevel:  "NONE",
		Confidence: ctx.Confidence,
		Trigger:    "No trade - insufficient edge",
		Notes: fmt.Sprintf("Edge strength %s. High prob %.0f%%, low prob %.0f%%, bar type %s.",
			ctx.Edge, ctx.Probs.ProbHigh*100, ctx.Probs.ProbLow*100, ctx.BarType),
	}
}
