package probability

import (
	"math"

	"SessionEdge/internal/domain/models"
)

const (
	minDirectionalProb = 0.25
	neutralMargin      = 0.10
)

// HighLowRatio is max(ph/pl, pl/ph). One zero side gives +Inf, both zero give 1.
func HighLowRatio(ph, pl float64) float64 {
	switch {
	case ph > 0 && pl > 0:
		return math.Max(ph/pl, pl/ph)
	case ph > 0 || pl > 0:
		return math.Inf(1)
	default:
		return 1
	}
}

// EdgeStrengthOf grades a high/low ratio.
func EdgeStrengthOf(ratio float64) models.EdgeStrength {
	switch {
	case ratio >= 10:
		return models.EdgeExtreme
	case ratio >= 5:
		return models.EdgeStrong
	case ratio >= 2:
		return models.EdgeModerate
	case ratio >= 1.5:
		return models.EdgeWeak
	default:
		return models.EdgeNone
	}
}

// DecideDirection fades the first bar: a bearish bar that often marks the
// high is shorted, a bullish bar that often marks the low is bought. Neutral
// bars need one side ahead by the margin.
func DecideDirection(bar models.BarType, edge models.EdgeStrength, ph, pl float64) models.Direction {
	if edge == models.EdgeNone {
		return models.DirectionNoTrade
	}
	if bar.Bearish() && ph >= minDirectionalProb {
		return models.DirectionShort
	}
	if bar.Bullish() && pl >= minDirectionalProb {
		return models.DirectionLong
	}
	if bar == models.BarNeutral {
		switch {
		case ph > pl+neutralMargin:
			return models.DirectionShort
		case pl > ph+neutralMargin:
			return models.DirectionLong
		}
	}
	return models.DirectionNoTrade
}

// ConfidenceFor tiers a sample size.
func ConfidenceFor(n int) models.Confidence {
	switch {
	case n >= 200:
		return models.ConfidenceHigh
	case n >= 100:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func kellyFraction(c models.Confidence) float64 {
	switch c {
	case models.ConfidenceHigh:
		return 0.30
	case models.ConfidenceMedium:
		return 0.20
	case models.ConfidenceLow:
		return 0.10
	default:
		return 0.15
	}
}

// PositionSize is a fractional Kelly percentage of capital clamped to [0.5, 3].
func PositionSize(win, rr float64, c models.Confidence) float64 {
	if win <= 0 || rr <= 0 {
		return 0.5
	}
	kelly := (win*rr - (1 - win)) / rr
	pct := kelly * kellyFraction(c) * 100
	return math.Max(0.5, math.Min(3.0, pct))
}
