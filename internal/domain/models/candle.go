package models

import "math"

// CandleClass is the direction of a single bar. Flat bars are neither bull nor bear.
type CandleClass string

const (
	CandleBull CandleClass = "Bull"
	CandleBear CandleClass = "Bear"
	CandleFlat CandleClass = "Flat"
)

// ClassOf classifies b by close versus open.
func ClassOf(b Bar) CandleClass {
	switch {
	case b.Close > b.Open:
		return CandleBull
	case b.Close < b.Open:
		return CandleBear
	default:
		return CandleFlat
	}
}

// Anatomy is the body and wick geometry of one bar.
type Anatomy struct {
	Body      float64     `json:"body"`
	Range     float64     `json:"range"`
	UpperWick float64     `json:"upper_wick"`
	LowerWick float64     `json:"lower_wick"`
	Class     CandleClass `json:"class"`
}

// AnatomyOf measures b. Wicks are taken beyond the open/close span.
func AnatomyOf(b Bar) Anatomy {
	return Anatomy{
		Body:      math.Abs(b.Close - b.Open),
		Range:     b.High - b.Low,
		UpperWick: b.High - math.Max(b.Open, b.Close),
		LowerWick: math.Min(b.Open, b.Close) - b.Low,
		Class:     ClassOf(b),
	}
}

func (a Anatomy) IsBull() bool { return a.Class == CandleBull }
func (a Anatomy) IsBear() bool { return a.Class == CandleBear }

// Degenerate reports a zero-range bar.
func (a Anatomy) Degenerate() bool { return a.Range <= 0 }

// BodyPct is body over range, 0 for a degenerate bar.
func (a Anatomy) BodyPct() float64 {
	if a.Degenerate() {
		return 0
	}
	return a.Body / a.Range
}

// StrongBull is a bull bar whose upper wick is at most ratio of its range.
func (a Anatomy) StrongBull(ratio float64) bool {
	return a.IsBull() && !a.Degenerate() && a.UpperWick <= ratio*a.Range
}

// StrongBear is a bear bar whose lower wick is at most ratio of its range.
func (a Anatomy) StrongBear(ratio float64) bool {
	return a.IsBear() && !a.Degenerate() && a.LowerWick <= ratio*a.Range
}

// UpperWickWithin reports upper wick <= ratio*range; false for a degenerate bar.
func (a Anatomy) UpperWickWithin(ratio float64) bool {
	return !a.Degenerate() && a.UpperWick <= ratio*a.Range
}

// LowerWickWithin reports lower wick <= ratio*range; false for a degenerate bar.
func (a Anatomy) LowerWickWithin(ratio float64) bool {
	return !a.Degenerate() && a.LowerWick <= ratio*a.Range
}
