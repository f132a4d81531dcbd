package models

// BarType is the first-bar classification used by the trade-idea lookup.
type BarType string

const (
	BarStrongBull BarType = "strong_bull"
	BarBull       BarType = "bull"
	BarNeutral    BarType = "neutral"
	BarBear       BarType = "bear"
	BarStrongBear BarType = "strong_bear"
)

func (b BarType) Bullish() bool { return b == BarBull || b == BarStrongBull }
func (b BarType) Bearish() bool { return b == BarBear || b == BarStrongBear }
func (b BarType) Strong() bool  { return b == BarStrongBull || b == BarStrongBear }

// TrendType is the moving-average trend context. The *_trend variants are
// used for large gaps.
type TrendType string

const (
	TrendTypeUp   TrendType = "uptrend"
	TrendTypeDown TrendType = "downtrend"
	TrendTypeBull TrendType = "bull_trend"
	TrendTypeBear TrendType = "bear_trend"
)

type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNoTrade Direction = "NO_TRADE"
)

// EdgeStrength grades the ratio between the bar-1 high and low probabilities.
type EdgeStrength string

const (
	EdgeNone     EdgeStrength = "NONE"
	EdgeWeak     EdgeStrength = "WEAK"
	EdgeModerate EdgeStrength = "MODERATE"
	EdgeStrong   EdgeStrength = "STRONG"
	EdgeExtreme  EdgeStrength = "EXTREME"
)

// Confidence is the sample-size tier.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// ProbEntry is one lookup record: bar-1 probabilities at offset 0 and 10
// and the number of days they were measured on.
type ProbEntry struct {
	ProbHigh   float64 `json:"prob_high"`
	ProbLow    float64 `json:"prob_low"`
	ProbHigh10 float64 `json:"prob_high_offset10"`
	ProbLow10  float64 `json:"prob_low_offset10"`
	SampleSize int     `json:"sample_size"`
}

// FirstBar is the opening bar a trade plan is built from.
type FirstBar struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// Anatomy measures the bar.
func (b FirstBar) Anatomy() Anatomy {
	return AnatomyOf(Bar{Open: b.Open, High: b.High, Low: b.Low, Close: b.Close})
}

// MarketContext is everything known about the setup after bar 1.
type MarketContext struct {
	Trend         TrendType    `json:"trend"`
	Gap           GapBucket    `json:"gap_type"`
	BarType       BarType      `json:"bar_type"`
	GapPoints     float64      `json:"gap_points"`
	TrendStrength float64      `json:"trend_strength"`
	Probs         ProbEntry    `json:"probabilities"`
	ProbEither    float64      `json:"prob_either_bar1"`
	LookupSource  string       `json:"lookup_source"`
	HighLowRatio  Ratio        `json:"high_low_ratio"`
	Edge          EdgeStrength `json:"edge_strength"`
	Direction     Direction    `json:"direction"`
	Confidence    Confidence   `json:"confidence"`
}

// StrategyType names the three idea templates.
type StrategyType string

const (
	StrategyAggressiveFade StrategyType = "AGGRESSIVE_FADE"
	StrategyConfirmation   StrategyType = "CONFIRMATION"
	StrategyScaled         StrategyType = "SCALED"
)

// TradeIdea is one fully specified trade plan.
type TradeIdea struct {
	Name           string       `json:"name"`
	Strategy       StrategyType `json:"strategy_type"`
	Direction      Direction    `json:"direction"`
	EntryType      string       `json:"entry_type"`
	EntryPrice     float64      `json:"entry_price"`
	EntryZoneHigh  float64      `json:"entry_zone_high"`
	EntryZoneLow   float64      `json:"entry_zone_low"`
	StopLoss       float64      `json:"stop_loss"`
	StopDistance   float64      `json:"stop_distance"`
	Targets        [3]float64   `json:"targets"`
	TargetPcts     [3]float64   `json:"target_pcts"`
	PositionSize   float64      `json:"position_size_pct"`
	WinProbability float64      `json:"win_probability"`
	RiskReward     float64      `json:"risk_reward_ratio"`
	ExpectedValue  float64      `json:"expected_value"`
	MaxHoldingBars int          `json:"max_holding_bars"`
	ValidUntilBar  int          `json:"entry_valid_until_bar"`
	RiskLevel      string       `json:"risk_level"`
	Confidence     Confidence   `json:"confidence"`
	Trigger        string       `json:"trigger_condition"`
	Notes          string       `json:"notes,omitempty"`
}

// Tradeable reports whether the idea carries a position.
func (t TradeIdea) Tradeable() bool { return t.Direction != DirectionNoTrade }

// TradePlan is the context plus the three ideas. Best is nil when none is tradeable.
type TradePlan struct {
	Bar     FirstBar      `json:"first_bar"`
	Context MarketContext `json:"context"`
	Ideas   []TradeIdea   `json:"ideas"`
	Best    *TradeIdea    `json:"best,omitempty"`
}
