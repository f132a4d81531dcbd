package trend

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SessionEdge/internal/domain/models"
)

func bar(day, hour, minute int, close float64) models.Bar {
	ts := time.Date(2024, 1, day, hour, minute, 0, 0, time.UTC)
	return models.Bar{Timestamp: ts, Open: close, High: close, Low: close, Close: close}
}

// rising builds two bars per day (09:15 and 11:15) with closes 100, 110, 120...
func rising(days int) models.BarSeries {
	var bars []models.Bar
	c := 100.0
	for d := 1; d <= days; d++ {
		bars = append(bars, bar(d+1, 9, 15, c), bar(d+1, 11, 15, c+10))
		c += 20
	}
	return models.NewBarSeries("TEST", bars)
}

func TestEMA(t *testing.T) {
	got := EMA([]float64{1, 2, 3}, 3)
	require.Len(t, got, 3)
	assert.InDelta(t, 1.0, got[0], 1e-12)
	assert.InDelta(t, 1.5, got[1], 1e-12)
	assert.InDelta(t, 2.25, got[2], 1e-12)
	assert.Nil(t, EMA(nil, 3))
}

func TestSlopeDegrees(t *testing.T) {
	got := SlopeDegrees([]float64{0, 1, 1, 0}, 1)
	assert.InDeltaSlice(t, []float64{0, 45, 0, -45}, got, 1e-9)

	got = SlopeDegrees([]float64{0, 1, 2}, 2)
	assert.Equal(t, 0.0, got[0])
	assert.Equal(t, 0.0, got[1])
	assert.InDelta(t, 45, got[2], 1e-9)
}

func TestStateRules(t *testing.T) {
	l, err := NewLabeler(DefaultConfig())
	require.NoError(t, err)

	cases := []struct {
		name  string
		p     models.TrendPoint
		rule  models.TrendRule
		state models.TrendLabel
	}{
		{"gated up", models.TrendPoint{FastEMA: 2, SlowEMA: 1, Slope: 11}, models.RuleSlopeGated, models.TrendUp},
		{"gated flat slope", models.TrendPoint{FastEMA: 2, SlowEMA: 1, Slope: 10}, models.RuleSlopeGated, models.TrendNeutral},
		{"gated down", models.TrendPoint{FastEMA: 1, SlowEMA: 2, Slope: -11}, models.RuleSlopeGated, models.TrendDown},
		{"gated disagree", models.TrendPoint{FastEMA: 1, SlowEMA: 2, Slope: 30}, models.RuleSlopeGated, models.TrendNeutral},
		{"cross up", models.TrendPoint{FastEMA: 2, SlowEMA: 1}, models.RuleCloseVsEMA, models.TrendUp},
		{"cross equal", models.TrendPoint{FastEMA: 1, SlowEMA: 1}, models.RuleCloseVsEMA, models.TrendDown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.state, l.state(tc.p, tc.rule))
		})
	}
}

func TestNewLabelerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rule = "bogus"
	_, err := NewLabeler(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.SessionOpen = "9am"
	_, err = NewLabeler(cfg)
	assert.Error(t, err)

	cfg = DefaultConfig()
	cfg.SlopeLookback = 0
	_, err = NewLabeler(cfg)
	assert.Error(t, err)
}

func TestLabelSlopeGatedIsLagged(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rule = models.RuleSlopeGated
	l, err := NewLabeler(cfg)
	require.NoError(t, err)

	labels, points := l.Label(rising(3))
	require.Len(t, points, 6)

	_, ok := labels.Get("2024-01-02")
	assert.False(t, ok, "first day never has a label")

	got, ok := labels.Get("2024-01-03")
	require.True(t, ok)
	assert.Equal(t, models.TrendNeutral, got, "day 1 open bar has fast == slow")

	got, ok = labels.Get("2024-01-04")
	require.True(t, ok)
	assert.Equal(t, points[2].State, got, "label comes from the previous day's open bar")
	assert.Equal(t, models.TrendUp, got)
}

func TestLabelCloseVsEMAUsesLastBar(t *testing.T) {
	l, err := NewLabeler(DefaultConfig())
	require.NoError(t, err)

	labels, points := l.Label(rising(3))
	assert.Equal(t, []models.SessionDate{"2024-01-03", "2024-01-04"}, labels.Dates())
	assert.Equal(t, points[1].State, labels["2024-01-03"])
	assert.Equal(t, models.TrendUp, labels["2024-01-04"])
}

func TestMissingOpenBarBreaksChain(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rule = models.RuleSlopeGated
	l, err := NewLabeler(cfg)
	require.NoError(t, err)

	s := models.NewBarSeries("TEST", []models.Bar{
		bar(2, 9, 15, 100), bar(2, 11, 15, 110),
		bar(3, 10, 15, 120), bar(3, 11, 15, 130),
		bar(4, 9, 15, 140), bar(4, 11, 15, 150),
	})
	daily := l.Daily(l.Points(s, cfg.Rule), cfg.Rule)
	require.Len(t, daily, 3)
	assert.True(t, daily[0].Defined)
	assert.False(t, daily[1].Defined)

	labels := Lag(daily)
	_, ok := labels.Get("2024-01-03")
	assert.True(t, ok)
	_, ok = labels.Get("2024-01-04")
	assert.False(t, ok, "predecessor without an open bar yields no label")
}

func TestEmptySessionOpenUsesFirstBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rule = models.RuleSlopeGated
	cfg.SessionOpen = ""
	l, err := NewLabeler(cfg)
	require.NoError(t, err)

	s := models.NewBarSeries("TEST", []models.Bar{bar(2, 10, 15, 100), bar(3, 10, 15, 120)})
	daily := l.Daily(l.Points(s, cfg.Rule), cfg.Rule)
	require.Len(t, daily, 2)
	assert.True(t, daily[0].Defined)
	assert.True(t, daily[1].Defined)
}

func TestSegments(t *testing.T) {
	u, d, n := models.TrendUp, models.TrendDown, models.TrendNeutral
	got := Segments([]models.TrendLabel{u, u, n, d, d, d})
	assert.Equal(t, []models.TrendSegment{{State: u, Length: 2}, {State: n, Length: 1}, {State: d, Length: 3}}, got)
	assert.Nil(t, Segments(nil))
}

func TestAnalyzeTransitions(t *testing.T) {
	u, d, n := models.TrendUp, models.TrendDown, models.TrendNeutral
	states := []models.TrendLabel{u, u, u, n, n, d, d, n, u, u, n, u, n}
	segs := Segments(states)

	all := AnalyzeTransitions(segs, 0)
	assert.Equal(t, 3, all.NeutralZones)
	assert.Equal(t, 2, all.FromUp.Total)
	assert.Equal(t, 1, all.FromUp.Reversals)
	assert.Equal(t, 1, all.FromUp.Continuations)
	assert.Equal(t, 1, all.FromDown.Total)
	assert.Equal(t, 1, all.FromDown.Reversals)
	assert.InDelta(t, 4.0/3.0, all.AvgNeutralBars.Float(), 1e-12)
	assert.InDelta(t, 0.5, all.FromUp.ReversalPct.Float(), 1e-12)

	strong := AnalyzeTransitions(segs, 3)
	assert.Equal(t, 1, strong.NeutralZones)
	assert.Equal(t, 1, strong.FromUp.Reversals)
	assert.Equal(t, 0, strong.FromDown.Total)
	assert.True(t, math.IsNaN(strong.FromDown.ReversalPct.Float()))

	none := AnalyzeTransitions(Segments([]models.TrendLabel{u, u}), 0)
	assert.False(t, none.AvgNeutralBars.Defined())
}
