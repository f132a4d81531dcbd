package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatioJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
		C Ratio `json:"c"`
	}{NewRatio(1, 4), NewRatio(0, 0), Ratio(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":0.25,"b":null,"c":null}`, string(b))

	var back struct {
		A Ratio `json:"a"`
		B Ratio `json:"b"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 0.25, back.A.Float())
	assert.False(t, back.B.Defined())
	assert.Equal(t, "n/a", back.B.Percent())
	assert.Equal(t, "25.00%", back.A.Percent())
}

func TestOffsetSuffix(t *testing.T) {
	assert.Equal(t, "exact", OffsetSuffix(0))
	assert.Equal(t, "offset_10", OffsetSuffix(10))
	assert.Equal(t, "offset_2.5", OffsetSuffix(2.5))
	for _, off := range []float64{0, 5, 10, 2.5} {
		got, err := ParseSuffix(OffsetSuffix(off))
		require.NoError(t, err)
		assert.Equal(t, off, got)
	}
	_, err := ParseSuffix("offset_x")
	assert.Error(t, err)
	_, err = ParseSuffix("fuzzy")
	assert.Error(t, err)
}

func TestClassifyGap(t *testing.T) {
	cases := []struct {
		gap  float64
		want GapBucket
	}{
		{-5, GapSmallDown},
		{0, GapSmallDown},
		{0.01, GapSmallUp},
		{50, GapLargeUp},
		{49.99, GapSmallUp},
		{-50, GapLargeDown},
		{-49.99, GapSmallDown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyGap(tc.gap, 50), "gap %v", tc.gap)
	}
	assert.Equal(t, "small-gap-down", GapSmallDown.Slug())
	assert.Equal(t, GapNone, SideOf(0))
	assert.Equal(t, GapDown, SideOf(-0.5))
	assert.Equal(t, GapUp, SideOf(0.5))
	assert.Equal(t, []GapSide{GapUp, GapDown, GapNone}, GapSides())
}

func TestBarSeriesDays(t *testing.T) {
	d := func(day, h int) Bar {
		return Bar{Timestamp: time.Date(2024, 2, day, h, 0, 0, 0, time.UTC), Open: 1, High: float64(h), Low: float64(-h), Close: float64(day)}
	}
	s := NewBarSeries("X", []Bar{d(3, 10), d(2, 11), d(2, 10), d(3, 12)})
	days := s.Days()
	require.Len(t, days, 2)
	assert.Equal(t, SessionDate("2024-02-02"), days[0].Date)
	assert.Equal(t, 2, days[0].Len())
	assert.Equal(t, 11.0, days[0].High())
	assert.Equal(t, -12.0, days[1].Low())
	assert.Equal(t, 3.0, days[1].Close())
	assert.Equal(t, 0.0, TradingDay{}.High())
}

func TestAnatomy(t *testing.T) {
	a := AnatomyOf(Bar{Open: 100, High: 110, Low: 95, Close: 108})
	assert.Equal(t, 8.0, a.Body)
	assert.Equal(t, 15.0, a.Range)
	assert.Equal(t, 2.0, a.UpperWick)
	assert.Equal(t, 5.0, a.LowerWick)
	assert.True(t, a.IsBull())
	assert.True(t, a.StrongBull(0.2))
	assert.False(t, a.StrongBull(0.1))

	flat := AnatomyOf(Bar{Open: 5, High: 5, Low: 5, Close: 5})
	assert.True(t, flat.Degenerate())
	assert.False(t, flat.IsBull() || flat.IsBear())
	assert.False(t, flat.UpperWickWithin(1))
	assert.Zero(t, flat.BodyPct())
}

func TestRunSummary(t *testing.T) {
	r := &RunResult{
		ID: "r1",
		Cohorts: []CohortResult{
			{
				Cohort: Cohort{ID: "all", Dates: []SessionDate{"2024-01-02"}},
				Tables: []ProbTable{{Offset: 0, Rows: []ProbRow{{BarIndex: 1, ProbHigh: 0.5, ProbLow: 0.25}}}},
			},
			{Cohort: Cohort{ID: "trend/up"}},
		},
	}
	s := r.Summary()
	require.Len(t, s.Cohorts, 2)
	assert.Equal(t, 1, s.Cohorts[0].Days)
	assert.Equal(t, Ratio(0.5), s.Cohorts[0].Bar1High)
	assert.False(t, s.Cohorts[1].Bar1Low.Defined())

	_, ok := r.Cohort("trend/up")
	assert.True(t, ok)
	_, ok = r.Cohort("nope")
	assert.False(t, ok)
}
