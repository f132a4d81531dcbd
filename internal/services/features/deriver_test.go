package features

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "SessionEdge/internal/domain/models"
)

func at(day, idx int) time.Time {
    return time.Date(2024, 1, day, 9, 15, 0, 0, time.UTC).Add(time.Duration(idx) * 5 * time.Minute)
}

func ohlc(ts time.Time, o, h, l, c float64) models.Bar {
    return models.Bar{Timestamp: ts, Open: o, High: h, Low: l, Close: c}
}

func TestDeriveExtremes(t *testing.T) {
    s := models.NewBarSeries("T", []models.Bar{
        ohlc(at(2, 0), 100, 105, 98, 104),
        ohlc(at(2, 1), 104, 110, 103, 108),
        ohlc(at(2, 2), 108, 109, 95, 96),
        ohlc(at(3, 0), 91, 95, 90, 94),
        ohlc(at(3, 1), 94, 99, 93, 97),
    })
    fs := Derive(s)
    require.Len(t, fs.Bars, 5)
    require.Len(t, fs.Days, 2)

    b := fs.Bars[1]
    assert.Equal(t, 2, b.BarIndex)
    assert.Equal(t, 110.0, b.DayHigh)
    assert.Equal(t, 95.0, b.DayLow)
    assert.Equal(t, 110.0, b.HighSoFar)
    assert.Equal(t, 98.0, b.LowSoFar)

    assert.Equal(t, 1, fs.Bars[3].BarIndex, "index resets each day")

    d1, ok := fs.Day("2024-01-02")
    require.True(t, ok)
    assert.False(t, d1.HasPrevClose)
    assert.Equal(t, 100.0, d1.Open)
    assert.Equal(t, 96.0, d1.Close)

    d2, ok := fs.Day("2024-01-03")
    require.True(t, ok)
    assert.True(t, d2.HasPrevClose)
    assert.Equal(t, 96.0, d2.PrevClose)
    assert.Equal(t, -5.0, d2.Gap)
    assert.Equal(t, models.GapSmallDown, models.ClassifyGap(d2.Gap, 50))
    assert.True(t, d2.Opening.IsBull())
    assert.Len(t, fs.DayBars("2024-01-03"), 2)
    assert.Nil(t, fs.DayBars("2024-01-09"))
    assert.Equal(t, 3, fs.MaxBarIndex())
}

func TestDeriveLeavesInputUntouched(t *testing.T) {
    bars := []models.Bar{ohlc(at(2, 0), 1, 2, 0, 1)}
    s := models.NewBarSeries("T", bars)
    _ = Derive(s)
    assert.Equal(t, bars[0], s.Bars[0])
}

func TestHighSetMonotone(t *testing.T) {
    var bars []models.Bar
    highs := []float64{10, 12, 11, 15, 14, 13}
    for i, h := range highs {
        bars = append(bars, ohlc(at(2, i), h-1, h, h-3, h-1))
    }
    fs := Derive(models.NewBarSeries("T", bars))
    for _, off := range []float64{0, 1, 2.5, 5} {
        seen := false
        for _, b := range fs.Bars {
            set := IsHighSet(b, off)
            if seen {
                assert.True(t, set, "offset %v bar %d", off, b.BarIndex)
            }
            seen = seen || set
        }
    }
}

func TestOffsetOnlyAddsFlags(t *testing.T) {
    var bars []models.Bar
    for i, h := range []float64{10, 13, 12, 14, 11} {
        bars = append(bars, ohlc(at(2, i), h, h+1, h-4+float64(i), h))
    }
    fs := Derive(models.NewBarSeries("T", bars))
    offsets := []float64{0, 1, 2, 3, 10}
    for _, b := range fs.Bars {
        for i := 1; i < len(offsets); i++ {
            if IsHighSet(b, offsets[i-1]) {
                assert.True(t, IsHighSet(b, offsets[i]))
            }
            if IsLowSet(b, offsets[i-1]) {
                assert.True(t, IsLowSet(b, offsets[i]))
            }
        }
    }
}

func TestHighNearMissWithinOffset(t *testing.T) {
    fs := Derive(models.NewBarSeries("T", []models.Bar{
        ohlc(at(2, 0), 100, 108, 99, 107),
        ohlc(at(2, 1), 107, 110, 104, 105),
    }))
    first := fs.Bars[0]
    assert.False(t, IsHighSet(first, 0))
    assert.False(t, IsHighSet(first, 1.5))
    assert.True(t, IsHighSet(first, 2))
    assert.True(t, IsLowSet(first, 0))
}

func TestSessionCloseLookup(t *testing.T) {
    day := []FeaturedBar{
        {Bar: models.Bar{Timestamp: time.Date(2024, 1, 2, 15, 20, 0, 0, time.UTC), Close: 1}},
        {Bar: models.Bar{Timestamp: time.Date(2024, 1, 2, 15, 25, 0, 0, time.UTC), Close: 2}},
        {Bar: models.Bar{Timestamp: time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC), Close: 3}},
    }
    l, err := NewSessionCloseLookup("15:25")
    require.NoError(t, err)
    c, ok := l.Close(day)
    assert.True(t, ok)
    assert.Equal(t, 2.0, c)

    c, _ = l.Close(day[:1])
    assert.Equal(t, 1.0, c, "falls back to the last bar")

    last, err := NewSessionCloseLookup("")
    require.NoError(t, err)
    c, _ = last.Close(day)
    assert.Equal(t, 3.0, c)

    _, ok = l.Close(nil)
    assert.False(t, ok)

    _, err = NewSessionCloseLookup("25:99")
    assert.Error(t, err)
}
