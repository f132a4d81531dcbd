package features

import (
    "fmt"

    "SessionEdge/internal/domain/models"
    "SessionEdge/pkg/util"
)

// FeaturedBar is a bar annotated with its day's extremes and the running extremes.
// DayHigh/DayLow use the whole day; HighSoFar/LowSoFar only see bars up to this one.
type FeaturedBar struct {
    models.Bar
    Date      models.SessionDate
    BarIndex  int // 1-based within the day
    DayHigh   float64
    DayLow    float64
    HighSoFar float64
    LowSoFar  float64
}

// DayFeatures holds the per-day values, opening-bar anatomy included.
type DayFeatures struct {
    Date         models.SessionDate
    Bars         int
    Open         float64
    Close        float64
    High         float64
    Low          float64
    HasPrevClose bool
    PrevClose    float64
    Gap          float64
    Opening      models.Anatomy
    // Start and End bound the day's bars in FeaturedSeries.Bars as [Start, End).
    Start int
    End   int
}

// FeaturedSeries is the annotated series. The input series is left untouched.
type FeaturedSeries struct {
    Symbol string
    Bars   []FeaturedBar
    Days   []DayFeatures
    index  map[models.SessionDate]int
}

// Derive computes bar and day features for a sorted series.
func Derive(s models.BarSeries) FeaturedSeries {
    fs := FeaturedSeries{
        Symbol: s.Symbol,
        Bars:   make([]FeaturedBar, 0, len(s.Bars)),
        index:  make(map[models.SessionDate]int),
    }
    var prevClose float64
    hasPrev := false
    for _, day := range s.Days() {
        df := DayFeatures{
            Date:         day.Date,
            Bars:         day.Len(),
            Open:         day.Open(),
            Close:        day.Close(),
            High:         day.High(),
            Low:          day.Low(),
            HasPrevClose: hasPrev,
            Opening:      models.AnatomyOf(day.OpeningBar()),
            Start:        len(fs.Bars),
        }
        if hasPrev {
            df.PrevClose = prevClose
            df.Gap = df.Open - prevClose
        }
        hi, lo := day.Bars[0].High, day.Bars[0].Low
        for i, b := range day.Bars {
            if b.High > hi {
                hi = b.High
            }
            if b.Low < lo {
                lo = b.Low
            }
            fs.Bars = append(fs.Bars, FeaturedBar{
                Bar:       b,
                Date:      day.Date,
                BarIndex:  i + 1,
                DayHigh:   df.High,
                DayLow:    df.Low,
                HighSoFar: hi,
                LowSoFar:  lo,
            })
        }
        df.End = len(fs.Bars)
        fs.index[day.Date] = len(fs.Days)
        fs.Days = append(fs.Days, df)
        prevClose, hasPrev = df.Close, true
    }
    return fs
}

// Day returns the features of date d.
func (fs FeaturedSeries) Day(d models.SessionDate) (DayFeatures, bool) {
    i, ok := fs.index[d]
    if !ok {
        return DayFeatures{}, false
    }
    return fs.Days[i], true
}

// DayBars returns the annotated bars of date d, or nil.
func (fs FeaturedSeries) DayBars(d models.SessionDate) []FeaturedBar {
    df, ok := fs.Day(d)
    if !ok {
        return nil
    }
    return fs.Bars[df.Start:df.End]
}

// Dates lists every day in order.
func (fs FeaturedSeries) Dates() []models.SessionDate {
    out := make([]models.SessionDate, len(fs.Days))
    for i, d := range fs.Days {
        out[i] = d.Date
    }
    return out
}

// MaxBarIndex is the longest day's bar count.
func (fs FeaturedSeries) MaxBarIndex() int {
    m := 0
    for _, d := range fs.Days {
        if d.Bars > m {
            m = d.Bars
        }
    }
    return m
}

// IsHighSet reports whether the day high is established by this bar, treating
// a running high within offset of it as set. Monotone within a day.
func IsHighSet(b FeaturedBar, offset float64) bool {
    return b.HighSoFar+offset >= b.DayHigh
}

// IsLowSet is the low-side analogue of IsHighSet.
func IsLowSet(b FeaturedBar, offset float64) bool {
    return b.LowSoFar-offset <= b.DayLow
}

// SessionCloseLookup picks the close a day is judged by: the bar at the
// session-close clock when present, the last bar otherwise.
type SessionCloseLookup struct {
    clock util.Clock
    set   bool
}

// NewSessionCloseLookup parses "HH:MM"; empty always uses the last bar.
func NewSessionCloseLookup(hhmm string) (SessionCloseLookup, error) {
    c, ok, err := util.ParseClock(hhmm)
    if err != nil {
        return SessionCloseLookup{}, fmt.Errorf("session close: %w", err)
    }
    return SessionCloseLookup{clock: c, set: ok}, nil
}

// Close returns the outcome close for one day's bars. ok is false for an empty day.
func (l SessionCloseLookup) Close(bars []FeaturedBar) (float64, bool) {
    if len(bars) == 0 {
        return 0, false
    }
    if l.set {
        for _, b := range bars {
            if l.clock.Matches(b.Timestamp) {
                return b.Close, true
            }
        }
    }
    return bars[len(bars)-1].Close, true
}
