package models

import (
	"sort"
	"time"
)

// SessionDate is a calendar date in YYYY-MM-DD form. Lexical order is chronological order.
type SessionDate string

const sessionDateLayout = "2006-01-02"

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) SessionDate {
	return SessionDate(t.Format(sessionDateLayout))
}

// ParseSessionDate validates s and returns it as a SessionDate.
func ParseSessionDate(s string) (SessionDate, error) {
	if _, err := time.Parse(sessionDateLayout, s); err != nil {
		return "", err
	}
	return SessionDate(s), nil
}

func (d SessionDate) String() string { return string(d) }

// Bar is one OHLC observation at a fixed interval.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume,omitempty"`
}

// Date returns the calendar date the bar belongs to.
func (b Bar) Date() SessionDate { return DateOf(b.Timestamp) }

// BarSeries is an ascending sequence of bars at one nominal interval.
// Missing bars are simply absent.
type BarSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"`
}

// NewBarSeries copies bars and sorts them by timestamp.
func NewBarSeries(symbol string, bars []Bar) BarSeries {
	out := make([]Bar, len(bars))
	copy(out, bars)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return BarSeries{Symbol: symbol, Bars: out}
}

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// Days groups the series by calendar date, keeping bar order.
func (s BarSeries) Days() []TradingDay {
	var days []TradingDay
	for _, b := range s.Bars {
		d := b.Date()
		if n := len(days); n > 0 && days[n-1].Date == d {
			days[n-1].Bars = append(days[n-1].Bars, b)
			continue
		}
		days = append(days, TradingDay{Date: d, Bars: []Bar{b}})
	}
	return days
}

// TradingDay is the set of bars sharing one calendar date.
type TradingDay struct {
	Date SessionDate `json:"date"`
	Bars []Bar       `json:"bars"`
}

func (d TradingDay) Len() int { return len(d.Bars) }

// OpeningBar returns the first bar of the day.
func (d TradingDay) OpeningBar() Bar {
	if len(d.Bars) == 0 {
		return Bar{}
	}
	return d.Bars[0]
}

// ClosingBar returns the last bar of the day.
func (d TradingDay) ClosingBar() Bar {
	if len(d.Bars) == 0 {
		return Bar{}
	}
	return d.Bars[len(d.Bars)-1]
}

func (d TradingDay) Open() float64  { return d.OpeningBar().Open }
func (d TradingDay) Close() float64 { return d.ClosingBar().Close }

// High is the maximum high across the whole day.
func (d TradingDay) High() float64 {
	if len(d.Bars) == 0 {
		return 0
	}
	h := d.Bars[0].High
	for _, b := range d.Bars[1:] {
		if b.High > h {
			h = b.High
		}
	}
	return h
}

// Low is the minimum low across the whole day.
func (d TradingDay) Low() float64 {
	if len(d.Bars) == 0 {
		return 0
	}
	l := d.Bars[0].Low
	for _, b := range d.Bars[1:] {
		if b.Low < l {
			l = b.Low
		}
	}
	return l
}
