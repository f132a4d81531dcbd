package util

import (
    "fmt"
    "strconv"
    "time"
)

// timestampLayouts are tried in order by ParseTimeIn.
var timestampLayouts = []string{
    time.RFC3339,
    time.RFC3339Nano,
    "2006-01-02 15:04:05-07:00",
    "2006-01-02 15:04:05",
    "2006-01-02 15:04",
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    "02-01-2006 15:04",
    "2006-01-02",
}

// ParseTime tries the known layouts in UTC, then unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    return ParseTimeIn(s, time.UTC)
}

// ParseTimeIn is ParseTime with naive layouts interpreted in loc.
// Layouts carrying an offset keep their own zone converted to loc.
func ParseTimeIn(s string, loc *time.Location) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if loc == nil {
        loc = time.UTC
    }
    for _, layout := range timestampLayouts {
        if t, err := time.ParseInLocation(layout, s, loc); err == nil {
            return t.In(loc), true
        }
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0).In(loc), true
    }
    return time.Time{}, false
}

// Clock is a wall-clock time of day with minute resolution.
type Clock struct {
    Hour   int
    Minute int
}

// ParseClock parses "HH:MM". An empty string yields ok=false and no error.
func ParseClock(s string) (Clock, bool, error) {
    if s == "" {
        return Clock{}, false, nil
    }
    t, err := time.Parse("15:04", s)
    if err != nil {
        return Clock{}, false, fmt.Errorf("clock %q: %w", s, err)
    }
    return Clock{Hour: t.Hour(), Minute: t.Minute()}, true, nil
}

// Matches reports whether t falls exactly on c (seconds ignored).
func (c Clock) Matches(t time.Time) bool {
    return t.Hour() == c.Hour && t.Minute() == c.Minute
}

func (c Clock) String() string { return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute) }
