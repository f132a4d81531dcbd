package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeNaiveInLocation(t *testing.T) {
    loc := time.FixedZone("IST", 5*3600+1800)
    got, ok := ParseTimeIn("2024-01-02 09:15:00", loc)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Hour() != 9 || got.Minute() != 15 || got.Location() != loc {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeOffsetConverted(t *testing.T) {
    got, ok := ParseTimeIn("2024-01-02 09:15:00+05:30", time.UTC)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Hour() != 3 || got.Minute() != 45 {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeRejectsGarbage(t *testing.T) {
    if _, ok := ParseTime("yesterday"); ok {
        t.Fatalf("expected failure")
    }
}

func TestParseClock(t *testing.T) {
    c, ok, err := ParseClock("09:15")
    if err != nil || !ok {
        t.Fatalf("unexpected %v %v", ok, err)
    }
    if c.String() != "09:15" {
        t.Fatalf("unexpected clock %s", c)
    }
    if !c.Matches(time.Date(2024, 1, 2, 9, 15, 30, 0, time.UTC)) {
        t.Fatalf("expected match")
    }
    if c.Matches(time.Date(2024, 1, 2, 9, 20, 0, 0, time.UTC)) {
        t.Fatalf("unexpected match")
    }
    if _, ok, err := ParseClock(""); ok || err != nil {
        t.Fatalf("empty clock should be unset")
    }
    if _, _, err := ParseClock("9h15"); err == nil {
        t.Fatalf("expected error")
    }
}

func TestParseFloatList(t *testing.T) {
    got, err := ParseFloatList(" 5, 10 ,,2.5")
    if err != nil {
        t.Fatalf("unexpected %v", err)
    }
    if len(got) != 3 || got[0] != 5 || got[1] != 10 || got[2] != 2.5 {
        t.Fatalf("unexpected %v", got)
    }
    if _, err := ParseFloatList("a"); err == nil {
        t.Fatalf("expected error")
    }
}
