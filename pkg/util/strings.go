package util

import (
    "strconv"
    "strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
    if s == "" {
        return def
    }
    v, err := strconv.Atoi(s)
    if err != nil {
        return def
    }
    return v
}

// SplitList splits a comma separated list, trimming blanks and dropping empties.
func SplitList(s string) []string {
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

// ParseFloatList parses a comma separated list of floats.
func ParseFloatList(s string) ([]float64, error) {
    parts := SplitList(s)
    out := make([]float64, 0, len(parts))
    for _, p := range parts {
        v, err := strconv.ParseFloat(p, 64)
        if err != nil {
            return nil, err
        }
        out = append(out, v)
    }
    return out, nil
}
