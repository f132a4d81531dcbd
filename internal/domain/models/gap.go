package models

import "strings"

// GapBucket classifies the opening gap against a symmetric threshold.
type GapBucket string

const (
	GapLargeUp   GapBucket = "LARGE_GAP_UP"   // gap >= threshold
	GapSmallUp   GapBucket = "SMALL_GAP_UP"   // 0 < gap < threshold
	GapSmallDown GapBucket = "SMALL_GAP_DOWN" // -threshold < gap <= 0
	GapLargeDown GapBucket = "LARGE_GAP_DOWN" // gap <= -threshold
)

// GapBuckets lists buckets from largest up to largest down.
func GapBuckets() []GapBucket {
	return []GapBucket{GapLargeUp, GapSmallUp, GapSmallDown, GapLargeDown}
}

// ClassifyGap places gap into exactly one bucket.
func ClassifyGap(gap, threshold float64) GapBucket {
	switch {
	case gap >= threshold:
		return GapLargeUp
	case gap > 0:
		return GapSmallUp
	case gap > -threshold:
		return GapSmallDown
	default:
		return GapLargeDown
	}
}

func (b GapBucket) IsLarge() bool { return b == GapLargeUp || b == GapLargeDown }

// Slug is the lowercase dashed form, e.g. "small-gap-down".
func (b GapBucket) Slug() string {
	return strings.ReplaceAll(strings.ToLower(string(b)), "_", "-")
}

// GapSide is the boundary-at-zero variant.
type GapSide string

const (
	GapUp   GapSide = "GAP_UP"
	GapDown GapSide = "GAP_DOWN"
	GapNone GapSide = "NO_GAP"
)

// GapSides lists every side in report order.
func GapSides() []GapSide { return []GapSide{GapUp, GapDown, GapNone} }

// SideOf returns GapUp when open > prev close and GapDown when open < prev close.
func SideOf(gap float64) GapSide {
	switch {
	case gap > 0:
		return GapUp
	case gap < 0:
		return GapDown
	default:
		return GapNone
	}
}
