package probability

import "SessionEdge/internal/domain/models"

// LookupKey indexes the first-bar probability table.
type LookupKey struct {
	Trend models.TrendType
	Gap   models.GapBucket
	Bar   models.BarType
}

// LookupSource tells which step of the fallback chain answered.
type LookupSource string

const (
	SourceExact   LookupSource = "exact"
	SourceNeutral LookupSource = "neutral"
	SourceDefault LookupSource = "default"
)

// LookupTable maps a setup to its historical bar-1 probabilities.
type LookupTable struct {
	entries  map[LookupKey]models.ProbEntry
	fallback models.ProbEntry
}

// NewLookupTable copies entries. fallback answers keys with no neutral entry either.
func NewLookupTable(entries map[LookupKey]models.ProbEntry, fallback models.ProbEntry) *LookupTable {
	t := &LookupTable{entries: make(map[LookupKey]models.ProbEntry, len(entries)), fallback: fallback}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// Lookup tries the exact key, then the neutral bar of the same trend and gap,
// then the fallback.
func (t *LookupTable) Lookup(k LookupKey) (models.ProbEntry, LookupSource) {
	if e, ok := t.entries[k]; ok {
		return e, SourceExact
	}
	k.Bar = models.BarNeutral
	if e, ok := t.entries[k]; ok {
		return e, SourceNeutral
	}
	return t.fallback, SourceDefault
}

func (t *LookupTable) Len() int { return len(t.entries) }

func pe(ph, pl, ph10, pl10 float64, n int) models.ProbEntry {
	return models.ProbEntry{ProbHigh: ph, ProbLow: pl, ProbHigh10: ph10, ProbLow10: pl10, SampleSize: n}
}

// DefaultFallback carries no edge.
var DefaultFallback = pe(0.20, 0.20, 0.30, 0.30, 0)

// DefaultLookupTable holds the measured NIFTY 50 first-bar statistics.
// Sparse large-gap cells reuse the plain bull/bear figures for the strong variants.
func DefaultLookupTable() *LookupTable {
	const (
		up   = models.TrendTypeUp
		down = models.TrendTypeDown
		bull = models.TrendTypeBull
		bear = models.TrendTypeBear

		lgu = models.GapLargeUp
		sgu = models.GapSmallUp
		sgd = models.GapSmallDown
		lgd = models.GapLargeDown

		sb = models.BarStrongBull
		b  = models.BarBull
		n  = models.BarNeutral
		r  = models.BarBear
		sr = models.BarStrongBear
	)
	e := map[LookupKey]models.ProbEntry{
		{up, sgu, b}:  pe(0.09, 0.31, 0.26, 0.40, 309),
		{up, sgu, r}:  pe(0.37, 0.07, 0.52, 0.16, 408),
		{up, sgu, sb}: pe(0.01, 0.42, 0.15, 0.51, 96),
		{up, sgu, sr}: pe(0.45, 0.01, 0.54, 0.13, 113),
		{up, sgu, n}:  pe(0.25, 0.17, 0.41, 0.26, 718),

		{up, sgd, b}:  pe(0.07, 0.33, 0.18, 0.43, 134),
		{up, sgd, r}:  pe(0.28, 0.10, 0.38, 0.21, 176),
		{up, sgd, sb}: pe(0.05, 0.29, 0.16, 0.37, 62),
		{up, sgd, sr}: pe(0.48, 0.00, 0.58, 0.09, 33),
		{up, sgd, n}:  pe(0.19, 0.20, 0.29, 0.30, 310),

		{down, sgu, b}:  pe(0.09, 0.27, 0.21, 0.32, 149),
		{down, sgu, r}:  pe(0.33, 0.05, 0.43, 0.17, 230),
		{down, sgu, sb}: pe(0.00, 0.33, 0.13, 0.35, 54),
		{down, sgu, sr}: pe(0.39, 0.00, 0.48, 0.10, 61),
		{down, sgu, n}:  pe(0.24, 0.14, 0.35, 0.23, 379),

		{down, sgd, b}:  pe(0.13, 0.24, 0.26, 0.30, 76),
		{down, sgd, r}:  pe(0.35, 0.07, 0.43, 0.15, 118),
		{down, sgd, sb}: pe(0.13, 0.24, 0.26, 0.30, 76),
		{down, sgd, sr}: pe(0.35, 0.07, 0.43, 0.15, 118),
		{down, sgd, n}:  pe(0.26, 0.13, 0.37, 0.21, 194),

		{bear, lgu, b}:  pe(0.00, 0.38, 0.05, 0.41, 37),
		{bear, lgu, r}:  pe(0.46, 0.02, 0.52, 0.08, 48),
		{bear, lgu, sb}: pe(0.00, 0.38, 0.05, 0.41, 37),
		{bear, lgu, sr}: pe(0.46, 0.02, 0.52, 0.08, 48),
		{bear, lgu, n}:  pe(0.24, 0.16, 0.29, 0.22, 85),

		{bear, lgd, b}:  pe(0.05, 0.29, 0.05, 0.29, 21),
		{bear, lgd, r}:  pe(0.20, 0.00, 0.33, 0.13, 15),
		{bear, lgd, sb}: pe(0.05, 0.29, 0.05, 0.29, 21),
		{bear, lgd, sr}: pe(0.20, 0.00, 0.33, 0.13, 15),
		{bear, lgd, n}:  pe(0.12, 0.15, 0.19, 0.21, 36),

		{bull, lgu, b}:  pe(0.00, 0.42, 0.06, 0.52, 33),
		{bull, lgu, r}:  pe(0.41, 0.04, 0.52, 0.20, 54),
		{bull, lgu, sb}: pe(0.00, 0.42, 0.06, 0.52, 33),
		{bull, lgu, sr}: pe(0.41, 0.04, 0.52, 0.20, 54),
		{bull, lgu, n}:  pe(0.23, 0.17, 0.33, 0.24, 87),

		{bull, lgd, b}:  pe(0.03, 0.44, 0.08, 0.53, 36),
		{bull, lgd, r}:  pe(0.33, 0.00, 0.33, 0.11, 9),
		{bull, lgd, sb}: pe(0.03, 0.44, 0.08, 0.53, 36),
		{bull, lgd, sr}: pe(0.33, 0.00, 0.33, 0.11, 9),
		{bull, lgd, n}:  pe(0.18, 0.22, 0.21, 0.32, 45),
	}
	return NewLookupTable(e, DefaultFallback)
}
