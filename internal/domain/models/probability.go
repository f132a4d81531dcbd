package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Ratio is a probability or average. It is NaN when its denominator is zero
// so an empty cohort is distinguishable from a genuine 0. Non-finite values
// encode as JSON null.
type Ratio float64

// NewRatio returns count/total, or NaN when total is zero.
func NewRatio(count, total int) Ratio {
	if total == 0 {
		return Ratio(math.NaN())
	}
	return Ratio(float64(count) / float64(total))
}

// Undefined returns the NaN ratio.
func Undefined() Ratio { return Ratio(math.NaN()) }

// Defined reports whether r is a finite number.
func (r Ratio) Defined() bool {
	f := float64(r)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (r Ratio) Float() float64 { return float64(r) }

// Percent renders r as "12.34%", or "n/a" when undefined.
func (r Ratio) Percent() string {
	if !r.Defined() {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", float64(r)*100)
}

func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(r))
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Undefined()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}

// ProbRow holds, for one bar index, how many cohort days had their extreme
// established by that bar.
type ProbRow struct {
	BarIndex   int   `json:"bar_index"`
	HighSet    int   `json:"high_set_count"`
	LowSet     int   `json:"low_set_count"`
	EitherSet  int   `json:"either_set_count"`
	TotalDays  int   `json:"total_days"`
	ProbHigh   Ratio `json:"prob_high_set"`
	ProbLow    Ratio `json:"prob_low_set"`
	ProbEither Ratio `json:"prob_either_set"`
}

// ProbTable is one offset's probability table, ordered by bar index.
type ProbTable struct {
	Offset float64   `json:"offset"`
	Rows   []ProbRow `json:"rows"`
}

// Suffix is the column suffix for the table's offset.
func (t ProbTable) Suffix() string { return OffsetSuffix(t.Offset) }

// Row returns the row at barIndex.
func (t ProbTable) Row(barIndex int) (ProbRow, bool) {
	for _, r := range t.Rows {
		if r.BarIndex == barIndex {
			return r, true
		}
	}
	return ProbRow{}, false
}

const (
	ExactSuffix  = "exact"
	offsetPrefix = "offset_"
)

// OffsetSuffix returns "exact" for 0 and "offset_<n>" otherwise.
func OffsetSuffix(offset float64) string {
	if offset == 0 {
		return ExactSuffix
	}
	return offsetPrefix + strconv.FormatFloat(offset, 'f', -1, 64)
}

// ParseSuffix is the inverse of OffsetSuffix.
func ParseSuffix(s string) (float64, error) {
	if s == ExactSuffix {
		return 0, nil
	}
	if !strings.HasPrefix(s, offsetPrefix) {
		return 0, fmt.Errorf("unknown suffix %q", s)
	}
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, offsetPrefix), 64)
	if err != nil {
		return 0, fmt.Errorf("suffix %q: %w", s, err)
	}
	return v, nil
}

// MergedTable places several offset tables side by side, joined on bar index.
type MergedTable struct {
	Suffixes []string    `json:"suffixes"`
	Rows     []MergedRow `json:"rows"`
}

// MergedRow carries one cell per suffix, in Suffixes order.
type MergedRow struct {
	BarIndex int       `json:"bar_index"`
	Cells    []ProbRow `json:"cells"`
}

// Limit returns a copy restricted to bar indices <= maxBar. maxBar <= 0 keeps all rows.
func (m MergedTable) Limit(maxBar int) MergedTable {
	if maxBar <= 0 {
		return m
	}
	out := MergedTable{Suffixes: m.Suffixes}
	for _, r := range m.Rows {
		if r.BarIndex <= maxBar {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Cohort is the set of dates satisfying one predicate.
type Cohort struct {
	ID          string        `json:"id"`
	Description string        `json:"description"`
	Trend       TrendLabel    `json:"trend,omitempty"`
	Dates       []SessionDate `json:"dates"`
}

func (c Cohort) Size() int { return len(c.Dates) }

// CohortResult is a cohort with its per-offset tables and their merge.
// Tables[0] is always the exact table.
type CohortResult struct {
	Cohort Cohort      `json:"cohort"`
	Tables []ProbTable `json:"tables"`
	Merged MergedTable `json:"merged"`
}

// Days is the cohort day count.
func (r CohortResult) Days() int { return r.Cohort.Size() }

// FirstBar returns the bar-1 row of the table with the given offset.
func (r CohortResult) FirstBar(offset float64) (ProbRow, bool) {
	for _, t := range r.Tables {
		if t.Offset == offset {
			return t.Row(1)
		}
	}
	return ProbRow{}, false
}
