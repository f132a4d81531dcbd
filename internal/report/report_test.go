package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SessionEdge/internal/domain/models"
	"SessionEdge/internal/services/probability"
)

func table(offset float64, probs ...float64) models.ProbTable {
	t := models.ProbTable{Offset: offset}
	for i, p := range probs {
		t.Rows = append(t.Rows, models.ProbRow{
			BarIndex:   i + 1,
			TotalDays:  4,
			ProbHigh:   models.Ratio(p),
			ProbLow:    models.Ratio(p / 2),
			ProbEither: models.Ratio(math.Min(1, p*1.5)),
		})
	}
	return t
}

func TestFormatRatio(t *testing.T) {
	assert.Equal(t, "0.46", FormatRatio(0.456, 2))
	assert.Equal(t, "0.5", FormatRatio(0.5, 2))
	// ties go to the even digit
	assert.Equal(t, "0.12", FormatRatio(0.125, 2))
	assert.Equal(t, "0.38", FormatRatio(0.375, 2))
	assert.Equal(t, "0.456", FormatRatio(0.456, -1))
	assert.Equal(t, "", FormatRatio(models.Undefined(), 2))
}

func TestProbabilityCSVRoundTrip(t *testing.T) {
	exact := table(0, 0.25, 0.5, 0.75)
	off := table(10, 0.5, 0.75, 1)
	m, err := probability.Merge(exact, off)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteProbabilityCSV(&buf, m, CSVOptions{Decimals: -1, TotalDays: 4}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "bar_index,prob_high_set_exact,prob_low_set_exact,prob_either_set_exact,prob_high_set_offset_10,prob_low_set_offset_10,prob_either_set_offset_10", lines[0])
	assert.Equal(t, "1,0.25,0.125,0.375,0.5,0.25,0.75", lines[1])
	assert.Equal(t, "total_days,4,,,,,", lines[4])

	back, err := ReadProbabilityCSV(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, m.Suffixes, back.Suffixes)
	require.Len(t, back.Rows, 3)

	tables, err := probability.Split(back)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, 10.0, tables[1].Offset)
	for i, r := range tables[0].Rows {
		assert.InDelta(t, exact.Rows[i].ProbHigh.Float(), r.ProbHigh.Float(), 1e-12)
		assert.InDelta(t, exact.Rows[i].ProbLow.Float(), r.ProbLow.Float(), 1e-12)
	}
}

func TestProbabilityCSVLimitAndUndefined(t *testing.T) {
	tbl := models.ProbTable{Rows: []models.ProbRow{
		{BarIndex: 1, ProbHigh: models.Undefined(), ProbLow: models.Undefined(), ProbEither: models.Undefined()},
		{BarIndex: 2, ProbHigh: models.Undefined(), ProbLow: models.Undefined(), ProbEither: models.Undefined()},
	}}
	m, err := probability.Merge(tbl)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteProbabilityCSV(&buf, m, CSVOptions{Decimals: 2, MaxBar: 1, TotalDays: -1}))
	assert.Equal(t, "bar_index,prob_high_set_exact,prob_low_set_exact,prob_either_set_exact\n1,,,\n", buf.String())

	back, err := ReadProbabilityCSV(&buf)
	require.NoError(t, err)
	require.Len(t, back.Rows, 1)
	assert.False(t, back.Rows[0].Cells[0].ProbHigh.Defined())
}

func TestReadProbabilityCSVRejectsBadHeader(t *testing.T) {
	_, err := ReadProbabilityCSV(strings.NewReader("idx,a\n"))
	assert.Error(t, err)
	_, err = ReadProbabilityCSV(strings.NewReader("bar_index,prob_high_set_exact,prob_low_set_exact\n"))
	assert.Error(t, err)
	_, err = ReadProbabilityCSV(strings.NewReader("bar_index,prob_high_set_x,prob_low_set_x,prob_either_set_x\n"))
	assert.Error(t, err)
}

func TestWriteDateList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDateList(&buf, []models.SessionDate{"2024-01-02", "2024-01-03"}))
	assert.Equal(t, "date\n2024-01-02\n2024-01-03\n", buf.String())
}

func sampleRun(t *testing.T) *models.RunResult {
	t.Helper()
	m, err := probability.Merge(table(0, 0.25, 0.5), table(10, 0.5, 1))
	require.NoError(t, err)
	empty, err := probability.Merge(models.ProbTable{})
	require.NoError(t, err)
	return &models.RunResult{
		ID:      "run-1",
		Symbol:  "NIFTY50",
		Rule:    models.RuleCloseVsEMA,
		Offsets: []float64{10},
		Days:    4,
		Cohorts: []models.CohortResult{
			{
				Cohort: models.Cohort{ID: "all", Dates: []models.SessionDate{"2024-01-02", "2024-01-03"}},
				Tables: []models.ProbTable{table(0, 0.25, 0.5), table(10, 0.5, 1)},
				Merged: m,
			},
			{
				Cohort: models.Cohort{ID: "up/gapup-bull", Trend: models.TrendUp},
				Tables: []models.ProbTable{{}},
				Merged: empty,
			},
		},
		DayClose: []models.DayCloseStats{{Trend: models.TrendUp, Days: 0, BullPct: models.Undefined(), BearPct: models.Undefined()}},
		DayCloseByGap: []models.DayCloseStats{
			{Trend: models.TrendUp, GapSide: models.GapUp, Days: 2, Bull: 1, Bear: 1, BullPct: models.NewRatio(1, 2), BearPct: models.NewRatio(1, 2)},
		},
		GapPatterns: []models.PatternReport{{
			Bars: 3, Skip: 1, ByGap: true,
			Stats: []models.PatternStats{
				{Pattern: "Bull-Bull-Bull", Trend: models.TrendUp, GapSide: models.GapDown, Days: 1, BullClose: 1, BullPct: models.NewRatio(1, 1), BearPct: models.NewRatio(0, 1)},
				{Pattern: "Bear-Bear-Bear", Trend: models.TrendUp, GapSide: models.GapDown, BullPct: models.Undefined(), BearPct: models.Undefined()},
			},
		}},
		Transitions: &models.TransitionReport{
			AvgNeutralBars: models.Undefined(),
			FromUp:         models.TransitionStats{From: models.TrendUp, ReversalPct: models.Undefined(), ContinuationPct: models.Undefined()},
			FromDown:       models.TransitionStats{From: models.TrendDown, ReversalPct: models.Undefined(), ContinuationPct: models.Undefined()},
		},
	}
}

func TestWriteMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMarkdown(&buf, sampleRun(t), MarkdownOptions{Bars: 2}))
	out := buf.String()
	assert.Contains(t, out, "# Session extremes: NIFTY50")
	assert.Contains(t, out, "| all | 2 | 25.00% | 12.50% | 50.00% | 25.00% |")
	assert.Contains(t, out, "| up/gapup-bull | 0 | n/a | n/a | n/a | n/a |")
	assert.Contains(t, out, "## Day close by trend")
	assert.Contains(t, out, "average length n/a bars")
	assert.Contains(t, out, "| UP | GAP_UP | 2 | 1 | 1 | 0 | 50.00% | 50.00% |")
	assert.Contains(t, out, "## Bars 2-4 by gap")
	assert.Contains(t, out, "| Bull-Bull-Bull | UP | GAP_DOWN | 1 | 1 | 0 | 100.00% | 0.00% |")
	assert.NotContains(t, out, "Bear-Bear-Bear")
}

func TestRenderAndCommit(t *testing.T) {
	b, err := Render(sampleRun(t), Options{Formats: []string{FormatCSV, FormatMarkdown, FormatJSON}, Decimals: 2, TotalsRow: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"dates/all.csv",
		"dates/up/gapup-bull.csv",
		"probability/all.csv",
		"probability/up/gapup-bull.csv",
		"report.md",
		"run.json",
	}, b.Paths())

	dir := t.TempDir()
	out, err := b.Commit(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-1"), out)

	data, err := os.ReadFile(filepath.Join(out, "probability", "all.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_days,2")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = b.Commit(dir)
	assert.Error(t, err)
}

func TestWriteTradePlan(t *testing.T) {
	g := probability.NewGenerator(nil, probability.DefaultGeneratorConfig())
	plan := g.Generate(models.FirstBar{Open: 22100, High: 22180, Low: 22090, Close: 22170}, 22000, 21900, 120)

	var buf bytes.Buffer
	require.NoError(t, WriteTradePlan(&buf, plan))
	out := buf.String()
	assert.Contains(t, out, "First bar  O 22100.00")
	assert.Contains(t, out, "[AGGRESSIVE_FADE]")
	assert.Contains(t, out, "Best:")
}
