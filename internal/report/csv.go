package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"SessionEdge/internal/domain/models"
)

const (
	barIndexColumn  = "bar_index"
	totalDaysColumn = "total_days"
)

var probColumns = []string{"prob_high_set_", "prob_low_set_", "prob_either_set_"}

// CSVOptions controls probability table rendering.
type CSVOptions struct {
	// Decimals rounds each probability; negative writes full precision.
	Decimals int
	// MaxBar keeps rows with bar_index <= MaxBar; zero keeps all.
	MaxBar int
	// TotalDays, when >= 0, is written as a trailing "total_days,<n>" row.
	TotalDays int
}

// FormatRatio renders r for a CSV cell, rounding half to even. Undefined
// values are empty.
func FormatRatio(r models.Ratio, decimals int) string {
	if !r.Defined() {
		return ""
	}
	if decimals < 0 {
		return strconv.FormatFloat(r.Float(), 'f', -1, 64)
	}
	return decimal.NewFromFloat(r.Float()).RoundBank(int32(decimals)).String()
}

// WriteProbabilityCSV writes a merged table as bar_index plus three columns per suffix.
func WriteProbabilityCSV(w io.Writer, m models.MergedTable, opts CSVOptions) error {
	cw := csv.NewWriter(w)
	header := []string{barIndexColumn}
	for _, sfx := range m.Suffixes {
		for _, p := range probColumns {
			header = append(header, p+sfx)
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, row := range m.Limit(opts.MaxBar).Rows {
		rec = rec[:0]
		rec = append(rec, strconv.Itoa(row.BarIndex))
		for _, c := range row.Cells {
			rec = append(rec,
				FormatRatio(c.ProbHigh, opts.Decimals),
				FormatRatio(c.ProbLow, opts.Decimals),
				FormatRatio(c.ProbEither, opts.Decimals),
			)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	if opts.TotalDays >= 0 {
		tail := append([]string{totalDaysColumn, strconv.Itoa(opts.TotalDays)}, make([]string, max(0, len(header)-2))...)
		if err := cw.Write(tail); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadProbabilityCSV parses a file written by WriteProbabilityCSV. Counts are
// not stored in the file, so only the probabilities come back. A total_days
// row is skipped.
func ReadProbabilityCSV(r io.Reader) (models.MergedTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return models.MergedTable{}, fmt.Errorf("read header: %w", err)
	}
	suffixes, err := parseProbHeader(header)
	if err != nil {
		return models.MergedTable{}, err
	}

	out := models.MergedTable{Suffixes: suffixes}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return models.MergedTable{}, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 || rec[0] == totalDaysColumn {
			continue
		}
		idx, err := strconv.Atoi(rec[0])
		if err != nil {
			return models.MergedTable{}, fmt.Errorf("line %d: bar_index: %w", line, err)
		}
		row := models.MergedRow{BarIndex: idx, Cells: make([]models.ProbRow, len(suffixes))}
		for i := range suffixes {
			cell := models.ProbRow{BarIndex: idx}
			for j, dst := range []*models.Ratio{&cell.ProbHigh, &cell.ProbLow, &cell.ProbEither} {
				col := 1 + i*len(probColumns) + j
				v, err := parseRatio(rec, col)
				if err != nil {
					return models.MergedTable{}, fmt.Errorf("line %d: %s: %w", line, header[col], err)
				}
				*dst = v
			}
			row.Cells[i] = cell
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func parseProbHeader(header []string) ([]string, error) {
	if len(header) == 0 || header[0] != barIndexColumn {
		return nil, fmt.Errorf("first column must be %s", barIndexColumn)
	}
	cols := header[1:]
	if len(cols)%len(probColumns) != 0 {
		return nil, fmt.Errorf("expected %d columns per suffix, got %d columns", len(probColumns), len(cols))
	}
	var suffixes []string
	for i := 0; i < len(cols); i += len(probColumns) {
		sfx := strings.TrimPrefix(cols[i], probColumns[0])
		for j, p := range probColumns {
			if cols[i+j] != p+sfx {
				return nil, fmt.Errorf("unexpected column %q", cols[i+j])
			}
		}
		if _, err := models.ParseSuffix(sfx); err != nil {
			return nil, err
		}
		suffixes = append(suffixes, sfx)
	}
	return suffixes, nil
}

func parseRatio(rec []string, col int) (models.Ratio, error) {
	if col >= len(rec) || strings.TrimSpace(rec[col]) == "" {
		return models.Undefined(), nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(rec[col]), 64)
	if err != nil {
		return 0, err
	}
	return models.Ratio(f), nil
}

// WriteDateList writes a single "date" column.
func WriteDateList(w io.Writer, dates []models.SessionDate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date"}); err != nil {
		return err
	}
	for _, d := range dates {
		if err := cw.Write([]string{string(d)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
