package probability

import (
	"fmt"

	"SessionEdge/internal/domain/models"
)

// Suffix is the column suffix of an offset.
func Suffix(offset float64) string { return models.OffsetSuffix(offset) }

// Merge joins tables side by side on bar index. Only indices present in every
// table are kept. Suffixes must be distinct.
func Merge(tables ...models.ProbTable) (models.MergedTable, error) {
	m := models.MergedTable{}
	if len(tables) == 0 {
		return m, nil
	}
	byIndex := make([]map[int]models.ProbRow, len(tables))
	seen := map[string]bool{}
	for i, t := range tables {
		sfx := t.Suffix()
		if seen[sfx] {
			return models.MergedTable{}, fmt.Errorf("duplicate suffix %q", sfx)
		}
		seen[sfx] = true
		m.Suffixes = append(m.Suffixes, sfx)
		byIndex[i] = make(map[int]models.ProbRow, len(t.Rows))
		for _, r := range t.Rows {
			byIndex[i][r.BarIndex] = r
		}
	}
	for _, idx := range sortedKeys(byIndex[0]) {
		row := models.MergedRow{BarIndex: idx, Cells: make([]models.ProbRow, len(tables))}
		matched := true
		for i := range tables {
			cell, ok := byIndex[i][idx]
			if !ok {
				matched = false
				break
			}
			row.Cells[i] = cell
		}
		if matched {
			m.Rows = append(m.Rows, row)
		}
	}
	return m, nil
}

// Split recovers one table per suffix from a merged table.
func Split(m models.MergedTable) ([]models.ProbTable, error) {
	out := make([]models.ProbTable, len(m.Suffixes))
	for i, sfx := range m.Suffixes {
		off, err := models.ParseSuffix(sfx)
		if err != nil {
			return nil, err
		}
		out[i] = models.ProbTable{Offset: off, Rows: make([]models.ProbRow, 0, len(m.Rows))}
	}
	for _, r := range m.Rows {
		if len(r.Cells) != len(m.Suffixes) {
			return nil, fmt.Errorf("bar %d: %d cells for %d suffixes", r.BarIndex, len(r.Cells), len(m.Suffixes))
		}
		for i, c := range r.Cells {
			c.BarIndex = r.BarIndex
			out[i].Rows = append(out[i].Rows, c)
		}
	}
	return out, nil
}
