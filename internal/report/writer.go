package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"SessionEdge/internal/domain/models"
)

// Format names accepted in Options.Formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Options configures which files a run produces.
type Options struct {
	Dir       string
	Formats   []string
	Decimals  int
	MaxBar    int
	TotalsRow bool
}

func (o Options) has(f string) bool {
	for _, v := range o.Formats {
		if v == f {
			return true
		}
	}
	return false
}

// Bundle is a run's files rendered in memory, keyed by slash-separated path
// relative to the run directory.
type Bundle struct {
	RunID string
	Files map[string][]byte
}

// Paths lists the bundle's files in sorted order.
func (b *Bundle) Paths() []string {
	out := make([]string, 0, len(b.Files))
	for p := range b.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Render builds every file for r without touching disk.
func Render(r *models.RunResult, opts Options) (*Bundle, error) {
	b := &Bundle{RunID: r.ID, Files: map[string][]byte{}}
	if opts.has(FormatCSV) {
		for _, c := range r.Cohorts {
			var buf bytes.Buffer
			total := -1
			if opts.TotalsRow {
				total = c.Days()
			}
			err := WriteProbabilityCSV(&buf, c.Merged, CSVOptions{Decimals: opts.Decimals, MaxBar: opts.MaxBar, TotalDays: total})
			if err != nil {
				return nil, fmt.Errorf("cohort %s: %w", c.Cohort.ID, err)
			}
			b.Files[path.Join("probability", c.Cohort.ID+".csv")] = buf.Bytes()

			var dates bytes.Buffer
			if err := WriteDateList(&dates, c.Cohort.Dates); err != nil {
				return nil, fmt.Errorf("cohort %s dates: %w", c.Cohort.ID, err)
			}
			b.Files[path.Join("dates", c.Cohort.ID+".csv")] = dates.Bytes()
		}
	}
	if opts.has(FormatMarkdown) {
		var buf bytes.Buffer
		if err := WriteMarkdown(&buf, r, MarkdownOptions{}); err != nil {
			return nil, fmt.Errorf("markdown: %w", err)
		}
		b.Files["report.md"] = buf.Bytes()
	}
	if opts.has(FormatJSON) {
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("json: %w", err)
		}
		b.Files["run.json"] = data
	}
	return b, nil
}

// Commit writes the bundle under dir/<run-id>/ and returns that directory.
// Files go to a temporary sibling first, which is renamed into place.
func (b *Bundle) Commit(dir string) (string, error) {
	if b.RunID == "" {
		return "", fmt.Errorf("bundle has no run id")
	}
	final := filepath.Join(dir, b.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.MkdirTemp(dir, "."+b.RunID+"-")
	if err != nil {
		return "", fmt.Errorf("stage output: %w", err)
	}
	for _, rel := range b.Paths() {
		p := filepath.Join(tmp, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			_ = os.RemoveAll(tmp)
			return "", err
		}
		if err := os.WriteFile(p, b.Files[rel], 0o644); err != nil {
			_ = os.RemoveAll(tmp)
			return "", fmt.Errorf("write %s: %w", rel, err)
		}
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.RemoveAll(tmp)
		return "", fmt.Errorf("publish %s: %w", final, err)
	}
	return final, nil
}
