package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/psantana5/segtime/internal/profile"
)

// CategorySummary is the one-line overview of a category
type CategorySummary struct {
	Label    string  `json:"label" yaml:"label"`
	Used     bool    `json:"used" yaml:"used"`
	Entities int     `json:"entities" yaml:"entities"`
	Keys     int     `json:"keys" yaml:"keys"`
	Slowest  string  `json:"slowest,omitempty" yaml:"slowest,omitempty"`
	Seconds  float64 `json:"seconds" yaml:"seconds"`
}

// Summarize reduces each category to entity count, key count, slowest entity
// and total seconds.
func Summarize(reg *profile.Registry) []CategorySummary {
	cats := reg.Categories()
	out := make([]CategorySummary, 0, len(cats))
	for _, cat := range cats {
		s := CategorySummary{Label: cat.Label(), Used: cat.Used()}

		rows := profile.SortRows(cat.Rows())
		keys := make(map[string]struct{})
		for _, r := range rows {
			s.Seconds += r.Totals.Total
			for _, k := range r.Totals.Keys() {
				keys[k] = struct{}{}
			}
		}
		if len(rows) > 0 {
			s.Slowest = rows[0].Name
		}
		s.Entities = len(rows)
		s.Keys = len(keys)
		out = append(out, s)
	}
	return out
}

// WriteSummary renders the category overview as a table
func WriteSummary(w io.Writer, reg *profile.Registry) error {
	summaries := Summarize(reg)
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No categories registered")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Category", "Entities", "Keys", "Slowest", "Seconds")
	for _, s := range summaries {
		slowest := s.Slowest
		if !s.Used {
			slowest = "(unused)"
		}
		table.Append(
			s.Label,
			fmt.Sprintf("%d", s.Entities),
			fmt.Sprintf("%d", s.Keys),
			slowest,
			fmt.Sprintf("%.3f", s.Seconds),
		)
	}
	return table.Render()
}
