package profile

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// NameHeader heads the entity column
	NameHeader = "filename"

	minColumnWidth = 7
	maxWholeSecs   = 99
)

// Row is one entity's aggregated line in a report
type Row struct {
	Entity string
	Name   string // display form of Entity
	Totals Totals
}

type column struct {
	name string
	time float64
}

// FormatSeconds renders seconds as a fixed seven character cell.
// Values of 100s or more keep the 99 integer part and are flagged with '>'.
func FormatSeconds(seconds float64) string {
	flag := " "
	if math.Floor(seconds) > maxWholeSecs {
		flag = ">"
	}
	whole := int64(math.Min(maxWholeSecs, math.Floor(seconds)))
	millis := int64(math.Floor(seconds*1000 + 0.5))
	return fmt.Sprintf("%s%02d.%03d", flag, whole, millis%1000)
}

// roundMillis rounds half up to millisecond precision
func roundMillis(seconds float64) float64 {
	return math.Floor(seconds*1000+0.5) / 1000
}

// Columns returns the report columns, largest summed time first.
// The grand total is always a column and sorts ahead of any single key.
func Columns(rows []Row) []string {
	sums := map[string]float64{TotalKey: 0}
	order := []string{TotalKey}
	for _, r := range rows {
		sums[TotalKey] += r.Totals.Total
		for _, k := range r.Totals.keys {
			if k == TotalKey {
				continue
			}
			if _, ok := sums[k]; !ok {
				order = append(order, k)
			}
			sums[k] += r.Totals.seconds[k]
		}
	}

	cols := make([]column, len(order))
	for i, name := range order {
		cols[i] = column{name: name, time: roundMillis(sums[name])}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return cols[i].time > cols[j].time
	})

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	return names
}

// SortRows orders rows by descending grand total, keeping ties in place
func SortRows(rows []Row) []Row {
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return roundMillis(sorted[i].Totals.Total) > roundMillis(sorted[j].Totals.Total)
	})
	return sorted
}

// FormatTable renders rows as a fixed width table titled by label
func FormatTable(label string, rows []Row) string {
	columns := Columns(rows)
	sorted := SortRows(rows)

	// With no rows the name column still fits its header
	nameWidth := 0
	if len(sorted) == 0 {
		nameWidth = utf8.RuneCountInString(NameHeader)
	}
	for _, r := range sorted {
		if n := utf8.RuneCountInString(r.Name); n > nameWidth {
			nameWidth = n
		}
	}
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = max(minColumnWidth, utf8.RuneCountInString(c))
	}

	line := func(first string, cells []string) string {
		parts := make([]string, 0, len(cells)+1)
		parts = append(parts, justify(first, nameWidth))
		for i, c := range cells {
			parts = append(parts, justify(c, widths[i]))
		}
		return strings.Join(parts, " ")
	}

	header := line(NameHeader, columns)
	delimiter := strings.Repeat("-", utf8.RuneCountInString(header))

	lines := []string{label, header, delimiter}
	for _, r := range sorted {
		cells := make([]string, len(columns))
		for i, c := range columns {
			if v, ok := r.Totals.value(c); ok {
				cells[i] = FormatSeconds(v)
			}
		}
		lines = append(lines, line(r.Name, cells))
	}
	lines = append(lines, delimiter)

	return strings.Join(nonEmpty(lines), "\n")
}

// justify pads or truncates s to exactly width runes
func justify(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return string([]rune(s)[:width])
	}
	return s + strings.Repeat(" ", width-n)
}

func nonEmpty(lines []string) []string {
	out := lines[:0:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}
