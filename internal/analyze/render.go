package analyze

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxRawThreatRows caps the raw-threat table; the full list is in the
// threats artifact.
const maxRawThreatRows = 20

// Render writes a terminal summary of the report as aligned tables.
func (r *Report) Render(w io.Writer) {
	fmt.Fprintf(w, "Species analyzed: %d\n", r.TotalSpecies)
	fmt.Fprintf(w, "Depth notes present: %d of %d\n", r.WithDepthNotes, r.TotalSpecies)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Depth extraction")
	renderTable(w, []string{"source", "species"}, countRows(sourcePairs(r.DepthSources)))

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Threat categories")
	renderTable(w, []string{"category", "species"}, countRows(r.Categories))

	fmt.Fprintln(w)
	top := r.ThreatCounts
	if len(top) > maxRawThreatRows {
		fmt.Fprintf(w, "Raw threats (top %d of %d)\n", maxRawThreatRows, len(top))
		top = top[:maxRawThreatRows]
	} else {
		fmt.Fprintln(w, "Raw threats")
	}
	renderTable(w, []string{"threat", "count"}, countRows(top))
}

func countRows(counts []ThreatCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []string{c.Threat, strconv.Itoa(c.Count)})
	}
	return rows
}

func sourcePairs(sources []SourceCount) []ThreatCount {
	out := make([]ThreatCount, 0, len(sources))
	for _, sc := range sources {
		out = append(out, ThreatCount{Threat: sc.Source, Count: sc.Species})
	}
	return out
}

// renderTable prints an aligned markdown-style table, padding cells by
// display width so wide characters still line up.
func renderTable(w io.Writer, header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}

	writeRow := func(cells []string) {
		var sb strings.Builder
		sb.WriteString("|")
		for i := range widths {
			content := ""
			if i < len(cells) {
				content = cells[i]
			}
			sb.WriteString(" ")
			sb.WriteString(content)
			if pad := widths[i] - runewidth.StringWidth(content); pad > 0 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			sb.WriteString(" |")
		}
		fmt.Fprintln(w, sb.String())
	}

	writeRow(header)

	var sep strings.Builder
	sep.WriteString("|")
	for i := range widths {
		sep.WriteString(" ")
		sep.WriteString(strings.Repeat("-", widths[i]))
		sep.WriteString(" |")
	}
	fmt.Fprintln(w, sep.String())

	for _, row := range rows {
		writeRow(row)
	}
}
