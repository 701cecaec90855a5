package dataset

import (
	"strings"
	"unicode/utf8"
)

// renderTable lays out cells with a left-aligned index column and right-aligned
// data columns separated by two spaces.
func renderTable(index, columns []string, cells [][]string) string {
	indexWidth := 0
	for _, s := range index {
		indexWidth = max(indexWidth, width(s))
	}
	widths := make([]int, len(columns))
	for j, c := range columns {
		widths[j] = width(c)
		for _, row := range cells {
			if j < len(row) {
				widths[j] = max(widths[j], width(clean(row[j])))
			}
		}
	}

	var b strings.Builder
	b.WriteString(strings.Repeat(" ", indexWidth))
	for j, c := range columns {
		b.WriteString("  ")
		padLeft(&b, c, widths[j])
	}
	for i, row := range cells {
		b.WriteString("\n")
		b.WriteString(index[i])
		b.WriteString(strings.Repeat(" ", indexWidth-width(index[i])))
		for j := range columns {
			cell := ""
			if j < len(row) {
				cell = clean(row[j])
			}
			b.WriteString("  ")
			padLeft(&b, cell, widths[j])
		}
	}
	return b.String()
}

func padLeft(b *strings.Builder, s string, w int) {
	b.WriteString(strings.Repeat(" ", w-width(s)))
	b.WriteString(s)
}

func width(s string) int { return utf8.RuneCountInString(s) }

// clean keeps every cell on a single line.
func clean(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
