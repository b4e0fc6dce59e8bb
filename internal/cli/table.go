package cli

import (
	"io"
	"strings"
	"unicode/utf8"
)

const columnGap = 2

// Table lays out rows in aligned columns under a dashed header rule.
type Table struct {
	headers   []string
	rows      [][]string
	maxWidths map[int]int // column index -> wrap width, 0 = no limit
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{
		headers:   headers,
		maxWidths: make(map[int]int),
	}
}

// SetColumnMaxWidth wraps cells in column col at width runes.
func (t *Table) SetColumnMaxWidth(col, width int) {
	t.maxWidths[col] = width
}

// FitWidth limits the last column so that rows fit in total runes. Tables
// whose other columns already exceed total are left alone.
func (t *Table) FitWidth(total int) {
	if total <= 0 || len(t.headers) == 0 {
		return
	}
	widths := t.naturalWidths()
	used := 0
	for _, w := range widths[:len(widths)-1] {
		used += w + columnGap
	}
	if remaining := total - used; remaining >= 10 {
		t.maxWidths[len(widths)-1] = remaining
	}
}

// AddRow appends a row, padding or truncating it to the header count.
func (t *Table) AddRow(cells ...string) {
	row := make([]string, len(t.headers))
	copy(row, cells)
	t.rows = append(t.rows, row)
}

// Render returns the formatted table.
func (t *Table) Render() string {
	if len(t.headers) == 0 {
		return ""
	}

	widths := t.naturalWidths()
	for col, limit := range t.maxWidths {
		if limit > 0 && col < len(widths) && widths[col] > limit {
			widths[col] = max(limit, runeLen(t.headers[col]))
		}
	}

	var b strings.Builder
	t.writeLine(&b, t.headers, widths)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	t.writeLine(&b, rule, widths)

	for _, row := range t.rows {
		wrapped := make([][]string, len(row))
		height := 1
		for i, cell := range row {
			wrapped[i] = wrapText(cell, t.maxWidths[i])
			height = max(height, len(wrapped[i]))
		}
		for line := 0; line < height; line++ {
			cells := make([]string, len(row))
			for i := range row {
				if line < len(wrapped[i]) {
					cells[i] = wrapped[i][line]
				}
			}
			t.writeLine(&b, cells, widths)
		}
	}
	return b.String()
}

// WriteTo renders the table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.Render())
	return int64(n), err
}

func (t *Table) naturalWidths() []int {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runeLen(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runeLen(cell))
		}
	}
	return widths
}

func (t *Table) writeLine(b *strings.Builder, cells []string, widths []int) {
	for i, cell := range cells {
		if i == len(cells)-1 {
			// No trailing padding on the last column.
			b.WriteString(cell)
			break
		}
		b.WriteString(padRight(cell, widths[i]+columnGap))
	}
	b.WriteByte('\n')
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	if n := runeLen(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

// wrapText breaks text at word boundaries so no line exceeds width runes.
// Words longer than width are split. A width of 0 disables wrapping.
func wrapText(text string, width int) []string {
	if width <= 0 || runeLen(text) <= width {
		return []string{text}
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		for runeLen(word) > width {
			if current != "" {
				lines = append(lines, current)
				current = ""
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case current == "":
			current = word
		case runeLen(current)+1+runeLen(word) <= width:
			current += " " + word
		default:
			lines = append(lines, current)
			current = word
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{text}
	}
	return lines
}
