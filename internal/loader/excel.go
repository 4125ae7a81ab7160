package loader

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// parseExcel renders every non-empty sheet as a markdown table, one page
// per sheet. Blank rows and columns are dropped and the first remaining
// row is the header.
func parseExcel(raw []byte) ([]domain.Page, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return nil, invalidSource("xlsx", err)
	}
	defer f.Close()

	var pages []domain.Page
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, invalidSource("xlsx", err)
		}
		table := markdownTable(trimBlank(rows))
		if table == "" {
			continue
		}
		pages = append(pages, domain.Page{Number: i + 1, Text: "## " + sheet + "\n\n" + table})
	}
	return pages, nil
}

// trimBlank removes rows and columns with no non-blank cell and pads the
// rest to a common width.
func trimBlank(rows [][]string) [][]string {
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	used := make([]bool, width)
	var kept [][]string
	for _, row := range rows {
		blank := true
		for j, cell := range row {
			if strings.TrimSpace(cell) != "" {
				used[j] = true
				blank = false
			}
		}
		if !blank {
			kept = append(kept, row)
		}
	}

	out := make([][]string, 0, len(kept))
	for _, row := range kept {
		var cells []string
		for j := 0; j < width; j++ {
			if !used[j] {
				continue
			}
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			cells = append(cells, cell)
		}
		out = append(out, cells)
	}
	return out
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", "<br>", "\n", "<br>")

func markdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(cellEscaper.Replace(strings.TrimSpace(c)))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(rows[0])
	b.WriteString("|")
	for range rows[0] {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows[1:] {
		writeRow(row)
	}
	return strings.TrimRight(b.String(), "\n")
}
