package loader

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cloo-solutions/admitbot/internal/domain"
)

// buildPDF writes a minimal PDF with one text line per page. An empty
// string yields a page without a text layer.
func buildPDF(t *testing.T, lines ...string) []byte {
	t.Helper()
	n := len(lines)
	fontObj := 3 + 2*n

	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := range lines {
		kids += fmt.Sprintf("%d 0 R ", 3+2*i)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, n))
	for i, line := range lines {
		content := ""
		if line != "" {
			content = fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", line)
		}
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", fontObj, 4+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestParsePDF(t *testing.T) {
	raw := buildPDF(t, "Hoc phi nam 2024 la 35 trieu dong", "", "Chi tieu nganh KHMT la 180")

	pages, err := Parse(domain.FileTypePDF, raw)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, 1, pages[0].Number)
	assert.Contains(t, pages[0].Text, "35 trieu")
	assert.Equal(t, 3, pages[1].Number)
	assert.Contains(t, pages[1].Text, "180")
}

func TestParsePDF_Invalid(t *testing.T) {
	_, err := Parse(domain.FileTypePDF, []byte("not a pdf at all"))
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)
}

func TestParseExcel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetName("Sheet1", "Điểm chuẩn 2024"))
	sheet := "Điểm chuẩn 2024"
	require.NoError(t, f.SetSheetRow(sheet, "B2", &[]interface{}{"Mã ngành", "Tên ngành", "", "Điểm"}))
	require.NoError(t, f.SetSheetRow(sheet, "B3", &[]interface{}{"7480101", "Khoa học máy tính", "", 27.3}))
	require.NoError(t, f.SetSheetRow(sheet, "B5", &[]interface{}{"7480201", "Công nghệ\nthông tin", "", "26.9"}))
	_, err := f.NewSheet("Trống")
	require.NoError(t, err)
	_, err = f.NewSheet("Học phí")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Học phí", "A1", &[]interface{}{"Chương trình", "Học phí"}))
	require.NoError(t, f.SetSheetRow("Học phí", "A2", &[]interface{}{"Chuẩn", "35 | 40 triệu"}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	pages, err := Parse(domain.FileTypeExcel, buf.Bytes())
	require.NoError(t, err)
	require.Len(t, pages, 2)

	assert.Equal(t, 1, pages[0].Number)
	assert.Equal(t, "## Điểm chuẩn 2024\n\n"+
		"| Mã ngành | Tên ngành | Điểm |\n"+
		"| --- | --- | --- |\n"+
		"| 7480101 | Khoa học máy tính | 27.3 |\n"+
		"| 7480201 | Công nghệ<br>thông tin | 26.9 |", pages[0].Text)

	assert.Equal(t, 3, pages[1].Number)
	assert.Contains(t, pages[1].Text, `| Chuẩn | 35 \| 40 triệu |`)
}

func TestParseExcel_Invalid(t *testing.T) {
	_, err := Parse(domain.FileTypeExcel, []byte("PK not really"))
	var de *domain.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, domain.ErrCodeValidation, de.Code)
}

func TestTrimBlank(t *testing.T) {
	rows := trimBlank([][]string{
		{"", "a", "", "b"},
		{"", "", ""},
		{"", "c"},
	})
	assert.Equal(t, [][]string{{"a", "b"}, {"c", ""}}, rows)
}
