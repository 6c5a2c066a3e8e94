package extract

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMinimalPDF builds the smallest valid single- or multi-page PDF that
// ledongthuc/pdf can parse, with a Helvetica text run per page. Hand-rolled
// because no PDF-authoring tool is available in this environment.
func writeMinimalPDF(t *testing.T, path string, pageTexts []string) {
	t.Helper()

	var buf bytes.Buffer
	offsets := []int{}

	writeObj := func(n int, body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	buf.WriteString("%PDF-1.4\n")

	numPages := len(pageTexts)
	kids := ""
	for i := 0; i < numPages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i*2)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, numPages))

	nextObj := 3
	fontObjNum := 3 + numPages*2
	for _, text := range pageTexts {
		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		pageObj := nextObj
		contentObj := nextObj + 1
		writeObj(pageObj, fmt.Sprintf(
			"<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 %d 0 R >> >> /MediaBox [0 0 612 792] /Contents %d 0 R >>",
			fontObjNum, contentObj))
		writeObj(contentObj, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
		nextObj += 2
	}
	writeObj(fontObjNum, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	xrefStart := buf.Len()
	totalObjs := len(offsets) + 1
	fmt.Fprintf(&buf, "xref\n0 %d\n", totalObjs)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", totalObjs, xrefStart)

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractPDF_OnePagePerUnit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.pdf")
	writeMinimalPDF(t, path, []string{"Hello World", "Second Page"})

	units, err := extractPDF(path)
	require.NoError(t, err)
	require.Len(t, units, 2)
	assert.Equal(t, KindPage, units[0].Kind)
	assert.Equal(t, 1, units[0].Page)
	assert.Equal(t, 2, units[1].Page)
}

func TestExtractPDF_NoExtractableTextErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.pdf")
	writeMinimalPDF(t, path, []string{""})

	_, err := extractPDF(path)
	assert.Error(t, err)
}
