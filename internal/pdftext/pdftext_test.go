package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one page per entry. An empty entry
// produces a page without a content stream.
func buildPDF(t *testing.T, pages []string) []byte {
	t.Helper()

	var buf bytes.Buffer
	var offsets []int
	obj := func(body string) int {
		offsets = append(offsets, buf.Len())
		n := len(offsets)
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
		return n
	}

	buf.WriteString("%PDF-1.4\n")

	// Object numbers are fixed up front: 1 catalog, 2 pages, 3 font, then
	// page/content pairs.
	var kids []string
	next := 4
	for _, text := range pages {
		kids = append(kids, fmt.Sprintf("%d 0 R", next))
		next++
		if text != "" {
			next++
		}
	}

	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for _, text := range pages {
		pageNum := len(offsets) + 1
		if text == "" {
			obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> >>")
			continue
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1))
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestExtractConcatenatesPagesInOrder(t *testing.T) {
	content := buildPDF(t, []string{"Statement for Rahul Sharma", "Closing balance 12500"})

	text, err := ExtractBytes(content)
	require.NoError(t, err)

	assert.Equal(t, "Statement for Rahul Sharma\nClosing balance 12500\n", text)
}

func TestExtractFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "statement.pdf")
	require.NoError(t, os.WriteFile(path, buildPDF(t, []string{"Page one"}), 0o644))

	text, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, "Page one\n", text)
}

func TestExtractImageOnlyPagesYieldWhitespace(t *testing.T) {
	content := buildPDF(t, []string{"", ""})

	text, err := ExtractBytes(content)
	require.NoError(t, err)
	assert.Equal(t, "", strings.TrimSpace(text))
	assert.Equal(t, "\n\n", text)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := Extract(filepath.Join(t.TempDir(), "absent.pdf"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestExtractRejectsNonPDF(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", nil},
		{"plain text", []byte("this is not a pdf, just some text that is long enough to be read at the tail of the file....")},
		{"truncated", buildPDF(t, []string{"x"})[:60]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractBytes(tt.content)
			assert.Error(t, err)
			assert.Empty(t, text)
		})
	}
}
