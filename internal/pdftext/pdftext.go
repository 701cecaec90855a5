// Package pdftext extracts the plain text of every page of a PDF.
package pdftext

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Extract reads the PDF at path. A missing file returns an error wrapping fs.ErrNotExist.
func Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return ExtractReader(f, info.Size())
}

// ExtractBytes is ExtractReader over an in-memory document.
func ExtractBytes(content []byte) (string, error) {
	return ExtractReader(bytes.NewReader(content), int64(len(content)))
}

// ExtractReader walks pages 1..N in order and appends each page's text
// followed by a newline. Pages without a content stream contribute an
// empty segment, so image-only documents come back as whitespace.
func ExtractReader(r io.ReaderAt, size int64) (text string, err error) {
	// The pdf package reports some malformed structures by panicking.
	defer func() {
		if rec := recover(); rec != nil {
			text = ""
			err = fmt.Errorf("failed to parse pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	var b strings.Builder
	numPages := reader.NumPage()
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			b.WriteString("\n")
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to extract page %d: %w", pageNum, err)
		}
		b.WriteString(pageText)
		b.WriteString("\n")
	}
	return b.String(), nil
}
