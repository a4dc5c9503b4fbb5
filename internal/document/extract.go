package document

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

var (
	// ErrNoPages indicates a structurally valid PDF with an empty page tree.
	ErrNoPages = errors.New("document: PDF has no pages")

	// ErrNoText indicates no extractable text, typically a scanned or
	// image-only PDF.
	ErrNoText = errors.New("document: no text could be extracted; the PDF might be scanned or contain only images")
)

// ExtractText pulls plain text from every page of a PDF. Pages that fail
// to decode are skipped rather than failing the whole file.
func ExtractText(content []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("document: open PDF: %w", err)
	}

	numPages := reader.NumPage()
	if numPages == 0 {
		return "", ErrNoPages
	}

	var sb strings.Builder
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("document: page %d: text extraction failed: %v", i, err)
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	out := sb.String()
	if strings.TrimSpace(out) == "" {
		return "", ErrNoText
	}
	return out, nil
}
