package document

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	// ErrInvalidHeader indicates the file does not start with a PDF signature.
	ErrInvalidHeader = errors.New("document: invalid PDF header")

	// ErrIncomplete indicates the file has a PDF signature but no EOF marker.
	ErrIncomplete = errors.New("document: PDF appears to be incomplete (no EOF marker found)")
)

var pdfHeader = []byte("%PDF-")

// Validate performs a cheap structural check on PDF bytes before the
// heavier text extraction. The header check is strict; the EOF check is
// lenient and scans the last kilobyte, since writers pad differently
// after the marker.
func Validate(content []byte) error {
	if len(content) < len(pdfHeader) || !bytes.HasPrefix(content, pdfHeader) {
		got := content
		if len(got) > len(pdfHeader) {
			got = got[:len(pdfHeader)]
		}
		return fmt.Errorf("%w: got %q instead of %q", ErrInvalidHeader, got, pdfHeader)
	}

	footer := content
	if len(footer) > 1024 {
		footer = footer[len(footer)-1024:]
	}
	if !bytes.Contains(footer, []byte("%%EOF")) && !bytes.Contains(footer, []byte("%%eof")) {
		return ErrIncomplete
	}
	return nil
}
