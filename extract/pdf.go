package extract

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ledongthuc/pdf"
)

// extractPDF returns the plain text of every page in order.
func extractPDF(data []byte) (res Result, err error) {
	// The parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("%w: pdf: %v", ErrCorruptDocument, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: pdf: %w", ErrCorruptDocument, err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return Result{}, fmt.Errorf("%w: pdf text: %w", ErrCorruptDocument, err)
	}
	text, err := io.ReadAll(plain)
	if err != nil {
		return Result{}, fmt.Errorf("%w: pdf text: %w", ErrCorruptDocument, err)
	}
	return Result{Text: normalizeNewlines(string(text)), ContentType: ContentTypePDF}, nil
}
