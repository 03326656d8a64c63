package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// extractText decodes data as UTF-8. A leading byte order mark is removed,
// and UTF-16 content marked with a BOM is transcoded. Anything else that is
// not valid UTF-8 is read as Windows-1252.
func extractText(data []byte) (Result, error) {
	var decoder transform.Transformer = charmap.Windows1252.NewDecoder()
	if utf8.Valid(data) || hasUTF16BOM(data) {
		decoder = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	}
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), decoder))
	if err != nil {
		return Result{}, fmt.Errorf("%w: decode text: %w", ErrCorruptDocument, err)
	}
	return Result{
		Text:        normalizeNewlines(string(decoded)),
		ContentType: ContentTypeText,
	}, nil
}

func hasUTF16BOM(data []byte) bool {
	return bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF})
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
