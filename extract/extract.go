package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Content types produced by Extract.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Result is the text extracted from a file.
type Result struct {
	Text        string
	ContentType string
}

// textExtensions are always decoded as text, whatever the sniffer says.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true, ".tsv": true,
	".json": true, ".xml": true, ".html": true, ".htm": true, ".yaml": true,
	".yml": true, ".log": true, ".rst": true,
}

// Extract returns the text content of data. The filename extension picks
// the format when it is known; otherwise the content is sniffed.
func Extract(filename string, data []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return extractPDF(data)
	case ext == ".docx":
		return extractDOCX(data)
	case textExtensions[ext]:
		return extractText(data)
	}
	return sniff(filename, data)
}

func sniff(filename string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{ContentType: ContentTypeText}, nil
	}
	detected := mimetype.Detect(data)
	switch {
	case detected.Is(ContentTypePDF):
		return extractPDF(data)
	case detected.Is(ContentTypeDOCX):
		return extractDOCX(data)
	case isText(detected):
		return extractText(data)
	}
	return Result{}, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, filename, detected.String())
}

// isText reports whether m or one of its parents is text/plain.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
