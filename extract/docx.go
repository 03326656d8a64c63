package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const wordNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

// extractDOCX returns the paragraphs of word/document.xml joined by newlines.
func extractDOCX(data []byte) (Result, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: docx: %w", ErrCorruptDocument, err)
	}
	body, err := archive.Open("word/document.xml")
	if err != nil {
		return Result{}, fmt.Errorf("%w: docx: %w", ErrCorruptDocument, err)
	}
	defer body.Close()

	paragraphs, err := readParagraphs(body)
	if err != nil {
		return Result{}, fmt.Errorf("%w: docx: %w", ErrCorruptDocument, err)
	}
	return Result{Text: strings.Join(paragraphs, "\n"), ContentType: ContentTypeDOCX}, nil
}

// readParagraphs collects the text runs of each w:p element.
func readParagraphs(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	var paragraphs []string
	var current strings.Builder
	depth := 0 // w:p nesting, text boxes can hold paragraphs
	inText := false

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return paragraphs, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				current.WriteByte('\t')
			case "br", "cr":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				current.Write(t)
			}
		}
	}
}
