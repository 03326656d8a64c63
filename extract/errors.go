package extract

import "errors"

var (
	// ErrUnsupportedFormat indicates content that cannot be turned into text.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrCorruptDocument indicates a recognized format that failed to parse.
	ErrCorruptDocument = errors.New("corrupt document")
)
