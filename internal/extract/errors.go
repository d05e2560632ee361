package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when a file is not PDF, DOCX or a supported image.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtraction matches every *ExtractionError.
	ErrExtraction = errors.New("extraction failed")
	// ErrNoText is the cause when a document yields only whitespace.
	ErrNoText = errors.New("no text found")
)

// ExtractionError reports a failed extraction of one file.
type ExtractionError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtraction, e.Err}
}

// UnsupportedFormatError reports a file whose detected type has no extractor.
type UnsupportedFormatError struct {
	Path string
	MIME string
}

func (e *UnsupportedFormatError) Error() string {
	if e.MIME == "" {
		return fmt.Sprintf("%s: %s", ErrUnsupportedFormat, e.Path)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrUnsupportedFormat, e.Path, e.MIME)
}

func (e *UnsupportedFormatError) Unwrap() error { return ErrUnsupportedFormat }
