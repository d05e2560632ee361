package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Format is the closed set of document kinds the extractors understand.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPDF
	FormatDOCX
	FormatImage
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatImage:
		return "image"
	default:
		return "unsupported"
	}
}

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// imageMIMEs lists the raster types that have a registered image decoder.
var imageMIMEs = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

// Detect classifies the file at path by sniffing its content. Files whose
// type is not one of PDF, DOCX or a decodable image yield FormatUnsupported
// and an *UnsupportedFormatError.
func Detect(path string) (Format, error) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return FormatUnsupported, fmt.Errorf("detect format of %s: %w", path, err)
	}
	format := classify(mt, strings.ToLower(filepath.Ext(path)))
	if format == FormatUnsupported {
		return FormatUnsupported, &UnsupportedFormatError{Path: path, MIME: mt.String()}
	}
	return format, nil
}

// classify walks from the detected type up through its parents. A plain zip
// container only counts as DOCX when the file name says so.
func classify(mt *mimetype.MIME, ext string) Format {
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return FormatPDF
		case m.Is(docxMIME):
			return FormatDOCX
		case m.Is("application/zip"):
			if ext == ".docx" {
				return FormatDOCX
			}
			return FormatUnsupported
		}
		for _, img := range imageMIMEs {
			if m.Is(img) {
				return FormatImage
			}
		}
	}
	return FormatUnsupported
}
