// Package pdfrender converts HTML documents to PDF.
package pdfrender

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DocumentRenderer converts an HTML document to PDF bytes.
type DocumentRenderer interface {
	RenderPDF(ctx context.Context, html string) ([]byte, error)
}

// Engine names a DocumentRenderer implementation.
type Engine string

const (
	// EngineNative lays out the HTML with fpdf in-process. Only headings,
	// paragraphs, lists and preformatted text are supported.
	EngineNative Engine = "native"
	// EngineWkhtmltopdf pipes the HTML through the wkhtmltopdf binary.
	EngineWkhtmltopdf Engine = "wkhtmltopdf"
)

// Options are shared by all engines; each uses what applies to it.
type Options struct {
	WkhtmltopdfPath string
	PageSize        string
	Timeout         time.Duration
}

// New creates a renderer for engine. Supported engines: "native" (default), "wkhtmltopdf".
func New(engine string, opts Options) (DocumentRenderer, error) {
	switch Engine(engine) {
	case EngineNative, "":
		return &Native{PageSize: opts.PageSize}, nil
	case EngineWkhtmltopdf:
		return &Wkhtmltopdf{Path: opts.WkhtmltopdfPath, PageSize: opts.PageSize, Timeout: opts.Timeout}, nil
	default:
		return nil, fmt.Errorf("unknown pdf engine: %s (supported: native, wkhtmltopdf)", engine)
	}
}

// IsWkhtmltopdfAvailable reports whether the binary at path (or on PATH) can be found.
func IsWkhtmltopdfAvailable(path string) bool {
	if path == "" {
		path = defaultWkhtmltopdf
	}
	_, err := exec.LookPath(path)
	return err == nil
}
