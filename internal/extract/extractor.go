// Package extract turns PDF, DOCX and image files into plain text.
// PDF pages without a text layer, and images, go through an ocr.Recognizer.
package extract

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/ocr"
	"github.com/hyperjump/doccompare/internal/raster"
)

// Document is the text extracted from one file.
type Document struct {
	Path     string
	Format   Format
	Text     string
	Warnings []models.Warning
}

// Extractor dispatches a file to the extractor for its detected format.
type Extractor struct {
	recognizer ocr.Recognizer
	rasterizer raster.Rasterizer
	logger     *zap.Logger
	ocrProfile string
	openPDF    func(path string) (pageSource, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRecognizer sets the recognizer used for images and scanned PDF pages.
// Without one, images fail with ocr.ErrDisabled and scanned pages are skipped.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(e *Extractor) { e.recognizer = r }
}

// WithRasterizer sets how PDF pages are rendered for recognition.
func WithRasterizer(r raster.Rasterizer) Option {
	return func(e *Extractor) { e.rasterizer = r }
}

// WithOCRProfile records the recognizer settings (languages, page
// segmentation, resolution) so they become part of Fingerprint.
func WithOCRProfile(profile string) Option {
	return func(e *Extractor) { e.ocrProfile = profile }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExtractor returns an Extractor configured by opts.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		logger:  zap.NewNop(),
		openPDF: openPDFPages,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fingerprint identifies the settings that change the text a file yields.
// Text extracted under one fingerprint is not valid for another.
func (e *Extractor) Fingerprint() string {
	switch {
	case e.recognizer == nil:
		return "ocr=off"
	case e.rasterizer == nil:
		return "ocr=images" + profileSuffix(e.ocrProfile)
	default:
		return "ocr=on" + profileSuffix(e.ocrProfile)
	}
}

func profileSuffix(profile string) string {
	if profile == "" {
		return ""
	}
	return "|" + profile
}

// Extract detects the format of path and extracts its text. The result is
// never empty: a document without text fails with ErrNoText.
func (e *Extractor) Extract(ctx context.Context, path string) (*Document, error) {
	format, err := Detect(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	doc := &Document{Path: path, Format: format}
	switch format {
	case FormatPDF:
		doc.Text, doc.Warnings, err = e.extractPDF(ctx, path)
	case FormatDOCX:
		doc.Text, err = extractDOCXFile(path)
	case FormatImage:
		doc.Text, err = e.extractImage(ctx, path)
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
	if err != nil {
		return nil, &ExtractionError{Path: path, Format: format, Err: err}
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, &ExtractionError{Path: path, Format: format, Err: ErrNoText}
	}
	e.logger.Debug("extracted text",
		zap.String("path", path),
		zap.Stringer("format", format),
		zap.Int("bytes", len(doc.Text)),
		zap.Int("warnings", len(doc.Warnings)),
		zap.Duration("elapsed", time.Since(start)))
	return doc, nil
}
