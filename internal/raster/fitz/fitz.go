// Package fitz rasterizes PDF pages with MuPDF through go-fitz.
package fitz

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"
)

// DefaultDPI is the render resolution used when none is configured.
const DefaultDPI = 300

// Rasterizer renders PDF pages to RGBA images.
type Rasterizer struct {
	dpi float64
}

// New returns a Rasterizer rendering at dpi; non-positive values use DefaultDPI.
func New(dpi float64) *Rasterizer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &Rasterizer{dpi: dpi}
}

// RasterizePage opens path and renders the 1-based page.
func (r *Rasterizer) RasterizePage(ctx context.Context, path string, page int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()
	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range (document has %d)", page, doc.NumPage())
	}
	img, err := doc.ImageDPI(page-1, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", page, err)
	}
	return img, nil
}
