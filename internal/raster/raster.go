// Package raster defines how a single PDF page is turned into an image for
// recognition. The MuPDF-backed implementation lives in raster/fitz.
package raster

import (
	"context"
	"image"
)

// Rasterizer renders one page (1-based) of the PDF at path.
type Rasterizer interface {
	RasterizePage(ctx context.Context, path string, page int) (image.Image, error)
}

// RasterizerFunc adapts a function to the Rasterizer interface.
type RasterizerFunc func(ctx context.Context, path string, page int) (image.Image, error)

// RasterizePage calls f(ctx, path, page).
func (f RasterizerFunc) RasterizePage(ctx context.Context, path string, page int) (image.Image, error) {
	return f(ctx, path, page)
}
