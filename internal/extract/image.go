package extract

import (
	"context"
	"fmt"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/hyperjump/doccompare/internal/ocr"
)

// extractImage decodes the image at path and hands it to the recognizer as a whole.
func (e *Extractor) extractImage(ctx context.Context, path string) (string, error) {
	if e.recognizer == nil {
		return "", ocr.ErrDisabled
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}
	text, err := e.recognizer.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}
	return text, nil
}
