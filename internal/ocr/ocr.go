// Package ocr defines the recognition boundary used when a document has no
// machine-readable text. Engines live in subpackages (see ocr/tesseract) so
// callers and tests can depend on the interface alone.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrDisabled is returned when recognition is needed but no engine is configured.
var ErrDisabled = errors.New("ocr disabled")

// Recognizer turns a raster image into text. Results are best effort: an
// empty string is a valid answer and accuracy is not guaranteed.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// RecognizerFunc adapts a function to the Recognizer interface.
type RecognizerFunc func(ctx context.Context, img image.Image) (string, error)

// Recognize calls f(ctx, img).
func (f RecognizerFunc) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

// WithTimeout bounds every Recognize call on r by d. The call returns as soon
// as the deadline passes even if the engine itself does not observe ctx.
// A non-positive d returns r unchanged.
func WithTimeout(r Recognizer, d time.Duration) Recognizer {
	if d <= 0 {
		return r
	}
	return &timeoutRecognizer{next: r, timeout: d}
}

type timeoutRecognizer struct {
	next    Recognizer
	timeout time.Duration
}

type recognizeResult struct {
	text string
	err  error
}

func (t *timeoutRecognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	ch := make(chan recognizeResult, 1)
	go func() {
		text, err := t.next.Recognize(ctx, img)
		ch <- recognizeResult{text: text, err: err}
	}()
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("recognize: %w", ctx.Err())
	case res := <-ch:
		return res.text, res.err
	}
}
