// Package tesseract implements ocr.Recognizer with the Tesseract engine via gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Recognizer runs Tesseract on in-memory images. A fresh client is created
// per call, so a Recognizer is safe for concurrent use.
type Recognizer struct {
	languages     []string
	pageSegMode   int
	dpi           int
	clientFactory func() *gosseract.Client
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLanguages sets the trained data to load (e.g. "eng", "deu").
func WithLanguages(langs ...string) Option {
	return func(r *Recognizer) { r.languages = append([]string(nil), langs...) }
}

// WithPageSegMode sets Tesseract's page segmentation mode. Zero keeps the engine default.
func WithPageSegMode(mode int) Option {
	return func(r *Recognizer) { r.pageSegMode = mode }
}

// WithDPI tells Tesseract the resolution of the images it receives.
func WithDPI(dpi int) Option {
	return func(r *Recognizer) { r.dpi = dpi }
}

// New returns a Tesseract-backed recognizer.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{clientFactory: gosseract.NewClient}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize encodes img as PNG and returns the text Tesseract finds in it.
func (r *Recognizer) Recognize(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode image: %w", err)
	}
	c := r.clientFactory()
	defer c.Close()
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	if len(r.languages) > 0 {
		if err := c.SetLanguage(r.languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if r.pageSegMode > 0 {
		if err := c.SetPageSegMode(gosseract.PageSegMode(r.pageSegMode)); err != nil {
			return "", fmt.Errorf("set page segmentation mode: %w", err)
		}
	}
	if r.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), strconv.Itoa(r.dpi)); err != nil {
			return "", fmt.Errorf("set dpi: %w", err)
		}
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	text = strings.TrimRight(text, " \n\f")
	if text == "" {
		return "", nil
	}
	return text + "\n", nil
}
