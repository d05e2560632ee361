package extract

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"

	"github.com/hyperjump/doccompare/internal/models"
)

// pageSource yields the text layer of PDF pages, numbered from 1.
type pageSource interface {
	NumPage() int
	PageText(page int) (string, error)
	Close() error
}

type ledongthucSource struct {
	f *os.File
	r *pdf.Reader
}

func openPDFPages(path string) (src pageSource, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("open PDF: %v", rec)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}
	return &ledongthucSource{f: f, r: r}, nil
}

func (s *ledongthucSource) NumPage() int { return s.r.NumPage() }

// PageText returns the plain text of the page. The parser panics on some
// malformed content streams; those surface as errors.
func (s *ledongthucSource) PageText(page int) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("decode page %d: %v", page, rec)
		}
	}()
	p := s.r.Page(page)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func (s *ledongthucSource) Close() error { return s.f.Close() }

// extractPDF reads every page's text layer in order. A page whose layer is
// blank or unreadable is rasterized and recognized instead; pages that
// still produce nothing are reported as warnings.
func (e *Extractor) extractPDF(ctx context.Context, path string) (string, []models.Warning, error) {
	src, err := e.openPDF(path)
	if err != nil {
		return "", nil, err
	}
	defer src.Close()

	var b strings.Builder
	var warnings []models.Warning
	for i := 1; i <= src.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		text, err := src.PageText(i)
		if err != nil {
			e.logger.Debug("text layer unreadable", zap.String("path", path), zap.Int("page", i), zap.Error(err))
			text = ""
		}
		if strings.TrimSpace(text) == "" {
			if e.recognizer == nil || e.rasterizer == nil {
				warnings = append(warnings, models.Warning{Path: path, Page: i, Message: "page has no text layer and OCR is disabled"})
				continue
			}
			e.logger.Debug("falling back to OCR", zap.String("path", path), zap.Int("page", i))
			text, err = e.recognizePage(ctx, path, i)
			if err != nil {
				return "", nil, err
			}
			if strings.TrimSpace(text) == "" {
				e.logger.Warn("no text recognized on page", zap.String("path", path), zap.Int("page", i))
				warnings = append(warnings, models.Warning{Path: path, Page: i, Message: "no text recognized on scanned page"})
				continue
			}
		}
		b.WriteString(text)
		if !strings.HasSuffix(text, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String(), warnings, nil
}

func (e *Extractor) recognizePage(ctx context.Context, path string, page int) (string, error) {
	img, err := e.rasterizer.RasterizePage(ctx, path, page)
	if err != nil {
		return "", fmt.Errorf("rasterize page %d: %w", page, err)
	}
	text, err := e.recognizer.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("recognize page %d: %w", page, err)
	}
	return text, nil
}
