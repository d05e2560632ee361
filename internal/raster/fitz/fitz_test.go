package fitz

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-pdf/fpdf"
)

func writeTwoPagePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.pdf")
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.AddPage()
	pdf.Cell(40, 10, "first page")
	pdf.AddPage()
	pdf.Cell(40, 10, "second page")
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

func TestRasterizePage(t *testing.T) {
	path := writeTwoPagePDF(t)
	r := New(72)
	img, err := r.RasterizePage(context.Background(), path, 2)
	if err != nil {
		t.Fatalf("RasterizePage: %v", err)
	}
	b := img.Bounds()
	// A4 at 72 DPI is roughly 595x842 points.
	if b.Dx() < 500 || b.Dy() < 800 {
		t.Errorf("unexpected bounds %v", b)
	}
}

func TestRasterizePage_outOfRange(t *testing.T) {
	path := writeTwoPagePDF(t)
	r := New(0)
	if _, err := r.RasterizePage(context.Background(), path, 3); err == nil {
		t.Error("expected error for page beyond document")
	}
	if _, err := r.RasterizePage(context.Background(), path, 0); err == nil {
		t.Error("expected error for page 0")
	}
}

func TestRasterizePage_missingFile(t *testing.T) {
	r := New(0)
	path := filepath.Join(t.TempDir(), "none.pdf")
	_, err := r.RasterizePage(context.Background(), path, 1)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	// callers wrap the error with the path already
	if strings.Contains(err.Error(), path) {
		t.Errorf("error repeats the path: %v", err)
	}
}

func TestNew_defaultDPI(t *testing.T) {
	if New(-1).dpi != DefaultDPI {
		t.Error("non-positive dpi should fall back to DefaultDPI")
	}
}
