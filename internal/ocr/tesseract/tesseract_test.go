package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func renderText(text string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 240, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(text)
	return img
}

func TestRecognizer_Recognize(t *testing.T) {
	ensureTesseractAvailable(t)

	r := New(WithLanguages("eng"), WithPageSegMode(7), WithDPI(300))
	got, err := r.Recognize(context.Background(), renderText("Hello PDF"))
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if !strings.Contains(strings.ToLower(got), "hello") {
		t.Errorf("expected recognized text to contain hello, got %q", got)
	}
}

func TestRecognizer_cancelledContext(t *testing.T) {
	r := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Recognize(ctx, renderText("x")); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestOptions(t *testing.T) {
	r := New(WithLanguages("eng", "deu"), WithPageSegMode(6), WithDPI(150))
	if len(r.languages) != 2 || r.languages[1] != "deu" {
		t.Errorf("languages = %v", r.languages)
	}
	if r.pageSegMode != 6 || r.dpi != 150 {
		t.Errorf("psm=%d dpi=%d", r.pageSegMode, r.dpi)
	}
}
