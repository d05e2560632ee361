package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/ledongthuc/pdf"
)

const sampleHTML = `<!DOCTYPE html>
<html><head><title>Comparison</title><style>pre{color:red}</style></head>
<body>
<h1>Document comparison</h1>
<h2>Files</h2>
<ul><li>a.pdf</li><li>b.docx</li></ul>
<pre>Differences between a.pdf and b.docx:
--- a.pdf
+++ b.docx
@@ -1,2 +1,2 @@
 same line
-old &lt;value&gt;
+new	value
</pre>
</body></html>`

func TestNew(t *testing.T) {
	tests := []struct {
		engine  string
		want    any
		wantErr bool
	}{
		{"", &Native{}, false},
		{"native", &Native{}, false},
		{"wkhtmltopdf", &Wkhtmltopdf{}, false},
		{"chrome", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			r, err := New(tt.engine, Options{PageSize: "Letter"})
			if (err != nil) != tt.wantErr {
				t.Fatalf("New(%q) error = %v", tt.engine, err)
			}
			if tt.wantErr {
				return
			}
			switch tt.want.(type) {
			case *Native:
				if n, ok := r.(*Native); !ok || n.PageSize != "Letter" {
					t.Errorf("got %#v", r)
				}
			case *Wkhtmltopdf:
				if _, ok := r.(*Wkhtmltopdf); !ok {
					t.Errorf("got %#v", r)
				}
			}
		})
	}
}

func TestNative_RenderPDF(t *testing.T) {
	out, err := (&Native{}).RenderPDF(context.Background(), sampleHTML)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output is not a PDF: %q", out[:min(len(out), 16)])
	}

	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if r.NumPage() != 1 {
		t.Errorf("pages = %d, want 1", r.NumPage())
	}
	text, err := r.Page(1).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	for _, want := range []string{"Document comparison", "old <value>", "same line"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q: %q", want, text)
		}
	}
}

func TestNative_nonLatinText(t *testing.T) {
	doc := "<html><body><h1>Сравнение</h1><pre>-Привет мир\n+Καλημέρα κόσμε</pre></body></html>"
	out, err := (&Native{}).RenderPDF(context.Background(), doc)
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	r, err := pdf.NewReader(bytes.NewReader(out), int64(len(out)))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	text, err := r.Page(1).GetPlainText(nil)
	if err != nil {
		t.Fatalf("GetPlainText: %v", err)
	}
	for _, want := range []string{"Сравнение", "Привет мир", "Καλημέρα κόσμε"} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered text missing %q: %q", want, text)
		}
	}
}

func TestNative_unknownPageSize(t *testing.T) {
	if _, err := (&Native{PageSize: "B17"}).RenderPDF(context.Background(), sampleHTML); err == nil {
		t.Error("expected error for unknown page size")
	}
}

func TestNative_cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Native{}).RenderPDF(ctx, sampleHTML); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// fakeTool writes an executable shell script standing in for wkhtmltopdf.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "wkhtmltopdf")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWkhtmltopdf_success(t *testing.T) {
	// Echo stdin back after a PDF header so the test can see what was sent.
	tool := fakeTool(t, `printf '%%PDF-1.4\n'; cat`)
	w := &Wkhtmltopdf{Path: tool, PageSize: "Letter"}
	out, err := w.RenderPDF(context.Background(), "<p>hello</p>")
	if err != nil {
		t.Fatalf("RenderPDF: %v", err)
	}
	if string(out) != "%PDF-1.4\n<p>hello</p>" {
		t.Errorf("got %q", out)
	}
}

func TestWkhtmltopdf_failure(t *testing.T) {
	tool := fakeTool(t, `cat >/dev/null; echo "Exit with code 1 due to network error" >&2; exit 1`)
	_, err := (&Wkhtmltopdf{Path: tool}).RenderPDF(context.Background(), "<p>x</p>")
	if err == nil || !strings.Contains(err.Error(), "network error") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestWkhtmltopdf_notPDF(t *testing.T) {
	tool := fakeTool(t, `cat >/dev/null; echo garbage`)
	if _, err := (&Wkhtmltopdf{Path: tool}).RenderPDF(context.Background(), "<p>x</p>"); err == nil {
		t.Error("expected error for non-PDF output")
	}
}

func TestWkhtmltopdf_timeout(t *testing.T) {
	tool := fakeTool(t, `exec sleep 5`)
	w := &Wkhtmltopdf{Path: tool, Timeout: 50 * time.Millisecond}
	start := time.Now()
	_, err := w.RenderPDF(context.Background(), "<p>x</p>")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not stop the process")
	}
}

func TestWkhtmltopdf_missingBinary(t *testing.T) {
	w := &Wkhtmltopdf{Path: filepath.Join(t.TempDir(), "no-such-tool")}
	if _, err := w.RenderPDF(context.Background(), "<p>x</p>"); err == nil {
		t.Error("expected error for missing binary")
	}
	if IsWkhtmltopdfAvailable(w.Path) {
		t.Error("missing binary reported as available")
	}
}
