package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultWkhtmltopdf = "wkhtmltopdf"

// Wkhtmltopdf renders with the external wkhtmltopdf tool, reading HTML on
// stdin and PDF from stdout.
type Wkhtmltopdf struct {
	// Path to the binary; "wkhtmltopdf" from PATH when empty.
	Path string
	// PageSize such as "A4" or "Letter"; A4 when empty.
	PageSize string
	// Timeout bounds a single conversion. Zero means no limit beyond ctx.
	Timeout time.Duration
}

func (w *Wkhtmltopdf) RenderPDF(ctx context.Context, html string) ([]byte, error) {
	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}
	bin := w.Path
	if bin == "" {
		bin = defaultWkhtmltopdf
	}
	pageSize := w.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}

	cmd := exec.CommandContext(ctx, bin, "--quiet", "--encoding", "utf-8", "--page-size", pageSize, "-", "-")
	cmd.Stdin = strings.NewReader(html)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("wkhtmltopdf: %w", ctxErr)
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("wkhtmltopdf: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("wkhtmltopdf: %w", err)
	}
	if !bytes.HasPrefix(stdout.Bytes(), []byte("%PDF")) {
		return nil, errors.New("wkhtmltopdf: output is not a PDF")
	}
	return stdout.Bytes(), nil
}
