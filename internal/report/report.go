// Package report renders a comparison report as text, HTML, PDF or XLSX.
// Every renderer is a pure function of the report.
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/pdfrender"
)

// Text joins the pair summaries with a blank line.
func Text(r *models.ComparisonReport) string {
	return strings.Join(r.Summaries(), "\n\n")
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Document Comparison Report</title>
<style>
body { font-family: sans-serif; margin: 2em; }
pre { background: #f6f8fa; padding: 1em; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Document Comparison Report</h1>
<h2>Files compared</h2>
<ul>
{{- range .Files}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- if .Warnings}}
<h2>Warnings</h2>
<ul>
{{- range .Warnings}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
<h2>Summary</h2>
<pre>{{.Summary}}</pre>
</body>
</html>
`))

// HTML renders the report as a standalone document. File names and diff
// content are escaped.
func HTML(r *models.ComparisonReport) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Files    []string
		Warnings []models.Warning
		Summary  string
	}{r.Files, r.Warnings, Text(r)}
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", &RenderError{Format: "html", Err: err}
	}
	return buf.String(), nil
}

// PDFRenderer renders the HTML form of a report through a DocumentRenderer.
type PDFRenderer struct {
	Renderer pdfrender.DocumentRenderer
}

// Render returns the PDF bytes. Any failure, including empty output, is a *RenderError.
func (p *PDFRenderer) Render(ctx context.Context, r *models.ComparisonReport) ([]byte, error) {
	if p.Renderer == nil {
		return nil, &RenderError{Format: "pdf", Err: errors.New("no document renderer configured")}
	}
	doc, err := HTML(r)
	if err != nil {
		return nil, err
	}
	out, err := p.Renderer.RenderPDF(ctx, doc)
	if err != nil {
		return nil, &RenderError{Format: "pdf", Err: err}
	}
	if len(out) == 0 {
		return nil, &RenderError{Format: "pdf", Err: fmt.Errorf("renderer returned no output")}
	}
	return out, nil
}
