package pdfrender

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Native renders a small HTML subset with fpdf. The Go fonts are embedded
// as UTF-8 fonts, so any text they have glyphs for survives.
type Native struct {
	PageSize string
}

const (
	marginMM   = 15.0
	bodyLineMM = 5.5
	preLineMM  = 4.2
	tabWidth   = 4

	bodyFont = "go"
	monoFont = "gomono"
)

type nativeDoc struct {
	pdf *fpdf.Fpdf
}

func (n *Native) RenderPDF(ctx context.Context, doc string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	pageSize := n.PageSize
	if pageSize == "" {
		pageSize = "A4"
	}
	pdf := fpdf.New("P", "mm", pageSize, "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.AddUTF8FontFromBytes(bodyFont, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(bodyFont, "B", gobold.TTF)
	pdf.AddUTF8FontFromBytes(monoFont, "", gomono.TTF)
	if title := findTitle(root); title != "" {
		pdf.SetTitle(title, true)
	}
	pdf.AddPage()

	d := &nativeDoc{pdf: pdf}
	if body := findElement(root, atom.Body); body != nil {
		d.walk(body)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *nativeDoc) walk(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := collapseSpace(c.Data); text != "" {
				d.paragraph(text)
			}
		case html.ElementNode:
			d.element(c)
		}
	}
}

func (d *nativeDoc) element(n *html.Node) {
	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Head:
	case atom.H1:
		d.heading(textContent(n), 16)
	case atom.H2:
		d.heading(textContent(n), 13)
	case atom.H3, atom.H4, atom.H5, atom.H6:
		d.heading(textContent(n), 11)
	case atom.P:
		d.paragraph(collapseSpace(textContent(n)))
	case atom.Li:
		d.paragraph("- " + collapseSpace(textContent(n)))
	case atom.Pre:
		d.preformatted(textContent(n))
	case atom.Br:
		d.pdf.Ln(bodyLineMM)
	default:
		d.walk(n)
	}
}

func (d *nativeDoc) heading(text string, size float64) {
	text = collapseSpace(text)
	if text == "" {
		return
	}
	d.pdf.SetFont(bodyFont, "B", size)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(0, size*0.5, text, "", "L", false)
	d.pdf.Ln(2)
}

func (d *nativeDoc) paragraph(text string) {
	if text == "" {
		return
	}
	d.pdf.SetFont(bodyFont, "", 10)
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.MultiCell(0, bodyLineMM, text, "", "L", false)
	d.pdf.Ln(1)
}

// preformatted keeps line breaks and colors diff lines by their prefix.
func (d *nativeDoc) preformatted(text string) {
	d.pdf.SetFont(monoFont, "", 9)
	for _, line := range strings.Split(strings.TrimSuffix(text, "\n"), "\n") {
		line = strings.ReplaceAll(line, "\t", strings.Repeat(" ", tabWidth))
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"), strings.HasPrefix(line, "@@"):
			d.pdf.SetTextColor(90, 90, 90)
		case strings.HasPrefix(line, "+"):
			d.pdf.SetTextColor(0, 110, 0)
		case strings.HasPrefix(line, "-"):
			d.pdf.SetTextColor(170, 0, 0)
		default:
			d.pdf.SetTextColor(0, 0, 0)
		}
		if line == "" {
			d.pdf.Ln(preLineMM)
			continue
		}
		d.pdf.MultiCell(0, preLineMM, line, "", "L", false)
	}
	d.pdf.SetTextColor(0, 0, 0)
	d.pdf.Ln(2)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(root *html.Node) string {
	if t := findElement(root, atom.Title); t != nil {
		return collapseSpace(textContent(t))
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
