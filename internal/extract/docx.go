package extract

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// defaultDocumentPart is where the main document body lives when
// [Content_Types].xml does not say otherwise.
const defaultDocumentPart = "word/document.xml"

const contentTypesPart = "[Content_Types].xml"

// mainDocumentTypes are the content types of a word processing main part.
var mainDocumentTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml": true,
	"application/vnd.ms-word.document.macroEnabled.main+xml":                          true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.template.main+xml": true,
}

// wordNamespaces are the WordprocessingML namespaces in transitional and
// strict documents. "w" covers parts that use the prefix without declaring it.
var wordNamespaces = map[string]bool{
	"http://schemas.openxmlformats.org/wordprocessingml/2006/main": true,
	"http://purl.oclc.org/ooxml/wordprocessingml/main":             true,
	"w": true,
}

type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

func extractDOCXFile(path string) (string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("not a zip: %w", err)
	}
	defer zr.Close()
	return extractDOCX(&zr.Reader)
}

// extractDOCX returns the document's paragraphs in order, one per line.
func extractDOCX(zr *zip.Reader) (string, error) {
	part := findMainDocumentPart(zr)
	if part == "" {
		part = defaultDocumentPart
	}
	f := findZipFile(zr, part)
	if f == nil {
		return "", fmt.Errorf("%s not found", part)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", part, err)
	}
	defer rc.Close()
	paras, err := readParagraphs(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", part, err)
	}
	return strings.Join(paras, "\n"), nil
}

// findMainDocumentPart returns the main part name from [Content_Types].xml
// without its leading slash, or "" when it is absent or unreadable.
func findMainDocumentPart(zr *zip.Reader) string {
	f := findZipFile(zr, contentTypesPart)
	if f == nil {
		return ""
	}
	rc, err := f.Open()
	if err != nil {
		return ""
	}
	defer rc.Close()
	var ct contentTypes
	if err := xml.NewDecoder(rc).Decode(&ct); err != nil {
		return ""
	}
	for _, o := range ct.Overrides {
		if mainDocumentTypes[o.ContentType] {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return ""
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
	for _, f := range zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// paragraph collects one w:p. Paragraphs nested inside it (text boxes)
// are held back and emitted after it, in document order.
type paragraph struct {
	text   strings.Builder
	nested []string
}

// readParagraphs streams a WordprocessingML part and collects the text of
// each w:p. Inside runs, w:tab becomes a tab and w:br/w:cr a newline.
// Deleted text (w:delText) and field instructions are not text nodes and
// are skipped.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paras  []string
		stack  []*paragraph
		inText bool
		runs   int
	)
	current := func() *strings.Builder {
		if len(stack) == 0 {
			return nil
		}
		return &stack[len(stack)-1].text
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "p":
				stack = append(stack, &paragraph{})
			case "r":
				runs++
			case "t":
				inText = true
			case "tab":
				if b := current(); b != nil && runs > 0 {
					b.WriteByte('\t')
				}
			case "br", "cr":
				if b := current(); b != nil && runs > 0 {
					b.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !wordNamespaces[t.Name.Space] {
				continue
			}
			switch t.Name.Local {
			case "p":
				if len(stack) == 0 {
					continue
				}
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				lines := append([]string{p.text.String()}, p.nested...)
				if len(stack) > 0 {
					parent := stack[len(stack)-1]
					parent.nested = append(parent.nested, lines...)
				} else {
					paras = append(paras, lines...)
				}
			case "r":
				if runs > 0 {
					runs--
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if b := current(); b != nil && inText {
				b.Write(t)
			}
		}
	}
	return paras, nil
}
