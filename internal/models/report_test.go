package models

import (
	"strings"
	"testing"

	"github.com/hyperjump/doccompare/internal/diff"
)

func TestPairResult_Summary_equal(t *testing.T) {
	p := PairResult{FileA: "a.pdf", FileB: "b.docx", Diff: diff.Lines("x\ny", "x\ny")}
	if got := p.Summary(); got != "No differences between a.pdf and b.docx" {
		t.Errorf("got %q", got)
	}
}

func TestPairResult_Summary_diff(t *testing.T) {
	d := diff.Compute("a\nb", "a\nc", diff.Options{FromFile: "a.pdf", ToFile: "b.pdf", Context: diff.DefaultContext})
	p := PairResult{FileA: "a.pdf", FileB: "b.pdf", Diff: d}
	got := p.Summary()
	if !strings.HasPrefix(got, "Differences between a.pdf and b.pdf:\n--- a.pdf\n+++ b.pdf\n") {
		t.Errorf("unexpected header: %q", got)
	}
	if !strings.Contains(got, "\n-b\n+c") {
		t.Errorf("missing changed lines: %q", got)
	}
	if strings.HasSuffix(got, "\n") {
		t.Error("summary should not end with a newline")
	}
}

func TestComparisonReport_HasDifferences(t *testing.T) {
	r := &ComparisonReport{Pairs: []PairResult{
		{FileA: "a", FileB: "b", Diff: diff.Lines("x", "x")},
	}}
	if r.HasDifferences() {
		t.Error("identical pair reported as different")
	}
	r.Pairs = append(r.Pairs, PairResult{FileA: "b", FileB: "c", Diff: diff.Lines("x", "y")})
	if !r.HasDifferences() {
		t.Error("expected differences")
	}
	if n := len(r.Summaries()); n != 2 {
		t.Errorf("Summaries() len = %d, want 2", n)
	}
}

func TestWarning_String(t *testing.T) {
	w := Warning{Path: "scan.pdf", Page: 2, Message: "no text recognized"}
	if got := w.String(); got != "scan.pdf (page 2): no text recognized" {
		t.Errorf("got %q", got)
	}
	w.Page = 0
	if got := w.String(); got != "scan.pdf: no text recognized" {
		t.Errorf("got %q", got)
	}
}
