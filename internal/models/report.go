// Package models defines the data structures shared by extraction, comparison and reporting.
package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/doccompare/internal/diff"
)

// Warning records a non-fatal extraction problem, such as a scanned page
// from which recognition produced no text.
type Warning struct {
	Path    string `json:"path"`
	Page    int    `json:"page,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Page > 0 {
		return fmt.Sprintf("%s (page %d): %s", w.Path, w.Page, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Path, w.Message)
}

// PairResult is the comparison of two adjacent input files.
type PairResult struct {
	FileA string       `json:"file_a"`
	FileB string       `json:"file_b"`
	Diff  *diff.Result `json:"diff"`
}

// Summary renders the pair as either a "no differences" line or a labeled
// unified diff block.
func (p PairResult) Summary() string {
	if p.Diff.Equal() {
		return fmt.Sprintf("No differences between %s and %s", p.FileA, p.FileB)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Differences between %s and %s:\n", p.FileA, p.FileB)
	if p.Diff != nil {
		b.WriteString(strings.TrimRight(p.Diff.Unified, "\n"))
	}
	return b.String()
}

// ComparisonReport holds one PairResult per adjacent pair of Files, in input order.
type ComparisonReport struct {
	ID        string       `json:"id"`
	Files     []string     `json:"files"`
	Pairs     []PairResult `json:"pairs"`
	Warnings  []Warning    `json:"warnings,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// Summaries returns the summary of every pair in order.
func (r *ComparisonReport) Summaries() []string {
	out := make([]string, 0, len(r.Pairs))
	for _, p := range r.Pairs {
		out = append(out, p.Summary())
	}
	return out
}

// HasDifferences reports whether any pair differs.
func (r *ComparisonReport) HasDifferences() bool {
	for _, p := range r.Pairs {
		if !p.Diff.Equal() {
			return true
		}
	}
	return false
}
