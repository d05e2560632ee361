// Package diff computes line-based differences between two extracted texts.
package diff

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultContext is the number of unchanged lines shown around each hunk.
const DefaultContext = 3

// Op tags a line in a diff result.
type Op int

const (
	// OpContext marks a line present in both texts.
	OpContext Op = iota
	// OpRemoved marks a line present only in the first text.
	OpRemoved
	// OpAdded marks a line present only in the second text.
	OpAdded
)

// String returns the lowercase name of the op.
func (o Op) String() string {
	switch o {
	case OpContext:
		return "context"
	case OpRemoved:
		return "removed"
	case OpAdded:
		return "added"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Prefix returns the unified diff marker for the op.
func (o Op) Prefix() string {
	switch o {
	case OpRemoved:
		return "-"
	case OpAdded:
		return "+"
	default:
		return " "
	}
}

// MarshalText encodes the op by name.
func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses a name written by MarshalText.
func (o *Op) UnmarshalText(b []byte) error {
	switch string(b) {
	case "context":
		*o = OpContext
	case "removed":
		*o = OpRemoved
	case "added":
		*o = OpAdded
	default:
		return fmt.Errorf("unknown diff op %q", b)
	}
	return nil
}

// Line is one tagged line of a diff.
type Line struct {
	Op   Op     `json:"op"`
	Text string `json:"text"`
}

// Result is the ordered difference between two texts.
// A nil *Result means the texts were not compared; Equal reports the
// "no differences" case.
type Result struct {
	FromFile string `json:"from_file,omitempty"`
	ToFile   string `json:"to_file,omitempty"`
	Lines    []Line `json:"lines"`
	Added    int    `json:"added"`
	Removed  int    `json:"removed"`
	// Unified is the labeled unified diff; empty when the texts are equal.
	Unified string `json:"unified,omitempty"`
}

// Equal reports whether both texts had identical line sequences.
func (r *Result) Equal() bool {
	return r != nil && r.Added == 0 && r.Removed == 0
}

// Changes returns only the added and removed lines, in order.
func (r *Result) Changes() []Line {
	if r == nil {
		return nil
	}
	var out []Line
	for _, l := range r.Lines {
		if l.Op != OpContext {
			out = append(out, l)
		}
	}
	return out
}

// Options controls labels and hunk context of the unified rendering.
type Options struct {
	FromFile string
	ToFile   string
	// Context is the number of unchanged lines around each hunk. Zero is valid.
	Context int
}

// Lines diffs a against b with default context and no file labels.
func Lines(a, b string) *Result {
	return Compute(a, b, Options{Context: DefaultContext})
}

// Compute diffs a against b line by line. Output is deterministic for the
// same inputs.
func Compute(a, b string, opts Options) *Result {
	la, lb := SplitLines(a), SplitLines(b)
	res := &Result{
		FromFile: opts.FromFile,
		ToFile:   opts.ToFile,
		Lines:    make([]Line, 0, max(len(la), len(lb))),
	}
	m := difflib.NewMatcher(la, lb)
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'e':
			res.appendLines(OpContext, la[op.I1:op.I2])
		case 'd':
			res.appendLines(OpRemoved, la[op.I1:op.I2])
		case 'i':
			res.appendLines(OpAdded, lb[op.J1:op.J2])
		case 'r':
			res.appendLines(OpRemoved, la[op.I1:op.I2])
			res.appendLines(OpAdded, lb[op.J1:op.J2])
		}
	}
	if res.Equal() {
		return res
	}
	context := opts.Context
	if context < 0 {
		context = DefaultContext
	}
	// The writer targets an in-memory buffer and cannot fail.
	res.Unified, _ = difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        withEOL(la),
		B:        withEOL(lb),
		FromFile: opts.FromFile,
		ToFile:   opts.ToFile,
		Context:  context,
		Eol:      "\n",
	})
	return res
}

func (r *Result) appendLines(op Op, lines []string) {
	for _, l := range lines {
		r.Lines = append(r.Lines, Line{Op: op, Text: l})
	}
	switch op {
	case OpAdded:
		r.Added += len(lines)
	case OpRemoved:
		r.Removed += len(lines)
	}
}

// SplitLines splits s on line boundaries without keeping terminators.
// A trailing newline does not produce an extra empty line; "\r\n" and a
// lone "\r" count as line breaks.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func withEOL(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l + "\n"
	}
	return out
}
