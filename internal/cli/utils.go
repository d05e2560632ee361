// Package cli provides CLI utilities for doccompare: report output,
// artifact writing and exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hyperjump/doccompare/internal/compare"
	"github.com/hyperjump/doccompare/internal/extract"
	"github.com/hyperjump/doccompare/internal/models"
	"github.com/hyperjump/doccompare/internal/report"
)

// OutputFormat is the format of the report printed to stdout.
type OutputFormat string

const (
	// OutputText is the human-readable summary (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates s; empty means OutputText.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("invalid output format %q (use text or json)", s)
	}
}

// WriteReport writes rep to w in the given format.
func WriteReport(w io.Writer, rep *models.ComparisonReport, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	default:
		_, err := fmt.Fprintln(w, report.Text(rep))
		return err
	}
}

// Artifact is a rendered report waiting to be written to Path.
type Artifact struct {
	Path string
	Data []byte
}

// WriteArtifacts writes every artifact atomically. It stops at the first
// failure; artifacts already written stay complete.
func WriteArtifacts(artifacts []Artifact) error {
	for _, a := range artifacts {
		if err := WriteFileAtomic(a.Path, a.Data, 0644); err != nil {
			return err
		}
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never see a truncated file.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// Exit codes.
const (
	ExitOK                = 0
	ExitError             = 1
	ExitInsufficientInput = 2
	ExitValidation        = 3
	ExitUnsupportedFormat = 4
	ExitExtraction        = 5
	ExitRender            = 6
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, compare.ErrInsufficientInput):
		return ExitInsufficientInput
	case errors.Is(err, compare.ErrValidation):
		return ExitValidation
	case errors.Is(err, extract.ErrUnsupportedFormat):
		return ExitUnsupportedFormat
	case errors.Is(err, extract.ErrExtraction):
		return ExitExtraction
	case errors.Is(err, report.ErrRender):
		return ExitRender
	default:
		return ExitError
	}
}
