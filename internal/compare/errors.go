package compare

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrInsufficientInput is returned when fewer than two files are given.
	ErrInsufficientInput = errors.New("at least two files are required")
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid input file")
)

// ValidationError reports an input path that is missing, not a regular file, or empty.
type ValidationError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrValidation, e.Err}
	}
	return []error{ErrValidation}
}

// ValidatePath checks that path names an existing, non-empty regular file.
func ValidatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ValidationError{Path: path, Reason: "file does not exist"}
		}
		return &ValidationError{Path: path, Reason: "cannot stat file", Err: err}
	}
	if !info.Mode().IsRegular() {
		return &ValidationError{Path: path, Reason: "not a regular file"}
	}
	if info.Size() == 0 {
		return &ValidationError{Path: path, Reason: "file is empty"}
	}
	return nil
}
