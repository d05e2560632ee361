package report

import (
	"errors"
	"fmt"
)

// ErrRender matches every *RenderError.
var ErrRender = errors.New("render failed")

// RenderError reports a failure producing an artifact in Format.
type RenderError struct {
	Format string
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Err)
}

func (e *RenderError) Unwrap() []error {
	return []error{ErrRender, e.Err}
}
