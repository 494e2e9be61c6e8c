package scheduler

import (
	"fmt"

	"github.com/Sternrassler/loop-pattern/pkg/pattern"
)

// ErrInvalidConfig is returned for malformed scheduler configuration and
// invalid page numbers. It is the same value as pattern.ErrInvalidConfig.
var ErrInvalidConfig = pattern.ErrInvalidConfig

// FetchError reports a QueryExecutor failure for one block.
type FetchError struct {
	Stream     string
	BlockIndex int
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch stream %q (block %d): %v", e.Stream, e.BlockIndex, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// RenderError reports a TemplateRenderer failure for one item.
type RenderError struct {
	Stream     string
	BlockIndex int
	ItemID     string
	Err        error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render stream %q (block %d) item %q: %v", e.Stream, e.BlockIndex, e.ItemID, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *RenderError) Unwrap() error {
	return e.Err
}
