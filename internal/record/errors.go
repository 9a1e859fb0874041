package record

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed caller input: an unknown order on a
// path that does not request creation, a rectangle with non-positive
// dimensions, an unknown field key, and the like. It is surfaced
// immediately and never swallowed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

// LineLockedError reports a write against a checked (locked) line that
// touches fields other than the checked flag itself. The caller decides
// whether to prompt for unchecking.
type LineLockedError struct {
	OrderID string
	Page    int
	Line    int
}

func (e *LineLockedError) Error() string {
	return fmt.Sprintf("line %d on page %d of order %s is checked and locked against edits",
		e.Line, e.Page, e.OrderID)
}

// NotFoundError reports an absent resource. Absence is an expected,
// recoverable outcome the caller branches on.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// IOError reports an underlying storage failure. Writes are applied to
// a private copy and published only after the file write succeeds, so
// the operation is retryable without corrupting state.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("storage %s failed for %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsLineLocked reports whether err is a LineLockedError.
func IsLineLocked(err error) bool {
	var ll *LineLockedError
	return errors.As(err, &ll)
}
