package fiber

import (
	"errors"
	"fmt"
)

// ErrInvalidGeometry is matched by every ValidationError.
var ErrInvalidGeometry = errors.New("fiber: invalid geometry")

// ValidationError reports the first segment that failed validation.
// SegmentIndex is -1 for problems that belong to the fiber as a whole.
type ValidationError struct {
	SegmentIndex int
	Reason       string
}

func (e *ValidationError) Error() string {
	if e.SegmentIndex < 0 {
		return fmt.Sprintf("fiber: %s", e.Reason)
	}
	return fmt.Sprintf("fiber: segment %d: %s", e.SegmentIndex, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidGeometry
}

func invalid(idx int, format string, args ...any) error {
	return &ValidationError{SegmentIndex: idx, Reason: fmt.Sprintf(format, args...)}
}
