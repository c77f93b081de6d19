package control

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned by a Source whose device is missing or
	// disconnected.
	ErrUnavailable = errors.New("control: hardware unavailable")

	// ErrNoReading is returned by a Device that is connected but has not
	// reported a count yet.
	ErrNoReading = errors.New("control: no reading yet")

	ErrAlreadyStarted = errors.New("control: sampler already started")
	ErrNoSource       = errors.New("control: no input source")
)

// PollError reports a failed read from a source. The sampler keeps the last
// good value when it sees one.
type PollError struct {
	Source string
	Err    error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("control: poll %s: %v", e.Source, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}
