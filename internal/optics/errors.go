package optics

import "errors"

// ErrInvalidConfig indicates a tracer configuration outside valid bounds.
var ErrInvalidConfig = errors.New("optics: invalid tracer config")
