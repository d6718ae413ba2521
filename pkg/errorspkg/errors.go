// Package errorspkg holds errors shared across layers.
package errorspkg

import "errors"

// ErrInternal is returned to clients in place of unexpected errors
// so that internal details never leak into responses.
var ErrInternal = errors.New("internal")
