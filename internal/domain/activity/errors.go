package activity

import "errors"

// ErrInvalidInput indicates a nil or unscoped activity entry.
var ErrInvalidInput = errors.New("invalid activity input")
