package ward

import "errors"

// ErrInvalidWard indicates a blank ward identifier.
var ErrInvalidWard = errors.New("invalid ward")
