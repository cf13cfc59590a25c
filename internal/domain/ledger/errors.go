package ledger

import "errors"

var (
	// ErrInvalidIdentity indicates an identity without a name or ward.
	ErrInvalidIdentity = errors.New("invalid voter identity")
	// ErrInvalidInput indicates a blank proposal id.
	ErrInvalidInput = errors.New("invalid vote input")
)
