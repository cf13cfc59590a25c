package proposal

import "errors"

var (
	// ErrTitleRequired indicates a blank proposal title.
	ErrTitleRequired = errors.New("proposal title required")
	// ErrInvalidCategory indicates a category outside the enumerated set.
	ErrInvalidCategory = errors.New("invalid proposal category")
	// ErrInvalidStatus indicates an unknown lifecycle status.
	ErrInvalidStatus = errors.New("invalid proposal status")
	// ErrInvalidTransition indicates the admin action's precondition does not hold.
	ErrInvalidTransition = errors.New("invalid proposal status transition")
)
