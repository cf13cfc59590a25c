// Package notice turns operation outcomes into the short messages shown to
// users.
package notice

import (
	"errors"
	"fmt"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
)

// Level is how prominently a notice is shown
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Op names the user action a notice reports on
type Op string

const (
	OpLogin      Op = "login"
	OpLogout     Op = "logout"
	OpSubmit     Op = "submit"
	OpVote       Op = "vote"
	OpSetStatus  Op = "set_status"
	OpAllocation Op = "set_allocation"
	OpSetRole    Op = "set_role"
)

// Mode distinguishes a shared remote store from local persistence in
// success messages.
type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

// Notice is a user-facing message
type Notice struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Success reports a completed action. detail carries the new status for
// OpSetStatus.
func Success(op Op, mode Mode, detail string) Notice {
	msg := "Done."
	switch op {
	case OpSubmit:
		msg = "Proposal synchronized!"
		if mode == ModeLocal {
			msg = "Proposal saved locally"
		}
	case OpVote:
		msg = "Support recorded."
		if mode == ModeLocal {
			msg = "Support recorded!"
		}
	case OpSetStatus:
		msg = fmt.Sprintf("Project status: %s", detail)
		if mode == ModeLocal {
			msg += " (local)"
		}
	case OpLogout:
		msg = "Session ended."
	case OpLogin:
		msg = "Welcome!"
	}
	return Notice{Level: LevelSuccess, Message: msg}
}

// FromError converts a failed action into a notice. It returns false when
// the failure should not be shown at all.
func FromError(op Op, err error) (Notice, bool) {
	switch {
	case err == nil:
		return Notice{}, false
	case errors.Is(err, session.ErrNotFound) && op == OpSetStatus:
		return Notice{}, false
	case errors.Is(err, session.ErrAlreadyVoted):
		return Notice{Level: LevelInfo, Message: "You've already supported this proposal"}, true
	case errors.Is(err, proposal.ErrTitleRequired):
		return Notice{Level: LevelError, Message: "Title required"}, true
	case errors.Is(err, proposal.ErrInvalidCategory):
		return Notice{Level: LevelError, Message: "Please choose a valid category"}, true
	case errors.Is(err, session.ErrValidation) && op == OpLogin:
		return Notice{Level: LevelError, Message: "Please enter your name and phone number"}, true
	case errors.Is(err, session.ErrValidation):
		return Notice{Level: LevelError, Message: "Please check your input"}, true
	case errors.Is(err, session.ErrNotLoggedIn):
		return Notice{Level: LevelError, Message: "Please log in first"}, true
	case errors.Is(err, session.ErrNotFound):
		return Notice{Level: LevelError, Message: "Proposal not found"}, true
	case errors.Is(err, session.ErrInvalidTransition):
		return Notice{Level: LevelError, Message: "That action isn't available for this proposal"}, true
	}

	switch op {
	case OpSubmit:
		return Notice{Level: LevelError, Message: "Submission failed."}, true
	case OpVote:
		return Notice{Level: LevelError, Message: "Vote failed."}, true
	case OpSetStatus:
		return Notice{Level: LevelError, Message: "Status update failed."}, true
	case OpLogin:
		return Notice{Level: LevelError, Message: "Could not load ward data."}, true
	}
	return Notice{Level: LevelError, Message: "Something went wrong."}, true
}
