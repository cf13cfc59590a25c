package proposal

import "strings"

// ValidateDraft validates fields required to submit a proposal.
func ValidateDraft(draft Draft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return ErrTitleRequired
	}
	if !draft.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// CanTransition validates an admin-initiated status change.
//
// The machine is deliberately relaxed: approve is accepted from any state
// except Completed, which means a Funded proposal can be moved back to
// Approved. That backward edge drops the proposal's cost out of the spent
// figure and may not be intended; it is kept because the admin console has
// always allowed it. Fund requires Pending or Approved, complete requires
// anything but Pending. Re-applying a satisfied transition is harmless.
func CanTransition(from, to Status) error {
	if !to.Valid() || !from.Valid() {
		return ErrInvalidStatus
	}

	switch to {
	case StatusApproved:
		if from != StatusCompleted {
			return nil
		}
	case StatusFunded:
		if from == StatusPending || from == StatusApproved {
			return nil
		}
	case StatusCompleted:
		if from != StatusPending {
			return nil
		}
	}

	return ErrInvalidTransition
}

// AvailableActions lists the target statuses an admin may apply from status.
func AvailableActions(status Status) []Status {
	var actions []Status
	for _, to := range []Status{StatusApproved, StatusFunded, StatusCompleted} {
		if CanTransition(status, to) == nil {
			actions = append(actions, to)
		}
	}
	return actions
}

// CountsAsSpend reports whether a proposal in status draws on the ward budget.
func (s Status) CountsAsSpend() bool {
	return s == StatusFunded || s == StatusCompleted
}

// Active reports whether the proposal has left the Pending state.
func (s Status) Active() bool {
	return s != StatusPending
}
