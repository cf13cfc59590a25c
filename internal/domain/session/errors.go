package session

import (
	"errors"

	"github.com/ganot/wardbudget/internal/domain/proposal"
)

var (
	// ErrValidation indicates missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrAlreadyVoted indicates the identity has already supported the proposal.
	ErrAlreadyVoted = errors.New("already voted")
	// ErrNotFound indicates the proposal doesn't exist in the session's ward.
	ErrNotFound = errors.New("proposal not found")
	// ErrPersistence marks a local write failure. The engine keeps the
	// in-memory effect when storage reports it.
	ErrPersistence = errors.New("persistence failed")
	// ErrSync marks a remote store failure. The engine leaves state unchanged.
	ErrSync = errors.New("sync failed")
	// ErrNotLoggedIn indicates an unknown or closed session.
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrInvalidTransition indicates a status change along a forbidden edge.
	ErrInvalidTransition = proposal.ErrInvalidTransition
)
