package mcp

import (
	"errors"
	"fmt"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/notice"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string         `json:"code"`
	Message      string         `json:"message"`
	Notice       *notice.Notice `json:"notice,omitempty"`
	RecoveryHint string         `json:"recovery_hint,omitempty"`
	err          error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.err
}

func (e *APIError) CodeValue() string {
	return e.Code
}

func (e *APIError) MessageValue() string {
	return e.Message
}

func (e *APIError) DetailsValue() any {
	return e.Notice
}

func (e *APIError) RecoveryHintValue() string {
	return e.RecoveryHint
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	switch {
	case errors.Is(err, session.ErrNotLoggedIn):
		return &APIError{Code: "NOT_LOGGED_IN", Message: "no active session", RecoveryHint: "Call login first", err: err}
	case errors.Is(err, session.ErrAlreadyVoted):
		return &APIError{Code: "ALREADY_VOTED", Message: "proposal already supported by this identity", err: err}
	case errors.Is(err, session.ErrNotFound):
		return &APIError{Code: "NOT_FOUND", Message: "proposal not found", RecoveryHint: "Call list_proposals for current IDs", err: err}
	case errors.Is(err, proposal.ErrInvalidTransition):
		return &APIError{Code: "INVALID_TRANSITION", Message: "status change not allowed", RecoveryHint: "Check the proposal's actions", err: err}
	case errors.Is(err, session.ErrValidation):
		return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), err: err}
	case errors.Is(err, session.ErrSync):
		return &APIError{Code: "SYNC_ERROR", Message: "remote store rejected the change", RecoveryHint: "Retry when the store is reachable", err: err}
	default:
		return nil
	}
}

// failure maps err and attaches the notice shown for op.
func failure(op notice.Op, err error) error {
	apiErr := MapError(err)
	if apiErr == nil {
		apiErr = &APIError{Code: "INTERNAL_ERROR", Message: err.Error(), err: err}
	}
	if n, ok := notice.FromError(op, err); ok {
		apiErr.Notice = &n
	}
	return apiErr
}
