package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/wardbudget/internal/repository"
)

// Service tracks which proposals each identity has supported.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new vote ledger service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// Load returns the identity's recorded set. A missing or unreadable ledger
// yields an empty set.
func (s *Service) Load(ctx context.Context, identity Identity) (Set, error) {
	if !identity.Valid() {
		return nil, ErrInvalidIdentity
	}

	set, err := s.repo.Get(ctx, identity)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("reading vote ledger failed", "identity", identity, "error", err)
		}
		return Set{}, nil
	}
	return Normalize(set), nil
}

// Record persists a vote for proposalID. Recording the same id twice is a
// no-op at the data level and reports added as false, so callers can tell a
// repeat vote from another session of the same identity.
func (s *Service) Record(ctx context.Context, identity Identity, proposalID string) (Set, bool, error) {
	if !identity.Valid() {
		return nil, false, ErrInvalidIdentity
	}
	if proposalID == "" {
		return nil, false, ErrInvalidInput
	}

	set, added, err := s.repo.Record(ctx, identity, proposalID)
	if err != nil {
		return nil, false, fmt.Errorf("recording vote: %w", err)
	}
	return set, added, nil
}
