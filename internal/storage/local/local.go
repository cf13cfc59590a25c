// Package local persists sessions' changes to the process's SQLite database.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
)

// Storage implements session.Storage over the ward store and vote ledger.
type Storage struct {
	wards  *ward.Service
	votes  *ledger.Service
	logger *slog.Logger
}

var _ session.Storage = (*Storage)(nil)

// New creates a local storage.
func New(wards *ward.Service, votes *ledger.Service, logger *slog.Logger) *Storage {
	if logger == nil {
		logger = slog.Default()
	}
	return &Storage{wards: wards, votes: votes, logger: logger}
}

// LoadProposals returns the ward's collection, seeding it on first use.
func (s *Storage) LoadProposals(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	proposals, err := s.wards.Load(ctx, wardID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrValidation, err)
	}
	return proposals, nil
}

// LoadVotes returns the identity's vote set.
func (s *Storage) LoadVotes(ctx context.Context, identity ledger.Identity) (ledger.Set, error) {
	set, err := s.votes.Load(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrValidation, err)
	}
	return set, nil
}

// Apply changes the ward as stored, not the session's copy, so sessions
// sharing a ward never overwrite each other. A vote is recorded in the
// ledger first; an identity that already voted from another session gets
// session.ErrAlreadyVoted and no increment. Storage failures are reported
// as session.ErrPersistence.
func (s *Storage) Apply(ctx context.Context, m session.Mutation) ([]proposal.Proposal, error) {
	if m.Kind == session.MutationVote {
		_, added, err := s.votes.Record(ctx, m.Identity, m.Proposal.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", session.ErrPersistence, m.Kind, err)
		}
		if !added {
			return nil, session.ErrAlreadyVoted
		}
	}

	stored, err := s.wards.Update(ctx, m.Ward, func(current []proposal.Proposal) ([]proposal.Proposal, error) {
		return change(current, m)
	})
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s: %w", session.ErrPersistence, m.Kind, err)
	}

	s.logger.Debug("change persisted", "kind", m.Kind, "ward", m.Ward, "proposal", m.Proposal.ID)
	return stored, nil
}

// change applies m to the stored collection.
func change(current []proposal.Proposal, m session.Mutation) ([]proposal.Proposal, error) {
	if m.Kind == session.MutationSubmit {
		if proposal.Find(current, m.Proposal.ID) >= 0 {
			return current, nil
		}
		return append(current, m.Proposal), nil
	}

	i := proposal.Find(current, m.Proposal.ID)
	if i < 0 {
		return nil, session.ErrNotFound
	}
	switch m.Kind {
	case session.MutationVote:
		current[i].Votes++
	case session.MutationStatus:
		to := m.Proposal.Status
		if current[i].Status == to {
			return current, nil
		}
		if err := proposal.CanTransition(current[i].Status, to); err != nil {
			return nil, err
		}
		current[i].Status = to
	default:
		return nil, fmt.Errorf("unknown mutation %q", m.Kind)
	}
	return current, nil
}
