package ward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/repository"
)

// Service loads and stores ward-scoped proposal collections.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new ward store.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Load returns the ward's proposals. A ward with nothing stored is seeded
// with the demo set, which is persisted before being returned. Storage
// failures are logged and never surface; the caller gets a usable
// collection either way.
func (s *Service) Load(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	if strings.TrimSpace(wardID) == "" {
		return nil, ErrInvalidWard
	}

	proposals, err := s.repo.Get(ctx, wardID)
	if err == nil {
		return proposals, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("reading ward failed, falling back to seed", "ward", wardID, "error", err)
		return proposal.Seed(s.now()), nil
	}

	// another session may seed the ward between Get and here
	seeded, err := s.Update(ctx, wardID, func(current []proposal.Proposal) ([]proposal.Proposal, error) {
		return current, nil
	})
	if err != nil {
		s.logger.Warn("persisting ward seed failed", "ward", wardID, "error", err)
		return proposal.Seed(s.now()), nil
	}
	return seeded, nil
}

// Update applies fn to the ward's stored collection in one atomic step and
// returns the stored result. A ward with nothing stored starts from the
// demo set.
func (s *Service) Update(ctx context.Context, wardID string, fn Change) ([]proposal.Proposal, error) {
	if strings.TrimSpace(wardID) == "" {
		return nil, ErrInvalidWard
	}
	proposals, err := s.repo.Update(ctx, wardID, func(current []proposal.Proposal) ([]proposal.Proposal, error) {
		if current == nil {
			current = proposal.Seed(s.now())
		}
		return fn(current)
	})
	if err != nil {
		return nil, fmt.Errorf("updating ward %s: %w", wardID, err)
	}
	return proposals, nil
}

// Save replaces the ward's stored collection.
func (s *Service) Save(ctx context.Context, wardID string, proposals []proposal.Proposal) error {
	if strings.TrimSpace(wardID) == "" {
		return ErrInvalidWard
	}
	if proposals == nil {
		proposals = []proposal.Proposal{}
	}
	if err := s.repo.Save(ctx, wardID, proposals); err != nil {
		return fmt.Errorf("saving ward %s: %w", wardID, err)
	}
	return nil
}

// List returns summaries of every stored ward.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	summaries, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing wards: %w", err)
	}
	return summaries, nil
}
