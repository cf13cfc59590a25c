package ward

import (
	"context"

	"github.com/ganot/wardbudget/internal/domain/proposal"
)

// Change derives a ward's next collection from its stored one.
type Change func(current []proposal.Proposal) ([]proposal.Proposal, error)

// Repository persists one proposal collection per ward.
type Repository interface {
	Get(ctx context.Context, wardID string) ([]proposal.Proposal, error)
	// Save replaces the whole collection for a ward.
	Save(ctx context.Context, wardID string, proposals []proposal.Proposal) error
	// Update runs fn against the stored collection and stores its result
	// atomically. fn receives nil when the ward has nothing stored. An error
	// from fn aborts the update and is returned as is.
	Update(ctx context.Context, wardID string, fn Change) ([]proposal.Proposal, error)
	List(ctx context.Context) ([]Summary, error)
}
