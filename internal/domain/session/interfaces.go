package session

import (
	"context"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
)

// Storage is where a session reads its ward and writes its changes. The
// process picks one implementation at startup.
type Storage interface {
	LoadProposals(ctx context.Context, wardID string) ([]proposal.Proposal, error)
	LoadVotes(ctx context.Context, identity ledger.Identity) (ledger.Set, error)
	// Apply writes a single change through against the stored ward, not the
	// session's copy of it. It returns the ward's collection as stored after
	// the change, or nil when the store delivers that through a Watcher.
	// Errors wrapping ErrPersistence are tolerated by the engine.
	// ErrAlreadyVoted, ErrNotFound and ErrInvalidTransition report that the
	// stored ward refused the change. Anything else aborts it as a sync
	// failure.
	Apply(ctx context.Context, m Mutation) ([]proposal.Proposal, error)
}

// Watcher is implemented by storages that push changes. The channel closes
// when ctx is cancelled.
type Watcher interface {
	Watch(ctx context.Context, wardID string, identity ledger.Identity) (<-chan Snapshot, error)
}

// Observer receives engine events. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// Observers fans an event out to several observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(ctx context.Context, ev Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(ctx, ev)
		}
	}
}
