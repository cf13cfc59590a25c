package ledger

import "context"

// Repository provides persistence for vote sets.
type Repository interface {
	Get(ctx context.Context, identity Identity) (Set, error)
	// Record appends proposalID to the identity's set atomically and returns
	// the resulting set. added reports whether proposalID was new.
	Record(ctx context.Context, identity Identity, proposalID string) (set Set, added bool, err error)
}
