package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/nats-io/nats.go/jetstream"
)

// Watch pushes a full proposals snapshot of the ward whenever any of its
// proposals changes, and the identity's vote set whenever it is written.
// The channel closes once ctx is cancelled.
func (s *Store) Watch(ctx context.Context, wardID string, identity ledger.Identity) (<-chan session.Snapshot, error) {
	proposalsWatch, err := s.kv.Watch(ctx, wardPattern(wardID))
	if err != nil {
		return nil, fmt.Errorf("%w: watch ward %s: %w", session.ErrSync, wardID, err)
	}
	votesWatch, err := s.kv.Watch(ctx, votesKey(identity), jetstream.IgnoreDeletes())
	if err != nil {
		proposalsWatch.Stop()
		return nil, fmt.Errorf("%w: watch votes: %w", session.ErrSync, err)
	}

	out := make(chan session.Snapshot, 1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.watchProposals(ctx, proposalsWatch, out)
	}()
	go func() {
		defer wg.Done()
		s.watchVotes(ctx, votesWatch, out)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

func (s *Store) watchProposals(ctx context.Context, w jetstream.KeyWatcher, out chan<- session.Snapshot) {
	defer w.Stop()

	byKey := make(map[string]proposal.Proposal)
	initialDone := false
	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-w.Updates():
			if !ok {
				return
			}
			if entry == nil {
				initialDone = true
			} else {
				s.collect(byKey, entry)
			}
			if !initialDone {
				continue
			}
			if !send(ctx, out, session.Snapshot{Kind: session.SnapshotProposals, Proposals: sorted(byKey)}) {
				return
			}
		}
	}
}

func (s *Store) watchVotes(ctx context.Context, w jetstream.KeyWatcher, out chan<- session.Snapshot) {
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-w.Updates():
			if !ok {
				return
			}
			if entry == nil {
				continue
			}
			votes, err := decodeVotes(entry.Value())
			if err != nil {
				s.logger.Warn("skipping undecodable vote set", "key", entry.Key(), "error", err)
				continue
			}
			if !send(ctx, out, session.Snapshot{Kind: session.SnapshotVotes, Votes: votes}) {
				return
			}
		}
	}
}

func send(ctx context.Context, out chan<- session.Snapshot, snap session.Snapshot) bool {
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}
