package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/report"
)

// Session is one login: an identity bound to a ward, holding that ward's
// proposals and the identity's vote set in memory.
//
// opMu serializes user operations. mu guards state and is held only for
// short reads and commits, so a snapshot can replace state while an
// operation waits on storage.
type Session struct {
	storage  Storage
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	newID    func() string

	cancel context.CancelFunc
	done   chan struct{}

	seen atomic.Int64

	opMu sync.Mutex

	mu         sync.RWMutex
	info       Info
	proposals  []proposal.Proposal
	votes      ledger.Set
	allocation budget.Allocation
	closed     bool
}

func (s *Session) touch(now time.Time) {
	s.seen.Store(now.UnixNano())
}

func (s *Session) lastSeen() time.Time {
	return time.Unix(0, s.seen.Load())
}

// Info returns the session description.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// SetRole switches between citizen and admin views. The role is not
// enforced by any operation.
func (s *Session) SetRole(raw string) (Info, error) {
	role, err := ParseRole(raw)
	if err != nil {
		return Info{}, fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Info{}, ErrNotLoggedIn
	}
	s.info.Role = role
	return s.info, nil
}

// Proposals returns a copy of the ward's proposals.
func (s *Session) Proposals() []proposal.Proposal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return proposal.Clone(s.proposals)
}

// VotedIDs returns a copy of the identity's vote set.
func (s *Session) VotedIDs() ledger.Set {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.votes.Clone()
}

// Submit creates a Pending proposal authored by the session user.
func (s *Session) Submit(ctx context.Context, draft proposal.Draft) (proposal.Proposal, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	info, _, _, err := s.read()
	if err != nil {
		return proposal.Proposal{}, err
	}

	if err := proposal.ValidateDraft(draft); err != nil {
		return proposal.Proposal{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	p, err := proposal.New(s.newID(), draft, info.Name, s.now())
	if err != nil {
		return proposal.Proposal{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	stored, err := s.apply(ctx, Mutation{
		Kind:     MutationSubmit,
		Ward:     info.Ward,
		Identity: info.Identity,
		Proposal: p,
	})
	if err != nil {
		return proposal.Proposal{}, err
	}

	if err := s.commit(stored, func(fromStore bool) {
		if !fromStore && proposal.Find(s.proposals, p.ID) < 0 {
			s.proposals = append(proposal.Clone(s.proposals), p)
		}
	}); err != nil {
		return proposal.Proposal{}, err
	}

	s.logger.Info("proposal submitted", "proposal", p.ID, "category", p.Category)
	s.observer.Observe(ctx, Event{Type: EventProposalSubmitted, Session: info, Kind: MutationSubmit, Proposal: p})
	return p, nil
}

// Vote adds the identity's support to a proposal. A second vote on the
// same proposal fails with ErrAlreadyVoted and changes nothing.
func (s *Session) Vote(ctx context.Context, id string) (proposal.Proposal, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	info, current, votes, err := s.read()
	if err != nil {
		return proposal.Proposal{}, err
	}
	if votes.Contains(id) {
		return proposal.Proposal{}, ErrAlreadyVoted
	}
	idx := proposal.Find(current, id)
	if idx < 0 {
		return proposal.Proposal{}, ErrNotFound
	}

	current[idx].Votes++
	target := current[idx]
	voted := votes.With(id)

	stored, err := s.apply(ctx, Mutation{
		Kind:     MutationVote,
		Ward:     info.Ward,
		Identity: info.Identity,
		Proposal: target,
		Voted:    voted,
	})
	if errors.Is(err, ErrAlreadyVoted) {
		// another session of the same identity got there first
		_ = s.commit(nil, func(bool) { s.votes = s.votes.With(id) })
		return proposal.Proposal{}, ErrAlreadyVoted
	}
	if err != nil {
		return proposal.Proposal{}, err
	}

	if err := s.commit(stored, func(fromStore bool) {
		s.votes = s.votes.With(id)
		i := proposal.Find(s.proposals, id)
		if i < 0 {
			return
		}
		// snapshots may already carry the increment
		if !fromStore && s.proposals[i].Votes < target.Votes {
			s.proposals = proposal.Clone(s.proposals)
			s.proposals[i].Votes = target.Votes
		}
		target = s.proposals[i]
	}); err != nil {
		return proposal.Proposal{}, err
	}

	s.logger.Info("vote recorded", "proposal", id, "votes", target.Votes)
	s.observer.Observe(ctx, Event{Type: EventVoteRecorded, Session: info, Kind: MutationVote, Proposal: target})
	return target, nil
}

// SetStatus moves a proposal along an allowed lifecycle edge. Applying a
// status the proposal already has succeeds without writing anything.
func (s *Session) SetStatus(ctx context.Context, id string, status proposal.Status) (proposal.Proposal, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	info, current, _, err := s.read()
	if err != nil {
		return proposal.Proposal{}, err
	}
	idx := proposal.Find(current, id)
	if idx < 0 {
		return proposal.Proposal{}, ErrNotFound
	}

	from := current[idx].Status
	if err := proposal.CanTransition(from, status); err != nil {
		if errors.Is(err, proposal.ErrInvalidStatus) {
			return proposal.Proposal{}, fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return proposal.Proposal{}, err
	}
	if from == status {
		return current[idx], nil
	}

	current[idx].Status = status
	target := current[idx]

	stored, err := s.apply(ctx, Mutation{
		Kind:       MutationStatus,
		Ward:       info.Ward,
		Identity:   info.Identity,
		Proposal:   target,
		PrevStatus: from,
	})
	if err != nil {
		return proposal.Proposal{}, err
	}

	if err := s.commit(stored, func(fromStore bool) {
		i := proposal.Find(s.proposals, id)
		if i < 0 {
			return
		}
		if !fromStore {
			s.proposals = proposal.Clone(s.proposals)
			s.proposals[i].Status = status
		}
		target = s.proposals[i]
	}); err != nil {
		return proposal.Proposal{}, err
	}

	s.logger.Info("status changed", "proposal", id, "from", from, "to", status)
	s.observer.Observe(ctx, Event{Type: EventStatusChanged, Session: info, Kind: MutationStatus, Proposal: target, From: from})
	return target, nil
}

// Approve marks a proposal Approved.
func (s *Session) Approve(ctx context.Context, id string) (proposal.Proposal, error) {
	return s.SetStatus(ctx, id, proposal.StatusApproved)
}

// Fund marks a proposal Funded.
func (s *Session) Fund(ctx context.Context, id string) (proposal.Proposal, error) {
	return s.SetStatus(ctx, id, proposal.StatusFunded)
}

// Complete marks a proposal Completed.
func (s *Session) Complete(ctx context.Context, id string) (proposal.Proposal, error) {
	return s.SetStatus(ctx, id, proposal.StatusCompleted)
}

// Metrics computes the dashboard budget figures for the ward.
func (s *Session) Metrics() budget.Metrics {
	return budget.Compute(s.Proposals())
}

// Trending returns the n most-supported proposals.
func (s *Session) Trending(n int) []proposal.Proposal {
	return report.Trending(s.Proposals(), n)
}

// AdminSummary returns the administrator overview.
func (s *Session) AdminSummary() report.AdminSummary {
	return report.Summarize(s.Proposals())
}

// Results returns the public results board.
func (s *Session) Results() []report.Result {
	return report.Results(s.Proposals())
}

// Allocation returns the session's budget simulator split.
func (s *Session) Allocation() budget.Allocation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allocation.Clone()
}

// SetAllocation updates one category of the budget simulator.
func (s *Session) SetAllocation(category proposal.Category, percent int) (budget.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrNotLoggedIn
	}
	if err := s.allocation.Set(category, percent); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.allocation.Clone(), nil
}

// read returns copies of the state an operation works from.
func (s *Session) read() (Info, []proposal.Proposal, ledger.Set, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Info{}, nil, nil, ErrNotLoggedIn
	}
	return s.info, proposal.Clone(s.proposals), s.votes.Clone(), nil
}

// apply writes a mutation through storage and classifies the outcome. The
// returned collection is the stored ward after the change, nil if storage
// did not report one.
func (s *Session) apply(ctx context.Context, m Mutation) ([]proposal.Proposal, error) {
	stored, err := s.storage.Apply(ctx, m)
	if err == nil {
		return stored, nil
	}

	if errors.Is(err, ErrAlreadyVoted) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
		s.logger.Info("change refused by stored ward", "kind", m.Kind, "proposal", m.Proposal.ID, "error", err)
		return nil, err
	}

	info := s.Info()
	if errors.Is(err, ErrPersistence) {
		s.logger.Warn("change not persisted, keeping it in memory", "kind", m.Kind, "proposal", m.Proposal.ID, "error", err)
		s.observer.Observe(ctx, Event{Type: EventPersistenceFailed, Session: info, Kind: m.Kind, Proposal: m.Proposal, Err: err})
		return nil, nil
	}

	s.logger.Error("change rejected by store", "kind", m.Kind, "proposal", m.Proposal.ID, "error", err)
	s.observer.Observe(ctx, Event{Type: EventSyncFailed, Session: info, Kind: m.Kind, Proposal: m.Proposal, Err: err})
	return nil, asSync(err)
}

// commit installs stored, the ward as the store holds it after the change,
// and runs fn under the state lock. fromStore tells fn whether it must fold
// the change into the session's own copy itself.
func (s *Session) commit(stored []proposal.Proposal, fn func(fromStore bool)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrNotLoggedIn
	}
	if stored != nil {
		s.proposals = proposal.Clone(stored)
	}
	fn(stored != nil)
	return nil
}

// consume replaces state with pushed snapshots until ctx is cancelled.
func (s *Session) consume(ctx context.Context, updates <-chan Snapshot) {
	defer close(s.done)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-updates:
			if !ok {
				return
			}
			s.replace(ctx, snap)
		}
	}
}

func (s *Session) replace(ctx context.Context, snap Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	switch snap.Kind {
	case SnapshotProposals:
		s.proposals = proposal.Clone(snap.Proposals)
	case SnapshotVotes:
		s.votes = ledger.Normalize(snap.Votes)
	default:
		s.mu.Unlock()
		s.logger.Warn("ignoring snapshot of unknown kind", "kind", snap.Kind)
		return
	}
	info := s.info
	s.mu.Unlock()

	s.logger.Debug("snapshot applied", "kind", snap.Kind)
	s.observer.Observe(ctx, Event{Type: EventSnapshotApplied, Session: info, Snapshot: snap.Kind})
}

// close stops the subscription and drops state. In-flight operations finish
// their storage call but do not commit.
func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.proposals = nil
	s.votes = nil
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}
