// Package remote keeps ward proposals and vote sets in a NATS JetStream
// key-value bucket shared by every process using the same bucket name.
// Each proposal is its own key, so concurrent writers only contend on the
// proposal they touch.
package remote

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/ganot/wardbudget/internal/codec"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/nats-io/nats.go/jetstream"
)

// DefaultBucket is the bucket used when none is configured.
const DefaultBucket = "kcde-kolhapur"

const maxCASAttempts = 16

// Store implements session.Storage and session.Watcher.
type Store struct {
	kv     jetstream.KeyValue
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ session.Storage = (*Store)(nil)
	_ session.Watcher = (*Store)(nil)
)

// New opens the bucket, creating it if it doesn't exist.
func New(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("open bucket %s: %w", bucket, err)
	}
	return &Store{kv: kv, logger: logger, now: time.Now}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Ward proposals and vote ledgers",
		History:     5,
	})
}

// LoadProposals reads every proposal of the ward. An empty ward is seeded
// with the demo set; when several processes race, the first Create of each
// key wins.
func (s *Store) LoadProposals(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	proposals, err := s.readWard(ctx, wardID)
	if err != nil {
		return nil, err
	}
	if len(proposals) > 0 {
		return proposals, nil
	}

	for _, p := range proposal.Seed(s.now()) {
		data, err := codec.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("%w: encode seed %s: %w", session.ErrSync, p.ID, err)
		}
		if _, err := s.kv.Create(ctx, proposalKey(wardID, p.ID), data); err != nil && !errors.Is(err, jetstream.ErrKeyExists) {
			return nil, fmt.Errorf("%w: seed ward %s: %w", session.ErrSync, wardID, err)
		}
	}
	s.logger.Info("seeded ward", "ward", wardID)
	return s.readWard(ctx, wardID)
}

// LoadVotes returns the identity's vote set, empty if none was stored.
func (s *Store) LoadVotes(ctx context.Context, identity ledger.Identity) (ledger.Set, error) {
	entry, err := s.kv.Get(ctx, votesKey(identity))
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return ledger.Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get votes: %w", session.ErrSync, err)
	}
	return decodeVotes(entry.Value())
}

// Apply writes one change. Votes add the id to the voter's set and then
// increment the proposal's count, each with a compare-and-swap loop, so
// concurrent voters never lose increments and an identity voting from two
// sessions is counted once. Status changes are last writer wins. The stored
// collection reaches sessions through Watch, so Apply returns none.
func (s *Store) Apply(ctx context.Context, m session.Mutation) ([]proposal.Proposal, error) {
	var err error
	switch m.Kind {
	case session.MutationSubmit:
		err = s.create(ctx, m.Ward, m.Proposal)
	case session.MutationVote:
		err = s.vote(ctx, m)
	case session.MutationStatus:
		status := m.Proposal.Status
		err = s.update(ctx, m.Ward, m.Proposal.ID, func(p *proposal.Proposal) { p.Status = status })
	default:
		err = fmt.Errorf("unknown mutation %q", m.Kind)
	}
	if errors.Is(err, session.ErrAlreadyVoted) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", session.ErrSync, m.Kind, m.Proposal.ID, err)
	}
	return nil, nil
}

func (s *Store) create(ctx context.Context, wardID string, p proposal.Proposal) error {
	data, err := codec.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proposal: %w", err)
	}
	if _, err := s.kv.Create(ctx, proposalKey(wardID, p.ID), data); err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

func (s *Store) vote(ctx context.Context, m session.Mutation) error {
	if err := s.recordVote(ctx, m.Identity, m.Proposal.ID); err != nil {
		return err
	}
	return s.update(ctx, m.Ward, m.Proposal.ID, func(p *proposal.Proposal) { p.Votes++ })
}

// recordVote adds proposalID to the identity's stored set, failing with
// session.ErrAlreadyVoted when it is already there.
func (s *Store) recordVote(ctx context.Context, identity ledger.Identity, proposalID string) error {
	key := votesKey(identity)
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		var set ledger.Set
		var revision uint64
		entry, err := s.kv.Get(ctx, key)
		switch {
		case errors.Is(err, jetstream.ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("get votes: %w", err)
		default:
			if set, err = decodeVotes(entry.Value()); err != nil {
				return err
			}
			revision = entry.Revision()
		}
		if set.Contains(proposalID) {
			return session.ErrAlreadyVoted
		}

		data, err := codec.Marshal([]string(set.With(proposalID)))
		if err != nil {
			return fmt.Errorf("encode votes: %w", err)
		}
		if revision == 0 {
			_, err = s.kv.Create(ctx, key, data)
		} else {
			_, err = s.kv.Update(ctx, key, data, revision)
		}
		if err == nil {
			return nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("put votes: %w", err)
		}
		s.logger.Debug("revision conflict, retrying", "key", key, "attempt", attempt+1)
	}
	return fmt.Errorf("put votes: %w after %d attempts", jetstream.ErrKeyExists, maxCASAttempts)
}

// update applies fn to the stored proposal, retrying on revision conflicts.
func (s *Store) update(ctx context.Context, wardID, proposalID string, fn func(*proposal.Proposal)) error {
	key := proposalKey(wardID, proposalID)
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				return session.ErrNotFound
			}
			return fmt.Errorf("get proposal: %w", err)
		}

		var p proposal.Proposal
		if err := codec.Unmarshal(entry.Value(), &p); err != nil {
			return fmt.Errorf("decode proposal: %w", err)
		}
		fn(&p)

		data, err := codec.Marshal(p)
		if err != nil {
			return fmt.Errorf("encode proposal: %w", err)
		}
		_, err = s.kv.Update(ctx, key, data, entry.Revision())
		if err == nil {
			return nil
		}
		if !errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("update proposal: %w", err)
		}
		s.logger.Debug("revision conflict, retrying", "key", key, "attempt", attempt+1)
	}
	return fmt.Errorf("update proposal: %w after %d attempts", jetstream.ErrKeyExists, maxCASAttempts)
}

// readWard collects the current value of every proposal key of the ward.
func (s *Store) readWard(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	w, err := s.kv.Watch(ctx, wardPattern(wardID), jetstream.IgnoreDeletes())
	if err != nil {
		return nil, fmt.Errorf("%w: read ward %s: %w", session.ErrSync, wardID, err)
	}
	defer w.Stop()

	byKey := make(map[string]proposal.Proposal)
	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: read ward %s: %w", session.ErrSync, wardID, ctx.Err())
		case entry, ok := <-w.Updates():
			if !ok {
				return nil, fmt.Errorf("%w: read ward %s: watcher closed", session.ErrSync, wardID)
			}
			if entry == nil {
				return sorted(byKey), nil
			}
			s.collect(byKey, entry)
		}
	}
}

// collect folds one watch entry into byKey.
func (s *Store) collect(byKey map[string]proposal.Proposal, entry jetstream.KeyValueEntry) {
	if entry.Operation() != jetstream.KeyValuePut {
		delete(byKey, entry.Key())
		return
	}
	var p proposal.Proposal
	if err := codec.Unmarshal(entry.Value(), &p); err != nil {
		s.logger.Warn("skipping undecodable proposal", "key", entry.Key(), "error", err)
		return
	}
	byKey[entry.Key()] = p
}

func sorted(byKey map[string]proposal.Proposal) []proposal.Proposal {
	out := make([]proposal.Proposal, 0, len(byKey))
	for _, p := range byKey {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b proposal.Proposal) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func decodeVotes(data []byte) (ledger.Set, error) {
	var ids []string
	if err := codec.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: decode votes: %w", session.ErrSync, err)
	}
	return ledger.Normalize(ids), nil
}
