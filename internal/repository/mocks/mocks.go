package mocks

import (
	"context"

	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/stretchr/testify/mock"
)

// WardRepository is a mock for repository.WardRepository.
type WardRepository struct {
	mock.Mock
}

func (m *WardRepository) Get(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	args := m.Called(ctx, wardID)
	if list, ok := args.Get(0).([]proposal.Proposal); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *WardRepository) Save(ctx context.Context, wardID string, proposals []proposal.Proposal) error {
	args := m.Called(ctx, wardID, proposals)
	return args.Error(0)
}

// Update hands fn the collection given to Return, or nil for a ward with
// nothing stored, and returns fn's result unless Return carries an error.
func (m *WardRepository) Update(ctx context.Context, wardID string, fn ward.Change) ([]proposal.Proposal, error) {
	args := m.Called(ctx, wardID)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	current, _ := args.Get(0).([]proposal.Proposal)
	return fn(proposal.Clone(current))
}

func (m *WardRepository) List(ctx context.Context) ([]ward.Summary, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]ward.Summary); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// LedgerRepository is a mock for repository.LedgerRepository.
type LedgerRepository struct {
	mock.Mock
}

func (m *LedgerRepository) Get(ctx context.Context, identity ledger.Identity) (ledger.Set, error) {
	args := m.Called(ctx, identity)
	if set, ok := args.Get(0).(ledger.Set); ok {
		return set, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *LedgerRepository) Record(ctx context.Context, identity ledger.Identity, proposalID string) (ledger.Set, bool, error) {
	args := m.Called(ctx, identity, proposalID)
	if set, ok := args.Get(0).(ledger.Set); ok {
		return set, args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Storage is a mock for session.Storage.
type Storage struct {
	mock.Mock
}

func (m *Storage) LoadProposals(ctx context.Context, wardID string) ([]proposal.Proposal, error) {
	args := m.Called(ctx, wardID)
	if list, ok := args.Get(0).([]proposal.Proposal); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Storage) LoadVotes(ctx context.Context, identity ledger.Identity) (ledger.Set, error) {
	args := m.Called(ctx, identity)
	if set, ok := args.Get(0).(ledger.Set); ok {
		return set, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Storage) Apply(ctx context.Context, mutation session.Mutation) ([]proposal.Proposal, error) {
	args := m.Called(ctx, mutation)
	if list, ok := args.Get(0).([]proposal.Proposal); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// WatchingStorage is a mock for a session.Storage that also implements
// session.Watcher.
type WatchingStorage struct {
	Storage
}

func (m *WatchingStorage) Watch(ctx context.Context, wardID string, identity ledger.Identity) (<-chan session.Snapshot, error) {
	args := m.Called(ctx, wardID, identity)
	if ch, ok := args.Get(0).(chan session.Snapshot); ok {
		return ch, args.Error(1)
	}
	return nil, args.Error(1)
}

// Observer is a mock for session.Observer.
type Observer struct {
	mock.Mock
}

func (m *Observer) Observe(ctx context.Context, ev session.Event) {
	m.Called(ctx, ev)
}
