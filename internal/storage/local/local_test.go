package local_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/repository"
	"github.com/ganot/wardbudget/internal/repository/mocks"
	"github.com/ganot/wardbudget/internal/storage/local"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newStorage(wards *mocks.WardRepository, votes *mocks.LedgerRepository) *local.Storage {
	return local.New(ward.NewService(wards, nil), ledger.NewService(votes, nil), nil)
}

func TestApply_VoteRecordsAndIncrementsStored(t *testing.T) {
	ctx := context.Background()
	id := ledger.NewIdentity("Asha", "ward-12")
	// the row holds more votes than the session saw
	stored := []proposal.Proposal{{ID: "dummy-1", Votes: 240}}

	wards := &mocks.WardRepository{}
	wards.On("Update", ctx, "ward-12").Return(stored, nil).Once()
	votes := &mocks.LedgerRepository{}
	votes.On("Record", ctx, id, "dummy-1").Return(ledger.Set{"dummy-1"}, true, nil).Once()

	got, err := newStorage(wards, votes).Apply(ctx, session.Mutation{
		Kind:     session.MutationVote,
		Ward:     "ward-12",
		Identity: id,
		Proposal: proposal.Proposal{ID: "dummy-1", Votes: 235},
		Voted:    ledger.Set{"dummy-1"},
	})
	require.NoError(t, err)
	require.Equal(t, 241, got[0].Votes)
	wards.AssertExpectations(t)
	votes.AssertExpectations(t)
}

func TestApply_RepeatVoteIsRefused(t *testing.T) {
	ctx := context.Background()
	id := ledger.NewIdentity("Asha", "ward-12")

	wards := &mocks.WardRepository{}
	votes := &mocks.LedgerRepository{}
	votes.On("Record", ctx, id, "dummy-1").Return(ledger.Set{"dummy-1"}, false, nil)

	_, err := newStorage(wards, votes).Apply(ctx, session.Mutation{
		Kind:     session.MutationVote,
		Ward:     "ward-12",
		Identity: id,
		Proposal: proposal.Proposal{ID: "dummy-1"},
	})
	require.ErrorIs(t, err, session.ErrAlreadyVoted)
	require.NotErrorIs(t, err, session.ErrPersistence)
	wards.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApply_FailuresArePersistenceErrors(t *testing.T) {
	ctx := context.Background()
	disk := errors.New("disk full")

	wards := &mocks.WardRepository{}
	wards.On("Update", ctx, "ward-12").Return(nil, disk)
	votes := &mocks.LedgerRepository{}
	votes.On("Record", ctx, mock.Anything, mock.Anything).Return(nil, false, disk)

	st := newStorage(wards, votes)
	_, err := st.Apply(ctx, session.Mutation{
		Kind:     session.MutationVote,
		Ward:     "ward-12",
		Identity: ledger.NewIdentity("Asha", "ward-12"),
		Proposal: proposal.Proposal{ID: "dummy-1"},
	})
	require.ErrorIs(t, err, session.ErrPersistence)
	require.ErrorIs(t, err, disk)

	_, err = st.Apply(ctx, session.Mutation{
		Kind:     session.MutationSubmit,
		Ward:     "ward-12",
		Proposal: proposal.Proposal{ID: "p1"},
	})
	require.ErrorIs(t, err, session.ErrPersistence)
}

func TestApply_StatusChecksStoredState(t *testing.T) {
	ctx := context.Background()
	stored := []proposal.Proposal{
		{ID: "dummy-1", Status: proposal.StatusPending},
		{ID: "dummy-2", Status: proposal.StatusCompleted},
	}

	wards := &mocks.WardRepository{}
	wards.On("Update", ctx, "ward-12").Return(stored, nil)
	votes := &mocks.LedgerRepository{}
	st := newStorage(wards, votes)

	got, err := st.Apply(ctx, session.Mutation{
		Kind:     session.MutationStatus,
		Ward:     "ward-12",
		Proposal: proposal.Proposal{ID: "dummy-1", Status: proposal.StatusFunded},
	})
	require.NoError(t, err)
	require.Equal(t, proposal.StatusFunded, got[0].Status)
	votes.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)

	// another session already completed it
	_, err = st.Apply(ctx, session.Mutation{
		Kind:     session.MutationStatus,
		Ward:     "ward-12",
		Proposal: proposal.Proposal{ID: "dummy-2", Status: proposal.StatusApproved},
	})
	require.ErrorIs(t, err, session.ErrInvalidTransition)

	_, err = st.Apply(ctx, session.Mutation{
		Kind:     session.MutationStatus,
		Ward:     "ward-12",
		Proposal: proposal.Proposal{ID: "ghost", Status: proposal.StatusApproved},
	})
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestApply_SubmitAppendsToStored(t *testing.T) {
	ctx := context.Background()
	stored := []proposal.Proposal{{ID: "dummy-1"}, {ID: "theirs"}}

	wards := &mocks.WardRepository{}
	wards.On("Update", ctx, "ward-12").Return(stored, nil)

	got, err := newStorage(wards, &mocks.LedgerRepository{}).Apply(ctx, session.Mutation{
		Kind:     session.MutationSubmit,
		Ward:     "ward-12",
		Proposal: proposal.Proposal{ID: "mine"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"dummy-1", "theirs", "mine"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestLoad_SeedsAndTolerates(t *testing.T) {
	ctx := context.Background()
	id := ledger.NewIdentity("Asha", "ward-12")

	wards := &mocks.WardRepository{}
	wards.On("Get", ctx, "ward-12").Return(nil, repository.ErrNotFound)
	wards.On("Update", ctx, "ward-12").Return(nil, errors.New("read-only"))
	votes := &mocks.LedgerRepository{}
	votes.On("Get", ctx, id).Return(nil, errors.New("locked"))

	st := newStorage(wards, votes)
	proposals, err := st.LoadProposals(ctx, "ward-12")
	require.NoError(t, err)
	require.Len(t, proposals, 5)

	set, err := st.LoadVotes(ctx, id)
	require.NoError(t, err)
	require.Empty(t, set)

	_, err = st.LoadProposals(ctx, "")
	require.ErrorIs(t, err, session.ErrValidation)
}
