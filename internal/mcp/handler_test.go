package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/notice"
	"github.com/ganot/wardbudget/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type activityStub struct {
	listFn func(context.Context, activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

func (a activityStub) GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	return a.listFn(ctx, opts)
}

type wardStub struct {
	wards []ward.Summary
}

func (w wardStub) List(context.Context) ([]ward.Summary, error) {
	return w.wards, nil
}

type budgetStub struct {
	observed map[string]budget.Metrics
}

func (b *budgetStub) ObserveBudget(wardID string, m budget.Metrics) {
	b.observed[wardID] = m
}

func newTestHandler(t *testing.T, storage session.Storage, svc Services) *Handler {
	t.Helper()
	n := 0
	svc.Sessions = session.NewManager(storage, nil,
		session.WithClock(func() time.Time { return fixedNow }),
		session.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
	return NewHandler(svc, notice.ModeLocal, nil)
}

func seededStorage() *mocks.Storage {
	storage := &mocks.Storage{}
	storage.On("LoadProposals", mock.Anything, "ward-12").Return(proposal.Seed(fixedNow), nil)
	storage.On("LoadVotes", mock.Anything, ledger.NewIdentity("Asha", "ward-12")).Return(ledger.Set{}, nil)
	return storage
}

func call(t *testing.T, h *Handler, sessionID, method string, params any) (any, error) {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return h.Handle(context.Background(), sessionID, method, raw)
}

func loginAsha(t *testing.T, h *Handler) string {
	t.Helper()
	result, err := call(t, h, "", "login", LoginParams{Name: "Asha", Phone: "9800000000", Ward: "ward-12"})
	require.NoError(t, err)
	resp := result.(LoginResponse)
	require.Len(t, resp.Proposals, 5)
	require.Equal(t, session.RoleCitizen, resp.Session.Role)
	return resp.Session.ID
}

func TestHandle_LoginValidation(t *testing.T) {
	h := newTestHandler(t, &mocks.Storage{}, Services{})

	_, err := call(t, h, "", "login", LoginParams{Phone: "9800000000", Ward: "ward-12"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
	require.NotNil(t, apiErr.Notice)
	require.Equal(t, "Please enter your name and phone number", apiErr.Notice.Message)
}

func TestHandle_VoteFlow(t *testing.T) {
	storage := seededStorage()
	storage.On("Apply", mock.Anything, mock.Anything).Return(nil, nil)
	h := newTestHandler(t, storage, Services{})
	sid := loginAsha(t, h)

	result, err := call(t, h, sid, "vote", VoteParams{ID: "dummy-3"})
	require.NoError(t, err)
	resp := result.(ProposalResponse)
	require.Equal(t, 157, resp.Proposal.Votes)
	require.True(t, resp.Proposal.HasVoted)
	require.Equal(t, proposal.SupportHigh, resp.Proposal.Support)
	require.Equal(t, "Support recorded!", resp.Notice.Message)

	_, err = call(t, h, sid, "vote", VoteParams{ID: "dummy-3"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "ALREADY_VOTED", apiErr.Code)
	require.Equal(t, notice.LevelInfo, apiErr.Notice.Level)
	require.ErrorIs(t, err, session.ErrAlreadyVoted)
}

func TestHandle_SessionFromParams(t *testing.T) {
	h := newTestHandler(t, seededStorage(), Services{})
	sid := loginAsha(t, h)

	result, err := call(t, h, "", "list_proposals", ListProposalsParams{SessionID: sid, Status: proposal.StatusPending})
	require.NoError(t, err)
	views := result.([]ProposalView)
	require.Len(t, views, 2)
	for _, v := range views {
		require.Equal(t, []proposal.Status{proposal.StatusApproved, proposal.StatusFunded}, v.Actions)
		require.Equal(t, 33, v.Progress)
	}
}

func TestHandle_NotLoggedIn(t *testing.T) {
	h := newTestHandler(t, &mocks.Storage{}, Services{})

	_, err := call(t, h, "missing", "get_dashboard_metrics", SessionParams{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "NOT_LOGGED_IN", apiErr.Code)
}

func TestHandle_SetStatus(t *testing.T) {
	storage := seededStorage()
	storage.On("Apply", mock.Anything, mock.Anything).Return(nil, nil)
	h := newTestHandler(t, storage, Services{})
	sid := loginAsha(t, h)

	result, err := call(t, h, sid, "set_status", SetStatusParams{ID: "dummy-5", Status: proposal.StatusFunded})
	require.NoError(t, err)
	resp := result.(ProposalResponse)
	require.Equal(t, proposal.StatusFunded, resp.Proposal.Status)
	require.Equal(t, "Project status: Funded (local)", resp.Notice.Message)

	_, err = call(t, h, sid, "set_status", SetStatusParams{ID: "dummy-3", Status: proposal.StatusCompleted})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_TRANSITION", apiErr.Code)

	// unknown ids are ignored without an error or a notice
	result, err = call(t, h, sid, "set_status", SetStatusParams{ID: "nope", Status: proposal.StatusApproved})
	require.NoError(t, err)
	resp = result.(ProposalResponse)
	require.True(t, resp.Ignored)
	require.Nil(t, resp.Proposal)
	require.Nil(t, resp.Notice)
}

func TestHandle_SyncFailure(t *testing.T) {
	storage := seededStorage()
	storage.On("Apply", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	h := newTestHandler(t, storage, Services{})
	sid := loginAsha(t, h)

	_, err := call(t, h, sid, "submit_proposal", SubmitProposalParams{Title: "Bus shelter", Category: proposal.CategorySafety})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "SYNC_ERROR", apiErr.Code)
	require.Equal(t, "Submission failed.", apiErr.Notice.Message)

	result, err := call(t, h, sid, "list_proposals", ListProposalsParams{})
	require.NoError(t, err)
	require.Len(t, result.([]ProposalView), 5)
}

func TestHandle_Dashboard(t *testing.T) {
	budgets := &budgetStub{observed: map[string]budget.Metrics{}}
	h := newTestHandler(t, seededStorage(), Services{Budgets: budgets})
	sid := loginAsha(t, h)

	result, err := call(t, h, sid, "get_dashboard_metrics", nil)
	require.NoError(t, err)
	resp := result.(DashboardResponse)
	require.InDelta(t, 0.22, resp.Spent, 1e-9)
	require.Equal(t, "₹ 4.28 Cr", resp.Display.Remaining)
	require.Contains(t, budgets.observed, "ward-12")
}

func TestHandle_Allocation(t *testing.T) {
	h := newTestHandler(t, seededStorage(), Services{})
	sid := loginAsha(t, h)

	result, err := call(t, h, sid, "set_allocation", SetAllocationParams{Category: proposal.CategoryParks, Percent: 30})
	require.NoError(t, err)
	resp := result.(AllocationResponse)
	require.Equal(t, 30, resp.Percent[proposal.CategoryParks])
	require.InDelta(t, 1.35, resp.Amounts[proposal.CategoryParks], 1e-9)

	_, err = call(t, h, sid, "set_allocation", SetAllocationParams{Category: "Schools", Percent: 10})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "VALIDATION_ERROR", apiErr.Code)
}

func TestHandle_EstimateCost(t *testing.T) {
	h := newTestHandler(t, &mocks.Storage{}, Services{})

	result, err := call(t, h, "", "estimate_cost", EstimateCostParams{Category: proposal.CategoryLighting})
	require.NoError(t, err)
	resp := result.(EstimateCostResponse)
	require.Equal(t, "₹ 6.5 L", resp.Cost)
	require.InDelta(t, 0.065, resp.Crores, 1e-9)
}

func TestHandle_RecentActivityScopedToWard(t *testing.T) {
	proposalID := "dummy-1"
	var got activity.ListActivityOptions
	acts := activityStub{listFn: func(_ context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
		got = opts
		return []activity.ActivityEntry{{
			ID:           1,
			WardID:       "ward-12",
			ProposalID:   &proposalID,
			Actor:        "Asha",
			ActivityType: activity.TypeVoteRecorded,
			Summary:      "Asha supported Fix potholes",
			CreatedAt:    fixedNow,
		}}, nil
	}}
	h := newTestHandler(t, seededStorage(), Services{Activity: acts})
	sid := loginAsha(t, h)

	result, err := call(t, h, sid, "get_recent_activity", GetRecentActivityParams{Limit: 5})
	require.NoError(t, err)
	entries := result.([]ActivityEntryResponse)
	require.Len(t, entries, 1)
	require.Equal(t, "dummy-1", entries[0].ProposalID)
	require.Equal(t, "ward-12", got.WardID)
	require.Equal(t, 5, got.Limit)
}

func TestHandle_ListWardsAndLogout(t *testing.T) {
	h := newTestHandler(t, seededStorage(), Services{Wards: wardStub{wards: []ward.Summary{{WardID: "ward-12", ProposalCount: 5}}}})
	sid := loginAsha(t, h)

	result, err := call(t, h, "", "list_wards", nil)
	require.NoError(t, err)
	require.Len(t, result.([]ward.Summary), 1)

	result, err = call(t, h, sid, "logout", nil)
	require.NoError(t, err)
	require.Equal(t, "Session ended.", result.(StatusResponse).Notice.Message)

	_, err = call(t, h, sid, "get_results", nil)
	require.ErrorIs(t, err, session.ErrNotLoggedIn)
}

func TestHandle_UnknownMethod(t *testing.T) {
	h := newTestHandler(t, &mocks.Storage{}, Services{})
	_, err := h.Handle(context.Background(), "", "drop_tables", nil)
	require.Error(t, err)
}
