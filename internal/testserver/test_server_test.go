package testserver_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/report"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/mcp"
	"github.com/ganot/wardbudget/internal/testserver"
	"github.com/ganot/wardbudget/internal/transport"
	"github.com/stretchr/testify/require"
)

func login(t *testing.T, ts *testserver.TestServer, name, wardID string) mcp.LoginResponse {
	t.Helper()
	var resp mcp.LoginResponse
	rpcErr := ts.Call(t, "", "login", mcp.LoginParams{Name: name, Phone: "9800000000", Ward: wardID}, &resp)
	require.Nil(t, rpcErr)
	return resp
}

func TestIntegration_CitizenAndAdminWorkflow(t *testing.T) {
	ts := testserver.New(t)

	citizen := login(t, ts, "Asha", "ward-12")
	require.Len(t, citizen.Proposals, 5)
	require.Equal(t, "₹ 4.28 Cr", citizen.Metrics.Display.Remaining)
	sid := citizen.Session.ID

	var submitted mcp.ProposalResponse
	require.Nil(t, ts.Call(t, sid, "submit_proposal", mcp.SubmitProposalParams{
		Title:    "Footpath near school",
		Category: proposal.CategoryRoads,
	}, &submitted))
	require.Equal(t, proposal.StatusPending, submitted.Proposal.Status)
	require.Equal(t, "₹ 18 L", submitted.Proposal.Cost)
	require.Equal(t, "Proposal saved locally", submitted.Notice.Message)

	var voted mcp.ProposalResponse
	require.Nil(t, ts.Call(t, sid, "vote", mcp.VoteParams{ID: submitted.Proposal.ID}, &voted))
	require.Equal(t, 1, voted.Proposal.Votes)

	rpcErr := ts.Call(t, sid, "vote", mcp.VoteParams{ID: submitted.Proposal.ID}, nil)
	require.NotNil(t, rpcErr)
	require.Equal(t, transport.ErrApplication, rpcErr.Code)
	require.Contains(t, rpcErr.Message, "already supported")

	admin := login(t, ts, "Officer", "ward-12")
	require.Len(t, admin.Proposals, 6)
	aid := admin.Session.ID

	var funded mcp.ProposalResponse
	require.Nil(t, ts.Call(t, aid, "set_status", mcp.SetStatusParams{ID: submitted.Proposal.ID, Status: proposal.StatusFunded}, &funded))
	require.Equal(t, "Project status: Funded (local)", funded.Notice.Message)

	var dash mcp.DashboardResponse
	require.Nil(t, ts.Call(t, aid, "get_dashboard_metrics", nil, &dash))
	require.InDelta(t, 0.40, dash.Spent, 1e-9)
	require.Equal(t, 4, dash.ActiveCount)

	var summary report.AdminSummary
	require.Nil(t, ts.Call(t, aid, "get_admin_summary", nil, &summary))
	require.Equal(t, 6, summary.Total)
	require.Equal(t, 900, summary.TotalVotes)

	var activity []mcp.ActivityEntryResponse
	require.Nil(t, ts.Call(t, aid, "get_recent_activity", mcp.GetRecentActivityParams{ProposalID: &submitted.Proposal.ID}, &activity))
	require.Len(t, activity, 3)

	resp, err := http.Get(ts.Server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "wardbudget_active_sessions 2")
	require.Contains(t, string(body), `wardbudget_actions_total{kind="vote",ward="ward-12"} 1`)
}

func TestIntegration_WardIsolationAndPersistence(t *testing.T) {
	ts := testserver.New(t)

	a := login(t, ts, "Asha", "ward-12")
	var submitted mcp.ProposalResponse
	require.Nil(t, ts.Call(t, a.Session.ID, "submit_proposal", mcp.SubmitProposalParams{
		Title:    "Storm drain",
		Category: proposal.CategoryDrainage,
		Cost:     "₹ 1.2 Cr",
	}, &submitted))
	require.Nil(t, ts.Call(t, a.Session.ID, "vote", mcp.VoteParams{ID: "dummy-1"}, nil))
	require.Nil(t, ts.Call(t, a.Session.ID, "logout", nil, nil))

	rpcErr := ts.Call(t, a.Session.ID, "list_proposals", nil, nil)
	require.NotNil(t, rpcErr)

	other := login(t, ts, "Asha", "ward-7")
	require.Len(t, other.Proposals, 5)
	for _, p := range other.Proposals {
		require.False(t, p.HasVoted)
	}

	again := login(t, ts, "Asha", "ward-12")
	require.Len(t, again.Proposals, 6)
	var dummy1 mcp.ProposalView
	for _, p := range again.Proposals {
		if p.ID == "dummy-1" {
			dummy1 = p
		}
	}
	require.True(t, dummy1.HasVoted)
	require.Equal(t, 235, dummy1.Votes)

	var wards []ward.Summary
	require.Nil(t, ts.Call(t, again.Session.ID, "list_wards", nil, &wards))
	require.Len(t, wards, 2)
}

func TestIntegration_EstimateAndTrending(t *testing.T) {
	ts := testserver.New(t)
	sid := login(t, ts, "Ravi", "ward-3").Session.ID

	var estimate mcp.EstimateCostResponse
	require.Nil(t, ts.Call(t, "", "estimate_cost", mcp.EstimateCostParams{Category: proposal.CategoryParks}, &estimate))
	require.Equal(t, "₹ 22 L", estimate.Cost)

	var trending []mcp.ProposalView
	require.Nil(t, ts.Call(t, sid, "get_trending", mcp.TrendingParams{}, &trending))
	require.Len(t, trending, 3)
	require.Equal(t, "dummy-1", trending[0].ID)

	var results []report.Result
	require.Nil(t, ts.Call(t, sid, "get_results", nil, &results))
	require.Len(t, results, 5)
	require.Equal(t, proposal.StatusFunded, results[0].Status)

	rpcErr := ts.Call(t, sid, "estimate_cost", mcp.EstimateCostParams{Category: "Schools"}, nil)
	require.NotNil(t, rpcErr)
	require.Equal(t, transport.ErrInvalidParams, rpcErr.Code)

	rpcErr = ts.Call(t, sid, "fly", nil, nil)
	require.NotNil(t, rpcErr)
	require.Equal(t, transport.ErrMethodNotFound, rpcErr.Code)
	require.False(t, strings.Contains(rpcErr.Message, "panic"))
}

func TestIntegration_SharedWardAcrossSessions(t *testing.T) {
	ts := testserver.New(t)

	asha := login(t, ts, "Asha", "ward-3").Session.ID
	ravi := login(t, ts, "Ravi", "ward-3").Session.ID

	var submitted mcp.ProposalResponse
	require.Nil(t, ts.Call(t, asha, "submit_proposal", mcp.SubmitProposalParams{
		Title:    "New bridge",
		Category: proposal.CategoryRoads,
	}, &submitted))
	require.Nil(t, ts.Call(t, asha, "vote", mcp.VoteParams{ID: "dummy-1"}, nil))

	var voted mcp.ProposalResponse
	require.Nil(t, ts.Call(t, ravi, "vote", mcp.VoteParams{ID: "dummy-1"}, &voted))
	require.Equal(t, 236, voted.Proposal.Votes)

	// the same person in a second browser
	again := login(t, ts, "Asha", "ward-3")
	require.Len(t, again.Proposals, 6)
	rpcErr := ts.Call(t, again.Session.ID, "vote", mcp.VoteParams{ID: "dummy-1"}, nil)
	require.NotNil(t, rpcErr)
	require.Contains(t, rpcErr.Message, "already supported")

	fresh := login(t, ts, "Meera", "ward-3")
	var found bool
	for _, p := range fresh.Proposals {
		switch p.ID {
		case submitted.Proposal.ID:
			found = true
		case "dummy-1":
			require.Equal(t, 236, p.Votes)
		}
	}
	require.True(t, found, "submitted proposal missing after another session voted")
}
