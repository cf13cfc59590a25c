package report_test

import (
	"testing"
	"time"

	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/report"
	"github.com/stretchr/testify/require"
)

func ids(proposals []proposal.Proposal) []string {
	out := make([]string, 0, len(proposals))
	for _, p := range proposals {
		out = append(out, p.ID)
	}
	return out
}

func TestTrending(t *testing.T) {
	seed := proposal.Seed(time.Now())

	require.Equal(t, []string{"dummy-1", "dummy-2", "dummy-5"}, ids(report.Trending(seed, 0)))
	require.Equal(t, []string{"dummy-1"}, ids(report.Trending(seed, 1)))
	require.Len(t, report.Trending(seed, 10), 5)
	require.Empty(t, report.Trending(nil, 3))

	// input order untouched
	require.Equal(t, "dummy-1", seed[0].ID)
	require.Equal(t, "dummy-3", seed[2].ID)
}

func TestSummarize_Seed(t *testing.T) {
	summary := report.Summarize(proposal.Seed(time.Now()))

	require.Equal(t, 5, summary.Total)
	require.Equal(t, 2, summary.Pending)
	require.Equal(t, 2, summary.Approved)
	require.Equal(t, 1, summary.Funded)
	require.Equal(t, 0, summary.Completed)
	require.Equal(t, 899, summary.TotalVotes)

	require.Len(t, summary.Shares, 5)
	top := summary.Shares[0]
	require.Equal(t, "dummy-1", top.ProposalID)
	require.Equal(t, 26.0, top.Percent)
	require.Equal(t, proposal.SupportHigh, top.Support)
	require.Equal(t, []proposal.Status{proposal.StatusApproved, proposal.StatusFunded, proposal.StatusCompleted}, top.Actions)
}

func TestSummarize_NoVotes(t *testing.T) {
	summary := report.Summarize([]proposal.Proposal{{ID: "a", Status: proposal.StatusPending}})
	require.Equal(t, 0, summary.TotalVotes)
	require.Equal(t, 0.0, summary.Shares[0].Percent)
	require.Equal(t, proposal.SupportNone, summary.Shares[0].Support)
}

func TestResults_Ordering(t *testing.T) {
	results := report.Results([]proposal.Proposal{
		{ID: "p", Status: proposal.StatusPending},
		{ID: "a", Status: proposal.StatusApproved},
		{ID: "c", Status: proposal.StatusCompleted},
		{ID: "f", Status: proposal.StatusFunded},
		{ID: "a2", Status: proposal.StatusApproved},
	})

	var order []string
	var progress []int
	for _, r := range results {
		order = append(order, r.ID)
		progress = append(progress, r.Progress)
	}
	require.Equal(t, []string{"c", "f", "a", "a2", "p"}, order)
	require.Equal(t, []int{100, 75, 50, 50, 33}, progress)
}
