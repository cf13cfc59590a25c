// Package report derives the read-only views built from a ward's proposals:
// trending lists, the admin overview and the public results board.
package report

import (
	"cmp"
	"math"
	"slices"

	"github.com/ganot/wardbudget/internal/domain/proposal"
)

// DefaultTrending is how many proposals the dashboard highlights.
const DefaultTrending = 3

// Trending returns the n most-voted proposals, ties kept in collection order.
func Trending(proposals []proposal.Proposal, n int) []proposal.Proposal {
	if n <= 0 {
		n = DefaultTrending
	}
	sorted := byVotes(proposals)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// VoteShare is a proposal's slice of all votes cast in the ward
type VoteShare struct {
	ProposalID string            `json:"proposal_id"`
	Title      string            `json:"title"`
	Status     proposal.Status   `json:"status"`
	Votes      int               `json:"votes"`
	Percent    float64           `json:"percent"`
	Support    proposal.Support  `json:"support"`
	Actions    []proposal.Status `json:"actions"`
}

// AdminSummary is the administrator overview of a ward
type AdminSummary struct {
	Total      int         `json:"total"`
	Pending    int         `json:"pending"`
	Approved   int         `json:"approved"`
	Funded     int         `json:"funded"`
	Completed  int         `json:"completed"`
	TotalVotes int         `json:"total_votes"`
	Shares     []VoteShare `json:"shares"`
}

// Summarize builds the admin overview. Shares are ordered by votes and
// rounded to one decimal place.
func Summarize(proposals []proposal.Proposal) AdminSummary {
	summary := AdminSummary{Total: len(proposals)}
	for _, p := range proposals {
		summary.TotalVotes += p.Votes
		switch p.Status {
		case proposal.StatusPending:
			summary.Pending++
		case proposal.StatusApproved:
			summary.Approved++
		case proposal.StatusFunded:
			summary.Funded++
		case proposal.StatusCompleted:
			summary.Completed++
		}
	}

	summary.Shares = make([]VoteShare, 0, len(proposals))
	for _, p := range byVotes(proposals) {
		var percent float64
		if summary.TotalVotes > 0 {
			percent = math.Round(float64(p.Votes)/float64(summary.TotalVotes)*1000) / 10
		}
		summary.Shares = append(summary.Shares, VoteShare{
			ProposalID: p.ID,
			Title:      p.Title,
			Status:     p.Status,
			Votes:      p.Votes,
			Percent:    percent,
			Support:    proposal.Strength(p.Votes),
			Actions:    proposal.AvailableActions(p.Status),
		})
	}
	return summary
}

// Result is one row of the public results board
type Result struct {
	proposal.Proposal
	Progress int              `json:"progress"`
	Support  proposal.Support `json:"support"`
}

var statusOrder = map[proposal.Status]int{
	proposal.StatusCompleted: 0,
	proposal.StatusFunded:    1,
	proposal.StatusApproved:  2,
	proposal.StatusPending:   3,
}

// Results orders proposals Completed, Funded, Approved, Pending and attaches
// the progress shown for each.
func Results(proposals []proposal.Proposal) []Result {
	sorted := proposal.Clone(proposals)
	slices.SortStableFunc(sorted, func(a, b proposal.Proposal) int {
		return cmp.Compare(rank(a.Status), rank(b.Status))
	})

	results := make([]Result, 0, len(sorted))
	for _, p := range sorted {
		results = append(results, Result{
			Proposal: p,
			Progress: proposal.Progress(p.Status),
			Support:  proposal.Strength(p.Votes),
		})
	}
	return results
}

func rank(s proposal.Status) int {
	if r, ok := statusOrder[s]; ok {
		return r
	}
	return len(statusOrder)
}

func byVotes(proposals []proposal.Proposal) []proposal.Proposal {
	sorted := proposal.Clone(proposals)
	slices.SortStableFunc(sorted, func(a, b proposal.Proposal) int {
		return cmp.Compare(b.Votes, a.Votes)
	})
	return sorted
}
