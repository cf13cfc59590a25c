package mcp

import (
	"time"

	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/notice"
)

type LoginParams struct {
	Name  string `json:"name" jsonschema:"citizen or admin display name"`
	Phone string `json:"phone" jsonschema:"contact phone number"`
	Ward  string `json:"ward" jsonschema:"ward identifier, e.g. ward-12"`
	Role  string `json:"role,omitempty" jsonschema:"citizen (default) or admin"`
}

type SessionParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session id returned by login"`
}

type SetRoleParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	Role      string `json:"role" jsonschema:"citizen or admin"`
}

type ListProposalsParams struct {
	SessionID string            `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	Status    proposal.Status   `json:"status,omitempty" jsonschema:"only proposals in this status"`
	Category  proposal.Category `json:"category,omitempty" jsonschema:"only proposals in this category"`
}

type SubmitProposalParams struct {
	SessionID   string            `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	Title       string            `json:"title" jsonschema:"short proposal title"`
	Description string            `json:"description,omitempty" jsonschema:"what should be built and where"`
	Category    proposal.Category `json:"category" jsonschema:"Roads, Drainage, Parks, Lighting or Safety"`
	Cost        string            `json:"cost,omitempty" jsonschema:"cost such as '₹ 18 L' or '₹ 1.2 Cr'; defaults to the category estimate"`
}

type VoteParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	ID        string `json:"id" jsonschema:"proposal id"`
}

type SetStatusParams struct {
	SessionID string          `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	ID        string          `json:"id" jsonschema:"proposal id"`
	Status    proposal.Status `json:"status" jsonschema:"Approved, Funded or Completed"`
}

type TrendingParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	Limit     int    `json:"limit,omitempty" jsonschema:"number of proposals, default 3"`
}

type EstimateCostParams struct {
	Category proposal.Category `json:"category" jsonschema:"proposal category"`
}

type SetAllocationParams struct {
	SessionID string            `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	Category  proposal.Category `json:"category" jsonschema:"proposal category"`
	Percent   int               `json:"percent" jsonschema:"share of the ward budget, 0-100"`
}

type GetRecentActivityParams struct {
	SessionID  string  `json:"session_id,omitempty" jsonschema:"session id returned by login"`
	ProposalID *string `json:"proposal_id,omitempty" jsonschema:"only activity for this proposal"`
	Limit      int     `json:"limit,omitempty" jsonschema:"maximum entries, default 50"`
}

type LoginResponse struct {
	Session   session.Info      `json:"session"`
	Proposals []ProposalView    `json:"proposals"`
	Metrics   DashboardResponse `json:"metrics"`
	Notice    notice.Notice     `json:"notice"`
}

type StatusResponse struct {
	Status string        `json:"status"`
	Notice notice.Notice `json:"notice"`
}

// ProposalView is a proposal as seen by the calling session
type ProposalView struct {
	proposal.Proposal
	HasVoted bool              `json:"has_voted"`
	Support  proposal.Support  `json:"support"`
	Progress int               `json:"progress"`
	Actions  []proposal.Status `json:"actions,omitempty"`
}

// ProposalResponse answers submit, vote and set_status. Ignored is set, and
// the other fields left empty, when set_status names a proposal that doesn't
// exist.
type ProposalResponse struct {
	Proposal *ProposalView  `json:"proposal,omitempty"`
	Notice   *notice.Notice `json:"notice,omitempty"`
	Ignored  bool           `json:"ignored,omitempty"`
}

type DashboardResponse struct {
	budget.Metrics
	Display budget.Display `json:"display"`
}

type EstimateCostResponse struct {
	Category proposal.Category `json:"category"`
	Cost     string            `json:"cost"`
	Crores   float64           `json:"crores"`
}

type AllocationResponse struct {
	Percent map[proposal.Category]int     `json:"percent"`
	Amounts map[proposal.Category]float64 `json:"amounts"`
}

type ActivityEntryResponse struct {
	Timestamp  time.Time             `json:"timestamp"`
	Type       activity.ActivityType `json:"type"`
	Actor      string                `json:"actor"`
	SessionID  string                `json:"session_id,omitempty"`
	ProposalID string                `json:"proposal_id,omitempty"`
	Summary    string                `json:"summary"`
	Details    string                `json:"details,omitempty"`
}

// SessionIDValue lets transports remember the session created by login.
func (r LoginResponse) SessionIDValue() string {
	return r.Session.ID
}
