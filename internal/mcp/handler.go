package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/notice"
)

// SessionManager defines the session operations needed by MCP.
type SessionManager interface {
	Login(ctx context.Context, req session.LoginRequest) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Logout(ctx context.Context, id string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// WardLister lists wards known to local storage.
type WardLister interface {
	List(ctx context.Context) ([]ward.Summary, error)
}

// BudgetObserver receives the figures served for a ward.
type BudgetObserver interface {
	ObserveBudget(wardID string, m budget.Metrics)
}

// Handler dispatches MCP commands.
type Handler struct {
	sessions SessionManager
	activity ActivityService
	wards    WardLister
	budgets  BudgetObserver
	mode     notice.Mode
	logger   *slog.Logger
}

// NewHandler creates a new MCP handler. wards and budgets may be nil.
func NewHandler(svc Services, mode notice.Mode, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions: svc.Sessions,
		activity: svc.Activity,
		wards:    svc.Wards,
		budgets:  svc.Budgets,
		mode:     mode,
		logger:   logger,
	}
}

// Handle dispatches requests to the session engine. sessionID comes from the
// transport; a session_id parameter is used when it is empty.
func (h *Handler) Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "login":
		var req LoginParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.sessions.Login(ctx, session.LoginRequest{
			Name:  req.Name,
			Phone: req.Phone,
			Ward:  req.Ward,
			Role:  req.Role,
		})
		if err != nil {
			return nil, failure(notice.OpLogin, err)
		}
		return LoginResponse{
			Session:   sess.Info(),
			Proposals: views(sess.Proposals(), sess.VotedIDs()),
			Metrics:   h.dashboard(sess),
			Notice:    notice.Success(notice.OpLogin, h.mode, ""),
		}, nil
	case "logout":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.sessions.Logout(ctx, pick(sessionID, req.SessionID)); err != nil {
			return nil, failure(notice.OpLogout, err)
		}
		return StatusResponse{Status: "closed", Notice: notice.Success(notice.OpLogout, h.mode, "")}, nil
	case "set_role":
		var req SetRoleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, failure(notice.OpSetRole, err)
		}
		info, err := sess.SetRole(req.Role)
		if err != nil {
			return nil, failure(notice.OpSetRole, err)
		}
		return info, nil
	case "list_proposals":
		var req ListProposalsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		all := views(sess.Proposals(), sess.VotedIDs())
		resp := make([]ProposalView, 0, len(all))
		for _, v := range all {
			if req.Status != "" && v.Status != req.Status {
				continue
			}
			if req.Category != "" && v.Category != req.Category {
				continue
			}
			resp = append(resp, v)
		}
		return resp, nil
	case "submit_proposal":
		var req SubmitProposalParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, failure(notice.OpSubmit, err)
		}
		p, err := sess.Submit(ctx, proposal.Draft{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			Cost:        req.Cost,
		})
		if err != nil {
			return nil, failure(notice.OpSubmit, err)
		}
		return proposalResponse(p, sess.VotedIDs(), notice.Success(notice.OpSubmit, h.mode, "")), nil
	case "vote":
		var req VoteParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, failure(notice.OpVote, err)
		}
		p, err := sess.Vote(ctx, req.ID)
		if err != nil {
			return nil, failure(notice.OpVote, err)
		}
		return proposalResponse(p, sess.VotedIDs(), notice.Success(notice.OpVote, h.mode, "")), nil
	case "set_status":
		var req SetStatusParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, failure(notice.OpSetStatus, err)
		}
		p, err := sess.SetStatus(ctx, req.ID, req.Status)
		if errors.Is(err, session.ErrNotFound) {
			h.logger.Debug("ignoring status change for unknown proposal", "proposal", req.ID)
			return ProposalResponse{Ignored: true}, nil
		}
		if err != nil {
			return nil, failure(notice.OpSetStatus, err)
		}
		return proposalResponse(p, sess.VotedIDs(), notice.Success(notice.OpSetStatus, h.mode, string(p.Status))), nil
	case "get_dashboard_metrics":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return h.dashboard(sess), nil
	case "get_trending":
		var req TrendingParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return views(sess.Trending(req.Limit), sess.VotedIDs()), nil
	case "get_admin_summary":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return sess.AdminSummary(), nil
	case "get_results":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return sess.Results(), nil
	case "estimate_cost":
		var req EstimateCostParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if !req.Category.Valid() {
			return nil, failure(notice.OpSubmit, fmt.Errorf("%w: %w", session.ErrValidation, proposal.ErrInvalidCategory))
		}
		cost := proposal.Estimate(req.Category)
		return EstimateCostResponse{Category: req.Category, Cost: cost, Crores: budget.ParseCost(cost)}, nil
	case "get_allocation":
		var req SessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		return allocation(sess.Allocation()), nil
	case "set_allocation":
		var req SetAllocationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, failure(notice.OpAllocation, err)
		}
		alloc, err := sess.SetAllocation(req.Category, req.Percent)
		if err != nil {
			return nil, failure(notice.OpAllocation, err)
		}
		return allocation(alloc), nil
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		sess, err := h.session(sessionID, req.SessionID)
		if err != nil {
			return nil, mapError(err)
		}
		entries, err := h.activity.GetRecentActivity(ctx, activity.ListActivityOptions{
			WardID:     sess.Info().Ward,
			ProposalID: req.ProposalID,
			Limit:      req.Limit,
		})
		if err != nil {
			return nil, mapError(err)
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp:  entry.CreatedAt,
				Type:       entry.ActivityType,
				Actor:      entry.Actor,
				SessionID:  stringValue(entry.SessionID),
				ProposalID: stringValue(entry.ProposalID),
				Summary:    entry.Summary,
				Details:    entry.Details,
			})
		}
		return resp, nil
	case "list_wards":
		if h.wards == nil {
			return []ward.Summary{}, nil
		}
		wards, err := h.wards.List(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return wards, nil
	default:
		return nil, &APIError{Code: "METHOD_NOT_FOUND", Message: fmt.Sprintf("unknown method: %s", method)}
	}
}

func (h *Handler) session(fromTransport, fromParams string) (*session.Session, error) {
	return h.sessions.Get(pick(fromTransport, fromParams))
}

func (h *Handler) dashboard(sess *session.Session) DashboardResponse {
	m := sess.Metrics()
	if h.budgets != nil {
		h.budgets.ObserveBudget(sess.Info().Ward, m)
	}
	return DashboardResponse{Metrics: m, Display: m.Display()}
}

func view(p proposal.Proposal, voted ledger.Set) ProposalView {
	return ProposalView{
		Proposal: p,
		HasVoted: voted.Contains(p.ID),
		Support:  proposal.Strength(p.Votes),
		Progress: proposal.Progress(p.Status),
		Actions:  proposal.AvailableActions(p.Status),
	}
}

func proposalResponse(p proposal.Proposal, voted ledger.Set, n notice.Notice) ProposalResponse {
	v := view(p, voted)
	return ProposalResponse{Proposal: &v, Notice: &n}
}

func views(ps []proposal.Proposal, voted ledger.Set) []ProposalView {
	out := make([]ProposalView, 0, len(ps))
	for _, p := range ps {
		out = append(out, view(p, voted))
	}
	return out
}

func allocation(a budget.Allocation) AllocationResponse {
	return AllocationResponse{Percent: a, Amounts: a.Amounts(budget.TotalWardBudget)}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return &APIError{Code: "VALIDATION_ERROR", Message: fmt.Sprintf("invalid params: %v", err), err: fmt.Errorf("%w: %w", session.ErrValidation, err)}
	}
	return nil
}

func pick(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}

func stringValue(val *string) string {
	if val == nil {
		return ""
	}
	return *val
}
