package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *sdkmcp.Server, h *Handler) {
	// Session
	addTool[LoginParams](server, h, "login", "Start a session for a citizen or admin in a ward. Returns session_id, the ward's proposals and budget metrics")
	addTool[SessionParams](server, h, "logout", "End the session and discard its ward state")
	addTool[SetRoleParams](server, h, "set_role", "Switch the session between citizen and admin")

	// Proposals
	addTool[ListProposalsParams](server, h, "list_proposals", "List the ward's proposals with vote state, support level and allowed admin actions")
	addTool[SubmitProposalParams](server, h, "submit_proposal", "Submit a new Pending proposal in the session's ward")
	addTool[VoteParams](server, h, "vote", "Support a proposal. Each citizen may support a proposal once")
	addTool[SetStatusParams](server, h, "set_status", "Admin action: move a proposal to Approved, Funded or Completed")

	// Reporting
	addTool[SessionParams](server, h, "get_dashboard_metrics", "Budget total, spend, remaining and utilization for the ward")
	addTool[TrendingParams](server, h, "get_trending", "Most supported proposals in the ward")
	addTool[SessionParams](server, h, "get_admin_summary", "Proposal counts by status, total votes and vote share")
	addTool[SessionParams](server, h, "get_results", "Proposals ordered by progress: Completed, Funded, Approved, Pending")
	addTool[EstimateCostParams](server, h, "estimate_cost", "Typical cost for a proposal category")
	addTool[SessionParams](server, h, "get_allocation", "Category budget allocation used by the budget simulator")
	addTool[SetAllocationParams](server, h, "set_allocation", "Change one category's share of the ward budget")
	addTool[GetRecentActivityParams](server, h, "get_recent_activity", "Recent submissions, votes and status changes in the ward")
	addTool[struct{}](server, h, "list_wards", "Wards with locally stored proposals")
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			params, err := json.Marshal(in)
			if err != nil {
				return nil, nil, err
			}
			result, err := h.Handle(ctx, getSessionID(ctx), name, params)
			if err != nil {
				return errorResult(err), nil, nil
			}
			return jsonResult(result), nil, nil
		})
}

func jsonResult(v any) *sdkmcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResult(err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}

func errorResult(err error) *sdkmcp.CallToolResult {
	var payload any = map[string]string{"code": "INTERNAL_ERROR", "message": err.Error()}
	if apiErr := MapError(err); apiErr != nil {
		payload = apiErr
	}
	data, _ := json.Marshal(payload)
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
