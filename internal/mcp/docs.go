package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `wardbudget tracks infrastructure proposals for a municipal ward against a fixed ward budget (₹ 4.5 Cr).

Workflow:
1) login(name, phone, ward, role). Keep the returned session_id and pass it to every other tool.
2) Browse: list_proposals, get_trending, get_dashboard_metrics, get_results.
3) Citizens: submit_proposal, vote (once per proposal per name+ward).
4) Admins: set_status with Approved, Funded or Completed. Each proposal lists its allowed actions. An unknown id is ignored and answers {"ignored": true}.
5) logout when done.

Every mutating tool returns a notice (level + message) suitable for showing to the user.

Docs:
- wardbudget://docs/lifecycle
- wardbudget://docs/budget
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "wardbudget://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Proposal lifecycle",
		Description: "Statuses, allowed admin actions and voting rules.",
		Content: `# Proposal lifecycle

Statuses: Pending → Approved → Funded → Completed.

| Action   | Allowed from                 |
|----------|------------------------------|
| Approve  | Pending, Approved, Funded    |
| Fund     | Pending, Approved            |
| Complete | Approved, Funded, Completed  |

- Completed proposals accept no further approve or fund.
- Approving an Approved proposal, or completing a Completed one, succeeds without a write.
- A citizen (name + ward) may support a proposal once. A second vote returns ALREADY_VOTED.
- Vote counts are atomic increments in the shared store; status is last writer wins.
`,
	},
	{
		URI:         "wardbudget://docs/budget",
		Name:        "docs_budget",
		Title:       "Budget accounting",
		Description: "How spend, remaining budget and utilization are computed.",
		Content: `# Budget accounting

- Total ward budget is ₹ 4.5 Cr.
- Spend is the sum of costs of Funded and Completed proposals. Pending and Approved do not count.
- Costs are free text. "₹ 18 L" is 0.18 Cr; "₹ 1.2 Cr" is 1.2 Cr; unparseable costs count as 0.
- Remaining is never negative; utilization is capped at 100%.
- estimate_cost returns the typical cost for a category.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
