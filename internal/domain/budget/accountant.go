// Package budget computes ward spend, remaining budget and utilization from
// a proposal collection. All functions are pure.
package budget

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/ganot/wardbudget/internal/domain/proposal"
	"github.com/shopspring/decimal"
)

// TotalWardBudget is the fixed per-ward budget in crores. Every ward shares
// this figure even though proposal collections are ward-scoped.
const TotalWardBudget = 4.5

var (
	totalBudget = decimal.NewFromFloat(TotalWardBudget)
	hundred     = decimal.NewFromInt(100)
)

// Metrics is the dashboard view of a ward's budget
type Metrics struct {
	Total              float64 `json:"total"`
	Spent              float64 `json:"spent"`
	Remaining          float64 `json:"remaining"`
	UtilizationPercent float64 `json:"utilization_percent"`
	ActiveCount        int     `json:"active_count"`
}

// Compute derives budget metrics. Spent is the parsed cost of every Funded or
// Completed proposal and may exceed the budget; Remaining is floored at zero
// and UtilizationPercent capped at 100 for display.
func Compute(proposals []proposal.Proposal) Metrics {
	spent := decimal.Zero
	active := 0
	for _, p := range proposals {
		if p.Status.CountsAsSpend() {
			spent = spent.Add(parseCost(p.Cost))
		}
		if p.Status.Active() {
			active++
		}
	}

	remaining := decimal.Max(totalBudget.Sub(spent), decimal.Zero)
	utilization := decimal.Min(spent.Div(totalBudget).Mul(hundred), hundred)

	return Metrics{
		Total:              TotalWardBudget,
		Spent:              spent.InexactFloat64(),
		Remaining:          remaining.InexactFloat64(),
		UtilizationPercent: utilization.InexactFloat64(),
		ActiveCount:        active,
	}
}

// Display holds the formatted dashboard figures
type Display struct {
	Total       string `json:"total"`
	Spent       string `json:"spent"`
	Remaining   string `json:"remaining"`
	Utilization string `json:"utilization"`
}

// Display formats the metrics the way the dashboard renders them.
func (m Metrics) Display() Display {
	return Display{
		Total:       fmt.Sprintf("₹ %s Cr", humanize.FormatFloat("#,###.##", m.Total)),
		Spent:       fmt.Sprintf("₹ %s Cr", humanize.FormatFloat("#,###.##", m.Spent)),
		Remaining:   fmt.Sprintf("₹ %s Cr", humanize.FormatFloat("#,###.##", m.Remaining)),
		Utilization: fmt.Sprintf("%s%% Used", humanize.FormatFloat("#,###.#", m.UtilizationPercent)),
	}
}
