package ward

import "time"

// Summary is a lightweight view of a stored ward for listing
type Summary struct {
	WardID        string    `json:"ward_id"`
	ProposalCount int       `json:"proposal_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}
