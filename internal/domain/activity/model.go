package activity

import "time"

// ActivityType represents the type of activity event
type ActivityType string

const (
	TypeProposalSubmitted ActivityType = "proposal_submitted"
	TypeVoteRecorded      ActivityType = "vote_recorded"
	TypeStatusChanged     ActivityType = "status_changed"
	TypeSessionStarted    ActivityType = "session_started"
	TypeSessionClosed     ActivityType = "session_closed"
	TypePersistenceFailed ActivityType = "persistence_failed"
	TypeSyncFailed        ActivityType = "sync_failed"
)

// ActivityEntry represents an event in a ward's activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	WardID       string       `json:"ward_id"`
	SessionID    *string      `json:"session_id,omitempty"`
	ProposalID   *string      `json:"proposal_id,omitempty"`
	Actor        string       `json:"actor,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
