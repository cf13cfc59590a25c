package session

import (
	"strings"
	"time"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/proposal"
)

// Role is chosen by the user at login and is not verified
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

// ParseRole maps user input to a role, defaulting to citizen.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleCitizen:
		return RoleCitizen, nil
	case RoleAdmin:
		return RoleAdmin, nil
	}
	return "", ErrValidation
}

// LoginRequest carries the login form fields
type LoginRequest struct {
	Name  string
	Phone string
	Ward  string
	Role  string
}

// Info describes a logged-in session
type Info struct {
	ID        string          `json:"session_id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	Ward      string          `json:"ward"`
	Role      Role            `json:"role"`
	Identity  ledger.Identity `json:"identity"`
	StartedAt time.Time       `json:"started_at"`
}

// MutationKind names the change a Mutation carries
type MutationKind string

const (
	MutationSubmit MutationKind = "submit"
	MutationVote   MutationKind = "vote"
	MutationStatus MutationKind = "status"
)

// Mutation is one change handed to Storage.Apply. Proposal is the affected
// proposal as the session sees it after the change. Stores apply Kind to
// their own copy: append on submit, one more vote on vote, Proposal.Status
// on status. Voted is the session's vote set including this vote.
type Mutation struct {
	Kind       MutationKind
	Ward       string
	Identity   ledger.Identity
	Proposal   proposal.Proposal
	PrevStatus proposal.Status
	Voted      ledger.Set
}

// SnapshotKind says which part of the session state a snapshot replaces
type SnapshotKind string

const (
	SnapshotProposals SnapshotKind = "proposals"
	SnapshotVotes     SnapshotKind = "votes"
)

// Snapshot is a full copy of remote state pushed by a Watcher
type Snapshot struct {
	Kind      SnapshotKind
	Proposals []proposal.Proposal
	Votes     ledger.Set
}

// EventType names an engine event
type EventType string

const (
	EventSessionStarted    EventType = "session_started"
	EventSessionClosed     EventType = "session_closed"
	EventProposalSubmitted EventType = "proposal_submitted"
	EventVoteRecorded      EventType = "vote_recorded"
	EventStatusChanged     EventType = "status_changed"
	EventPersistenceFailed EventType = "persistence_failed"
	EventSyncFailed        EventType = "sync_failed"
	EventSnapshotApplied   EventType = "snapshot_applied"
)

// Event is emitted to the Observer after the engine acts
type Event struct {
	Type     EventType
	Session  Info
	Kind     MutationKind
	Proposal proposal.Proposal
	From     proposal.Status
	Snapshot SnapshotKind
	Err      error
}
