package activity

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ganot/wardbudget/internal/domain/session"
)

// Recorder writes session events into the activity log.
type Recorder struct {
	svc *Service
}

// NewRecorder creates a session observer backed by svc.
func NewRecorder(svc *Service) *Recorder {
	return &Recorder{svc: svc}
}

type details struct {
	Kind   session.MutationKind `json:"kind,omitempty"`
	From   string               `json:"from,omitempty"`
	To     string               `json:"to,omitempty"`
	Votes  int                  `json:"votes,omitempty"`
	Role   session.Role         `json:"role,omitempty"`
	Reason string               `json:"error,omitempty"`
}

// Observe implements session.Observer. Logging failures are reported to the
// service logger and otherwise ignored.
func (r *Recorder) Observe(ctx context.Context, ev session.Event) {
	entry, ok := entryFor(ev)
	if !ok {
		return
	}
	if err := r.svc.LogActivity(ctx, entry); err != nil {
		r.svc.logger.Warn("recording activity failed", "type", entry.ActivityType, "ward", entry.WardID, "error", err)
	}
}

func entryFor(ev session.Event) (*ActivityEntry, bool) {
	info := ev.Session
	entry := &ActivityEntry{
		WardID:    info.Ward,
		SessionID: &info.ID,
		Actor:     info.Name,
	}
	var d details
	p := ev.Proposal

	switch ev.Type {
	case session.EventSessionStarted:
		entry.ActivityType = TypeSessionStarted
		entry.Summary = fmt.Sprintf("%s logged in", info.Name)
		d.Role = info.Role
	case session.EventSessionClosed:
		entry.ActivityType = TypeSessionClosed
		entry.Summary = fmt.Sprintf("%s logged out", info.Name)
	case session.EventProposalSubmitted:
		entry.ActivityType = TypeProposalSubmitted
		entry.Summary = fmt.Sprintf("Submitted %q", p.Title)
	case session.EventVoteRecorded:
		entry.ActivityType = TypeVoteRecorded
		entry.Summary = fmt.Sprintf("Supported %q", p.Title)
		d.Votes = p.Votes
	case session.EventStatusChanged:
		entry.ActivityType = TypeStatusChanged
		entry.Summary = fmt.Sprintf("%q moved to %s", p.Title, p.Status)
		d.From, d.To = string(ev.From), string(p.Status)
	case session.EventPersistenceFailed:
		entry.ActivityType = TypePersistenceFailed
		entry.Summary = fmt.Sprintf("%s not saved locally", ev.Kind)
		d.Kind = ev.Kind
	case session.EventSyncFailed:
		entry.ActivityType = TypeSyncFailed
		entry.Summary = fmt.Sprintf("%s rejected by store", ev.Kind)
		d.Kind = ev.Kind
	default:
		return nil, false
	}

	if p.ID != "" {
		id := p.ID
		entry.ProposalID = &id
	}
	if ev.Err != nil {
		d.Reason = ev.Err.Error()
	}
	if raw, err := json.Marshal(d); err == nil && string(raw) != "{}" {
		entry.Details = string(raw)
	}
	return entry, true
}
