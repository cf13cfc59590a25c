package proposal

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a proposal
type Status string

const (
	StatusPending   Status = "Pending"
	StatusApproved  Status = "Approved"
	StatusFunded    Status = "Funded"
	StatusCompleted Status = "Completed"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFunded, StatusCompleted:
		return true
	}
	return false
}

// Category is the infrastructure area a proposal belongs to
type Category string

const (
	CategoryRoads    Category = "Roads"
	CategoryDrainage Category = "Drainage"
	CategoryParks    Category = "Parks"
	CategoryLighting Category = "Lighting"
	CategorySafety   Category = "Safety"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryRoads,
	CategoryDrainage,
	CategoryParks,
	CategoryLighting,
	CategorySafety,
}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// DefaultAuthor is used when a submitter gives no name.
const DefaultAuthor = "Anonymous"

// Proposal is a community-submitted infrastructure request
type Proposal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    Category  `json:"category"`
	Cost        string    `json:"cost,omitempty"`
	Votes       int       `json:"votes"`
	Status      Status    `json:"status"`
	Author      string    `json:"author"`
	CreatedAt   time.Time `json:"created_at"`
}

// Draft holds the citizen-supplied fields of a new proposal
type Draft struct {
	Title       string
	Description string
	Category    Category
	Cost        string
}

// New builds a Pending proposal from a draft. The title must be non-blank and
// the category must be one of Categories. A blank cost is filled from the
// category estimate.
func New(id string, draft Draft, author string, now time.Time) (Proposal, error) {
	if err := ValidateDraft(draft); err != nil {
		return Proposal{}, err
	}

	author = strings.TrimSpace(author)
	if author == "" {
		author = DefaultAuthor
	}

	cost := strings.TrimSpace(draft.Cost)
	if cost == "" {
		cost = Estimate(draft.Category)
	}

	return Proposal{
		ID:          id,
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
		Category:    draft.Category,
		Cost:        cost,
		Votes:       0,
		Status:      StatusPending,
		Author:      author,
		CreatedAt:   now,
	}, nil
}

// Clone returns a deep copy of a collection.
func Clone(collection []Proposal) []Proposal {
	if collection == nil {
		return nil
	}
	out := make([]Proposal, len(collection))
	copy(out, collection)
	return out
}

// Find returns the index of the proposal with the given ID, or -1.
func Find(collection []Proposal, id string) int {
	for i := range collection {
		if collection[i].ID == id {
			return i
		}
	}
	return -1
}
