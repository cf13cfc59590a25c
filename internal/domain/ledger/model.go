package ledger

import (
	"slices"
	"strings"
)

// Identity keys a vote set as "<name>|<ward>". The same person logging in
// under a different name gets a fresh identity.
type Identity string

// NewIdentity builds the ledger key for a voter in a ward.
func NewIdentity(name, ward string) Identity {
	return Identity(strings.TrimSpace(name) + "|" + strings.TrimSpace(ward))
}

// Valid reports whether both halves of the identity are present.
func (i Identity) Valid() bool {
	name, ward, ok := strings.Cut(string(i), "|")
	return ok && name != "" && ward != ""
}

// Set is the ordered, duplicate-free list of proposal IDs an identity has
// voted on. It only grows.
type Set []string

// Contains reports whether id is in the set.
func (s Set) Contains(id string) bool {
	return slices.Contains(s, id)
}

// With returns a copy of the set with id appended if missing.
func (s Set) With(id string) Set {
	if s.Contains(id) {
		return s.Clone()
	}
	out := make(Set, len(s), len(s)+1)
	copy(out, s)
	return append(out, id)
}

// Clone returns an independent copy, never nil.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	copy(out, s)
	return out
}

// Normalize drops blanks and duplicates while keeping first-seen order.
func Normalize(ids []string) Set {
	out := make(Set, 0, len(ids))
	for _, id := range ids {
		if id == "" || out.Contains(id) {
			continue
		}
		out = append(out, id)
	}
	return out
}
