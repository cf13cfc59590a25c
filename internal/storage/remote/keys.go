package remote

import (
	"encoding/base64"

	"github.com/ganot/wardbudget/internal/domain/ledger"
)

// KV keys only allow [-/_=.a-zA-Z0-9], so user-supplied segments are
// base64url-encoded.
var segment = base64.RawURLEncoding

const (
	proposalsPrefix = "proposals."
	votesPrefix     = "votes."
)

func proposalKey(wardID, proposalID string) string {
	return proposalsPrefix + segment.EncodeToString([]byte(wardID)) + "." + segment.EncodeToString([]byte(proposalID))
}

func wardPattern(wardID string) string {
	return proposalsPrefix + segment.EncodeToString([]byte(wardID)) + ".*"
}

func votesKey(identity ledger.Identity) string {
	return votesPrefix + segment.EncodeToString([]byte(identity))
}
