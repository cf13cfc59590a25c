package remote

import (
	"regexp"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/stretchr/testify/require"
)

var validKey = regexp.MustCompile(`^[-/_=.a-zA-Z0-9]+$`)

func TestKeysAreValidAndScoped(t *testing.T) {
	k1 := proposalKey("Ward 12 / Kolhapur", "dummy-1")
	k2 := proposalKey("Ward 12", "dummy-1")
	require.Regexp(t, validKey, k1)
	require.Regexp(t, validKey, votesKey(ledger.NewIdentity("आशा", "Ward 12")))
	require.NotEqual(t, k1, k2)
	require.Regexp(t, `^proposals\.[A-Za-z0-9_-]+\.\*$`, wardPattern("Ward 12"))
}
