package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/budget"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsEvents(t *testing.T) {
	ctx := context.Background()
	rec := metrics.New()
	info := session.Info{ID: "s1", Ward: "ward-12"}

	rec.Observe(ctx, session.Event{Type: session.EventSessionStarted, Session: info})
	rec.Observe(ctx, session.Event{Type: session.EventSessionStarted, Session: info})
	rec.Observe(ctx, session.Event{Type: session.EventSessionClosed, Session: info})
	rec.Observe(ctx, session.Event{Type: session.EventVoteRecorded, Session: info, Kind: session.MutationVote})
	rec.Observe(ctx, session.Event{Type: session.EventVoteRecorded, Session: info, Kind: session.MutationVote})
	rec.Observe(ctx, session.Event{Type: session.EventSyncFailed, Session: info, Kind: session.MutationStatus, Err: errors.New("x")})

	expected := `
# HELP wardbudget_actions_total Committed proposal actions by ward and kind.
# TYPE wardbudget_actions_total counter
wardbudget_actions_total{kind="vote",ward="ward-12"} 2
# HELP wardbudget_active_sessions Number of logged-in sessions.
# TYPE wardbudget_active_sessions gauge
wardbudget_active_sessions 1
# HELP wardbudget_storage_failures_total Storage failures by kind and class (persistence or sync).
# TYPE wardbudget_storage_failures_total counter
wardbudget_storage_failures_total{class="sync",kind="status"} 1
`
	require.NoError(t, testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected),
		"wardbudget_actions_total", "wardbudget_active_sessions", "wardbudget_storage_failures_total"))
}

func TestRecorder_Handler(t *testing.T) {
	rec := metrics.New()
	rec.ObserveBudget("ward-12", budget.Metrics{Spent: 0.22, UtilizationPercent: 4.5})

	w := httptest.NewRecorder()
	rec.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, w.Code)

	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `wardbudget_budget_utilization_percent{ward="ward-12"} 4.5`)
	require.Contains(t, string(body), "go_goroutines")
}
