package testserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/wardbudget/internal/domain/activity"
	"github.com/ganot/wardbudget/internal/domain/ledger"
	"github.com/ganot/wardbudget/internal/domain/session"
	"github.com/ganot/wardbudget/internal/domain/ward"
	"github.com/ganot/wardbudget/internal/mcp"
	"github.com/ganot/wardbudget/internal/metrics"
	"github.com/ganot/wardbudget/internal/notice"
	"github.com/ganot/wardbudget/internal/sqlite"
	"github.com/ganot/wardbudget/internal/storage/local"
	"github.com/ganot/wardbudget/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is the full HTTP stack over an in-memory database.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Sessions *session.Manager
	Metrics  *metrics.Recorder
}

// New starts a server backed by local storage. Extra session options are
// applied after the built-in observers.
func New(t *testing.T, opts ...session.Option) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	wardSvc := ward.NewService(sqlite.NewWardRepository(db), nil)
	ledgerSvc := ledger.NewService(sqlite.NewLedgerRepository(db), nil)
	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	recorder := metrics.New()

	opts = append([]session.Option{
		session.WithObserver(session.Observers{activity.NewRecorder(activitySvc), recorder}),
	}, opts...)
	manager := session.NewManager(local.New(wardSvc, ledgerSvc, nil), nil, opts...)

	handler := mcp.NewHandler(mcp.Services{
		Sessions: manager,
		Activity: activitySvc,
		Wards:    wardSvc,
		Budgets:  recorder,
	}, notice.ModeLocal, nil)

	server := httptest.NewServer(transport.NewServer(handler, transport.Options{
		Cookies: transport.NewCookieStore([]byte("testserver-session-secret"), false),
		Metrics: recorder.Handler(),
	}))

	ts := &TestServer{
		Server:   server,
		DB:       db,
		Sessions: manager,
		Metrics:  recorder,
	}

	t.Cleanup(func() {
		server.Close()
		manager.Close(context.Background())
		_ = db.Close()
	})

	return ts
}

// Call posts a JSON-RPC request and decodes the result into out, which may be
// nil. It returns the JSON-RPC error, if any.
func (ts *TestServer) Call(t *testing.T, sessionID, method string, params, out any) *transport.Error {
	t.Helper()

	payload, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	})
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, ts.Server.URL+"/rpc", bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(transport.SessionHeader, sessionID)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Result json.RawMessage  `json:"result"`
		Error  *transport.Error `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	if body.Error == nil && out != nil {
		require.NoError(t, json.Unmarshal(body.Result, out))
	}
	return body.Error
}
