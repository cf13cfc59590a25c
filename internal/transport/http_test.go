package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type loginResult struct {
	ID string `json:"session_id"`
}

func (l loginResult) SessionIDValue() string { return l.ID }

type appError struct{ code string }

func (e appError) Error() string        { return e.code }
func (e appError) CodeValue() string    { return e.code }
func (e appError) MessageValue() string { return "already supported" }
func (e appError) DetailsValue() any {
	return map[string]string{"message": "You've already supported this proposal"}
}
func (e appError) RecoveryHintValue() string { return "" }

type testHandler struct {
	method    string
	sessionID string
}

func (h *testHandler) Handle(_ context.Context, sessionID, method string, _ json.RawMessage) (any, error) {
	h.method = method
	h.sessionID = sessionID
	switch method {
	case "login":
		return loginResult{ID: "sess-1"}, nil
	case "vote":
		return nil, appError{code: "ALREADY_VOTED"}
	case "explode":
		return nil, errors.New("boom")
	}
	return map[string]string{"session": sessionID}, nil
}

func rpc(t *testing.T, client *http.Client, url, method, sessionID string) Response {
	t.Helper()
	body := bytes.NewBufferString(`{"jsonrpc":"2.0","method":"` + method + `","id":1}`)
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if sessionID != "" {
		req.Header.Set(SessionHeader, sessionID)
	}

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHTTPServer_RPCWithHeader(t *testing.T) {
	handler := &testHandler{}
	server := httptest.NewServer(NewServer(handler, Options{}))
	t.Cleanup(server.Close)

	out := rpc(t, server.Client(), server.URL, "list_proposals", "sess1")
	require.Nil(t, out.Error)
	require.Equal(t, "list_proposals", handler.method)
	require.Equal(t, "sess1", handler.sessionID)
}

func TestHTTPServer_LoginSetsCookie(t *testing.T) {
	handler := &testHandler{}
	store := NewCookieStore([]byte("0123456789abcdef0123456789abcdef"), false)
	server := httptest.NewServer(NewServer(handler, Options{Cookies: store}))
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	rpc(t, client, server.URL, "login", "")
	rpc(t, client, server.URL, "get_dashboard_metrics", "")
	require.Equal(t, "sess-1", handler.sessionID)

	rpc(t, client, server.URL, "logout", "")
	rpc(t, client, server.URL, "get_dashboard_metrics", "")
	require.Empty(t, handler.sessionID)
}

func TestHTTPServer_Errors(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	out := rpc(t, server.Client(), server.URL, "vote", "sess1")
	require.NotNil(t, out.Error)
	require.Equal(t, ErrApplication, out.Error.Code)
	data := out.Error.Data.(map[string]any)
	require.Equal(t, "ALREADY_VOTED", data["code"])

	out = rpc(t, server.Client(), server.URL, "explode", "sess1")
	require.NotNil(t, out.Error)
	require.Equal(t, ErrInternal, out.Error.Code)
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(&testHandler{}, Options{}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_Metrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("wardbudget_active_sessions 0\n"))
	})
	server := httptest.NewServer(NewServer(&testHandler{}, Options{Metrics: metrics}))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
