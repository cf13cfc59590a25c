package transport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/sessions"
)

// RPCHandler handles method dispatch.
type RPCHandler interface {
	Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error)
}

// Options configures the HTTP surface. All fields are optional.
type Options struct {
	Cookies sessions.Store
	Metrics http.Handler
	MCP     http.Handler
	Logger  *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	handler RPCHandler
	cookies sessions.Store
	logger  *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler RPCHandler, opts Options) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(SessionMiddleware(opts.Cookies))

	srv := &Server{handler: handler, cookies: opts.Cookies, logger: logger}

	r.Post("/rpc", srv.handleRPC)
	r.Get("/health", srv.handleHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, parseErrorCode(err), err.Error(), nil)
		return
	}

	sessionID, _ := SessionIDFromContext(r.Context())

	result, err := s.handler.Handle(r.Context(), sessionID, req.Method, req.Params)
	if err != nil {
		var coded codedError
		if errors.As(err, &coded) {
			WriteError(w, req.ID, rpcCode(coded.CodeValue()), coded.MessageValue(), errorData{
				Code:         coded.CodeValue(),
				Details:      coded.DetailsValue(),
				RecoveryHint: coded.RecoveryHintValue(),
			})
			return
		}
		s.logger.Error("rpc method failed", "method", req.Method, "error", err)
		WriteError(w, req.ID, ErrInternal, err.Error(), nil)
		return
	}

	switch req.Method {
	case "login":
		if login, ok := result.(interface{ SessionIDValue() string }); ok {
			if err := rememberSession(s.cookies, w, r, login.SessionIDValue()); err != nil {
				s.logger.Warn("failed to set session cookie", "error", err)
			}
		}
	case "logout":
		if err := forgetSession(s.cookies, w, r); err != nil {
			s.logger.Warn("failed to clear session cookie", "error", err)
		}
	}

	WriteResult(w, req.ID, result)
}
