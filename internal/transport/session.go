package transport

import (
	"context"
	"net/http"

	"github.com/gorilla/sessions"
)

// SessionHeader carries the login session id for API clients.
const SessionHeader = "X-Session-Id"

const (
	cookieName   = "wardbudget"
	cookieIDKey  = "session_id"
	cookieMaxAge = 86400 * 7
)

type sessionKey struct{}

// SessionIDFromContext returns the session ID from context, if present.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	sessionID, ok := ctx.Value(sessionKey{}).(string)
	return sessionID, ok
}

// NewCookieStore creates the cookie store that remembers a browser's login
// session. secret signs the cookie.
func NewCookieStore(secret []byte, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// SessionMiddleware stores the session id from the X-Session-Id header, or
// failing that the session cookie, in the request context.
func SessionMiddleware(store sessions.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := r.Header.Get(SessionHeader)
			if sessionID == "" && store != nil {
				if cookie, err := store.Get(r, cookieName); err == nil {
					sessionID, _ = cookie.Values[cookieIDKey].(string)
				}
			}
			if sessionID != "" {
				ctx := context.WithValue(r.Context(), sessionKey{}, sessionID)
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rememberSession(store sessions.Store, w http.ResponseWriter, r *http.Request, sessionID string) error {
	if store == nil {
		return nil
	}
	cookie, _ := store.Get(r, cookieName)
	cookie.Values[cookieIDKey] = sessionID
	return cookie.Save(r, w)
}

func forgetSession(store sessions.Store, w http.ResponseWriter, r *http.Request) error {
	if store == nil {
		return nil
	}
	cookie, _ := store.Get(r, cookieName)
	delete(cookie.Values, cookieIDKey)
	cookie.Options.MaxAge = -1
	return cookie.Save(r, w)
}
