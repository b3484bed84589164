package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"carpool-web/internal/session"
	"carpool-web/pkg/jwt"
)

type ctxKey string

const sessionCtxKey ctxKey = "auth_session"

// WithSession resolves the browser session before handlers run. Malformed
// stored users and expired tokens are discarded silently, leaving the
// session empty. A store outage leaves the session unresolved so the guard
// renders a placeholder instead of bouncing the user to login.
func (s *Service) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.restore(w, r)
		ctx := context.WithValue(r.Context(), sessionCtxKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Service) restore(w http.ResponseWriter, r *http.Request) *Session {
	rec, err := s.sessions.Get(r.Context(), r)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return &Session{Resolved: true}
		}
		return &Session{}
	}

	var u User
	if err := json.Unmarshal(rec.User, &u); err != nil || u.ID == "" || rec.Token == "" ||
		jwt.Expired(rec.Token, time.Now()) {
		_ = s.sessions.Clear(r.Context(), w, r)
		return &Session{Resolved: true}
	}

	return &Session{User: &u, Token: rec.Token, Resolved: true}
}

// GetSession retrieves the resolved session from the request context.
// Requests that never passed WithSession read as unresolved.
func GetSession(ctx context.Context) *Session {
	if sess, ok := ctx.Value(sessionCtxKey).(*Session); ok {
		return sess
	}
	return &Session{}
}
