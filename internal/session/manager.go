package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
)

// CookieName is the fixed cookie that ties a browser to its stored session.
const CookieName = "carpool_session"

// Manager issues session IDs, sets the cookie and reads records back.
type Manager struct {
	store Store
}

func NewManager(store Store) *Manager { return &Manager{store: store} }

// Put stores a fresh record under a new session ID and sets the cookie.
func (m *Manager) Put(ctx context.Context, w http.ResponseWriter, rec Record) error {
	sid := uuid.New().String()
	if err := m.store.Save(ctx, sid, rec); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(TTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Get loads the record for the request's session cookie.
// Requests without a cookie report ErrNotFound.
func (m *Manager) Get(ctx context.Context, r *http.Request) (Record, error) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Record{}, ErrNotFound
	}
	return m.store.Load(ctx, c.Value)
}

// Clear deletes the stored record and expires the cookie. Calling it
// without an active session is a no-op.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if c, err := r.Cookie(CookieName); err == nil {
		if err := m.store.Delete(ctx, c.Value); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return nil
}
