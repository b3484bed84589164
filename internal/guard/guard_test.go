package guard_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"carpool-web/internal/api"
	"carpool-web/internal/auth"
	"carpool-web/internal/guard"
	"carpool-web/internal/session"
)

// failingStore simulates a session store outage.
type failingStore struct{}

func (failingStore) Save(context.Context, string, session.Record) error { return errors.New("store down") }
func (failingStore) Load(context.Context, string) (session.Record, error) {
	return session.Record{}, errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }
func (failingStore) Close() error                         { return nil }

func signToken(t *testing.T) string {
	t.Helper()
	claims := gojwt.MapClaims{"user_id": "u1", "exp": gojwt.NewNumericDate(time.Now().Add(time.Hour))}
	raw, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return raw
}

// seedSession stores an authenticated session and returns its cookie.
func seedSession(t *testing.T, store session.Store, role auth.Role) *http.Cookie {
	t.Helper()
	user := `{"_id":"u1","name":"Ana","email":"ana@uni.edu","role":"` + string(role) + `"}`
	rec := session.Record{Token: signToken(t), User: []byte(user)}
	if err := store.Save(context.Background(), "sid1", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: "sid1"}
}

// serve runs a request through WithSession and Require, recording whether
// the protected page rendered.
func serve(store session.Store, cookie *http.Cookie, roles ...auth.Role) (*httptest.ResponseRecorder, bool) {
	svc := auth.NewService(api.NewClient("http://backend.invalid"), session.NewManager(store))

	rendered := false
	page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		rendered = true
		w.Write([]byte("ok"))
	})

	req := httptest.NewRequest(http.MethodGet, "/driver/dashboard", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	svc.WithSession(guard.Require(roles...)(page)).ServeHTTP(rec, req)
	return rec, rendered
}

func TestStoreOutageRendersPlaceholder(t *testing.T) {
	cookie := &http.Cookie{Name: session.CookieName, Value: "sid1"}
	rec, rendered := serve(failingStore{}, cookie, auth.RoleDriver)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cargando") {
		t.Errorf("body = %q, want placeholder", rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "" {
		t.Errorf("unexpected redirect to %q while unresolved", loc)
	}
	if rendered {
		t.Error("protected page rendered while session unresolved")
	}
}

func TestUnauthenticatedRedirectsToLogin(t *testing.T) {
	rec, rendered := serve(session.NewMemoryStore(), nil, auth.RoleDriver)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Errorf("Location = %q, want /login", loc)
	}
	if rendered {
		t.Error("protected page rendered without a session")
	}
}

func TestWrongRoleRedirectsToOwnDashboard(t *testing.T) {
	store := session.NewMemoryStore()
	cookie := seedSession(t, store, auth.RolePassenger)

	rec, rendered := serve(store, cookie, auth.RoleDriver)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/passenger/dashboard" {
		t.Errorf("Location = %q, want /passenger/dashboard", loc)
	}
	if rendered {
		t.Error("protected page rendered for the wrong role")
	}
}

func TestMatchingRoleRenders(t *testing.T) {
	store := session.NewMemoryStore()
	cookie := seedSession(t, store, auth.RoleDriver)

	rec, rendered := serve(store, cookie, auth.RoleDriver)

	if rec.Code != http.StatusOK || !rendered {
		t.Errorf("status = %d, rendered = %v, want 200 and rendered", rec.Code, rendered)
	}
}

func TestNoRolesAdmitsAnyAuthenticatedUser(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleAdmin, auth.RoleDriver, auth.RolePassenger} {
		store := session.NewMemoryStore()
		cookie := seedSession(t, store, role)

		rec, rendered := serve(store, cookie)
		if rec.Code != http.StatusOK || !rendered {
			t.Errorf("role %s: status = %d, rendered = %v, want 200 and rendered", role, rec.Code, rendered)
		}
	}
}
