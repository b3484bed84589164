package auth_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	"carpool-web/internal/api"
	"carpool-web/internal/auth"
	"carpool-web/internal/backendtest"
	"carpool-web/internal/session"
)

type env struct {
	backend *backendtest.Backend
	svc     *auth.Service
	store   *session.MemoryStore
}

func newEnv(t *testing.T) env {
	t.Helper()
	backend := backendtest.New()
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	svc := auth.NewService(api.NewClient(srv.URL), session.NewManager(store))
	return env{backend: backend, svc: svc, store: store}
}

// requestWithCookies builds a follow-up request carrying the cookies the
// previous response set, like a browser would.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// resolveSession runs a request through the session middleware and
// captures what a handler would see.
func resolveSession(svc *auth.Service, req *http.Request) *auth.Session {
	var sess *auth.Session
	h := svc.WithSession(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		sess = auth.GetSession(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), req)
	return sess
}

func signTestToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	claims := gojwt.MapClaims{"user_id": "u1", "exp": gojwt.NewNumericDate(expiresAt)}
	raw, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("s"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return raw
}

func TestRegisterDriverOpensSession(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()

	user, err := e.svc.Register(context.Background(), rec, auth.RegisterData{
		Name: "Ana", Email: "ana@uni.edu", Password: "secret1", Role: auth.RoleDriver,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Role != auth.RoleDriver {
		t.Errorf("Role = %q, want driver", user.Role)
	}
	if got := user.Role.DashboardPath(); got != "/driver/dashboard" {
		t.Errorf("DashboardPath = %q, want /driver/dashboard", got)
	}

	sess := resolveSession(e.svc, requestWithCookies(rec))
	if !sess.Resolved || !sess.IsAuthenticated() {
		t.Fatalf("session after register = %+v, want authenticated", sess)
	}
	if sess.User.ID != user.ID || sess.User.Role != auth.RoleDriver {
		t.Errorf("restored user = %+v", sess.User)
	}
	if sess.Token == "" {
		t.Error("restored session has no token")
	}
}

func TestRegisterAdminRejectedBeforeRequest(t *testing.T) {
	e := newEnv(t)

	_, err := e.svc.Register(context.Background(), httptest.NewRecorder(), auth.RegisterData{
		Name: "Eve", Email: "eve@uni.edu", Password: "secret1", Role: auth.RoleAdmin,
	})
	if !errors.Is(err, auth.ErrRoleNotAllowed) {
		t.Fatalf("error = %v, want ErrRoleNotAllowed", err)
	}
	if e.backend.Hits() != 0 {
		t.Errorf("backend hits = %d, want 0", e.backend.Hits())
	}
}

func TestLoginRedirectTargetPerRole(t *testing.T) {
	e := newEnv(t)
	e.backend.SeedUser("Root", "root@uni.edu", "secret1", "admin")
	e.backend.SeedUser("Ana", "ana@uni.edu", "secret1", "driver")
	e.backend.SeedUser("Luis", "luis@uni.edu", "secret1", "passenger")

	tests := []struct {
		email, wantPath string
	}{
		{"root@uni.edu", "/admin/dashboard"},
		{"ana@uni.edu", "/driver/dashboard"},
		{"luis@uni.edu", "/passenger/dashboard"},
	}
	for _, tt := range tests {
		user, err := e.svc.Login(context.Background(), httptest.NewRecorder(), tt.email, "secret1")
		if err != nil {
			t.Fatalf("Login(%s): %v", tt.email, err)
		}
		if got := user.Role.DashboardPath(); got != tt.wantPath {
			t.Errorf("DashboardPath(%s) = %q, want %q", tt.email, got, tt.wantPath)
		}
	}
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	e := newEnv(t)
	e.backend.SeedUser("Ana", "ana@uni.edu", "secret1", "driver")

	rec := httptest.NewRecorder()
	_, err := e.svc.Login(context.Background(), rec, "ana@uni.edu", "wrong-pass")

	var apiErr *api.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *api.APIError", err)
	}
	if apiErr.Message != "credenciales inválidas" {
		t.Errorf("message = %q, want server text verbatim", apiErr.Message)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed login set a cookie")
	}

	sess := resolveSession(e.svc, httptest.NewRequest(http.MethodGet, "/", nil))
	if !sess.Resolved || sess.IsAuthenticated() {
		t.Errorf("session = %+v, want resolved and empty", sess)
	}
}

func TestLogoutClearsSessionAndStorage(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	if _, err := e.svc.Register(context.Background(), rec, auth.RegisterData{
		Name: "Ana", Email: "ana@uni.edu", Password: "secret1", Role: auth.RolePassenger,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	req := requestWithCookies(rec)
	if err := e.svc.Logout(context.Background(), httptest.NewRecorder(), req); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	// A later restore with the same cookie finds nothing.
	sess := resolveSession(e.svc, req)
	if !sess.Resolved || sess.IsAuthenticated() {
		t.Errorf("session after logout = %+v, want resolved and empty", sess)
	}

	// Logout again: idempotent.
	if err := e.svc.Logout(context.Background(), httptest.NewRecorder(), req); err != nil {
		t.Errorf("second Logout = %v", err)
	}
}

func TestRestoreDiscardsMalformedStoredUser(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tok := signTestToken(t, time.Now().Add(time.Hour))
	if err := e.store.Save(ctx, "sid-bad", session.Record{Token: tok, User: []byte(`{not json`)}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sid-bad"})

	sess := resolveSession(e.svc, req)
	if !sess.Resolved || sess.IsAuthenticated() {
		t.Fatalf("session = %+v, want resolved and empty", sess)
	}
	// The corrupt record is gone; restore fails silently.
	if _, err := e.store.Load(ctx, "sid-bad"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("corrupt record still stored: %v", err)
	}
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tok := signTestToken(t, time.Now().Add(-time.Hour))
	rec := session.Record{Token: tok, User: []byte(`{"_id":"u1","name":"Ana","email":"a@b.co","role":"driver"}`)}
	if err := e.store.Save(ctx, "sid-old", rec); err != nil {
		t.Fatalf("Save: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "sid-old"})

	sess := resolveSession(e.svc, req)
	if !sess.Resolved || sess.IsAuthenticated() {
		t.Errorf("session with expired token = %+v, want resolved and empty", sess)
	}
}

func TestProfileFetchesFreshUser(t *testing.T) {
	e := newEnv(t)
	rec := httptest.NewRecorder()
	if _, err := e.svc.Register(context.Background(), rec, auth.RegisterData{
		Name: "Ana", Email: "ana@uni.edu", Password: "secret1", Role: auth.RoleDriver,
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	sess := resolveSession(e.svc, requestWithCookies(rec))
	user, err := e.svc.Profile(context.Background(), sess.Token)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if user.Email != "ana@uni.edu" || user.Role != auth.RoleDriver {
		t.Errorf("Profile = %+v", user)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "driver", "passenger"} {
		if _, ok := auth.ParseRole(valid); !ok {
			t.Errorf("ParseRole(%q) rejected", valid)
		}
	}
	if _, ok := auth.ParseRole("superuser"); ok {
		t.Error("ParseRole accepted an unknown role")
	}
}
