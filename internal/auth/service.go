package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"carpool-web/internal/api"
	"carpool-web/internal/session"
	"carpool-web/pkg/validation"
)

// ErrRoleNotAllowed rejects self-registration with a role outside
// driver/passenger before any request is made.
var ErrRoleNotAllowed = errors.New("solo puedes registrarte como conductor o pasajero")

// Service drives the backend auth endpoints and owns the local session.
type Service struct {
	api      *api.Client
	sessions *session.Manager
}

// NewService wires the auth service to the API client and session manager.
func NewService(apiClient *api.Client, sessions *session.Manager) *Service {
	return &Service{api: apiClient, sessions: sessions}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// registerRequest is the wire shape for POST /auth/register. The backend
// models roles as an array even though the form picks exactly one.
type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Roles    []Role `json:"roles"`
}

// Login authenticates against the backend and opens a browser session.
// On failure nothing is stored and the error propagates to the form.
func (s *Service) Login(ctx context.Context, w http.ResponseWriter, email, password string) (*User, error) {
	if !validation.ValidateEmail(email) || password == "" {
		return nil, errors.New("correo o contraseña inválidos")
	}
	data, err := s.api.Post(ctx, "/auth/login", "", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, w, data)
}

// Register creates an account and opens a session, same contract as Login.
func (s *Service) Register(ctx context.Context, w http.ResponseWriter, reg RegisterData) (*User, error) {
	if reg.Role != RoleDriver && reg.Role != RolePassenger {
		return nil, ErrRoleNotAllowed
	}
	if !validation.ValidateName(reg.Name) {
		return nil, errors.New("el nombre debe tener al menos 2 caracteres")
	}
	if !validation.ValidateEmail(reg.Email) {
		return nil, errors.New("correo inválido")
	}
	if !validation.ValidatePassword(reg.Password) {
		return nil, errors.New("la contraseña debe tener al menos 6 caracteres")
	}

	body := registerRequest{
		Name:     reg.Name,
		Email:    reg.Email,
		Password: reg.Password,
		Roles:    []Role{reg.Role},
	}
	data, err := s.api.Post(ctx, "/auth/register", "", body)
	if err != nil {
		return nil, err
	}
	return s.openSession(ctx, w, data)
}

// Logout drops the stored session and expires the cookie. Idempotent.
func (s *Service) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return s.sessions.Clear(ctx, w, r)
}

// Profile fetches the current user fresh from the backend.
func (s *Service) Profile(ctx context.Context, token string) (*User, error) {
	data, err := s.api.Get(ctx, "/auth/profile", token)
	if err != nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decoding profile: %w", err)
	}
	return &u, nil
}

func (s *Service) openSession(ctx context.Context, w http.ResponseWriter, data []byte) (*User, error) {
	var resp AuthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	if resp.AccessToken == "" || resp.User == nil {
		return nil, errors.New("respuesta de autenticación incompleta")
	}

	raw, err := json.Marshal(resp.User)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, w, session.Record{Token: resp.AccessToken, User: raw}); err != nil {
		return nil, fmt.Errorf("storing session: %w", err)
	}
	return resp.User, nil
}
