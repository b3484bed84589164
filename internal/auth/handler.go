package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"carpool-web/internal/web"
)

// Handler serves the login, register, logout and profile pages.
type Handler struct {
	svc    *Service
	render *web.Renderer
}

// NewHandler wires a handler to the auth service.
func NewHandler(svc *Service, render *web.Renderer) *Handler {
	return &Handler{svc: svc, render: render}
}

// Mount registers the public auth routes on the given router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/", h.Home)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/register", h.RegisterForm)
	r.Post("/register", h.Register)
	r.Post("/logout", h.Logout)
}

// Home sends authenticated users to their dashboard, everyone else to the
// login page.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	if sess.IsAuthenticated() {
		http.Redirect(w, r, sess.User.Role.DashboardPath(), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	if sess.IsAuthenticated() {
		http.Redirect(w, r, sess.User.Role.DashboardPath(), http.StatusSeeOther)
		return
	}
	h.render.HTML(w, http.StatusOK, "login.tmpl", web.Page{Title: "Iniciar sesión"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.HTML(w, http.StatusBadRequest, "login.tmpl", web.Page{
			Title: "Iniciar sesión", Error: "formulario inválido",
		})
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")

	user, err := h.svc.Login(r.Context(), w, email, password)
	if err != nil {
		h.render.HTML(w, http.StatusOK, "login.tmpl", web.Page{
			Title: "Iniciar sesión", Error: err.Error(), Data: email,
		})
		return
	}
	http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
}

func (h *Handler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	if sess.IsAuthenticated() {
		http.Redirect(w, r, sess.User.Role.DashboardPath(), http.StatusSeeOther)
		return
	}
	h.render.HTML(w, http.StatusOK, "register.tmpl", web.Page{Title: "Crear cuenta"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.HTML(w, http.StatusBadRequest, "register.tmpl", web.Page{
			Title: "Crear cuenta", Error: "formulario inválido",
		})
		return
	}

	role, _ := ParseRole(r.PostFormValue("role"))
	reg := RegisterData{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Role:     role,
		Phone:    strings.TrimSpace(r.PostFormValue("phone")),
	}

	user, err := h.svc.Register(r.Context(), w, reg)
	if err != nil {
		reg.Password = ""
		h.render.HTML(w, http.StatusOK, "register.tmpl", web.Page{
			Title: "Crear cuenta", Error: err.Error(), Data: reg,
		})
		return
	}
	http.Redirect(w, r, user.Role.DashboardPath(), http.StatusSeeOther)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Logout(r.Context(), w, r); err != nil {
		h.render.HTML(w, http.StatusInternalServerError, "login.tmpl", web.Page{
			Title: "Iniciar sesión", Error: err.Error(),
		})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Profile shows the current account fetched fresh from the backend.
// Mounted behind the guard, so the session is always authenticated here.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())

	user, err := h.svc.Profile(r.Context(), sess.Token)
	if err != nil {
		h.render.HTML(w, http.StatusOK, "profile.tmpl", web.Page{
			Title: "Perfil", User: sess.User, Error: err.Error(), Data: sess.User,
		})
		return
	}
	h.render.HTML(w, http.StatusOK, "profile.tmpl", web.Page{
		Title: "Perfil", User: sess.User, Data: user,
	})
}
