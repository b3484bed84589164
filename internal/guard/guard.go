package guard

import (
	"io"
	"net/http"

	"carpool-web/internal/auth"
)

// placeholderHTML is shown while the session cannot be resolved. No
// redirect happens in that state.
const placeholderHTML = `<!doctype html>
<html lang="es"><head><meta charset="utf-8"><title>Cargando...</title></head>
<body><p>Cargando...</p></body></html>
`

// Require gates a page by role. With no roles, any authenticated user
// passes. Unauthenticated visitors go to /login; authenticated visitors
// with the wrong role go to their own dashboard.
func Require(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := auth.GetSession(r.Context())

			if !sess.Resolved {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusServiceUnavailable)
				io.WriteString(w, placeholderHTML)
				return
			}
			if !sess.IsAuthenticated() {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}
			if len(roles) > 0 && !allowed(sess.User.Role, roles) {
				http.Redirect(w, r, sess.User.Role.DashboardPath(), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func allowed(role auth.Role, roles []auth.Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
