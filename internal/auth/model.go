package auth

// Role is the closed set of account roles.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDriver    Role = "driver"
	RolePassenger Role = "passenger"
)

// ParseRole maps a raw string onto the role enum.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDriver:
		return RoleDriver, true
	case RolePassenger:
		return RolePassenger, true
	default:
		return "", false
	}
}

// DashboardPath returns the landing page for a role. Unknown roles land on
// the passenger dashboard, the least privileged area.
func (r Role) DashboardPath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleDriver:
		return "/driver/dashboard"
	case RolePassenger:
		return "/passenger/dashboard"
	default:
		return "/passenger/dashboard"
	}
}

// User mirrors the account object the backend returns.
type User struct {
	ID        string `json:"_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// RegisterData is the registration form. Only driver and passenger are
// offered; admins cannot self-register.
type RegisterData struct {
	Name     string
	Email    string
	Password string
	Role     Role
	Phone    string
}

// AuthResponse is what /auth/login and /auth/register return.
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	User        *User  `json:"user"`
}

// Session is the per-request authentication state restored from the
// session store. Resolved is false only when the store could not be
// reached; the guard then renders a placeholder instead of redirecting.
type Session struct {
	User     *User
	Token    string
	Resolved bool
}

// IsAuthenticated reports whether a user is attached to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.User != nil
}
