// Package backendtest is an in-memory stand-in for the carpool backend
// REST API. Service and end-to-end tests run the real client code against
// it; it mirrors the backend's wire shapes (flat origin/destination
// strings, English field names, pending/accepted/completed/cancelled
// statuses) and its server-side ownership checks.
package backendtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const signingSecret = "backendtest-secret"

type user struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Phone    string `json:"phone,omitempty"`
	password string
}

type ride struct {
	ID             string  `json:"_id"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	Seats          int     `json:"seats"`
	AvailableSeats int     `json:"availableSeats"`
	Price          float64 `json:"price"`
	Status         string  `json:"status"`
	Description    string  `json:"description,omitempty"`
	CreatedBy      *user   `json:"createdBy"`
	Passengers     []user  `json:"passengers"`
}

// Backend holds the fake server's state. All mutation goes through its
// mutex; tests may run handlers concurrently.
type Backend struct {
	mu       sync.Mutex
	byEmail  map[string]*user
	byToken  map[string]*user
	rides    map[string]*ride
	order    []string                  // ride IDs in creation order
	bookings map[string]map[string]int // rideID → userID → seats
	hits     int

	router chi.Router
}

// New returns a fake backend ready to mount on an httptest server.
func New() *Backend {
	b := &Backend{
		byEmail:  make(map[string]*user),
		byToken:  make(map[string]*user),
		rides:    make(map[string]*ride),
		bookings: make(map[string]map[string]int),
	}

	r := chi.NewRouter()
	r.Use(b.countHits)

	r.Post("/auth/register", b.register)
	r.Post("/auth/login", b.login)
	r.Get("/auth/profile", b.profile)

	r.Get("/rides", b.listRides)
	r.Post("/rides", b.createRide)
	r.Get("/rides/my-rides", b.myRides)
	r.Get("/rides/my-bookings", b.myBookings)
	r.Get("/rides/{id}", b.getRide)
	r.Put("/rides/{id}", b.updateRide)
	r.Delete("/rides/{id}", b.deleteRide)
	r.Patch("/rides/{id}/start", b.startRide)
	r.Patch("/rides/{id}/cancel", b.cancelRide)
	r.Post("/rides/{id}/complete", b.completeRide)
	r.Post("/rides/{id}/book", b.bookRide)
	r.Delete("/rides/{id}/book", b.cancelBooking)

	b.router = r
	return b
}

// Handler exposes the fake backend as an http.Handler.
func (b *Backend) Handler() http.Handler { return b.router }

// SeedUser creates an account directly, bypassing the register endpoint.
// Lets tests provision roles the public form does not offer (admin).
func (b *Backend) SeedUser(name, email, password, role string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byEmail[email] = &user{ID: uuid.New().String(), Name: name, Email: email, Role: role, password: password}
}

// Hits reports how many requests reached the backend. Tests use it to
// assert that preflight rejections never hit the network.
func (b *Backend) Hits() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits
}

func (b *Backend) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.hits++
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// ---- auth ----

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string   `json:"name"`
		Email    string   `json:"email"`
		Password string   `json:"password"`
		Roles    []string `json:"roles"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cuerpo inválido"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.byEmail[req.Email]; exists {
		writeJSON(w, http.StatusConflict, errBody("el correo ya está registrado"))
		return
	}
	role := "passenger"
	if len(req.Roles) > 0 {
		role = req.Roles[0]
	}
	u := &user{ID: uuid.New().String(), Name: req.Name, Email: req.Email, Role: role, password: req.Password}
	b.byEmail[req.Email] = u

	token := b.issueToken(u)
	writeJSON(w, http.StatusCreated, map[string]any{"access_token": token, "user": u})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cuerpo inválido"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.byEmail[req.Email]
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, errBody("credenciales inválidas"))
		return
	}
	token := b.issueToken(u)
	writeJSON(w, http.StatusOK, map[string]any{"access_token": token, "user": u})
}

func (b *Backend) profile(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// issueToken signs a real HS256 token so the frontend's expiry inspection
// sees the same claim shapes it would in production. Caller holds the lock.
func (b *Backend) issueToken(u *user) string {
	claims := gojwt.MapClaims{
		"user_id": u.ID,
		"email":   u.Email,
		"role":    u.Role,
		"sub":     u.ID,
		"iat":     gojwt.NewNumericDate(time.Now()),
		"exp":     gojwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte(signingSecret))
	if err != nil {
		panic(fmt.Sprintf("backendtest: signing token: %v", err))
	}
	b.byToken[token] = u
	return token
}

// currentUser resolves the bearer token. Caller holds the lock.
func (b *Backend) currentUser(r *http.Request) *user {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil
	}
	return b.byToken[header[7:]]
}

// ---- rides ----

func (b *Backend) listRides(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q := r.URL.Query()
	origen, destino, fecha := q.Get("origen"), q.Get("destino"), q.Get("fecha")

	out := []*ride{}
	for _, id := range b.order {
		rd := b.rides[id]
		if origen != "" && !strings.Contains(strings.ToLower(rd.Origin), strings.ToLower(origen)) {
			continue
		}
		if destino != "" && !strings.Contains(strings.ToLower(rd.Destination), strings.ToLower(destino)) {
			continue
		}
		if fecha != "" && rd.Date != fecha {
			continue
		}
		out = append(out, rd)
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createRide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin      string  `json:"origin"`
		Destination string  `json:"destination"`
		Date        string  `json:"date"`
		Time        string  `json:"time"`
		Price       float64 `json:"price"`
		Seats       int     `json:"seats"`
		Description string  `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cuerpo inválido"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	if u.Role != "driver" {
		writeJSON(w, http.StatusForbidden, errBody("solo los conductores pueden publicar viajes"))
		return
	}

	rd := &ride{
		ID:     uuid.New().String(),
		Origin: req.Origin, Destination: req.Destination,
		Date: req.Date, Time: req.Time,
		Seats: req.Seats, AvailableSeats: req.Seats,
		Price: req.Price, Status: "pending",
		Description: req.Description,
		CreatedBy:   u, Passengers: []user{},
	}
	b.rides[rd.ID] = rd
	b.order = append(b.order, rd.ID)
	b.bookings[rd.ID] = make(map[string]int)

	writeJSON(w, http.StatusCreated, rd)
}

func (b *Backend) getRide(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rd, ok := b.rides[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("viaje no encontrado"))
		return
	}
	writeJSON(w, http.StatusOK, rd)
}

func (b *Backend) updateRide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin      string  `json:"origin"`
		Destination string  `json:"destination"`
		Date        string  `json:"date"`
		Time        string  `json:"time"`
		Price       float64 `json:"price"`
		Seats       int     `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cuerpo inválido"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	rd, code, msg := b.ownedRide(r)
	if msg != "" {
		writeJSON(w, code, errBody(msg))
		return
	}

	reserved := rd.Seats - rd.AvailableSeats
	if req.Seats < reserved {
		writeJSON(w, http.StatusConflict, errBody("no puedes reducir los cupos por debajo de los reservados"))
		return
	}
	rd.Origin, rd.Destination = req.Origin, req.Destination
	rd.Date, rd.Time = req.Date, req.Time
	rd.Price = req.Price
	rd.AvailableSeats = req.Seats - reserved
	rd.Seats = req.Seats

	writeJSON(w, http.StatusOK, rd)
}

func (b *Backend) deleteRide(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rd, code, msg := b.ownedRide(r)
	if msg != "" {
		writeJSON(w, code, errBody(msg))
		return
	}
	if rd.Status != "completed" && rd.Status != "cancelled" {
		writeJSON(w, http.StatusConflict, errBody("solo puedes eliminar viajes completados o cancelados"))
		return
	}

	delete(b.rides, rd.ID)
	delete(b.bookings, rd.ID)
	for i, id := range b.order {
		if id == rd.ID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "viaje eliminado"})
}

func (b *Backend) myRides(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	out := []*ride{}
	for _, id := range b.order {
		if rd := b.rides[id]; rd.CreatedBy != nil && rd.CreatedBy.ID == u.ID {
			out = append(out, rd)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) myBookings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	out := []*ride{}
	for _, id := range b.order {
		if b.bookings[id][u.ID] > 0 {
			out = append(out, b.rides[id])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) startRide(w http.ResponseWriter, r *http.Request) {
	b.transition(w, r, "pending", "accepted")
}

func (b *Backend) cancelRide(w http.ResponseWriter, r *http.Request) {
	b.transition(w, r, "pending", "cancelled")
}

func (b *Backend) completeRide(w http.ResponseWriter, r *http.Request) {
	b.transition(w, r, "accepted", "completed")
}

func (b *Backend) transition(w http.ResponseWriter, r *http.Request, from, to string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rd, code, msg := b.ownedRide(r)
	if msg != "" {
		writeJSON(w, code, errBody(msg))
		return
	}
	if rd.Status != from {
		writeJSON(w, http.StatusConflict, errBody(fmt.Sprintf("transición inválida desde %s", rd.Status)))
		return
	}
	rd.Status = to
	writeJSON(w, http.StatusOK, rd)
}

func (b *Backend) bookRide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seats int `json:"seats"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cuerpo inválido"))
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	rd, ok := b.rides[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("viaje no encontrado"))
		return
	}
	if rd.Status != "pending" {
		writeJSON(w, http.StatusConflict, errBody("el viaje ya no está disponible"))
		return
	}
	if req.Seats < 1 || req.Seats > rd.AvailableSeats {
		writeJSON(w, http.StatusConflict, errBody("no hay cupos suficientes"))
		return
	}

	rd.AvailableSeats -= req.Seats
	b.bookings[rd.ID][u.ID] += req.Seats
	rd.Passengers = append(rd.Passengers, *u)
	writeJSON(w, http.StatusOK, rd)
}

func (b *Backend) cancelBooking(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := b.currentUser(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, errBody("no autorizado"))
		return
	}
	rd, ok := b.rides[chi.URLParam(r, "id")]
	if !ok {
		writeJSON(w, http.StatusNotFound, errBody("viaje no encontrado"))
		return
	}
	seats := b.bookings[rd.ID][u.ID]
	if seats == 0 {
		writeJSON(w, http.StatusNotFound, errBody("no tienes una reserva en este viaje"))
		return
	}

	rd.AvailableSeats += seats
	delete(b.bookings[rd.ID], u.ID)
	for i, p := range rd.Passengers {
		if p.ID == u.ID {
			rd.Passengers = append(rd.Passengers[:i], rd.Passengers[i+1:]...)
			break
		}
	}
	writeJSON(w, http.StatusOK, rd)
}

// ownedRide loads the ride in the URL and checks the caller is its
// creator. Caller holds the lock.
func (b *Backend) ownedRide(r *http.Request) (*ride, int, string) {
	u := b.currentUser(r)
	if u == nil {
		return nil, http.StatusUnauthorized, "no autorizado"
	}
	rd, ok := b.rides[chi.URLParam(r, "id")]
	if !ok {
		return nil, http.StatusNotFound, "viaje no encontrado"
	}
	if rd.CreatedBy == nil || rd.CreatedBy.ID != u.ID {
		return nil, http.StatusForbidden, "no eres el conductor de este viaje"
	}
	return rd, 0, ""
}

func errBody(msg string) map[string]string {
	return map[string]string{"message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
