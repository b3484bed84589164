package rides

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"carpool-web/internal/auth"
	"carpool-web/internal/web"
)

// Handler serves the ride pages for all three roles. Role gating happens
// in the guard middleware; handlers only assume an authenticated session.
type Handler struct {
	svc    *Service
	render *web.Renderer
}

// NewHandler wires a handler to the ride service.
func NewHandler(svc *Service, render *web.Renderer) *Handler {
	return &Handler{svc: svc, render: render}
}

// MountDriver registers the driver area routes.
func (h *Handler) MountDriver(r chi.Router) {
	r.Get("/dashboard", h.DriverDashboard)
	r.Get("/rides", h.MyRides)
	r.Get("/rides/new", h.NewRideForm)
	r.Post("/rides/new", h.CreateRide)
	r.Get("/rides/{id}/edit", h.EditRideForm)
	r.Post("/rides/{id}/edit", h.UpdateRide)
	r.Post("/rides/{id}/start", h.StartRide)
	r.Post("/rides/{id}/complete", h.CompleteRide)
	r.Post("/rides/{id}/cancel", h.CancelRide)
	r.Post("/rides/{id}/delete", h.DeleteRide)
}

// MountPassenger registers the passenger area routes.
func (h *Handler) MountPassenger(r chi.Router) {
	r.Get("/dashboard", h.PassengerDashboard)
	r.Get("/search", h.Search)
	r.Get("/bookings", h.MyBookings)
	r.Get("/rides/{id}", h.RideDetail)
	r.Post("/rides/{id}/book", h.BookRide)
	r.Post("/rides/{id}/cancel-booking", h.CancelBooking)
}

// MountAdmin registers the admin area routes.
func (h *Handler) MountAdmin(r chi.Router) {
	r.Get("/dashboard", h.AdminDashboard)
}

// ---- driver pages ----

func (h *Handler) DriverDashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	list, err := h.svc.MyRides(r.Context(), sess.Token)
	page := web.Page{Title: "Panel del conductor", User: sess.User, Data: list}
	if err != nil {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "driver_dashboard.tmpl", page)
}

func (h *Handler) MyRides(w http.ResponseWriter, r *http.Request) {
	h.myRides(w, r, "")
}

// myRides renders the driver's ride list, optionally with an action error
// from a failed lifecycle call.
func (h *Handler) myRides(w http.ResponseWriter, r *http.Request, actionErr string) {
	sess := auth.GetSession(r.Context())
	list, err := h.svc.MyRides(r.Context(), sess.Token)
	page := web.Page{Title: "Mis viajes", User: sess.User, Data: list, Error: actionErr}
	if err != nil && page.Error == "" {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "driver_rides.tmpl", page)
}

// rideFormPage is the payload of ride_form.tmpl, shared by new and edit.
type rideFormPage struct {
	Form    FormData
	Action  string
	Heading string
}

func (h *Handler) NewRideForm(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	h.render.HTML(w, http.StatusOK, "ride_form.tmpl", web.Page{
		Title: "Publicar viaje", User: sess.User,
		Data: rideFormPage{Action: "/driver/rides/new", Heading: "Publicar viaje", Form: FormData{CuposTotales: 1}},
	})
}

func (h *Handler) CreateRide(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	form := parseRideForm(r)

	if _, err := h.svc.Create(r.Context(), sess.Token, form); err != nil {
		h.render.HTML(w, http.StatusOK, "ride_form.tmpl", web.Page{
			Title: "Publicar viaje", User: sess.User, Error: err.Error(),
			Data: rideFormPage{Action: "/driver/rides/new", Heading: "Publicar viaje", Form: form},
		})
		return
	}
	http.Redirect(w, r, "/driver/rides", http.StatusSeeOther)
}

func (h *Handler) EditRideForm(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	id := chi.URLParam(r, "id")

	ride, err := h.svc.ByID(r.Context(), sess.Token, id)
	if err != nil {
		h.myRides(w, r, err.Error())
		return
	}
	form := FormData{
		Origen: ride.Origen, Destino: ride.Destino,
		Fecha: ride.Fecha, Hora: ride.Hora,
		CuposTotales: ride.CuposTotales, Precio: ride.Precio,
	}
	h.render.HTML(w, http.StatusOK, "ride_form.tmpl", web.Page{
		Title: "Editar viaje", User: sess.User,
		Data: rideFormPage{Action: "/driver/rides/" + id + "/edit", Heading: "Editar viaje", Form: form},
	})
}

func (h *Handler) UpdateRide(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	id := chi.URLParam(r, "id")
	form := parseRideForm(r)

	if _, err := h.svc.Update(r.Context(), sess.Token, id, form); err != nil {
		h.render.HTML(w, http.StatusOK, "ride_form.tmpl", web.Page{
			Title: "Editar viaje", User: sess.User, Error: err.Error(),
			Data: rideFormPage{Action: "/driver/rides/" + id + "/edit", Heading: "Editar viaje", Form: form},
		})
		return
	}
	http.Redirect(w, r, "/driver/rides", http.StatusSeeOther)
}

func (h *Handler) StartRide(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, func(token, id string) error {
		_, err := h.svc.Start(r.Context(), token, id)
		return err
	})
}

func (h *Handler) CompleteRide(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, func(token, id string) error {
		_, err := h.svc.Complete(r.Context(), token, id)
		return err
	})
}

func (h *Handler) CancelRide(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, func(token, id string) error {
		_, err := h.svc.Cancel(r.Context(), token, id)
		return err
	})
}

func (h *Handler) DeleteRide(w http.ResponseWriter, r *http.Request) {
	h.driverAction(w, r, func(token, id string) error {
		return h.svc.Delete(r.Context(), token, id)
	})
}

// driverAction runs one lifecycle call and lands back on the ride list,
// inlining the server's message if the call was rejected.
func (h *Handler) driverAction(w http.ResponseWriter, r *http.Request, op func(token, id string) error) {
	sess := auth.GetSession(r.Context())
	if err := op(sess.Token, chi.URLParam(r, "id")); err != nil {
		h.myRides(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/driver/rides", http.StatusSeeOther)
}

// ---- passenger pages ----

func (h *Handler) PassengerDashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	list, err := h.svc.MyBookings(r.Context(), sess.Token)
	page := web.Page{Title: "Panel del pasajero", User: sess.User, Data: list}
	if err != nil {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "passenger_dashboard.tmpl", page)
}

// searchPage is the payload of search.tmpl.
type searchPage struct {
	Filters Filters
	Rides   []Ride
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	f := Filters{
		Origen:  strings.TrimSpace(r.URL.Query().Get("origen")),
		Destino: strings.TrimSpace(r.URL.Query().Get("destino")),
		Fecha:   strings.TrimSpace(r.URL.Query().Get("fecha")),
	}
	list, err := h.svc.Available(r.Context(), sess.Token, f)
	page := web.Page{Title: "Buscar viajes", User: sess.User, Data: searchPage{Filters: f, Rides: list}}
	if err != nil {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "search.tmpl", page)
}

func (h *Handler) MyBookings(w http.ResponseWriter, r *http.Request) {
	h.bookings(w, r, "")
}

func (h *Handler) bookings(w http.ResponseWriter, r *http.Request, actionErr string) {
	sess := auth.GetSession(r.Context())
	list, err := h.svc.MyBookings(r.Context(), sess.Token)
	page := web.Page{Title: "Mis reservas", User: sess.User, Data: list, Error: actionErr}
	if err != nil && page.Error == "" {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "bookings.tmpl", page)
}

func (h *Handler) RideDetail(w http.ResponseWriter, r *http.Request) {
	h.rideDetail(w, r, "")
}

func (h *Handler) rideDetail(w http.ResponseWriter, r *http.Request, actionErr string) {
	sess := auth.GetSession(r.Context())
	ride, err := h.svc.ByID(r.Context(), sess.Token, chi.URLParam(r, "id"))
	if err != nil {
		page := web.Page{Title: "Viaje", User: sess.User, Error: err.Error()}
		h.render.HTML(w, http.StatusOK, "ride_detail.tmpl", page)
		return
	}
	page := web.Page{Title: "Viaje", User: sess.User, Data: ride, Error: actionErr}
	h.render.HTML(w, http.StatusOK, "ride_detail.tmpl", page)
}

func (h *Handler) BookRide(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	id := chi.URLParam(r, "id")

	seats, err := strconv.Atoi(r.PostFormValue("cupos"))
	if err != nil {
		h.rideDetail(w, r, "número de cupos inválido")
		return
	}

	ride, err := h.svc.ByID(r.Context(), sess.Token, id)
	if err != nil {
		h.rideDetail(w, r, err.Error())
		return
	}
	if _, err := h.svc.Book(r.Context(), sess.Token, ride, seats); err != nil {
		h.rideDetail(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/passenger/bookings", http.StatusSeeOther)
}

func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	if err := h.svc.CancelBooking(r.Context(), sess.Token, chi.URLParam(r, "id")); err != nil {
		h.bookings(w, r, err.Error())
		return
	}
	http.Redirect(w, r, "/passenger/bookings", http.StatusSeeOther)
}

// ---- admin pages ----

func (h *Handler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := auth.GetSession(r.Context())
	list, err := h.svc.Available(r.Context(), sess.Token, Filters{})
	page := web.Page{Title: "Panel de administración", User: sess.User, Data: list}
	if err != nil {
		page.Error = err.Error()
	}
	h.render.HTML(w, http.StatusOK, "admin_dashboard.tmpl", page)
}

// parseRideForm reads the create/edit form. Unparseable numbers become
// zero and fail the preflight with a readable message.
func parseRideForm(r *http.Request) FormData {
	_ = r.ParseForm()
	cupos, _ := strconv.Atoi(r.PostFormValue("cupos"))
	precio, _ := strconv.ParseFloat(r.PostFormValue("precio"), 64)
	return FormData{
		Origen: Location{
			Ciudad:    strings.TrimSpace(r.PostFormValue("origen_ciudad")),
			Direccion: strings.TrimSpace(r.PostFormValue("origen_direccion")),
		},
		Destino: Location{
			Ciudad:    strings.TrimSpace(r.PostFormValue("destino_ciudad")),
			Direccion: strings.TrimSpace(r.PostFormValue("destino_direccion")),
		},
		Fecha:        strings.TrimSpace(r.PostFormValue("fecha")),
		Hora:         strings.TrimSpace(r.PostFormValue("hora")),
		CuposTotales: cupos,
		Precio:       precio,
	}
}
