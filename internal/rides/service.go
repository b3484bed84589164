package rides

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"carpool-web/internal/api"
	"carpool-web/pkg/validation"
)

// ValidationError is a preflight failure caught before any request is
// sent. The message is shown inline next to the form.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Service drives the ride endpoints through the API client. Every
// operation is a single request with no retries; the backend is the sole
// arbiter of seat and state consistency.
type Service struct {
	api *api.Client
}

func NewService(apiClient *api.Client) *Service {
	return &Service{api: apiClient}
}

// Filters narrows the available-rides search.
type Filters struct {
	Origen  string
	Destino string
	Fecha   string
}

func (f Filters) query() string {
	params := url.Values{}
	if f.Origen != "" {
		params.Set("origen", f.Origen)
	}
	if f.Destino != "" {
		params.Set("destino", f.Destino)
	}
	if f.Fecha != "" {
		params.Set("fecha", f.Fecha)
	}
	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// Available lists bookable rides, optionally filtered.
func (s *Service) Available(ctx context.Context, token string, f Filters) ([]Ride, error) {
	data, err := s.api.Get(ctx, "/rides"+f.query(), token)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// ByID fetches a single ride.
func (s *Service) ByID(ctx context.Context, token, id string) (*Ride, error) {
	data, err := s.api.Get(ctx, "/rides/"+id, token)
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// MyRides lists the rides the current driver created.
func (s *Service) MyRides(ctx context.Context, token string) ([]Ride, error) {
	data, err := s.api.Get(ctx, "/rides/my-rides", token)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// MyBookings lists the rides the current passenger has booked.
func (s *Service) MyBookings(ctx context.Context, token string) ([]Ride, error) {
	data, err := s.api.Get(ctx, "/rides/my-bookings", token)
	if err != nil {
		return nil, err
	}
	return decodeList(data)
}

// Create validates the draft and posts a new ride. The new ride comes back
// with estado disponible and all seats free.
func (s *Service) Create(ctx context.Context, token string, form FormData) (*Ride, error) {
	if err := ValidateForm(form, time.Now()); err != nil {
		return nil, err
	}
	data, err := s.api.Post(ctx, "/rides", token, encodeForm(form))
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// Update rewrites an existing ride with the same preflight as Create.
func (s *Service) Update(ctx context.Context, token, id string, form FormData) (*Ride, error) {
	if err := ValidateForm(form, time.Now()); err != nil {
		return nil, err
	}
	data, err := s.api.Put(ctx, "/rides/"+id, token, encodeForm(form))
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// Delete removes a finished (completed or cancelled) ride.
func (s *Service) Delete(ctx context.Context, token, id string) error {
	_, err := s.api.Delete(ctx, "/rides/"+id, token)
	return err
}

// Book reserves seats on a ride. The preflight checks run against the last
// server copy of the ride; on violation no request is sent.
func (s *Service) Book(ctx context.Context, token string, ride *Ride, seats int) (*Ride, error) {
	if ride.Estado != EstadoDisponible {
		return nil, &ValidationError{Msg: "el viaje ya no está disponible"}
	}
	if seats < 1 || seats > ride.CuposDisponibles {
		return nil, &ValidationError{
			Msg: fmt.Sprintf("cupos solicitados fuera de rango (disponibles: %d)", ride.CuposDisponibles),
		}
	}
	data, err := s.api.Post(ctx, "/rides/"+ride.ID+"/book", token, bookRequest{Seats: seats})
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// CancelBooking releases the caller's seats on a ride.
func (s *Service) CancelBooking(ctx context.Context, token, id string) error {
	_, err := s.api.Delete(ctx, "/rides/"+id+"/book", token)
	return err
}

// Start moves a ride to en_curso. Driver only, server-enforced.
func (s *Service) Start(ctx context.Context, token, id string) (*Ride, error) {
	data, err := s.api.Patch(ctx, "/rides/"+id+"/start", token)
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// Cancel moves a still-available ride to cancelado.
func (s *Service) Cancel(ctx context.Context, token, id string) (*Ride, error) {
	data, err := s.api.Patch(ctx, "/rides/"+id+"/cancel", token)
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// Complete moves an in-progress ride to completado.
func (s *Service) Complete(ctx context.Context, token, id string) (*Ride, error) {
	data, err := s.api.Post(ctx, "/rides/"+id+"/complete", token, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne(data)
}

// ValidateForm runs the create/edit preflight. Messages are user-facing.
func ValidateForm(form FormData, now time.Time) error {
	switch {
	case form.Origen.Ciudad == "" || form.Origen.Direccion == "":
		return &ValidationError{Msg: "origen incompleto: ciudad y dirección son obligatorias"}
	case form.Destino.Ciudad == "" || form.Destino.Direccion == "":
		return &ValidationError{Msg: "destino incompleto: ciudad y dirección son obligatorias"}
	case form.Fecha == "" || form.Hora == "":
		return &ValidationError{Msg: "fecha y hora son obligatorias"}
	case !validation.ValidateSeats(form.CuposTotales):
		return &ValidationError{Msg: "debes ofrecer entre 1 y 20 cupos"}
	case !validation.ValidatePrice(form.Precio):
		return &ValidationError{Msg: "el precio por cupo debe ser mayor a cero"}
	case !validation.ValidateDeparture(form.Fecha, form.Hora, now):
		return &ValidationError{Msg: "la fecha de salida ya pasó"}
	}
	return nil
}

func encodeForm(form FormData) createRequest {
	return createRequest{
		Origin:      JoinLocation(form.Origen),
		Destination: JoinLocation(form.Destino),
		Date:        form.Fecha,
		Time:        form.Hora,
		Price:       form.Precio,
		Seats:       form.CuposTotales,
		Description: fmt.Sprintf("Viaje programado para %s a las %s", form.Fecha, form.Hora),
	}
}

func decodeOne(data []byte) (*Ride, error) {
	var rec backendRide
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding ride: %w", err)
	}
	ride := transform(rec)
	return &ride, nil
}

func decodeList(data []byte) ([]Ride, error) {
	var recs []backendRide
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding rides: %w", err)
	}
	rides := make([]Ride, len(recs))
	for i, rec := range recs {
		rides[i] = transform(rec)
	}
	return rides, nil
}
