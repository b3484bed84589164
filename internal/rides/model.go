package rides

import "carpool-web/internal/auth"

// Estado enumerates the lifecycle states as shown to the user.
type Estado string

const (
	EstadoDisponible Estado = "disponible"
	EstadoEnCurso    Estado = "en_curso"
	EstadoCompletado Estado = "completado"
	EstadoCancelado  Estado = "cancelado"
)

// Location is a structured stop: city plus street address.
type Location struct {
	Ciudad    string `json:"ciudad"`
	Direccion string `json:"direccion"`
}

// Ride is the client-side shape of a backend ride record. Seat counts
// always reflect the backend's last response; the frontend never computes
// them itself.
type Ride struct {
	ID               string      `json:"_id"`
	Origen           Location    `json:"origen"`
	Destino          Location    `json:"destino"`
	Fecha            string      `json:"fecha"`
	Hora             string      `json:"hora"`
	CuposDisponibles int         `json:"cuposDisponibles"`
	CuposTotales     int         `json:"cuposTotales"`
	Precio           float64     `json:"precio"`
	Estado           Estado      `json:"estado"`
	Conductor        *auth.User  `json:"conductor,omitempty"`
	Pasajeros        []auth.User `json:"pasajeros"`
	CreatedAt        string      `json:"createdAt,omitempty"`
	UpdatedAt        string      `json:"updatedAt,omitempty"`
}

// OwnedBy reports whether the given user created the ride. It only drives
// button visibility; the backend re-checks ownership on every call.
func (r *Ride) OwnedBy(userID string) bool {
	return r.Conductor != nil && userID != "" && r.Conductor.ID == userID
}

// CuposReservados is the number of seats already taken.
func (r *Ride) CuposReservados() int {
	return r.CuposTotales - r.CuposDisponibles
}

// FormData is the draft used to create or edit a ride. It lives only for
// the duration of one submission.
type FormData struct {
	Origen       Location
	Destino      Location
	Fecha        string
	Hora         string
	CuposTotales int
	Precio       float64
}

// backendRide is the wire shape the backend sends: flat origin/destination
// strings and English field names.
type backendRide struct {
	MongoID        string      `json:"_id"`
	ID             string      `json:"id"`
	Origin         string      `json:"origin"`
	Destination    string      `json:"destination"`
	Date           string      `json:"date"`
	Time           string      `json:"time"`
	AvailableSeats int         `json:"availableSeats"`
	Seats          int         `json:"seats"`
	Price          float64     `json:"price"`
	Status         string      `json:"status"`
	CreatedBy      *auth.User  `json:"createdBy"`
	Passengers     []auth.User `json:"passengers"`
	CreatedAt      string      `json:"createdAt"`
	UpdatedAt      string      `json:"updatedAt"`
}

// createRequest is the wire shape for POST /rides and PUT /rides/:id.
type createRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	Date        string  `json:"date"`
	Time        string  `json:"time"`
	Price       float64 `json:"price"`
	Seats       int     `json:"seats"`
	Description string  `json:"description"`
}

type bookRequest struct {
	Seats int `json:"seats"`
}
