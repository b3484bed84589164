package rides

import (
	"strings"

	"carpool-web/internal/auth"
)

// locationSep joins city and address on the wire. The backend stores one
// flat string per stop; the client keeps the structured form everywhere
// else, so the join/split lives only at this codec boundary.
const locationSep = " - "

// SplitLocation splits a flat "City - Address" string on the first
// separator, so an address containing " - " keeps its tail intact. Without
// a separator the whole string is the city and the address stays empty.
func SplitLocation(s string) Location {
	ciudad, direccion, _ := strings.Cut(s, locationSep)
	return Location{Ciudad: ciudad, Direccion: direccion}
}

// JoinLocation is the wire encoding of a Location.
func JoinLocation(l Location) string {
	return l.Ciudad + locationSep + l.Direccion
}

// transformStatus maps backend status codes onto the client enum. Unknown
// codes read as cancelled so stale rides never look bookable.
func transformStatus(s string) Estado {
	switch s {
	case "pending":
		return EstadoDisponible
	case "accepted":
		return EstadoEnCurso
	case "completed":
		return EstadoCompletado
	default:
		return EstadoCancelado
	}
}

// transform maps a backend record onto the client shape. Total over any
// input: missing text fields become empty strings, missing numbers zero,
// and the seat counts are clamped into 0 <= disponibles <= totales.
func transform(b backendRide) Ride {
	id := b.MongoID
	if id == "" {
		id = b.ID
	}

	totales := b.Seats
	if totales < 0 {
		totales = 0
	}
	disponibles := b.AvailableSeats
	if disponibles < 0 {
		disponibles = 0
	}
	if disponibles > totales {
		disponibles = totales
	}

	pasajeros := b.Passengers
	if pasajeros == nil {
		pasajeros = []auth.User{}
	}

	return Ride{
		ID:               id,
		Origen:           SplitLocation(b.Origin),
		Destino:          SplitLocation(b.Destination),
		Fecha:            b.Date,
		Hora:             b.Time,
		CuposDisponibles: disponibles,
		CuposTotales:     totales,
		Precio:           b.Price,
		Estado:           transformStatus(b.Status),
		Conductor:        b.CreatedBy,
		Pasajeros:        pasajeros,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}
