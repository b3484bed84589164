package rides

import (
	"encoding/json"
	"testing"

	"carpool-web/internal/auth"
)

func TestSplitLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
	}{
		{"Bogotá - Calle 45 #12-30", Location{Ciudad: "Bogotá", Direccion: "Calle 45 #12-30"}},
		{"CiudadSola", Location{Ciudad: "CiudadSola", Direccion: ""}},
		{"", Location{}},
		// only the first separator splits; the address keeps its tail
		{"Cali - Av 3 - Torre B", Location{Ciudad: "Cali", Direccion: "Av 3 - Torre B"}},
	}
	for _, tt := range tests {
		if got := SplitLocation(tt.in); got != tt.want {
			t.Errorf("SplitLocation(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}
}

func TestJoinSplitRoundTrip(t *testing.T) {
	loc := Location{Ciudad: "Medellín", Direccion: "Cra 80 #30-12"}
	if got := SplitLocation(JoinLocation(loc)); got != loc {
		t.Errorf("round trip = %+v, want %+v", got, loc)
	}
}

func TestTransformStatusMapping(t *testing.T) {
	cases := map[string]Estado{
		"pending":   EstadoDisponible,
		"accepted":  EstadoEnCurso,
		"completed": EstadoCompletado,
		"cancelled": EstadoCancelado,
		"whatever":  EstadoCancelado,
		"":          EstadoCancelado,
	}
	for in, want := range cases {
		if got := transformStatus(in); got != want {
			t.Errorf("transformStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTransformIsTotal(t *testing.T) {
	// A record with every field missing still yields a fully populated ride.
	var rec backendRide
	if err := json.Unmarshal([]byte(`{}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ride := transform(rec)
	if ride.ID != "" || ride.Fecha != "" || ride.Hora != "" {
		t.Errorf("text defaults not empty: %+v", ride)
	}
	if ride.CuposTotales != 0 || ride.CuposDisponibles != 0 || ride.Precio != 0 {
		t.Errorf("numeric defaults not zero: %+v", ride)
	}
	if ride.Estado != EstadoCancelado {
		t.Errorf("Estado = %q, want cancelado for unknown status", ride.Estado)
	}
	if ride.Pasajeros == nil {
		t.Error("Pasajeros is nil, want empty slice")
	}
}

func TestTransformFullRecord(t *testing.T) {
	data := []byte(`{
		"_id": "r1",
		"origin": "Bogotá - Calle 45",
		"destination": "Chía - Campus Norte",
		"date": "2026-09-01",
		"time": "07:30",
		"seats": 4,
		"availableSeats": 2,
		"price": 50000,
		"status": "pending",
		"createdBy": {"_id": "d1", "name": "Ana", "email": "ana@uni.edu", "role": "driver"},
		"passengers": [{"_id": "p1", "name": "Luis", "email": "luis@uni.edu", "role": "passenger"}]
	}`)
	var rec backendRide
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	ride := transform(rec)
	if ride.ID != "r1" {
		t.Errorf("ID = %q", ride.ID)
	}
	if ride.Origen != (Location{Ciudad: "Bogotá", Direccion: "Calle 45"}) {
		t.Errorf("Origen = %+v", ride.Origen)
	}
	if ride.Destino != (Location{Ciudad: "Chía", Direccion: "Campus Norte"}) {
		t.Errorf("Destino = %+v", ride.Destino)
	}
	if ride.Estado != EstadoDisponible || ride.CuposDisponibles != 2 || ride.CuposTotales != 4 {
		t.Errorf("lifecycle fields = %q %d/%d", ride.Estado, ride.CuposDisponibles, ride.CuposTotales)
	}
	if ride.CuposReservados() != 2 {
		t.Errorf("CuposReservados = %d, want 2", ride.CuposReservados())
	}
	if ride.Conductor == nil || ride.Conductor.ID != "d1" {
		t.Errorf("Conductor = %+v", ride.Conductor)
	}
	if len(ride.Pasajeros) != 1 || ride.Pasajeros[0].Name != "Luis" {
		t.Errorf("Pasajeros = %+v", ride.Pasajeros)
	}
	if !ride.OwnedBy("d1") || ride.OwnedBy("p1") || ride.OwnedBy("") {
		t.Error("OwnedBy misreports ownership")
	}
}

func TestTransformClampsSeatInvariant(t *testing.T) {
	tests := []struct {
		seats, available             int
		wantTotales, wantDisponibles int
	}{
		{4, 2, 4, 2},
		{3, 5, 3, 3},  // available above total clamps down
		{4, -1, 4, 0}, // negative clamps to zero
		{-2, -3, 0, 0},
	}
	for _, tt := range tests {
		ride := transform(backendRide{Seats: tt.seats, AvailableSeats: tt.available})
		if ride.CuposTotales != tt.wantTotales || ride.CuposDisponibles != tt.wantDisponibles {
			t.Errorf("transform(seats=%d, available=%d) = %d/%d, want %d/%d",
				tt.seats, tt.available, ride.CuposDisponibles, ride.CuposTotales,
				tt.wantDisponibles, tt.wantTotales)
		}
		if ride.CuposDisponibles < 0 || ride.CuposDisponibles > ride.CuposTotales {
			t.Errorf("seat invariant violated: %d/%d", ride.CuposDisponibles, ride.CuposTotales)
		}
	}
}

func TestTransformIDFallback(t *testing.T) {
	ride := transform(backendRide{ID: "plain-id"})
	if ride.ID != "plain-id" {
		t.Errorf("ID = %q, want fallback to id field", ride.ID)
	}
	ride = transform(backendRide{MongoID: "mongo-id", ID: "plain-id"})
	if ride.ID != "mongo-id" {
		t.Errorf("ID = %q, want _id preferred", ride.ID)
	}
}

func TestTransformConductorRole(t *testing.T) {
	ride := transform(backendRide{CreatedBy: &auth.User{ID: "d1", Role: auth.RoleDriver}})
	if ride.Conductor.Role != auth.RoleDriver {
		t.Errorf("Conductor.Role = %q", ride.Conductor.Role)
	}
}
