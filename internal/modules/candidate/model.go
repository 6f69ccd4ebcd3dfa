// README: Vehicle and empty-run candidates eligible for shipment assignment.
package candidate

import (
	"time"

	"logishare/internal/types"
)

// UnboundedVolume stands in for "no volume constraint" on empty-run legs,
// which declare spare weight only.
const UnboundedVolume = 1e9

type Kind string

const (
	KindVehicle  Kind = "vehicle"
	KindEmptyRun Kind = "emptyrun"
)

// Candidate is a physical vehicle or an empty-run leg with declared spare
// capacity on a planned route.
type Candidate struct {
	ID        types.ID
	Kind      Kind
	CarrierID types.ID
	VehicleID types.ID
	Position  types.Point
	// Remaining capacity. Empty-run legs shrink as shipments consume them;
	// a plain vehicle carries its full rated capacity.
	WeightKg float64
	VolumeM3 float64
	Rating   float64 // 0..5
	// Availability window for empty-run legs; zero times mean always on.
	DepartAt time.Time
	ArriveAt time.Time
}

// windowActive reports whether the candidate is inside its availability
// window at t. Candidates without a window are always active.
func (c Candidate) windowActive(t time.Time) bool {
	if c.ArriveAt.IsZero() {
		return true
	}
	return !t.Before(c.DepartAt) && t.Before(c.ArriveAt)
}
