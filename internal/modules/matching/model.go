// README: Match binding and queue snapshot rows for the matching engine.
package matching

import (
	"errors"
	"time"

	"logishare/internal/types"
)

var (
	// ErrNoCapacity means no candidate qualified within policy bounds. The
	// shipment is left unmatched for manual intervention, never dropped.
	ErrNoCapacity = errors.New("no capacity available")
	ErrNotFound   = errors.New("match not found")
)

// Match is the committed binding between a shipment and a candidate. At most
// one active Match per shipment and per candidate.
type Match struct {
	ShipmentID  types.ID
	CandidateID types.ID
	VehicleID   types.ID
	CarrierID   types.ID
	Score       float64 // 0..100
	DistanceKm  float64
	EstimatedAt time.Time
	CreatedAt   time.Time
}

type QueueStatus string

const (
	QueueWaiting QueueStatus = "waiting"
	QueueMatched QueueStatus = "matched"
	QueueFailed  QueueStatus = "failed"
)

// QueueRow is the dashboard-facing snapshot of one shipment's matching
// attempt (the matching_queue table).
type QueueRow struct {
	ShipmentID       types.ID
	Urgency          string
	RequestedAt      time.Time
	MatchingScore    float64
	Status           QueueStatus
	MatchedVehicleID types.ID
	Attempts         int
	UpdatedAt        time.Time
}
