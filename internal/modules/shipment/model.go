// README: Shipment aggregate, urgency tiers, and status definitions.
package shipment

import (
	"time"

	"logishare/internal/types"
)

type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusMatching  Status = "matching"
	StatusMatched   Status = "matched"
	StatusInTransit Status = "in_transit"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusUnmatched Status = "unmatched"
)

type Urgency string

const (
	UrgencyNormal Urgency = "normal"
	UrgencyHigh   Urgency = "high"
	UrgencyUrgent Urgency = "urgent"
)

// Rank orders urgency tiers for queue priority. Unknown tiers rank lowest.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyUrgent:
		return 2
	case UrgencyHigh:
		return 1
	case UrgencyNormal:
		return 0
	}
	return -1
}

func ValidUrgency(u Urgency) bool {
	return u == UrgencyNormal || u == UrgencyHigh || u == UrgencyUrgent
}

type Shipment struct {
	ID            types.ID
	CarrierID     types.ID
	Origin        types.Point
	Destination   types.Point
	Cargo         string
	WeightKg      float64
	VolumeM3      float64
	Urgency       Urgency
	RequestedAt   time.Time
	Instructions  string
	EstimatedCost types.Money
	Status        Status
	StatusVersion int
	// VehicleID is set when a candidate is committed. Empty until matched
	// (the "unassigned" sentinel is the zero ID, never an implicit row).
	VehicleID   types.ID
	CreatedAt   time.Time
	MatchedAt   *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

type Event struct {
	ID         int64
	ShipmentID types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	CreatedAt  time.Time
}

// AllowedTransitions represents the shipment state flow as code. Edges move
// forward only; unmatched re-enters matching on retry.
var AllowedTransitions = map[Status][]Status{
	StatusPending:   {StatusMatching, StatusCancelled},
	StatusMatching:  {StatusMatched, StatusUnmatched, StatusCancelled},
	StatusUnmatched: {StatusMatching, StatusCancelled},
	StatusMatched:   {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusCompleted},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
