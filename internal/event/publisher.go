// README: Engine event stream over Redis pub/sub; consumers subscribe instead of polling.
package event

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"logishare/internal/types"
)

// Channel carries every engine state-change event as a JSON document.
const Channel = "logishare:events"

type Type string

const (
	ShipmentEnqueued   Type = "shipment_enqueued"
	ShipmentMatched    Type = "shipment_matched"
	ShipmentUnmatched  Type = "shipment_unmatched"
	ShipmentCompleted  Type = "shipment_completed"
	ShipmentCancelled  Type = "shipment_cancelled"
	SettlementRecorded Type = "settlement_recorded"
	LedgerFinalized    Type = "ledger_finalized"
)

type Event struct {
	Type       Type      `json:"type"`
	ShipmentID types.ID  `json:"shipment_id,omitempty"`
	VehicleID  types.ID  `json:"vehicle_id,omitempty"`
	CarrierID  types.ID  `json:"carrier_id,omitempty"`
	Score      float64   `json:"score,omitempty"`
	Amount     int64     `json:"amount,omitempty"`
	Late       bool      `json:"late,omitempty"`
	At         time.Time `json:"at"`
}

// Publisher fans engine events out to Redis. A nil Publisher drops events,
// so wiring one up stays optional in tests and tools.
type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redis *redis.Client) *Publisher {
	return &Publisher{redis: redis}
}

func (p *Publisher) Publish(ctx context.Context, e Event) {
	if p == nil || p.redis == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return
	}
	if err := p.redis.Publish(ctx, Channel, payload).Err(); err != nil {
		// Event delivery is best effort; the persisted rows stay correct.
		log.Printf("event: publish %s: %v", e.Type, err)
	}
}
