// README: Settlement aggregator; folds per-shipment fares into carrier ledgers.
package settlement

import (
	"context"
	"errors"
	"time"

	"logishare/internal/config"
	"logishare/internal/event"
	"logishare/internal/modules/shipment"
	"logishare/internal/modules/tariff"
	"logishare/internal/types"
)

var (
	ErrPeriodClosed  = errors.New("settlement period already closed")
	ErrLedgerMissing = errors.New("carrier ledger not found")
)

// Store persists settlements and ledgers; the Postgres implementation and
// the in-memory test fake both satisfy it.
type Store interface {
	InsertSettlement(ctx context.Context, s *Settlement) error
	LedgerStatus(ctx context.Context, carrierID types.ID, period Period) (LedgerStatus, error)
	ApplyToLedger(ctx context.Context, s *Settlement) error
	FinalizeLedger(ctx context.Context, carrierID types.ID, period Period, at time.Time) (bool, error)
	GetLedger(ctx context.Context, carrierID types.ID, period Period) (*Ledger, error)
}

type Aggregator struct {
	store  Store
	events *event.Publisher
	bps    int64
	now    func() time.Time
}

func NewAggregator(store Store, events *event.Publisher, cfg config.SettlementConfig) *Aggregator {
	return &Aggregator{store: store, events: events, bps: int64(cfg.FeeRateBps), now: time.Now}
}

// Record splits the fare and folds it into the carrier's open period. A
// completion that lands after its period closed routes to the next open
// period with the Late flag set; a closed ledger is never reopened.
func (a *Aggregator) Record(ctx context.Context, shipmentID, carrierID, vehicleID types.ID, fare tariff.Breakdown, completedAt time.Time) error {
	period := PeriodOf(completedAt)
	late := false
	for {
		status, err := a.store.LedgerStatus(ctx, carrierID, period)
		if err != nil && !errors.Is(err, ErrLedgerMissing) {
			return err
		}
		if status != LedgerSettled {
			break
		}
		period = period.Next()
		late = true
	}

	fee := types.RoundHalfUp(float64(fare.TotalFare) * float64(a.bps) / 10000.0)
	s := &Settlement{
		ID:          shipment.NewID(),
		ShipmentID:  shipmentID,
		CarrierID:   carrierID,
		VehicleID:   vehicleID,
		Kind:        KindFare,
		BaseFare:    fare.BaseFare,
		TimeFare:    fare.TimeFare,
		WeightFare:  fare.WeightFare,
		TotalFare:   fare.TotalFare,
		PlatformFee: fee,
		// Subtraction, not a second rounding: the two always sum to the total.
		CarrierAmount: fare.TotalFare - fee,
		Currency:      fare.Currency,
		Period:        period,
		Late:          late,
		CompletedAt:   completedAt,
		CreatedAt:     a.now(),
	}
	if err := a.store.InsertSettlement(ctx, s); err != nil {
		return err
	}
	if err := a.store.ApplyToLedger(ctx, s); err != nil {
		return err
	}
	a.events.Publish(ctx, event.Event{
		Type:       event.SettlementRecorded,
		ShipmentID: shipmentID,
		CarrierID:  carrierID,
		Amount:     s.CarrierAmount,
		Late:       late,
	})
	return nil
}

// Adjust posts a signed correction against an already-recorded settlement.
// The delta flows through the same fee split and open-period routing as a
// fare; the original record stays untouched.
func (a *Aggregator) Adjust(ctx context.Context, orig *Settlement, deltaTotal int64, at time.Time) error {
	period := PeriodOf(at)
	late := false
	for {
		status, err := a.store.LedgerStatus(ctx, orig.CarrierID, period)
		if err != nil && !errors.Is(err, ErrLedgerMissing) {
			return err
		}
		if status != LedgerSettled {
			break
		}
		period = period.Next()
		late = true
	}

	fee := types.RoundHalfUp(float64(deltaTotal) * float64(a.bps) / 10000.0)
	adj := &Settlement{
		ID:            shipment.NewID(),
		ShipmentID:    orig.ShipmentID,
		CarrierID:     orig.CarrierID,
		VehicleID:     orig.VehicleID,
		Kind:          KindAdjustment,
		BaseFare:      deltaTotal,
		TotalFare:     deltaTotal,
		PlatformFee:   fee,
		CarrierAmount: deltaTotal - fee,
		Currency:      orig.Currency,
		Period:        period,
		Late:          late,
		CompletedAt:   at,
		CreatedAt:     a.now(),
	}
	if err := a.store.InsertSettlement(ctx, adj); err != nil {
		return err
	}
	return a.store.ApplyToLedger(ctx, adj)
}

// Finalize closes a carrier's period: status settled, settlement date set,
// no further folding. Finalizing an already-settled period returns
// ErrPeriodClosed.
func (a *Aggregator) Finalize(ctx context.Context, carrierID types.ID, period Period) error {
	ok, err := a.store.FinalizeLedger(ctx, carrierID, period, a.now())
	if err != nil {
		return err
	}
	if !ok {
		return ErrPeriodClosed
	}
	a.events.Publish(ctx, event.Event{Type: event.LedgerFinalized, CarrierID: carrierID})
	return nil
}

// Ledger returns a carrier's rollup for a period.
func (a *Aggregator) Ledger(ctx context.Context, carrierID types.ID, period Period) (*Ledger, error) {
	return a.store.GetLedger(ctx, carrierID, period)
}
