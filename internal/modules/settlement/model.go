// README: Settlement records and carrier ledger rollups.
package settlement

import (
	"fmt"
	"time"

	"logishare/internal/types"
)

type Kind string

const (
	KindFare Kind = "fare"
	// KindAdjustment corrects a posted settlement. Settlements are immutable;
	// a correction is a new signed record, never a mutation.
	KindAdjustment Kind = "adjustment"
)

// Settlement is the fare split for one completed shipment, in integer minor
// units. PlatformFee + CarrierAmount == TotalFare exactly.
type Settlement struct {
	ID            types.ID
	ShipmentID    types.ID
	CarrierID     types.ID
	VehicleID     types.ID
	Kind          Kind
	BaseFare      int64
	TimeFare      int64
	WeightFare    int64
	TotalFare     int64
	PlatformFee   int64
	CarrierAmount int64
	Currency      string
	Period        Period
	Late          bool
	CompletedAt   time.Time
	CreatedAt     time.Time
}

type LedgerStatus string

const (
	LedgerPending LedgerStatus = "pending"
	LedgerSettled LedgerStatus = "settled"
)

// Ledger is the periodic per-carrier rollup the dashboard's carriers table
// displays. Closed (settled) ledgers are immutable.
type Ledger struct {
	CarrierID       types.ID
	Period          Period
	TotalDeliveries int64
	TotalRevenue    int64
	PlatformFee     int64
	NetAmount       int64
	Status          LedgerStatus
	SettlementDate  *time.Time
}

// Period is a calendar settlement month.
type Period struct {
	Year  int
	Month time.Month
}

func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

func (p Period) Next() Period {
	if p.Month == time.December {
		return Period{Year: p.Year + 1, Month: time.January}
	}
	return Period{Year: p.Year, Month: p.Month + 1}
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
