// README: Settlement and carrier ledger store backed by PostgreSQL.
package settlement

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"logishare/internal/types"
)

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) InsertSettlement(ctx context.Context, st *Settlement) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO shipment_settlements (
            settlement_id, shipment_id, carrier_id, matched_vehicle_id, kind,
            base_fare, time_fare, weight_fare, total_fare, platform_fee, carrier_amount,
            currency, period, late, completed_at, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		string(st.ID),
		string(st.ShipmentID),
		string(st.CarrierID),
		string(st.VehicleID),
		string(st.Kind),
		st.BaseFare, st.TimeFare, st.WeightFare, st.TotalFare,
		st.PlatformFee, st.CarrierAmount,
		st.Currency,
		st.Period.String(),
		st.Late,
		st.CompletedAt,
		st.CreatedAt,
	)
	return err
}

func (s *PGStore) LedgerStatus(ctx context.Context, carrierID types.ID, period Period) (LedgerStatus, error) {
	row := s.db.QueryRow(ctx, `
        SELECT status FROM carrier_ledgers WHERE carrier_id = $1 AND period = $2`,
		string(carrierID), period.String())
	var status string
	err := row.Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrLedgerMissing
	}
	if err != nil {
		return "", err
	}
	return LedgerStatus(status), nil
}

// ApplyToLedger folds one settlement into its period rollup. The upsert with
// column increments is atomic, so concurrent completions for one carrier
// never lose an update. Adjustments keep the delivery count unchanged.
func (s *PGStore) ApplyToLedger(ctx context.Context, st *Settlement) error {
	deliveries := int64(0)
	if st.Kind == KindFare {
		deliveries = 1
	}
	_, err := s.db.Exec(ctx, `
        INSERT INTO carrier_ledgers (
            carrier_id, period, total_deliveries, total_revenue, platform_fee, net_amount, status
        ) VALUES ($1, $2, $3, $4, $5, $6, 'pending')
        ON CONFLICT (carrier_id, period) DO UPDATE SET
            total_deliveries = carrier_ledgers.total_deliveries + EXCLUDED.total_deliveries,
            total_revenue = carrier_ledgers.total_revenue + EXCLUDED.total_revenue,
            platform_fee = carrier_ledgers.platform_fee + EXCLUDED.platform_fee,
            net_amount = carrier_ledgers.net_amount + EXCLUDED.net_amount
        WHERE carrier_ledgers.status = 'pending'`,
		string(st.CarrierID),
		st.Period.String(),
		deliveries,
		st.TotalFare,
		st.PlatformFee,
		st.CarrierAmount,
	)
	return err
}

// FinalizeLedger closes the period with a compare-and-swap on status; false
// means the period was already settled (or never opened).
func (s *PGStore) FinalizeLedger(ctx context.Context, carrierID types.ID, period Period, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        UPDATE carrier_ledgers
        SET status = 'settled', settlement_date = $1
        WHERE carrier_id = $2 AND period = $3 AND status = 'pending'`,
		at, string(carrierID), period.String())
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) GetLedger(ctx context.Context, carrierID types.ID, period Period) (*Ledger, error) {
	row := s.db.QueryRow(ctx, `
        SELECT carrier_id, total_deliveries, total_revenue, platform_fee, net_amount, status, settlement_date
        FROM carrier_ledgers
        WHERE carrier_id = $1 AND period = $2`,
		string(carrierID), period.String())

	l := Ledger{Period: period}
	var settledAt sql.NullTime
	err := row.Scan(&l.CarrierID, &l.TotalDeliveries, &l.TotalRevenue, &l.PlatformFee, &l.NetAmount, &l.Status, &settledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLedgerMissing
	}
	if err != nil {
		return nil, err
	}
	if settledAt.Valid {
		t := settledAt.Time
		l.SettlementDate = &t
	}
	return &l, nil
}

// ListSettlements returns settlement rows for the dashboard, newest first.
func (s *PGStore) ListSettlements(ctx context.Context, limit int) ([]Settlement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
        SELECT settlement_id, shipment_id, carrier_id, matched_vehicle_id, kind,
               base_fare, time_fare, weight_fare, total_fare, platform_fee, carrier_amount,
               currency, period, late, completed_at, created_at
        FROM shipment_settlements
        ORDER BY created_at DESC
        LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Settlement
	for rows.Next() {
		var st Settlement
		var period string
		if err := rows.Scan(&st.ID, &st.ShipmentID, &st.CarrierID, &st.VehicleID, &st.Kind,
			&st.BaseFare, &st.TimeFare, &st.WeightFare, &st.TotalFare, &st.PlatformFee, &st.CarrierAmount,
			&st.Currency, &period, &st.Late, &st.CompletedAt, &st.CreatedAt); err != nil {
			return nil, err
		}
		st.Period = parsePeriod(period)
		out = append(out, st)
	}
	return out, rows.Err()
}

func parsePeriod(v string) Period {
	t, err := time.Parse("2006-01", v)
	if err != nil {
		return Period{}
	}
	return PeriodOf(t)
}
