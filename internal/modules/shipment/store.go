// README: Shipment store backed by PostgreSQL with optimistic status updates.
package shipment

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

func (s *PGStore) Create(ctx context.Context, sh *Shipment) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO shipments (
            id, carrier_id, origin_lat, origin_lng, dest_lat, dest_lng,
            cargo, weight_kg, volume_m3, urgency, requested_at,
            special_instructions, estimated_cost, status, status_version,
            vehicle_id, created_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6,
            $7, $8, $9, $10, $11,
            $12, $13, $14, $15,
            NULLIF($16, ''), $17
        )`,
		string(sh.ID),
		string(sh.CarrierID),
		sh.Origin.Lat, sh.Origin.Lng,
		sh.Destination.Lat, sh.Destination.Lng,
		sh.Cargo,
		sh.WeightKg,
		sh.VolumeM3,
		string(sh.Urgency),
		sh.RequestedAt,
		sh.Instructions,
		sh.EstimatedCost.Amount,
		string(sh.Status),
		sh.StatusVersion,
		string(sh.VehicleID),
		sh.CreatedAt,
	)
	return err
}

func (s *PGStore) Get(ctx context.Context, id types.ID) (*Shipment, error) {
	row := s.db.QueryRow(ctx, `
        SELECT id, carrier_id, origin_lat, origin_lng, dest_lat, dest_lng,
               cargo, weight_kg, volume_m3, urgency, requested_at,
               special_instructions, estimated_cost, status, status_version,
               vehicle_id, created_at, matched_at, started_at, completed_at, cancelled_at
        FROM shipments
        WHERE id = $1`, string(id),
	)

	var sh Shipment
	var vehicleID sql.NullString
	var matchedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&sh.ID, &sh.CarrierID,
		&sh.Origin.Lat, &sh.Origin.Lng,
		&sh.Destination.Lat, &sh.Destination.Lng,
		&sh.Cargo, &sh.WeightKg, &sh.VolumeM3, &sh.Urgency, &sh.RequestedAt,
		&sh.Instructions, &sh.EstimatedCost.Amount, &sh.Status, &sh.StatusVersion,
		&vehicleID, &sh.CreatedAt, &matchedAt, &startedAt, &completedAt, &cancelledAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if vehicleID.Valid {
		sh.VehicleID = types.ID(vehicleID.String)
	}
	sh.EstimatedCost.Currency = "KRW"
	sh.MatchedAt = toTimePtr(matchedAt)
	sh.StartedAt = toTimePtr(startedAt)
	sh.CompletedAt = toTimePtr(completedAt)
	sh.CancelledAt = toTimePtr(cancelledAt)
	return &sh, nil
}

func (s *PGStore) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, vehicleID types.ID) (bool, error) {
	var v *string
	if vehicleID != "" {
		sv := string(vehicleID)
		v = &sv
	}
	tag, err := s.db.Exec(ctx, `
        UPDATE shipments
        SET status = $1,
            status_version = status_version + 1,
            vehicle_id = COALESCE($2, vehicle_id),
            matched_at = CASE WHEN $1 = 'matched' THEN NOW() ELSE matched_at END,
            started_at = CASE WHEN $1 = 'in_transit' THEN NOW() ELSE started_at END,
            completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END,
            cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
        WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		v,
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGStore) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO shipment_state_events (
            shipment_id, from_status, to_status, actor_type, created_at
        ) VALUES ($1, $2, $3, $4, $5)`,
		string(e.ShipmentID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		e.CreatedAt,
	)
	return err
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
