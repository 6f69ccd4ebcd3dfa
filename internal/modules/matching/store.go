// README: Match and matching_queue persistence backed by PostgreSQL.
package matching

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

func (s *PGStore) UpsertQueueRow(ctx context.Context, row QueueRow) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO matching_queue (
            shipment_id, urgency, request_time, matching_score, status, matched_vehicle_id, attempts, updated_at
        ) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)
        ON CONFLICT (shipment_id) DO UPDATE SET
            matching_score = EXCLUDED.matching_score,
            status = EXCLUDED.status,
            matched_vehicle_id = EXCLUDED.matched_vehicle_id,
            attempts = GREATEST(matching_queue.attempts, EXCLUDED.attempts),
            updated_at = EXCLUDED.updated_at`,
		string(row.ShipmentID),
		row.Urgency,
		row.RequestedAt,
		row.MatchingScore,
		string(row.Status),
		string(row.MatchedVehicleID),
		row.Attempts,
		row.UpdatedAt,
	)
	return err
}

func (s *PGStore) CreateMatch(ctx context.Context, m *Match) error {
	_, err := s.db.Exec(ctx, `
        INSERT INTO matches (
            shipment_id, candidate_id, vehicle_id, carrier_id, score, distance_km, estimated_at, active, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)`,
		string(m.ShipmentID),
		string(m.CandidateID),
		string(m.VehicleID),
		string(m.CarrierID),
		m.Score,
		m.DistanceKm,
		m.EstimatedAt,
		m.CreatedAt,
	)
	return err
}

func (s *PGStore) GetMatchByShipment(ctx context.Context, shipmentID types.ID) (*Match, error) {
	row := s.db.QueryRow(ctx, `
        SELECT shipment_id, candidate_id, vehicle_id, carrier_id, score, distance_km, estimated_at, created_at
        FROM matches
        WHERE shipment_id = $1 AND active`, string(shipmentID))

	var m Match
	err := row.Scan(&m.ShipmentID, &m.CandidateID, &m.VehicleID, &m.CarrierID,
		&m.Score, &m.DistanceKm, &m.EstimatedAt, &m.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *PGStore) CloseMatch(ctx context.Context, shipmentID types.ID) error {
	_, err := s.db.Exec(ctx, `
        UPDATE matches SET active = FALSE, closed_at = $1 WHERE shipment_id = $2 AND active`,
		time.Now(), string(shipmentID))
	return err
}

// QueueSnapshot lists the dashboard view of the matching queue, most urgent
// first, matching the original matching_queue table order.
func (s *PGStore) QueueSnapshot(ctx context.Context) ([]QueueRow, error) {
	rows, err := s.db.Query(ctx, `
        SELECT shipment_id, urgency, request_time, matching_score, status, COALESCE(matched_vehicle_id, ''), attempts, updated_at
        FROM matching_queue
        ORDER BY CASE urgency WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 ELSE 2 END, request_time`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []QueueRow
	for rows.Next() {
		var r QueueRow
		var vehicle string
		if err := rows.Scan(&r.ShipmentID, &r.Urgency, &r.RequestedAt, &r.MatchingScore,
			&r.Status, &vehicle, &r.Attempts, &r.UpdatedAt); err != nil {
			return nil, err
		}
		r.MatchedVehicleID = types.ID(vehicle)
		out = append(out, r)
	}
	return out, rows.Err()
}
