// README: Candidate store; loads fleet rows from PostgreSQL and mirrors positions to Redis GEO.
package candidate

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"logishare/internal/types"
)

const candidateGeoKey = "candidates:geo"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

// LoadFleet reads available vehicles and open empty-run legs into candidates.
// Called at startup and from the refresh ticker; the in-memory index remains
// the reservation truth, this only feeds it.
func (s *Store) LoadFleet(ctx context.Context) ([]Candidate, error) {
	var out []Candidate

	rows, err := s.db.Query(ctx, `
        SELECT vehicle_id, carrier_id, capacity_kg, volume_m3, current_lat, current_lng, rating
        FROM vehicles
        WHERE status = 'available'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Candidate
		var vid string
		if err := rows.Scan(&vid, &c.CarrierID, &c.WeightKg, &c.VolumeM3, &c.Position.Lat, &c.Position.Lng, &c.Rating); err != nil {
			return nil, err
		}
		c.ID = types.ID("v_" + vid)
		c.Kind = KindVehicle
		c.VehicleID = types.ID(vid)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	legs, err := s.db.Query(ctx, `
        SELECT e.emptyrun_id, e.vehicle_id, v.carrier_id, e.available_weight, e.origin_lat, e.origin_lng,
               e.departure_at, e.arrival_at, v.rating
        FROM emptyruns e
        JOIN vehicles v ON v.vehicle_id = e.vehicle_id
        WHERE e.status = 'open' AND e.arrival_at > NOW()`)
	if err != nil {
		return nil, err
	}
	defer legs.Close()
	for legs.Next() {
		var c Candidate
		var eid, vid string
		if err := legs.Scan(&eid, &vid, &c.CarrierID, &c.WeightKg, &c.Position.Lat, &c.Position.Lng,
			&c.DepartAt, &c.ArriveAt, &c.Rating); err != nil {
			return nil, err
		}
		c.ID = types.ID("er_" + eid)
		c.Kind = KindEmptyRun
		c.VehicleID = types.ID(vid)
		c.VolumeM3 = UnboundedVolume
		out = append(out, c)
	}
	return out, legs.Err()
}

// MirrorPosition publishes a candidate position to the Redis GEO set the
// dashboard map reads. Never consulted for reservation decisions.
func (s *Store) MirrorPosition(ctx context.Context, c Candidate) error {
	return s.redis.GeoAdd(ctx, candidateGeoKey, &redis.GeoLocation{
		Name:      string(c.ID),
		Longitude: c.Position.Lng,
		Latitude:  c.Position.Lat,
	}).Err()
}

// DropMirror removes a candidate from the GEO mirror.
func (s *Store) DropMirror(ctx context.Context, id types.ID) error {
	return s.redis.ZRem(ctx, candidateGeoKey, string(id)).Err()
}

// UpdateLegWeight persists the remaining capacity of a partially consumed
// empty-run leg, so a fleet refresh reads the decremented figure back.
func (s *Store) UpdateLegWeight(ctx context.Context, emptyRunID types.ID, remainingKg float64) error {
	_, err := s.db.Exec(ctx, `
        UPDATE emptyruns SET available_weight = $1 WHERE emptyrun_id = $2 AND status = 'open'`,
		remainingKg, string(emptyRunID))
	return err
}

// CloseLeg marks an empty-run row finished once its capacity is used up or
// its window elapses.
func (s *Store) CloseLeg(ctx context.Context, emptyRunID types.ID, closedAt time.Time) error {
	_, err := s.db.Exec(ctx, `
        UPDATE emptyruns SET status = 'closed', closed_at = $1 WHERE emptyrun_id = $2 AND status = 'open'`,
		closedAt, string(emptyRunID))
	return err
}
