// README: Tariff rate store backed by PostgreSQL; per-cargo-class overrides.
package tariff

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrRateNotFound = errors.New("tariff: rate not found")

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetRate returns the rate row for a cargo class; ErrRateNotFound lets the
// caller fall back to the configured default rates.
func (s *Store) GetRate(ctx context.Context, cargoClass string) (Rate, error) {
	row := s.db.QueryRow(ctx, `
        SELECT cargo_class, rate_per_km, rate_per_minute, rate_per_kg, currency
        FROM tariff_rates
        WHERE cargo_class = $1`, cargoClass)

	var r Rate
	err := row.Scan(&r.CargoClass, &r.RatePerKm, &r.RatePerMinute, &r.RatePerKg, &r.Currency)
	if errors.Is(err, sql.ErrNoRows) {
		return Rate{}, ErrRateNotFound
	}
	if err != nil {
		return Rate{}, err
	}
	return r, nil
}
