// README: Tariff service resolves per-cargo-class rates with config defaults.
package tariff

import (
	"context"
	"errors"

	"logishare/internal/config"
)

type RateStore interface {
	GetRate(ctx context.Context, cargoClass string) (Rate, error)
}

type Service struct {
	store    RateStore
	fallback Rate
}

// NewService builds a tariff service. store may be nil, in which case the
// configured default rates apply to every cargo class.
func NewService(store RateStore, cfg config.TariffConfig) *Service {
	return &Service{
		store: store,
		fallback: Rate{
			RatePerKm:     cfg.RatePerKm,
			RatePerMinute: cfg.RatePerMinute,
			RatePerKg:     cfg.RatePerKg,
			Currency:      cfg.Currency,
		},
	}
}

// Compute looks up the rate for the cargo class and produces the breakdown.
// An unknown class falls back to the default rates; only real store failures
// propagate.
func (s *Service) Compute(ctx context.Context, cargoClass string, distanceKm, durationMin, weightKg float64) (Breakdown, error) {
	rate := s.fallback
	if s.store != nil && cargoClass != "" {
		r, err := s.store.GetRate(ctx, cargoClass)
		switch {
		case err == nil:
			rate = r
		case errors.Is(err, ErrRateNotFound):
			// keep fallback
		default:
			return Breakdown{}, err
		}
	}
	return NewCalculatorWithRate(rate).Compute(distanceKm, durationMin, weightKg)
}
