// README: Pure fare computation from trip attributes.
package tariff

import (
	"errors"

	"logishare/internal/config"
	"logishare/internal/types"
)

var ErrBadInput = errors.New("tariff: negative trip attribute")

type Calculator struct {
	rate Rate
}

func NewCalculator(cfg config.TariffConfig) *Calculator {
	return &Calculator{rate: Rate{
		RatePerKm:     cfg.RatePerKm,
		RatePerMinute: cfg.RatePerMinute,
		RatePerKg:     cfg.RatePerKg,
		Currency:      cfg.Currency,
	}}
}

func NewCalculatorWithRate(rate Rate) *Calculator {
	return &Calculator{rate: rate}
}

// Compute derives the fare breakdown. Inputs may be fractional; each
// component is rounded half-up exactly once, and the total is the integer
// sum of the rounded components, never a separately rounded value.
func (c *Calculator) Compute(distanceKm, durationMin, weightKg float64) (Breakdown, error) {
	if distanceKm < 0 || durationMin < 0 || weightKg < 0 {
		return Breakdown{}, ErrBadInput
	}
	b := Breakdown{
		BaseFare:   types.RoundHalfUp(distanceKm * float64(c.rate.RatePerKm)),
		TimeFare:   types.RoundHalfUp(durationMin * float64(c.rate.RatePerMinute)),
		WeightFare: types.RoundHalfUp(weightKg * float64(c.rate.RatePerKg)),
		Currency:   c.rate.Currency,
	}
	b.TotalFare = b.BaseFare + b.TimeFare + b.WeightFare
	return b, nil
}
