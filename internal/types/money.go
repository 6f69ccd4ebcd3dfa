// README: Common money value object used across modules.
package types

import "math"

type Money struct {
	Amount   int64
	Currency string
}

// KRW builds a won amount. The won has no fractional unit, so Amount is the
// face value.
func KRW(amount int64) Money {
	return Money{Amount: amount, Currency: "KRW"}
}

// RoundHalfUp rounds v to the nearest integer minor unit, halves away from
// zero. Applied once per fare component, never to intermediate values.
func RoundHalfUp(v float64) int64 {
	if v < 0 {
		return -int64(math.Floor(-v + 0.5))
	}
	return int64(math.Floor(v + 0.5))
}
