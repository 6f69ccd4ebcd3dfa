// README: Tariff rates and fare breakdown definitions.
package tariff

type Rate struct {
	CargoClass    string
	RatePerKm     int64
	RatePerMinute int64
	RatePerKg     int64
	Currency      string
}

// Breakdown is the fare for one completed shipment in integer minor units.
// BaseFare + TimeFare + WeightFare == TotalFare always.
type Breakdown struct {
	BaseFare   int64
	TimeFare   int64
	WeightFare int64
	TotalFare  int64
	Currency   string
}
