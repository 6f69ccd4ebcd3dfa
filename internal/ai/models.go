package ai

// MatchContext carries the facts the note generator may mention. Everything
// here is already public to the dashboard; nothing sensitive goes to the
// model.
type MatchContext struct {
	Cargo        string  `json:"cargo"`
	WeightKg     float64 `json:"weight_kg"`
	Urgency      string  `json:"urgency"`
	Instructions string  `json:"instructions,omitempty"`
	DistanceKm   float64 `json:"distance_km"`
	Score        float64 `json:"score"`
	Rating       float64 `json:"rating"`
}

// noteResult is the structured response requested from the model.
type noteResult struct {
	Note string `json:"note"`
}
