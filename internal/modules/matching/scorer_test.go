// README: Scorer tests (weighted affinity, oversupply penalty, deterministic ties).
package matching

import (
	"math"
	"testing"

	"logishare/internal/config"
	"logishare/internal/modules/candidate"
	"logishare/internal/modules/shipment"
	"logishare/internal/types"
)

func testMatchingConfig() config.MatchingConfig {
	return config.MatchingConfig{
		ProximityWeight: 0.40,
		CapacityWeight:  0.25,
		RatingWeight:    0.20,
		UrgencyWeight:   0.15,
		HighBonus:       0.5,
		UrgentBonus:     1.0,
		RadiusKm:        30,
	}
}

func scored(id string, capacityKg, rating, distKm float64) candidate.Scored {
	return candidate.Scored{
		Candidate: candidate.Candidate{
			ID:       types.ID(id),
			Kind:     candidate.KindVehicle,
			WeightKg: capacityKg,
			VolumeM3: 50,
			Rating:   rating,
		},
		DistanceKm: distKm,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestScore_RightSizedTruckBeatsCloserOversizedOne(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	sh := &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyUrgent}

	// 600 kg truck, rated 4.5, 3 km out.
	a := s.Score(sh, scored("a", 600, 4.5, 3), 30)
	// 5000 kg truck, rated 4.0, only 1 km out.
	b := s.Score(sh, scored("b", 5000, 4.0, 1), 30)

	if !almostEqual(a, 94.0) {
		t.Errorf("score(a) = %f, want 94.0", a)
	}
	// proximity 29/30, fit 1-0.49, rating 0.8, urgent bonus.
	wantB := (0.40*(29.0/30.0) + 0.25*0.51 + 0.20*0.8 + 0.15*1.0) * 100
	if !almostEqual(b, wantB) {
		t.Errorf("score(b) = %f, want %f", b, wantB)
	}
	if a <= b {
		t.Errorf("oversized truck won: a=%f b=%f", a, b)
	}
}

func TestScore_Reproducible(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	sh := &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyUrgent}
	c := scored("a", 600, 4.5, 3)

	first := s.Score(sh, c, 30)
	for i := 0; i < 100; i++ {
		if got := s.Score(sh, c, 30); got != first {
			t.Fatalf("run %d: score drifted from %f to %f", i, first, got)
		}
	}
}

func TestScore_Bounds(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	tests := []struct {
		name string
		sh   *shipment.Shipment
		c    candidate.Scored
	}{
		{"perfect", &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyUrgent}, scored("a", 600, 5.0, 0)},
		{"at edge of radius", &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyNormal}, scored("a", 600, 0, 30)},
		{"beyond radius after expansion", &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyNormal}, scored("a", 600, 3.0, 45)},
		{"rating above scale", &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyNormal}, scored("a", 600, 7.0, 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := s.Score(tc.sh, tc.c, 30)
			if got < 0 || got > 100 {
				t.Errorf("score = %f, out of [0,100]", got)
			}
		})
	}
}

func TestCapacityFit(t *testing.T) {
	tests := []struct {
		name       string
		capacityKg float64
		weightKg   float64
		want       float64
	}{
		{"under capacity", 400, 500, 0},
		{"exact fit", 500, 500, 1},
		{"within threshold", 1500, 500, 1},
		{"ratio 10", 5000, 500, 0.51},
		{"penalty floor", 100000, 500, 0},
		{"zero weight", 500, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := capacityFit(tc.capacityKg, tc.weightKg); !almostEqual(got, tc.want) {
				t.Errorf("capacityFit(%f, %f) = %f, want %f", tc.capacityKg, tc.weightKg, got, tc.want)
			}
		})
	}
}

func TestRank_OrdersBestFirst(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	sh := &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyNormal}

	got := s.Rank(sh, []candidate.Scored{
		scored("oversized", 5000, 4.0, 1),
		scored("fit", 600, 4.5, 3),
		scored("distant", 600, 4.5, 28),
	}, 30)

	wantOrder := []string{"fit", "oversized", "distant"}
	for i, want := range wantOrder {
		if string(got[i].Candidate.ID) != want {
			t.Fatalf("rank[%d] = %s, want %s", i, got[i].Candidate.ID, want)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestRank_TieBreaksAreDeterministic(t *testing.T) {
	s := NewScorer(testMatchingConfig())
	sh := &shipment.Shipment{WeightKg: 500, Urgency: shipment.UrgencyNormal}

	// Identical score and rating; the lower ID must win every time.
	twins := []candidate.Scored{
		scored("v_b", 600, 4.5, 3),
		scored("v_a", 600, 4.5, 3),
	}
	for i := 0; i < 50; i++ {
		got := s.Rank(sh, twins, 30)
		if got[0].Candidate.ID != "v_a" {
			t.Fatalf("run %d: tie broke to %s, want v_a", i, got[0].Candidate.ID)
		}
	}

	// With the rating weight zeroed out, equal scores fall back to the
	// rating tie-break before the ID one.
	cfg := testMatchingConfig()
	cfg.RatingWeight = 0
	flat := NewScorer(cfg)
	rated := []candidate.Scored{
		scored("v_a", 600, 4.0, 3),
		scored("v_b", 600, 4.2, 3),
	}
	got := flat.Rank(sh, rated, 30)
	if got[0].Candidate.ID != "v_b" {
		t.Fatalf("higher-rated candidate lost the tie: got %s", got[0].Candidate.ID)
	}
}
