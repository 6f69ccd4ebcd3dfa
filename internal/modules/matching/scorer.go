// README: Affinity scoring for (shipment, candidate) pairs; ranking only.
package matching

import (
	"logishare/internal/config"
	"logishare/internal/modules/candidate"
	"logishare/internal/modules/shipment"
)

// oversupplyRatio is the capacity ratio beyond which the fit term starts a
// quadratic penalty, so a 20-ton truck does not win a 50 kg parcel.
const oversupplyRatio = 3.0

// oversupplySpan controls how fast the penalty grows past the threshold; the
// fit reaches zero at ratio = oversupplyRatio + oversupplySpan.
const oversupplySpan = 10.0

type Scorer struct {
	cfg config.MatchingConfig
}

func NewScorer(cfg config.MatchingConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score returns the 0..100 affinity of a candidate for a shipment searched
// at radiusKm. Scores compare candidates for one shipment only; they are not
// monotonic across shipments.
func (s *Scorer) Score(sh *shipment.Shipment, c candidate.Scored, radiusKm float64) float64 {
	proximity := 1.0 - c.DistanceKm/radiusKm
	if proximity < 0 {
		proximity = 0
	}

	fit := capacityFit(c.Candidate.WeightKg, sh.WeightKg)

	rating := c.Candidate.Rating / 5.0
	if rating > 1 {
		rating = 1
	}

	var bonus float64
	switch sh.Urgency {
	case shipment.UrgencyHigh:
		bonus = s.cfg.HighBonus
	case shipment.UrgencyUrgent:
		bonus = s.cfg.UrgentBonus
	}

	raw := s.cfg.ProximityWeight*proximity +
		s.cfg.CapacityWeight*fit +
		s.cfg.RatingWeight*rating +
		s.cfg.UrgencyWeight*bonus

	score := raw * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Rank scores every candidate and orders them best-first. Ties break on
// higher rating, then lower candidate ID, so identical inputs always produce
// the same assignment.
func (s *Scorer) Rank(sh *shipment.Shipment, cands []candidate.Scored, radiusKm float64) []Ranked {
	out := make([]Ranked, 0, len(cands))
	for _, c := range cands {
		out = append(out, Ranked{Scored: c, Score: s.Score(sh, c, radiusKm)})
	}
	sortRanked(out)
	return out
}

type Ranked struct {
	candidate.Scored
	Score float64
}

func capacityFit(capacityKg, weightKg float64) float64 {
	if weightKg <= 0 || capacityKg < weightKg {
		return 0
	}
	ratio := capacityKg / weightKg
	if ratio <= oversupplyRatio {
		return 1
	}
	over := (ratio - oversupplyRatio) / oversupplySpan
	fit := 1 - over*over
	if fit < 0 {
		return 0
	}
	return fit
}

// sortRanked is an insertion sort (candidate lists are small) on descending
// score with the deterministic tie-breaks above.
func sortRanked(items []Ranked) {
	for i := 1; i < len(items); i++ {
		key := items[i]
		j := i - 1
		for j >= 0 && rankedLess(key, items[j]) {
			items[j+1] = items[j]
			j--
		}
		items[j+1] = key
	}
}

// rankedLess reports whether a should come before b in the final ordering.
func rankedLess(a, b Ranked) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.Candidate.Rating != b.Candidate.Rating {
		return a.Candidate.Rating > b.Candidate.Rating
	}
	return a.Candidate.ID < b.Candidate.ID
}
