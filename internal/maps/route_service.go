// README: Road routing oracle backed by the Google Maps API with a haversine fallback.
package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"logishare/internal/types"
)

const (
	earthRadiusKm = 6371.0
	// avgSpeedKmh drives the fallback duration estimate when the Maps API is
	// unavailable; freight on Korean intercity roads, not city traffic.
	avgSpeedKmh = 60.0
)

// RouteService answers distance/duration questions for trips. With no API
// key it degrades to great-circle distance and a fixed average speed, so the
// engine never depends on the external service being up.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	if apiKey == "" {
		return &RouteService{}, nil
	}
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Estimate returns driving distance in km and duration in minutes between
// two points. API failures fall back to the haversine estimate rather than
// erroring; a slow oracle is bounded by the caller's context.
func (s *RouteService) Estimate(ctx context.Context, origin, dest types.Point) (float64, float64, error) {
	if s.client == nil {
		return s.fallback(origin, dest)
	}

	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", dest.Lat, dest.Lng),
		Mode:        maps.TravelModeDriving,
		Language:    "ko",
		Region:      "KR",
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil || len(routes) == 0 || len(routes[0].Legs) == 0 {
		return s.fallback(origin, dest)
	}

	leg := routes[0].Legs[0]
	return float64(leg.Distance.Meters) / 1000.0, leg.Duration.Minutes(), nil
}

func (s *RouteService) fallback(origin, dest types.Point) (float64, float64, error) {
	km := haversineKm(origin, dest)
	return km, km / avgSpeedKmh * 60.0, nil
}

func haversineKm(a, b types.Point) float64 {
	rad := func(deg float64) float64 { return deg * math.Pi / 180.0 }
	dLat := rad(b.Lat - a.Lat)
	dLng := rad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rad(a.Lat))*math.Cos(rad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
