// README: Candidate service tests (fleet refresh, consumption persistence).
package candidate

import (
	"context"
	"sync"
	"testing"
	"time"

	"logishare/internal/types"
)

type legRow struct {
	weightKg float64
	open     bool
	departAt time.Time
	arriveAt time.Time
}

// fakeFleetStore backs the service with maps instead of Postgres/Redis.
type fakeFleetStore struct {
	mu       sync.Mutex
	vehicles []Candidate
	legs     map[string]*legRow
	mirrored map[types.ID]bool
}

func newFakeFleetStore() *fakeFleetStore {
	return &fakeFleetStore{
		legs:     make(map[string]*legRow),
		mirrored: make(map[types.ID]bool),
	}
}

func (f *fakeFleetStore) LoadFleet(context.Context) ([]Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]Candidate(nil), f.vehicles...)
	for id, leg := range f.legs {
		if !leg.open {
			continue
		}
		out = append(out, Candidate{
			ID:       types.ID("er_" + id),
			Kind:     KindEmptyRun,
			Position: origin,
			WeightKg: leg.weightKg,
			VolumeM3: UnboundedVolume,
			DepartAt: leg.departAt,
			ArriveAt: leg.arriveAt,
			Rating:   4.0,
		})
	}
	return out, nil
}

func (f *fakeFleetStore) MirrorPosition(_ context.Context, c Candidate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mirrored[c.ID] = true
	return nil
}

func (f *fakeFleetStore) DropMirror(_ context.Context, id types.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mirrored, id)
	return nil
}

func (f *fakeFleetStore) UpdateLegWeight(_ context.Context, emptyRunID types.ID, remainingKg float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if leg, ok := f.legs[string(emptyRunID)]; ok && leg.open {
		leg.weightKg = remainingKg
	}
	return nil
}

func (f *fakeFleetStore) CloseLeg(_ context.Context, emptyRunID types.ID, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if leg, ok := f.legs[string(emptyRunID)]; ok {
		leg.open = false
	}
	return nil
}

func openLeg(weightKg float64) *legRow {
	now := time.Now()
	return &legRow{
		weightKg: weightKg,
		open:     true,
		departAt: now.Add(-time.Hour),
		arriveAt: now.Add(2 * time.Hour),
	}
}

func TestConsume_PersistsRemainingLegCapacity(t *testing.T) {
	store := newFakeFleetStore()
	store.legs["1"] = openLeg(1000)
	svc := NewService(NewIndex(), store)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := svc.index.Reserve("er_1", "s1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Consume(ctx, "er_1", 400, 0); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := store.legs["1"].weightKg; got != 600 {
		t.Fatalf("stored leg weight %v, want 600", got)
	}

	// A later refresh must read back the decrement, not the original figure.
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	got := svc.index.Query(ctx, origin, 1, 0, 30)
	if len(got) != 1 || got[0].Candidate.WeightKg != 600 {
		t.Fatalf("pool after refresh: %v, want one leg with 600 kg", got)
	}
}

func TestConsume_ClosesExhaustedLeg(t *testing.T) {
	store := newFakeFleetStore()
	store.legs["1"] = openLeg(1000)
	svc := NewService(NewIndex(), store)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := svc.index.Reserve("er_1", "s1"); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := svc.Consume(ctx, "er_1", 1000, 0); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if store.legs["1"].open {
		t.Fatalf("exhausted leg still open in storage")
	}
	if store.mirrored["er_1"] {
		t.Fatalf("exhausted leg still mirrored")
	}

	// The closed row must not come back on the next refresh.
	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if got := svc.index.Query(ctx, origin, 1, 0, 30); len(got) != 0 {
		t.Fatalf("closed leg resurrected: %v", got)
	}
}

func TestConsume_VehicleTouchesNoLegRow(t *testing.T) {
	store := newFakeFleetStore()
	store.legs["1"] = openLeg(1000)
	store.vehicles = []Candidate{vehicleAt("v_a", origin.Lat, origin.Lng, 2000)}
	svc := NewService(NewIndex(), store)
	ctx := context.Background()

	if err := svc.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if err := svc.Consume(ctx, "v_a", 500, 1); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got := store.legs["1"].weightKg; got != 1000 {
		t.Fatalf("leg weight changed to %v on vehicle consumption", got)
	}
	if !store.legs["1"].open {
		t.Fatalf("leg closed on vehicle consumption")
	}
}

func TestConsume_UnknownCandidateIsNoOp(t *testing.T) {
	store := newFakeFleetStore()
	svc := NewService(NewIndex(), store)
	if err := svc.Consume(context.Background(), "er_missing", 100, 0); err != nil {
		t.Fatalf("consume unknown: %v", err)
	}
}
