// README: Candidate service; keeps the in-memory index fed from fleet storage.
package candidate

import (
	"context"
	"log"
	"strings"
	"time"

	"logishare/internal/types"
)

const (
	refreshInterval = 30 * time.Second
	expireInterval  = time.Minute

	emptyRunIDPrefix = "er_"
)

// FleetStore is the persistence slice the service needs. *Store implements
// it against PostgreSQL and Redis.
type FleetStore interface {
	LoadFleet(ctx context.Context) ([]Candidate, error)
	MirrorPosition(ctx context.Context, c Candidate) error
	DropMirror(ctx context.Context, id types.ID) error
	UpdateLegWeight(ctx context.Context, emptyRunID types.ID, remainingKg float64) error
	CloseLeg(ctx context.Context, emptyRunID types.ID, closedAt time.Time) error
}

type Service struct {
	index *Index
	store FleetStore
}

func NewService(index *Index, store FleetStore) *Service {
	return &Service{index: index, store: store}
}

// Refresh pulls the fleet from storage into the index. Reservations held in
// the index survive a refresh.
func (s *Service) Refresh(ctx context.Context) error {
	cands, err := s.store.LoadFleet(ctx)
	if err != nil {
		return err
	}
	for _, c := range cands {
		s.index.Upsert(c)
		_ = s.store.MirrorPosition(ctx, c)
	}
	return nil
}

// Consume applies used capacity to the index and writes the remainder back
// to storage, so the next refresh cannot resurrect capacity a completed
// shipment already used. A leg with nothing left is closed in storage.
func (s *Service) Consume(ctx context.Context, id types.ID, weightKg, volumeM3 float64) error {
	after, removed := s.index.Consume(id, weightKg, volumeM3)
	if after.ID == "" {
		return nil
	}
	if removed {
		_ = s.store.DropMirror(ctx, id)
	}
	legID, ok := legIDOf(id)
	if !ok {
		return nil
	}
	if removed {
		return s.store.CloseLeg(ctx, legID, time.Now())
	}
	return s.store.UpdateLegWeight(ctx, legID, after.WeightKg)
}

// legIDOf strips the candidate ID down to the emptyruns row key. Vehicle
// candidates have no leg row.
func legIDOf(id types.ID) (types.ID, bool) {
	raw, ok := strings.CutPrefix(string(id), emptyRunIDPrefix)
	if !ok {
		return "", false
	}
	return types.ID(raw), true
}

// Run refreshes the fleet and expires empty-run windows until ctx ends.
func (s *Service) Run(ctx context.Context) {
	refresh := time.NewTicker(refreshInterval)
	expire := time.NewTicker(expireInterval)
	defer refresh.Stop()
	defer expire.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refresh.C:
			if err := s.Refresh(ctx); err != nil {
				log.Printf("candidate: refresh: %v", err)
			}
		case <-expire.C:
			expired := s.index.ExpireWindows(time.Now())
			for _, id := range expired {
				_ = s.store.DropMirror(ctx, id)
				if legID, ok := legIDOf(id); ok {
					if err := s.store.CloseLeg(ctx, legID, time.Now()); err != nil {
						log.Printf("candidate: close leg %s: %v", id, err)
					}
				}
			}
			if len(expired) > 0 {
				log.Printf("candidate: expired %d empty-run windows", len(expired))
			}
		}
	}
}
