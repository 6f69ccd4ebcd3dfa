// README: Queue processor; drains pending shipments, commits at-most-one
// assignment each, and emits settlement requests on completion.
package matching

import (
	"context"
	"errors"
	"log"
	"time"

	"logishare/internal/config"
	"logishare/internal/event"
	"logishare/internal/modules/candidate"
	"logishare/internal/modules/shipment"
	"logishare/internal/modules/tariff"
	"logishare/internal/types"
)

// Shipments is the slice of shipment.Service the processor needs.
type Shipments interface {
	Get(ctx context.Context, id types.ID) (*shipment.Shipment, error)
	Transition(ctx context.Context, id types.ID, to shipment.Status, actorType string, vehicleID types.ID) error
}

// Store persists match bindings and the matching_queue snapshot.
type Store interface {
	UpsertQueueRow(ctx context.Context, row QueueRow) error
	CreateMatch(ctx context.Context, m *Match) error
	GetMatchByShipment(ctx context.Context, shipmentID types.ID) (*Match, error)
	CloseMatch(ctx context.Context, shipmentID types.ID) error
}

// Router estimates trip distance and duration; an external capability, not
// computed here.
type Router interface {
	Estimate(ctx context.Context, origin, dest types.Point) (distanceKm, durationMin float64, err error)
}

// Fares computes the fare breakdown for a completed trip.
type Fares interface {
	Compute(ctx context.Context, cargoClass string, distanceKm, durationMin, weightKg float64) (tariff.Breakdown, error)
}

// Settlements receives the fare breakdown for each completed shipment.
type Settlements interface {
	Record(ctx context.Context, shipmentID, carrierID, vehicleID types.ID, fare tariff.Breakdown, completedAt time.Time) error
}

// Fleet applies consumed capacity to the candidate pool and its backing
// storage, so a fleet refresh cannot hand the same capacity out twice.
type Fleet interface {
	Consume(ctx context.Context, id types.ID, weightKg, volumeM3 float64) error
}

type Processor struct {
	shipments Shipments
	index     *candidate.Index
	scorer    *Scorer
	store     Store
	router    Router
	fares     Fares
	settle    Settlements
	fleet     Fleet
	events    *event.Publisher
	queue     *Queue
	cfg       config.MatchingConfig
}

func NewProcessor(
	shipments Shipments,
	index *candidate.Index,
	scorer *Scorer,
	store Store,
	router Router,
	fares Fares,
	settle Settlements,
	fleet Fleet,
	events *event.Publisher,
	cfg config.MatchingConfig,
) *Processor {
	return &Processor{
		shipments: shipments,
		index:     index,
		scorer:    scorer,
		store:     store,
		router:    router,
		fares:     fares,
		settle:    settle,
		fleet:     fleet,
		events:    events,
		queue:     NewQueue(),
		cfg:       cfg,
	}
}

// Enqueue admits a pending shipment to the matching queue. The shipment
// moves to matching immediately; a queue row appears for the dashboard.
func (p *Processor) Enqueue(ctx context.Context, shipmentID types.ID) error {
	sh, err := p.shipments.Get(ctx, shipmentID)
	if err != nil {
		return err
	}
	if err := p.shipments.Transition(ctx, sh.ID, shipment.StatusMatching, "system", ""); err != nil {
		return err
	}
	_ = p.store.UpsertQueueRow(ctx, QueueRow{
		ShipmentID:  sh.ID,
		Urgency:     string(sh.Urgency),
		RequestedAt: sh.RequestedAt,
		Status:      QueueWaiting,
		UpdatedAt:   time.Now(),
	})
	p.queue.Push(Item{
		ShipmentID:  sh.ID,
		UrgencyRank: sh.Urgency.Rank(),
		RequestedAt: sh.RequestedAt,
		RadiusKm:    p.cfg.RadiusKm,
		Attempt:     0,
	})
	p.events.Publish(ctx, event.Event{Type: event.ShipmentEnqueued, ShipmentID: sh.ID})
	return nil
}

// Run starts the worker pool and blocks until ctx ends. Workers race on the
// shared queue; candidate exclusivity is enforced by the index CAS, not by
// worker coordination.
func (p *Processor) Run(ctx context.Context) {
	workers := p.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go p.worker(ctx)
	}
	<-ctx.Done()
}

func (p *Processor) worker(ctx context.Context) {
	for {
		it, ok := p.queue.Pop(ctx)
		if !ok {
			return
		}
		if err := p.ProcessOne(ctx, it); err != nil && !errors.Is(err, ErrNoCapacity) {
			log.Printf("matching: shipment %s: %v", it.ShipmentID, err)
		}
	}
}

// ProcessOne runs a single matching cycle for one queue item: query, rank,
// reserve-then-commit, with local retry across candidates on reservation
// races. Exhaustion re-enqueues with an expanded radius up to policy bounds.
func (p *Processor) ProcessOne(ctx context.Context, it Item) error {
	sh, err := p.shipments.Get(ctx, it.ShipmentID)
	if err != nil {
		return err
	}
	if sh.Status != shipment.StatusMatching {
		// Cancelled (or otherwise moved on) while queued; drop the item.
		return nil
	}

	qctx, cancel := context.WithTimeout(ctx, time.Duration(p.cfg.QueryTimeoutMs)*time.Millisecond)
	cands := p.index.Query(qctx, sh.Origin, sh.WeightKg, sh.VolumeM3, it.RadiusKm)
	cancel()

	for _, r := range p.scorer.Rank(sh, cands, it.RadiusKm) {
		if err := p.index.Reserve(r.Candidate.ID, sh.ID); err != nil {
			// Lost the race; a normal outcome, try the next-ranked one.
			continue
		}
		committed, err := p.commit(ctx, sh, r)
		if err != nil {
			p.index.Release(r.Candidate.ID)
			return err
		}
		if committed {
			return nil
		}
		// Shipment left matching (cancelled mid-flight); candidate already
		// released inside commit's failure path.
		return nil
	}

	return p.exhausted(ctx, sh, it)
}

// commit binds shipment and candidate: the match row is written first, then
// the status CAS to matched confirms it. A CAS that loses to a cancel closes
// the row and frees the candidate, so neither side outlives the other.
func (p *Processor) commit(ctx context.Context, sh *shipment.Shipment, r Ranked) (bool, error) {
	now := time.Now()
	_, durMin, rerr := p.router.Estimate(ctx, r.Candidate.Position, sh.Origin)
	if rerr != nil {
		durMin = 0
	}
	m := &Match{
		ShipmentID:  sh.ID,
		CandidateID: r.Candidate.ID,
		VehicleID:   r.Candidate.VehicleID,
		CarrierID:   r.Candidate.CarrierID,
		Score:       r.Score,
		DistanceKm:  r.DistanceKm,
		EstimatedAt: now.Add(time.Duration(durMin * float64(time.Minute))),
		CreatedAt:   now,
	}
	if err := p.store.CreateMatch(ctx, m); err != nil {
		// Shipment stays in matching and the caller releases the candidate;
		// nothing half-bound is left behind.
		return false, err
	}

	err := p.shipments.Transition(ctx, sh.ID, shipment.StatusMatched, "system", r.Candidate.VehicleID)
	if errors.Is(err, shipment.ErrConflict) || errors.Is(err, shipment.ErrInvalidState) {
		_ = p.store.CloseMatch(ctx, sh.ID)
		p.index.Release(r.Candidate.ID)
		return false, nil
	}
	if err != nil {
		_ = p.store.CloseMatch(ctx, sh.ID)
		return false, err
	}
	_ = p.store.UpsertQueueRow(ctx, QueueRow{
		ShipmentID:       sh.ID,
		Urgency:          string(sh.Urgency),
		RequestedAt:      sh.RequestedAt,
		MatchingScore:    m.Score,
		Status:           QueueMatched,
		MatchedVehicleID: m.VehicleID,
		UpdatedAt:        now,
	})
	p.events.Publish(ctx, event.Event{
		Type:       event.ShipmentMatched,
		ShipmentID: sh.ID,
		VehicleID:  m.VehicleID,
		Score:      m.Score,
	})
	return true, nil
}

// exhausted handles a cycle that found or won no candidate: expand the
// search and requeue, or surface no-capacity once policy bounds are hit.
func (p *Processor) exhausted(ctx context.Context, sh *shipment.Shipment, it Item) error {
	if err := p.shipments.Transition(ctx, sh.ID, shipment.StatusUnmatched, "system", ""); err != nil {
		// Cancelled in the meantime; nothing more to do.
		return nil
	}

	nextRadius := it.RadiusKm * p.cfg.RadiusGrowth
	if it.Attempt+1 < p.cfg.MaxAttempts && nextRadius <= p.cfg.MaxRadiusKm {
		if err := p.shipments.Transition(ctx, sh.ID, shipment.StatusMatching, "system", ""); err != nil {
			return nil
		}
		p.queue.Push(Item{
			ShipmentID:  sh.ID,
			UrgencyRank: it.UrgencyRank,
			RequestedAt: it.RequestedAt,
			RadiusKm:    nextRadius,
			Attempt:     it.Attempt + 1,
		})
		return nil
	}

	_ = p.store.UpsertQueueRow(ctx, QueueRow{
		ShipmentID:  sh.ID,
		Urgency:     string(sh.Urgency),
		RequestedAt: sh.RequestedAt,
		Status:      QueueFailed,
		Attempts:    it.Attempt + 1,
		UpdatedAt:   time.Now(),
	})
	p.events.Publish(ctx, event.Event{Type: event.ShipmentUnmatched, ShipmentID: sh.ID})
	return ErrNoCapacity
}

// Dispatch moves a matched shipment into transit.
func (p *Processor) Dispatch(ctx context.Context, shipmentID types.ID) error {
	return p.shipments.Transition(ctx, shipmentID, shipment.StatusInTransit, "driver", "")
}

// Complete finishes a shipment in transit: fare breakdown, settlement
// record, and capacity consumption for the bound candidate. A shipment found
// already completed with its match still open resumes the settlement half;
// that is the shape left by an earlier attempt that failed after the status
// moved. Once settled, the match is closed and further calls are no-ops.
func (p *Processor) Complete(ctx context.Context, shipmentID types.ID) error {
	sh, err := p.shipments.Get(ctx, shipmentID)
	if err != nil {
		return err
	}
	switch sh.Status {
	case shipment.StatusInTransit:
		if err := p.shipments.Transition(ctx, sh.ID, shipment.StatusCompleted, "driver", ""); err != nil {
			return err
		}
	case shipment.StatusCompleted:
		// Retry path; settlement state is decided by the match row below.
	default:
		return shipment.ErrInvalidState
	}
	m, err := p.store.GetMatchByShipment(ctx, sh.ID)
	if errors.Is(err, ErrNotFound) {
		// Already settled and closed.
		return nil
	}
	if err != nil {
		return err
	}

	now := time.Now()
	distKm, durMin, rerr := p.router.Estimate(ctx, sh.Origin, sh.Destination)
	if rerr != nil {
		distKm, durMin = 0, 0
	}
	if sh.StartedAt != nil {
		durMin = now.Sub(*sh.StartedAt).Minutes()
	}

	fare, err := p.fares.Compute(ctx, sh.Cargo, distKm, durMin, sh.WeightKg)
	if err != nil {
		return err
	}
	if err := p.settle.Record(ctx, sh.ID, m.CarrierID, m.VehicleID, fare, now); err != nil {
		return err
	}
	if err := p.fleet.Consume(ctx, m.CandidateID, sh.WeightKg, sh.VolumeM3); err != nil {
		log.Printf("matching: consume capacity %s: %v", m.CandidateID, err)
	}
	_ = p.store.CloseMatch(ctx, sh.ID)
	p.events.Publish(ctx, event.Event{
		Type:       event.ShipmentCompleted,
		ShipmentID: sh.ID,
		VehicleID:  m.VehicleID,
		Amount:     fare.TotalFare,
	})
	return nil
}

// Cancel aborts a shipment from pending, matching, or matched. The active
// match row, not the pre-read status, decides whether a candidate needs
// releasing: a commit may land between the read and the cancel transition.
func (p *Processor) Cancel(ctx context.Context, shipmentID types.ID, actorType string) error {
	if _, err := p.shipments.Get(ctx, shipmentID); err != nil {
		return err
	}
	if err := p.shipments.Transition(ctx, shipmentID, shipment.StatusCancelled, actorType, ""); err != nil {
		return err
	}
	if m, err := p.store.GetMatchByShipment(ctx, shipmentID); err == nil {
		p.index.Release(m.CandidateID)
		_ = p.store.CloseMatch(ctx, shipmentID)
	}
	p.events.Publish(ctx, event.Event{Type: event.ShipmentCancelled, ShipmentID: shipmentID})
	return nil
}
