// README: In-memory geo-bucketed candidate index; owns reservation state.
package candidate

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"logishare/internal/types"
)

var (
	ErrAlreadyReserved  = errors.New("candidate already reserved")
	ErrUnknownCandidate = errors.New("unknown candidate")
)

// cellDeg is the coarse bucketing size in degrees (~11 km of latitude), so a
// radius query only walks nearby cells instead of the whole fleet.
const cellDeg = 0.1

type cell struct {
	latIdx int
	lngIdx int
}

type entry struct {
	c        Candidate
	reserved bool
	// reservedBy is kept for diagnostics; exclusivity is enforced by the
	// reserved flag under the index mutex.
	reservedBy types.ID
}

// Index owns the candidate pool. All access goes through Query/Reserve/
// Release/Consume under one mutex; no caller ever sees the maps directly.
type Index struct {
	mu      sync.Mutex
	entries map[types.ID]*entry
	cells   map[cell]map[types.ID]struct{}
	now     func() time.Time
}

func NewIndex() *Index {
	return &Index{
		entries: make(map[types.ID]*entry),
		cells:   make(map[cell]map[types.ID]struct{}),
		now:     time.Now,
	}
}

// Upsert adds or refreshes a candidate. A reserved candidate keeps its
// reservation; only position and capacity are refreshed.
func (ix *Index) Upsert(c Candidate) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if old, ok := ix.entries[c.ID]; ok {
		ix.removeFromCell(old.c)
		old.c = c
		ix.addToCell(c)
		return
	}
	ix.entries[c.ID] = &entry{c: c}
	ix.addToCell(c)
}

// Remove drops a candidate entirely (window expiry, vehicle off shift).
func (ix *Index) Remove(id types.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	if !ok {
		return
	}
	ix.removeFromCell(e.c)
	delete(ix.entries, id)
}

// Scored is a query hit with its distance from the query origin.
type Scored struct {
	Candidate  Candidate
	DistanceKm float64
}

// Query returns unreserved candidates within maxRadiusKm of origin whose
// remaining capacity covers the requested weight and volume, ordered by
// ascending distance. An empty result is a normal outcome, not an error.
// A cancelled or expired context also yields an empty result: a slow cycle
// means "no candidates this round", never a failure.
func (ix *Index) Query(ctx context.Context, origin types.Point, weightKg, volumeM3, maxRadiusKm float64) []Scored {
	if err := ctx.Err(); err != nil {
		return nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	now := ix.now()
	var out []Scored
	for _, c := range ix.cellsInRadius(origin, maxRadiusKm) {
		for id := range c {
			e := ix.entries[id]
			if e == nil || e.reserved {
				continue
			}
			if e.c.WeightKg < weightKg || e.c.VolumeM3 < volumeM3 {
				continue
			}
			if !e.c.windowActive(now) {
				continue
			}
			d := distanceKm(origin, e.c.Position)
			if d > maxRadiusKm {
				continue
			}
			out = append(out, Scored{Candidate: e.c, DistanceKm: d})
		}
	}
	sortByDistance(out, func(s Scored) float64 { return s.DistanceKm })
	return out
}

// Reserve atomically flips a candidate from available to reserved. Exactly
// one racer wins; the rest get ErrAlreadyReserved and should fall through to
// their next-ranked candidate.
func (ix *Index) Reserve(id types.ID, shipmentID types.ID) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	if !ok {
		return ErrUnknownCandidate
	}
	if e.reserved {
		return ErrAlreadyReserved
	}
	e.reserved = true
	e.reservedBy = shipmentID
	return nil
}

// Release returns a candidate to the pool. Releasing an already-released or
// unknown candidate is a no-op.
func (ix *Index) Release(id types.ID) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	if !ok {
		return
	}
	e.reserved = false
	e.reservedBy = ""
}

// Consume deducts used capacity at shipment completion. An empty-run leg
// with capacity left re-enters the pool; anything fully used is removed. It
// returns the candidate state after the deduction and whether it left the
// index, so the caller can persist the remainder.
func (ix *Index) Consume(id types.ID, weightKg, volumeM3 float64) (Candidate, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.entries[id]
	if !ok {
		return Candidate{}, false
	}
	if e.c.Kind == KindEmptyRun {
		e.c.WeightKg -= weightKg
		e.c.VolumeM3 -= volumeM3
		if e.c.WeightKg > 0 && e.c.VolumeM3 >= 0 {
			e.reserved = false
			e.reservedBy = ""
			return e.c, false
		}
	}
	ix.removeFromCell(e.c)
	delete(ix.entries, id)
	return e.c, true
}

// ExpireWindows evicts empty-run legs whose availability window has elapsed
// and returns their IDs. Reserved legs are left alone; their in-flight
// shipment finishes first.
func (ix *Index) ExpireWindows(now time.Time) []types.ID {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	var expired []types.ID
	for id, e := range ix.entries {
		if e.reserved || e.c.ArriveAt.IsZero() {
			continue
		}
		if !now.Before(e.c.ArriveAt) {
			ix.removeFromCell(e.c)
			delete(ix.entries, id)
			expired = append(expired, id)
		}
	}
	return expired
}

func (ix *Index) addToCell(c Candidate) {
	k := cellOf(c.Position)
	m, ok := ix.cells[k]
	if !ok {
		m = make(map[types.ID]struct{})
		ix.cells[k] = m
	}
	m[c.ID] = struct{}{}
}

func (ix *Index) removeFromCell(c Candidate) {
	k := cellOf(c.Position)
	if m, ok := ix.cells[k]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(ix.cells, k)
		}
	}
}

// cellsInRadius returns the cell buckets whose bounding box intersects the
// search circle. Longitude span widens with latitude.
func (ix *Index) cellsInRadius(origin types.Point, radiusKm float64) []map[types.ID]struct{} {
	latSpan := radiusKm / 111.0 / cellDeg
	lngKmPerDeg := 111.0 * math.Cos(origin.Lat*math.Pi/180.0)
	if lngKmPerDeg < 1 {
		lngKmPerDeg = 1
	}
	lngSpan := radiusKm / lngKmPerDeg / cellDeg

	c0 := cellOf(origin)
	dLat := int(math.Ceil(latSpan))
	dLng := int(math.Ceil(lngSpan))

	var out []map[types.ID]struct{}
	for la := c0.latIdx - dLat; la <= c0.latIdx+dLat; la++ {
		for ln := c0.lngIdx - dLng; ln <= c0.lngIdx+dLng; ln++ {
			if m, ok := ix.cells[cell{latIdx: la, lngIdx: ln}]; ok {
				out = append(out, m)
			}
		}
	}
	return out
}

func cellOf(p types.Point) cell {
	return cell{
		latIdx: int(math.Floor(p.Lat / cellDeg)),
		lngIdx: int(math.Floor(p.Lng / cellDeg)),
	}
}
