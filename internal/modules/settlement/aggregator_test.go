// README: Settlement aggregator tests (fee split, ledger folding, period routing).
package settlement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"logishare/internal/config"
	"logishare/internal/modules/tariff"
	"logishare/internal/types"
)

// memStore is an in-memory Store for aggregator tests.
type memStore struct {
	mu          sync.Mutex
	settlements []*Settlement
	ledgers     map[string]*Ledger
}

func newMemStore() *memStore {
	return &memStore{ledgers: make(map[string]*Ledger)}
}

func ledgerKey(carrierID types.ID, period Period) string {
	return string(carrierID) + "/" + period.String()
}

func (m *memStore) InsertSettlement(_ context.Context, s *Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settlements = append(m.settlements, s)
	return nil
}

func (m *memStore) LedgerStatus(_ context.Context, carrierID types.ID, period Period) (LedgerStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[ledgerKey(carrierID, period)]
	if !ok {
		return "", ErrLedgerMissing
	}
	return l.Status, nil
}

func (m *memStore) ApplyToLedger(_ context.Context, s *Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := ledgerKey(s.CarrierID, s.Period)
	l, ok := m.ledgers[key]
	if !ok {
		l = &Ledger{CarrierID: s.CarrierID, Period: s.Period, Status: LedgerPending}
		m.ledgers[key] = l
	}
	if l.Status == LedgerSettled {
		return nil
	}
	if s.Kind == KindFare {
		l.TotalDeliveries++
	}
	l.TotalRevenue += s.TotalFare
	l.PlatformFee += s.PlatformFee
	l.NetAmount += s.CarrierAmount
	return nil
}

func (m *memStore) FinalizeLedger(_ context.Context, carrierID types.ID, period Period, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[ledgerKey(carrierID, period)]
	if !ok || l.Status != LedgerPending {
		return false, nil
	}
	l.Status = LedgerSettled
	l.SettlementDate = &at
	return true, nil
}

func (m *memStore) GetLedger(_ context.Context, carrierID types.ID, period Period) (*Ledger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.ledgers[ledgerKey(carrierID, period)]
	if !ok {
		return nil, ErrLedgerMissing
	}
	cp := *l
	return &cp, nil
}

func newTestAggregator(store Store) *Aggregator {
	return NewAggregator(store, nil, config.SettlementConfig{FeeRateBps: 2000})
}

func fare(total int64) tariff.Breakdown {
	return tariff.Breakdown{BaseFare: total, TotalFare: total, Currency: "KRW"}
}

func TestRecord_FeeSplit(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)

	completed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	err := agg.Record(ctx, "s1", "c1", "v1",
		tariff.Breakdown{BaseFare: 60000, TimeFare: 15000, WeightFare: 40000, TotalFare: 115000, Currency: "KRW"},
		completed)
	if err != nil {
		t.Fatalf("record: %v", err)
	}

	s := store.settlements[0]
	if s.PlatformFee != 23000 {
		t.Errorf("platform fee = %d, want 23000", s.PlatformFee)
	}
	if s.CarrierAmount != 92000 {
		t.Errorf("carrier amount = %d, want 92000", s.CarrierAmount)
	}
	if s.PlatformFee+s.CarrierAmount != s.TotalFare {
		t.Errorf("fee %d + carrier %d != total %d", s.PlatformFee, s.CarrierAmount, s.TotalFare)
	}
}

func TestRecord_SplitAlwaysSumsExactly(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)
	completed := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	// Odd totals where fee rounding cannot be exact in both directions.
	for _, total := range []int64{1, 3, 7, 99, 101, 12345, 115001} {
		if err := agg.Record(ctx, "s", "c1", "v1", fare(total), completed); err != nil {
			t.Fatalf("record %d: %v", total, err)
		}
	}
	for _, s := range store.settlements {
		if s.PlatformFee+s.CarrierAmount != s.TotalFare {
			t.Errorf("total %d: fee %d + carrier %d != total", s.TotalFare, s.PlatformFee, s.CarrierAmount)
		}
	}
}

func TestRecord_FoldsIntoLedger(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)
	completed := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		if err := agg.Record(ctx, "s", "c1", "v1", fare(10000), completed); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	l, err := agg.Ledger(ctx, "c1", PeriodOf(completed))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if l.TotalDeliveries != 3 {
		t.Errorf("deliveries = %d, want 3", l.TotalDeliveries)
	}
	if l.TotalRevenue != 30000 {
		t.Errorf("revenue = %d, want 30000", l.TotalRevenue)
	}
	if l.PlatformFee != 6000 || l.NetAmount != 24000 {
		t.Errorf("fee/net = %d/%d, want 6000/24000", l.PlatformFee, l.NetAmount)
	}
}

func TestRecord_LateSettlementRoutesToNextPeriod(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)

	completed := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	august := PeriodOf(completed)

	if err := agg.Record(ctx, "s1", "c1", "v1", fare(10000), completed); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := agg.Finalize(ctx, "c1", august); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	// A completion for August arriving after the close.
	if err := agg.Record(ctx, "s2", "c1", "v1", fare(5000), completed); err != nil {
		t.Fatalf("late record: %v", err)
	}

	late := store.settlements[1]
	if !late.Late {
		t.Error("late settlement not flagged")
	}
	if late.Period != august.Next() {
		t.Errorf("late settlement period = %s, want %s", late.Period, august.Next())
	}

	// The closed August ledger must be untouched.
	l, err := agg.Ledger(ctx, "c1", august)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if l.TotalRevenue != 10000 || l.Status != LedgerSettled {
		t.Errorf("closed ledger changed: revenue=%d status=%s", l.TotalRevenue, l.Status)
	}

	next, err := agg.Ledger(ctx, "c1", august.Next())
	if err != nil {
		t.Fatalf("next ledger: %v", err)
	}
	if next.TotalRevenue != 5000 {
		t.Errorf("next period revenue = %d, want 5000", next.TotalRevenue)
	}
}

func TestFinalize_TwiceFails(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)
	completed := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	if err := agg.Record(ctx, "s1", "c1", "v1", fare(1000), completed); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := agg.Finalize(ctx, "c1", PeriodOf(completed)); err != nil {
		t.Fatalf("first finalize: %v", err)
	}
	if err := agg.Finalize(ctx, "c1", PeriodOf(completed)); !errors.Is(err, ErrPeriodClosed) {
		t.Errorf("second finalize err = %v, want ErrPeriodClosed", err)
	}
}

func TestAdjust_DoesNotCountAsDelivery(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	agg := newTestAggregator(store)
	completed := time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)

	if err := agg.Record(ctx, "s1", "c1", "v1", fare(10000), completed); err != nil {
		t.Fatalf("record: %v", err)
	}
	orig := store.settlements[0]
	if err := agg.Adjust(ctx, orig, -2000, completed.Add(24*time.Hour)); err != nil {
		t.Fatalf("adjust: %v", err)
	}

	l, err := agg.Ledger(ctx, "c1", PeriodOf(completed))
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if l.TotalDeliveries != 1 {
		t.Errorf("deliveries = %d, want 1 (adjustments do not count)", l.TotalDeliveries)
	}
	if l.TotalRevenue != 8000 {
		t.Errorf("revenue after adjustment = %d, want 8000", l.TotalRevenue)
	}
	adj := store.settlements[1]
	if adj.Kind != KindAdjustment {
		t.Errorf("kind = %s, want adjustment", adj.Kind)
	}
	if adj.PlatformFee+adj.CarrierAmount != adj.TotalFare {
		t.Errorf("adjustment split does not sum: %d + %d != %d", adj.PlatformFee, adj.CarrierAmount, adj.TotalFare)
	}
}

func TestPeriod_Next(t *testing.T) {
	dec := Period{Year: 2026, Month: time.December}
	if next := dec.Next(); next.Year != 2027 || next.Month != time.January {
		t.Errorf("December.Next() = %s", next)
	}
}
