package counter

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/shards/engines/grove"
	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/lib/store/lstore"
)

// --------------------------------------------------------------------------
// Test helpers
// --------------------------------------------------------------------------

// newTestStore creates a fresh in-memory store for a single test
func newTestStore() store.IShardStore {
	return lstore.NewLocalStore(func() shards.ShardDB {
		return grove.NewGroveDB(nil)
	})
}

// seqSource is a deterministic Source that replays a fixed sequence.
// Not safe for concurrent use, tests using it must be single-threaded.
type seqSource struct {
	values []int
	pos    int
}

func (s *seqSource) IntN(n int) int {
	v := s.values[s.pos%len(s.values)]
	s.pos++
	return v % n
}

// failingStore returns a fixed error from every operation and counts calls.
type failingStore struct {
	err   error
	calls int
}

func (f *failingStore) Apply(string, uint32, float64) (float64, error) { f.calls++; return 0, f.err }
func (f *failingStore) Put(string, uint32, float64) error              { f.calls++; return f.err }
func (f *failingStore) Delete(string, uint32) error                    { f.calls++; return f.err }
func (f *failingStore) Get(string, uint32) (float64, bool, error) {
	f.calls++
	return 0, false, f.err
}
func (f *failingStore) Scan(string) ([]shards.Record, error) { f.calls++; return nil, f.err }
func (f *failingStore) GetDBInfo() (shards.StoreInfo, error) {
	f.calls++
	return shards.StoreInfo{}, f.err
}

// retCode extracts the store error code, or panics if err is not a *store.Error
func retCode(t *testing.T, err error) store.RetCode {
	t.Helper()
	var storeErr *store.Error
	if !errors.As(err, &storeErr) {
		t.Fatalf("Expected *store.Error, got %T: %v", err, err)
	}
	return storeErr.Code
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

func TestConfigDefaults(t *testing.T) {
	// the zero config selects the defaults
	c, err := New(newTestStore(), Config{})
	if err != nil {
		t.Fatalf("New with zero config failed: %v", err)
	}

	impl := c.(*counterImpl[string])
	if impl.config.ShardCount != DefaultShardCount {
		t.Errorf("Expected default shard count %d, got %d", DefaultShardCount, impl.config.ShardCount)
	}
	if impl.config.ReadFromShards != DefaultReadFromShards {
		t.Errorf("Expected default read-from %d, got %d", DefaultReadFromShards, impl.config.ReadFromShards)
	}
	if impl.config.Policy != DistributeInteger {
		t.Errorf("Expected default policy %s, got %s", DistributeInteger, impl.config.Policy)
	}
	if impl.config.Source == nil {
		t.Errorf("Expected default source to be set")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "negative shard count", config: Config{ShardCount: -1}},
		{name: "negative read-from", config: Config{ReadFromShards: -1}},
		{name: "read-from exceeds shard count", config: Config{ShardCount: 4, ReadFromShards: 5}},
		{name: "unknown policy", config: Config{Policy: DistributionPolicy(42)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(newTestStore(), tt.config)
			if err == nil {
				t.Fatalf("Expected config to be rejected")
			}
			if code := retCode(t, err); code != store.RetCInvalidConfig {
				t.Errorf("Expected RetCInvalidConfig, got %v", code)
			}
		})
	}

	// nil store and nil encoder are rejected as well
	if _, err := New(nil, Config{}); err == nil {
		t.Errorf("Expected nil store to be rejected")
	}
	if _, err := NewWithEncoder[string](newTestStore(), Config{}, nil); err == nil {
		t.Errorf("Expected nil encoder to be rejected")
	}
}

// --------------------------------------------------------------------------
// Add and Count
// --------------------------------------------------------------------------

func TestAddAndCount(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// a counter without records counts as 0
	if total, err := c.Count("visits"); err != nil || total != 0 {
		t.Errorf("Expected empty counter to count 0, got %f (%v)", total, err)
	}

	for i := 0; i < 100; i++ {
		shard, err := c.Add("visits", 1)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if shard >= 8 {
			t.Fatalf("Add selected shard %d outside [0,8)", shard)
		}
	}

	if total, err := c.Count("visits"); err != nil || total != 100 {
		t.Errorf("Expected count 100, got %f (%v)", total, err)
	}

	// negative and fractional deltas
	c.Add("visits", -0.5)
	if total, _ := c.Count("visits"); total != 99.5 {
		t.Errorf("Expected count 99.5, got %f", total)
	}

	// counters are independent
	if total, _ := c.Count("errors"); total != 0 {
		t.Errorf("Expected other counter to stay 0, got %f", total)
	}
}

func TestAddUsesSource(t *testing.T) {
	s := newTestStore()
	src := &seqSource{values: []int{5, 2, 5}}
	c, err := New(s, Config{ShardCount: 8, Source: src})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for _, expected := range []uint32{5, 2, 5} {
		shard, err := c.Add("visits", 1)
		if err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		if shard != expected {
			t.Errorf("Expected shard %d from source, got %d", expected, shard)
		}
	}

	// the deltas landed on the shards the source selected
	if value, _, _ := s.Get("visits", 5); value != 2 {
		t.Errorf("Expected 2 on shard 5, got %f", value)
	}
	if value, _, _ := s.Get("visits", 2); value != 1 {
		t.Errorf("Expected 1 on shard 2, got %f", value)
	}
}

func TestAddPinned(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	shard, err := c.AddPinned("visits", 3, 2)
	if err != nil {
		t.Fatalf("AddPinned failed: %v", err)
	}
	if shard != 2 {
		t.Errorf("Expected pinned shard 2, got %d", shard)
	}
	if value, _, _ := s.Get("visits", 2); value != 3 {
		t.Errorf("Expected 3 on shard 2, got %f", value)
	}

	// out of range shards are rejected without touching the store
	if _, err := c.AddPinned("visits", 1, 4); err == nil {
		t.Fatalf("Expected out of range shard to be rejected")
	} else if code := retCode(t, err); code != store.RetCInvalidOperation {
		t.Errorf("Expected RetCInvalidOperation, got %v", code)
	}
	if total, _ := c.Count("visits"); total != 3 {
		t.Errorf("Rejected AddPinned modified the counter, count = %f", total)
	}
}

func TestConcurrentAdds(t *testing.T) {
	c, err := New(newTestStore(), Config{ShardCount: 16})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const (
		goroutines = 8
		increments = 1000
	)

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				if _, err := c.Add("visits", 1); err != nil {
					t.Errorf("Add failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if total, err := c.Count("visits"); err != nil || total != goroutines*increments {
		t.Errorf("Lost updates: expected %d, got %f (%v)", goroutines*increments, total, err)
	}
}

// --------------------------------------------------------------------------
// Estimation
// --------------------------------------------------------------------------

func TestEstimateExactWhenSamplingAll(t *testing.T) {
	c, err := New(newTestStore(), Config{ShardCount: 8, ReadFromShards: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		c.Add("visits", 1.5)
	}

	exact, _ := c.Count("visits")
	estimate, err := c.EstimateCount("visits")
	if err != nil {
		t.Fatalf("EstimateCount failed: %v", err)
	}
	if estimate != exact {
		t.Errorf("Sampling all shards must be exact: estimate %f, exact %f", estimate, exact)
	}
}

func TestEstimateAfterEvenRebalance(t *testing.T) {
	// after an even rebalance of a divisible total every shard holds the same
	// value, so the extrapolation is exact for every sample size
	c, err := New(newTestStore(), Config{ShardCount: 16, Policy: DistributeEven})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.AddPinned("visits", 32, 3)
	if err := c.Rebalance("visits"); err != nil {
		t.Fatalf("Rebalance failed: %v", err)
	}

	for readFrom := 1; readFrom <= 16; readFrom++ {
		estimate, err := c.EstimateCountN("visits", readFrom)
		if err != nil {
			t.Fatalf("EstimateCountN(%d) failed: %v", readFrom, err)
		}
		if estimate != 32 {
			t.Errorf("EstimateCountN(%d) = %f, want 32", readFrom, estimate)
		}
	}
}

func TestEstimateSamplesDistinctShards(t *testing.T) {
	s := newTestStore()
	// a source that always returns 0 must still sample distinct shards
	src := &seqSource{values: []int{0}}
	c, err := New(s, Config{ShardCount: 4, Source: src})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// value only on shards 0 and 1
	s.Put("visits", 0, 10)
	s.Put("visits", 1, 10)

	// sampling k=2 with IntN always 0 swaps nothing, so shards 0 and 1 are
	// read: estimate = 20 * 4/2
	estimate, err := c.EstimateCountN("visits", 2)
	if err != nil {
		t.Fatalf("EstimateCountN failed: %v", err)
	}
	if estimate != 40 {
		t.Errorf("Expected estimate 40, got %f", estimate)
	}
}

func TestEstimateArguments(t *testing.T) {
	c, err := New(newTestStore(), Config{ShardCount: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.AddPinned("visits", 8, 0)

	// readFrom below 1 is rejected
	if _, err := c.EstimateCountN("visits", 0); err == nil {
		t.Errorf("Expected readFrom 0 to be rejected")
	}
	if _, err := c.EstimateCountN("visits", -3); err == nil {
		t.Errorf("Expected negative readFrom to be rejected")
	}

	// readFrom above the shard count is clamped and therefore exact
	estimate, err := c.EstimateCountN("visits", 100)
	if err != nil {
		t.Fatalf("EstimateCountN failed: %v", err)
	}
	if estimate != 8 {
		t.Errorf("Expected clamped estimate 8, got %f", estimate)
	}
}

// --------------------------------------------------------------------------
// Rebalance
// --------------------------------------------------------------------------

func TestRebalanceIntegerPolicy(t *testing.T) {
	tests := []struct {
		name     string
		total    float64
		shards   int
		expected []float64
	}{
		{name: "divisible", total: 8, shards: 4, expected: []float64{2, 2, 2, 2}},
		{name: "remainder", total: 10, shards: 4, expected: []float64{3, 3, 2, 2}},
		{name: "negative", total: -10, shards: 4, expected: []float64{-3, -3, -2, -2}},
		{name: "fractional", total: 10.5, shards: 4, expected: []float64{3, 3, 2.5, 2}},
		{name: "smaller than shard count", total: 3, shards: 4, expected: []float64{1, 1, 1, 0}},
		{name: "zero", total: 0, shards: 4, expected: []float64{0, 0, 0, 0}},
		{name: "single shard", total: 7, shards: 1, expected: []float64{7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			c, err := New(s, Config{ShardCount: tt.shards})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			c.AddPinned("visits", tt.total, 0)
			if err := c.Rebalance("visits"); err != nil {
				t.Fatalf("Rebalance failed: %v", err)
			}

			records, _ := s.Scan("visits")
			if len(records) != tt.shards {
				t.Fatalf("Expected %d records after rebalance, got %d", tt.shards, len(records))
			}
			for i, record := range records {
				if record.Value != tt.expected[i] {
					t.Errorf("Shard %d: expected %f, got %f", i, tt.expected[i], record.Value)
				}
			}

			total, _ := c.Count("visits")
			if total != tt.total {
				t.Errorf("Rebalance changed the total: expected %f, got %f", tt.total, total)
			}
		})
	}
}

func TestRebalanceEvenPolicy(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 4, Policy: DistributeEven})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	c.AddPinned("visits", 10, 1)
	if err := c.Rebalance("visits"); err != nil {
		t.Fatalf("Rebalance failed: %v", err)
	}

	records, _ := s.Scan("visits")
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	for i, record := range records {
		if record.Value != 2.5 {
			t.Errorf("Shard %d: expected 2.5, got %f", i, record.Value)
		}
	}

	// totals that do not divide evenly must still be preserved exactly
	c.Reset("visits")
	c.AddPinned("visits", 1, 0)
	if err := c.Rebalance("visits"); err != nil {
		t.Fatalf("Rebalance failed: %v", err)
	}
	if total, _ := c.Count("visits"); total != 1 {
		t.Errorf("Even rebalance changed the total: expected 1, got %f", total)
	}
}

func TestRebalanceTo(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// spread value over all 8 shards
	for i := uint32(0); i < 8; i++ {
		c.AddPinned("visits", float64(i+1), i)
	}
	before, _ := c.Count("visits")

	// shrink to 4 shards
	if err := c.RebalanceTo("visits", 4); err != nil {
		t.Fatalf("RebalanceTo failed: %v", err)
	}

	records, _ := s.Scan("visits")
	if len(records) != 4 {
		t.Fatalf("Expected 4 records after shrink, got %d", len(records))
	}
	for _, record := range records {
		if record.Shard >= 4 {
			t.Errorf("Record on shard %d survived the shrink", record.Shard)
		}
	}
	if after, _ := c.Count("visits"); after != before {
		t.Errorf("Shrink changed the total: expected %f, got %f", before, after)
	}

	// grow back to 8 shards
	if err := c.RebalanceTo("visits", 8); err != nil {
		t.Fatalf("RebalanceTo failed: %v", err)
	}
	if records, _ := s.Scan("visits"); len(records) != 8 {
		t.Errorf("Expected 8 records after grow, got %d", len(records))
	}
	if after, _ := c.Count("visits"); after != before {
		t.Errorf("Grow changed the total: expected %f, got %f", before, after)
	}

	// invalid shard counts are rejected
	if err := c.RebalanceTo("visits", 0); err == nil {
		t.Errorf("Expected RebalanceTo(0) to be rejected")
	}
	if err := c.RebalanceTo("visits", -4); err == nil {
		t.Errorf("Expected negative shard count to be rejected")
	}
}

func TestRebalanceEmptyCounter(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 4})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	// rebalancing a counter without records creates zero-valued records
	if err := c.Rebalance("visits"); err != nil {
		t.Fatalf("Rebalance failed: %v", err)
	}
	if total, _ := c.Count("visits"); total != 0 {
		t.Errorf("Expected total 0 after rebalancing empty counter, got %f", total)
	}
}

// --------------------------------------------------------------------------
// Reset
// --------------------------------------------------------------------------

func TestReset(t *testing.T) {
	s := newTestStore()
	c, err := New(s, Config{ShardCount: 8})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	for i := 0; i < 100; i++ {
		c.Add("visits", 1)
	}
	c.Add("errors", 5)

	if err := c.Reset("visits"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	if records, _ := s.Scan("visits"); len(records) != 0 {
		t.Errorf("Expected no records after Reset, got %d", len(records))
	}
	if total, _ := c.Count("visits"); total != 0 {
		t.Errorf("Expected count 0 after Reset, got %f", total)
	}
	if estimate, _ := c.EstimateCountN("visits", 8); estimate != 0 {
		t.Errorf("Expected estimate 0 after Reset, got %f", estimate)
	}

	// other counters are untouched
	if total, _ := c.Count("errors"); total != 5 {
		t.Errorf("Reset modified another counter, count = %f", total)
	}

	// resetting a counter without records is a no-op
	if err := c.Reset("nonexistent"); err != nil {
		t.Errorf("Reset of missing counter failed: %v", err)
	}
}

// --------------------------------------------------------------------------
// Error propagation
// --------------------------------------------------------------------------

func TestStoreErrorsPropagate(t *testing.T) {
	storeErr := store.NewError(store.RetCInternalError, "store down")

	tests := []struct {
		name string
		op   func(c ICounter[string]) error
	}{
		{name: "Add", op: func(c ICounter[string]) error { _, err := c.Add("visits", 1); return err }},
		{name: "AddPinned", op: func(c ICounter[string]) error { _, err := c.AddPinned("visits", 1, 0); return err }},
		{name: "Count", op: func(c ICounter[string]) error { _, err := c.Count("visits"); return err }},
		{name: "EstimateCount", op: func(c ICounter[string]) error { _, err := c.EstimateCount("visits"); return err }},
		{name: "Rebalance", op: func(c ICounter[string]) error { return c.Rebalance("visits") }},
		{name: "Reset", op: func(c ICounter[string]) error { return c.Reset("visits") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			failing := &failingStore{err: storeErr}
			c, err := New(failing, Config{ShardCount: 4})
			if err != nil {
				t.Fatalf("New failed: %v", err)
			}

			err = tt.op(c)
			// the store error must come back unchanged, not wrapped or replaced
			if !errors.Is(err, storeErr) {
				t.Errorf("Expected store error to propagate unchanged, got %v", err)
			}
			// exactly one store call, the counter must not retry
			if failing.calls != 1 {
				t.Errorf("Expected exactly 1 store call, got %d", failing.calls)
			}
		})
	}
}

// --------------------------------------------------------------------------
// Key encoding
// --------------------------------------------------------------------------

func TestKeyEncoder(t *testing.T) {
	s := newTestStore()

	type page struct {
		Site string
		ID   int
	}

	c, err := NewWithEncoder[page](s, Config{ShardCount: 4}, func(p page) string {
		return fmt.Sprintf("%s/%d", p.Site, p.ID)
	})
	if err != nil {
		t.Fatalf("NewWithEncoder failed: %v", err)
	}

	c.Add(page{Site: "blog", ID: 1}, 1)
	c.Add(page{Site: "blog", ID: 1}, 1)
	c.Add(page{Site: "blog", ID: 2}, 1)

	if total, _ := c.Count(page{Site: "blog", ID: 1}); total != 2 {
		t.Errorf("Expected count 2 for page 1, got %f", total)
	}
	if total, _ := c.Count(page{Site: "blog", ID: 2}); total != 1 {
		t.Errorf("Expected count 1 for page 2, got %f", total)
	}
}

// --------------------------------------------------------------------------
// Value distribution
// --------------------------------------------------------------------------

func TestDistributePreservesTotal(t *testing.T) {
	totals := []float64{0, 1, -1, 10, 10.5, -10.5, 1e12, math.Pi}
	for _, policy := range []DistributionPolicy{DistributeInteger, DistributeEven} {
		for _, total := range totals {
			for _, n := range []int{1, 2, 4, 16, 33} {
				targets := distribute(total, n, policy)
				if len(targets) != n {
					t.Fatalf("distribute(%f, %d, %s) returned %d targets", total, n, policy, len(targets))
				}
				var sum float64
				for _, target := range targets {
					sum += target
				}
				// the even policy divides by n, totals that are not exactly
				// divisible can be off by a rounding error of a few ulps
				if policy == DistributeEven {
					if diff := math.Abs(sum - total); diff > 1e-9*math.Max(1, math.Abs(total)) {
						t.Errorf("distribute(%f, %d, %s) sums to %f", total, n, policy, sum)
					}
					continue
				}
				if sum != total {
					t.Errorf("distribute(%f, %d, %s) sums to %f", total, n, policy, sum)
				}
			}
		}
	}
}

func TestDistributeIntegerStaysIntegral(t *testing.T) {
	// integral totals must produce integral shard values
	for _, total := range []float64{0, 1, 5, 16, 17, 100, -100, 1023} {
		for _, n := range []int{1, 2, 4, 16} {
			for i, target := range distribute(total, n, DistributeInteger) {
				if target != math.Trunc(target) {
					t.Errorf("distribute(%f, %d): shard %d got fractional value %f", total, n, i, target)
				}
			}
		}
	}
}
