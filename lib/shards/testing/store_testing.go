package testing

import (
	"bytes"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/tallykv/tally/lib/shards"
)

// DBFactory is a function that creates a new instance of a ShardDB implementation
type DBFactory func() shards.ShardDB

// RunShardDBTests runs a comprehensive test suite for a ShardDB implementation.
func RunShardDBTests(t *testing.T, name string, factory DBFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Apply&Get", func(t *testing.T) {
			testApplyGet(t, factory())
		})

		t.Run("ApplyConcurrent", func(t *testing.T) {
			testApplyConcurrent(t, factory())
		})

		t.Run("Put", func(t *testing.T) {
			testPut(t, factory())
		})

		t.Run("Delete", func(t *testing.T) {
			testDelete(t, factory())
		})

		t.Run("Scan", func(t *testing.T) {
			testScan(t, factory())
		})

		t.Run("SaveLoad", func(t *testing.T) {
			testSaveLoad(t, factory)
		})

		t.Run("EdgeCases", func(t *testing.T) {
			testEdgeCases(t, factory())
		})

		t.Run("RealisticUsage", func(t *testing.T) {
			testRealisticUsage(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// Checks if the engine supports the specified feature
// Skip the test if it is not supported
func requireFeature(t testing.TB, database shards.ShardDB, feature shards.Feature) {
	if !database.SupportsFeature(feature) {
		t.Skip()
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testApplyGet(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeatureApply)
	requireFeature(t, database, shards.FeatureGet)

	testName := "test-counter"

	// first apply creates the record
	if got := database.Apply(testName, 0, 2.5); got != 2.5 {
		t.Errorf("Expected first Apply to return 2.5, got %f", got)
	}

	// second apply accumulates
	if got := database.Apply(testName, 0, 1.5); got != 4 {
		t.Errorf("Expected second Apply to return 4, got %f", got)
	}

	value, exists := database.Get(testName, 0)
	if !exists {
		t.Errorf("Expected record to exist after Apply")
	}
	if value != 4 {
		t.Errorf("Expected value 4, got %f", value)
	}

	// applies to other shards are independent
	database.Apply(testName, 7, -1)
	if value, _ := database.Get(testName, 0); value != 4 {
		t.Errorf("Apply to shard 7 modified shard 0, got %f", value)
	}
	if value, _ := database.Get(testName, 7); value != -1 {
		t.Errorf("Expected value -1 on shard 7, got %f", value)
	}

	// missing records do not exist
	if _, exists := database.Get(testName, 42); exists {
		t.Errorf("Expected missing shard to return exists=false")
	}
	if _, exists := database.Get("nonexistent-counter", 0); exists {
		t.Errorf("Expected nonexistent counter to return exists=false")
	}
}

func testApplyConcurrent(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeatureApply)
	requireFeature(t, database, shards.FeatureGet)

	const (
		goroutines = 16
		increments = 1000
	)

	testName := "concurrent-counter"

	// hammer a single record from many goroutines, no increment may be lost
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				database.Apply(testName, 3, 1)
			}
		}()
	}
	wg.Wait()

	value, exists := database.Get(testName, 3)
	if !exists {
		t.Fatalf("Expected record to exist after concurrent applies")
	}
	if value != goroutines*increments {
		t.Errorf("Lost updates: expected %d, got %f", goroutines*increments, value)
	}
}

func testPut(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeaturePut)
	requireFeature(t, database, shards.FeatureGet)

	testName := "put-counter"

	database.Put(testName, 1, 10)
	if value, _ := database.Get(testName, 1); value != 10 {
		t.Errorf("Expected value 10 after Put, got %f", value)
	}

	// Put overwrites, it does not accumulate
	database.Put(testName, 1, 3)
	if value, _ := database.Get(testName, 1); value != 3 {
		t.Errorf("Expected value 3 after second Put, got %f", value)
	}
}

func testDelete(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeaturePut)
	requireFeature(t, database, shards.FeatureGet)
	requireFeature(t, database, shards.FeatureDelete)

	testName := "delete-counter"

	database.Put(testName, 0, 1)
	database.Put(testName, 1, 2)

	database.Delete(testName, 0)

	if _, exists := database.Get(testName, 0); exists {
		t.Errorf("Expected record to be gone after Delete")
	}
	if value, _ := database.Get(testName, 1); value != 2 {
		t.Errorf("Delete removed the wrong record, shard 1 = %f", value)
	}

	// deleting a missing record is a no-op
	database.Delete(testName, 99)
	database.Delete("nonexistent-counter", 0)
}

func testScan(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeaturePut)
	requireFeature(t, database, shards.FeatureScan)

	testName := "scan-counter"

	// insert out of order, scan must return ascending shard indices
	database.Put(testName, 5, 50)
	database.Put(testName, 0, 0.5)
	database.Put(testName, 2, 20)

	// records of other counters must not show up
	database.Put("other-counter", 1, 999)

	records := database.Scan(testName)
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	expected := []shards.Record{
		{Shard: 0, Value: 0.5},
		{Shard: 2, Value: 20},
		{Shard: 5, Value: 50},
	}
	for i, record := range records {
		if record != expected[i] {
			t.Errorf("Record %d: expected %+v, got %+v", i, expected[i], record)
		}
	}

	// a counter without records yields an empty scan
	if records := database.Scan("empty-counter"); len(records) != 0 {
		t.Errorf("Expected empty scan, got %d records", len(records))
	}
}

func testSaveLoad(t *testing.T, factory DBFactory) {
	database := factory()
	defer database.Close()

	requireFeature(t, database, shards.FeaturePut)
	requireFeature(t, database, shards.FeatureGet)
	requireFeature(t, database, shards.FeatureSave)
	requireFeature(t, database, shards.FeatureLoad)

	// populate with several counters and shards
	for c := 0; c < 10; c++ {
		name := fmt.Sprintf("counter-%d", c)
		for s := uint32(0); s < 16; s++ {
			database.Put(name, s, float64(c)*100+float64(s)+0.25)
		}
	}

	var buf bytes.Buffer
	if err := database.Save(&buf); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	restored := factory()
	defer restored.Close()
	if err := restored.Load(&buf); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	for c := 0; c < 10; c++ {
		name := fmt.Sprintf("counter-%d", c)
		for s := uint32(0); s < 16; s++ {
			expected := float64(c)*100 + float64(s) + 0.25
			value, exists := restored.Get(name, s)
			if !exists {
				t.Fatalf("Record %s/%d missing after Load", name, s)
			}
			if value != expected {
				t.Errorf("Record %s/%d: expected %f, got %f", name, s, expected, value)
			}
		}
	}

	// loading garbage must fail
	fresh := factory()
	defer fresh.Close()
	if err := fresh.Load(bytes.NewReader([]byte("not a snapshot"))); err == nil {
		t.Errorf("Expected Load of invalid data to fail")
	}
}

func testEdgeCases(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeatureApply)
	requireFeature(t, database, shards.FeatureGet)
	requireFeature(t, database, shards.FeatureScan)

	// empty counter name is a valid name
	database.Apply("", 0, 1)
	if value, exists := database.Get("", 0); !exists || value != 1 {
		t.Errorf("Expected empty name to be usable, got %f (%v)", value, exists)
	}

	// negative and fractional deltas
	database.Apply("edge-counter", 0, -2.5)
	if value, _ := database.Get("edge-counter", 0); value != -2.5 {
		t.Errorf("Expected -2.5, got %f", value)
	}

	// delta that sums to zero keeps the record
	database.Apply("edge-counter", 0, 2.5)
	if value, exists := database.Get("edge-counter", 0); !exists || value != 0 {
		t.Errorf("Expected record with value 0, got %f (%v)", value, exists)
	}

	// large shard indices
	database.Apply("edge-counter", math.MaxUint32, 7)
	if value, _ := database.Get("edge-counter", math.MaxUint32); value != 7 {
		t.Errorf("Expected 7 on max shard index, got %f", value)
	}

	// long counter names
	longName := string(bytes.Repeat([]byte("x"), 4096))
	database.Apply(longName, 0, 1)
	if value, _ := database.Get(longName, 0); value != 1 {
		t.Errorf("Expected 1 for long name, got %f", value)
	}
}

func testRealisticUsage(t *testing.T, database shards.ShardDB) {
	defer database.Close()

	requireFeature(t, database, shards.FeatureApply)
	requireFeature(t, database, shards.FeatureScan)

	const (
		counters   = 8
		shardCount = 16
		writers    = 4
		increments = 500
	)

	// several writers spread increments over the shards of several counters
	var wg sync.WaitGroup
	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < increments; i++ {
				name := fmt.Sprintf("visits-%d", (w+i)%counters)
				shard := uint32(i % shardCount)
				database.Apply(name, shard, 1)
			}
		}(w)
	}
	wg.Wait()

	// totals over all counters must equal the number of increments issued
	var total float64
	for c := 0; c < counters; c++ {
		for _, record := range database.Scan(fmt.Sprintf("visits-%d", c)) {
			total += record.Value
		}
	}
	if total != writers*increments {
		t.Errorf("Expected grand total %d, got %f", writers*increments, total)
	}
}
