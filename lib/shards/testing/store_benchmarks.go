package testing

import (
	"bytes"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/tallykv/tally/lib/shards"
)

// RunShardDBBenchmarks runs all benchmarks for a ShardDB implementation
func RunShardDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Apply", func(b *testing.B) {
		benchmarkApply(b, factory())
	})

	b.Run("ApplyHotRecord", func(b *testing.B) {
		benchmarkApplyHotRecord(b, factory())
	})

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Scan", func(b *testing.B) {
		benchmarkScan(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("SaveLoad", func(b *testing.B) {
		benchmarkSaveLoad(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Apply spread over many counters and shards
func benchmarkApply(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeatureApply)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			name := fmt.Sprintf("bench-counter-%d", counter%64)
			database.Apply(name, uint32(counter%16), 1)
			counter++
		}
	})
}

// Benchmark for Apply where all goroutines contend on a single record
func benchmarkApplyHotRecord(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeatureApply)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			database.Apply("hot-counter", 0, 1)
		}
	})
}

// Benchmark for Put operation
func benchmarkPut(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeaturePut)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			name := fmt.Sprintf("bench-counter-%d", counter%64)
			database.Put(name, uint32(counter%16), float64(counter))
			counter++
		}
	})
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeaturePut)
	requireFeature(b, database, shards.FeatureGet)

	// pre-populate
	for c := 0; c < 64; c++ {
		for s := uint32(0); s < 16; s++ {
			database.Put(fmt.Sprintf("bench-counter-%d", c), s, float64(c))
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Get(fmt.Sprintf("bench-counter-%d", counter%64), uint32(counter%16))
			counter++
		}
	})
}

// Benchmark for Scan operation
func benchmarkScan(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeaturePut)
	requireFeature(b, database, shards.FeatureScan)

	// pre-populate
	for c := 0; c < 64; c++ {
		for s := uint32(0); s < 16; s++ {
			database.Put(fmt.Sprintf("bench-counter-%d", c), s, float64(c))
		}
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			database.Scan(fmt.Sprintf("bench-counter-%d", counter%64))
			counter++
		}
	})
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeaturePut)
	requireFeature(b, database, shards.FeatureDelete)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			name := fmt.Sprintf("bench-counter-%d", counter%64)
			database.Put(name, uint32(counter%16), 1)
			database.Delete(name, uint32(counter%16))
			counter++
		}
	})
}

// Benchmark for Save and Load operations
func benchmarkSaveLoad(b *testing.B, factory DBFactory) {

	database := factory()
	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeaturePut)
	requireFeature(b, database, shards.FeatureSave)
	requireFeature(b, database, shards.FeatureLoad)

	// pre-populate
	for c := 0; c < 1000; c++ {
		for s := uint32(0); s < 16; s++ {
			database.Put(fmt.Sprintf("bench-counter-%d", c), s, float64(c))
		}
	}

	b.Run("Save", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var buf bytes.Buffer
			if err := database.Save(&buf); err != nil {
				b.Fatalf("Save failed: %v", err)
			}
		}
	})

	b.Run("Load", func(b *testing.B) {
		var buf bytes.Buffer
		if err := database.Save(&buf); err != nil {
			b.Fatalf("Save failed: %v", err)
		}
		snapshot := buf.Bytes()

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			restored := factory()
			if err := restored.Load(bytes.NewReader(snapshot)); err != nil {
				b.Fatalf("Load failed: %v", err)
			}
			restored.Close()
		}
	})
}

// Benchmark for a mixed workload of applies, reads and scans
func benchmarkMixedUsage(b *testing.B, database shards.ShardDB) {

	b.Cleanup(func() {
		database.Close()
	})

	requireFeature(b, database, shards.FeatureApply)
	requireFeature(b, database, shards.FeatureGet)
	requireFeature(b, database, shards.FeatureScan)

	var ops atomic.Int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			op := ops.Add(1)
			name := fmt.Sprintf("bench-counter-%d", op%64)
			switch op % 10 {
			case 0:
				database.Scan(name)
			case 1, 2:
				database.Get(name, uint32(op%16))
			default:
				database.Apply(name, uint32(op%16), 1)
			}
		}
	})
}
