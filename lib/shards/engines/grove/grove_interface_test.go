package grove

import (
	"testing"

	"github.com/tallykv/tally/lib/shards"
	dbtesting "github.com/tallykv/tally/lib/shards/testing"
)

func Test(t *testing.T) {
	dbtesting.RunShardDBTests(t, "GroveDB", func() shards.ShardDB {
		return NewGroveDB(nil)
	})
}

func Benchmark(t *testing.B) {
	dbtesting.RunShardDBBenchmarks(t, "GroveDB", func() shards.ShardDB {
		return NewGroveDB(nil)
	})
}

// Partition lookup does a modulo over the partition slice, so a partition
// count below one must be clamped instead of panicking on first use.
func TestNonPositivePartitionOptions(t *testing.T) {
	for _, numPartitions := range []int{0, -1} {
		db := NewGroveDB(&DBOptions{NumPartitions: numPartitions})

		if got := db.Apply("visits", 0, 3); got != 3 {
			t.Errorf("NumPartitions=%d: expected 3 after apply, got %g", numPartitions, got)
		}
		if value, loaded := db.Get("visits", 0); !loaded || value != 3 {
			t.Errorf("NumPartitions=%d: expected to load 3, got %g (loaded=%t)", numPartitions, value, loaded)
		}
	}
}
