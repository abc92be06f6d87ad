package internal

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tallykv/tally/lib/shards/util"
)

// --------------------------------------------------------------------------
// Record Key Type
// --------------------------------------------------------------------------

// RecordKey identifies a single shard record: the counter it belongs to
// and the shard index within that counter. Using the full struct as map key
// avoids false sharing between counters whose name hashes collide.
type RecordKey struct {
	Name  string
	Index uint32
}

func (k RecordKey) String() string {
	return fmt.Sprintf("RecordKey{Name: %s, Index: %d}", k.Name, k.Index)
}

// --------------------------------------------------------------------------
// Partition Type (partition of the engine)
// --------------------------------------------------------------------------

// Partition represents a partition of the engine.
// All records of a counter live in the same partition so that a scan
// of one counter only has to range over a single map.
type Partition struct {
	Data *xsync.MapOf[RecordKey, float64] // Map of active shard records
}

// NewPartition creates a new empty partition
func NewPartition() *Partition {
	return &Partition{
		Data: xsync.NewMapOf[RecordKey, float64](),
	}
}

// GetPartition returns the appropriate partition for a given counter name hash
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func GetPartition[T any](key util.UintKey, partitions []*T) *T {
	// Shift right by 7 bits to use higher-quality bits for distribution
	shiftedKey := uint64(key) >> 7
	partitionPos := shiftedKey % uint64(len(partitions))
	return partitions[partitionPos]
}
