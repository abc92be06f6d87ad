package counter

import (
	"fmt"
	"math"

	"github.com/tallykv/tally/lib/store"
)

// counterImpl is the concrete implementation of the ICounter interface.
// It is a stateless view over a store.IShardStore: all counter state lives
// in the store, so any number of counterImpl instances (possibly on
// different nodes) can operate on the same counters concurrently.
type counterImpl[K comparable] struct {
	store  store.IShardStore
	config Config
	encode KeyEncoder[K]
}

// New creates a counter with plain string names on top of the given store.
// A zero Config selects the defaults, invalid configuration is rejected
// with a RetCInvalidConfig error before the store is ever touched.
func New(s store.IShardStore, config Config) (ICounter[string], error) {
	return NewWithEncoder[string](s, config, func(name string) string { return name })
}

// NewWithEncoder creates a counter with a caller-defined key type. The
// encoder converts keys into the counter names used by the underlying store.
func NewWithEncoder[K comparable](s store.IShardStore, config Config, encode KeyEncoder[K]) (ICounter[K], error) {
	if s == nil {
		return nil, store.NewError(store.RetCInvalidConfig, "store must not be nil")
	}
	if encode == nil {
		return nil, store.NewError(store.RetCInvalidConfig, "key encoder must not be nil")
	}

	config = config.withDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}

	return &counterImpl[K]{
		store:  s,
		config: config,
		encode: encode,
	}, nil
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Add adds delta to a uniformly random shard of the counter.
//
// Thread-safety: This method is thread-safe. The store serializes concurrent
// applies on the same record, so no delta is ever lost.
func (c *counterImpl[K]) Add(name K, delta float64) (uint32, error) {
	shard := uint32(c.config.Source.IntN(c.config.ShardCount))
	return c.AddPinned(name, delta, shard)
}

// AddPinned adds delta to the given shard of the counter.
//
// Thread-safety: This method is thread-safe.
func (c *counterImpl[K]) AddPinned(name K, delta float64, shard uint32) (uint32, error) {
	if shard >= uint32(c.config.ShardCount) {
		return 0, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("shard %d out of range, counter has %d shards", shard, c.config.ShardCount))
	}

	if _, err := c.store.Apply(c.encode(name), shard, delta); err != nil {
		return 0, err
	}
	return shard, nil
}

// Rebalance redistributes the counter's total over the configured shard count.
func (c *counterImpl[K]) Rebalance(name K) error {
	return c.RebalanceTo(name, c.config.ShardCount)
}

// RebalanceTo redistributes the counter's total over shardCount records.
//
// The total is read with a single scan, split according to the configured
// distribution policy and written back with one Put per target shard.
// Records above the new shard count are deleted afterwards. The sequence is
// not atomic as a whole: concurrent readers may observe intermediate states
// and deltas added concurrently to a shard that is subsequently overwritten
// are folded into the value the scan saw or lost to the Put, whichever
// lands later in the store. Rebalance is meant for quiet counters.
func (c *counterImpl[K]) RebalanceTo(name K, shardCount int) error {
	if shardCount < 1 {
		return store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("rebalance shard count must be at least 1, got %d", shardCount))
	}

	encoded := c.encode(name)

	records, err := c.store.Scan(encoded)
	if err != nil {
		return err
	}

	var total float64
	for _, record := range records {
		total += record.Value
	}

	targets := distribute(total, shardCount, c.config.Policy)

	for i, target := range targets {
		if err := c.store.Put(encoded, uint32(i), target); err != nil {
			return err
		}
	}

	// drop records beyond the new shard count
	for _, record := range records {
		if record.Shard >= uint32(shardCount) {
			if err := c.store.Delete(encoded, record.Shard); err != nil {
				return err
			}
		}
	}

	return nil
}

// Reset deletes all shard records of the counter.
func (c *counterImpl[K]) Reset(name K) error {
	encoded := c.encode(name)

	records, err := c.store.Scan(encoded)
	if err != nil {
		return err
	}

	for _, record := range records {
		if err := c.store.Delete(encoded, record.Shard); err != nil {
			return err
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Read Operations
// --------------------------------------------------------------------------

// Count returns the exact total of the counter.
func (c *counterImpl[K]) Count(name K) (float64, error) {
	records, err := c.store.Scan(c.encode(name))
	if err != nil {
		return 0, err
	}

	var total float64
	for _, record := range records {
		total += record.Value
	}
	return total, nil
}

// EstimateCount approximates the total by sampling ReadFromShards shards.
func (c *counterImpl[K]) EstimateCount(name K) (float64, error) {
	return c.EstimateCountN(name, c.config.ReadFromShards)
}

// EstimateCountN approximates the total by sampling readFrom shards without
// replacement and extrapolating: estimate = sampleSum * shardCount/readFrom.
// Sampling readFrom = shardCount shards reads every record and yields the
// exact total.
func (c *counterImpl[K]) EstimateCountN(name K, readFrom int) (float64, error) {
	if readFrom < 1 {
		return 0, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("read-from shard count must be at least 1, got %d", readFrom))
	}
	if readFrom > c.config.ShardCount {
		readFrom = c.config.ShardCount
	}

	encoded := c.encode(name)

	var sampleSum float64
	for _, shard := range sampleShards(c.config.Source, c.config.ShardCount, readFrom) {
		value, loaded, err := c.store.Get(encoded, shard)
		if err != nil {
			return 0, err
		}
		if loaded {
			sampleSum += value
		}
	}

	return sampleSum * float64(c.config.ShardCount) / float64(readFrom), nil
}

// --------------------------------------------------------------------------
// Value Distribution
// --------------------------------------------------------------------------

// distribute splits total over n shards according to the policy.
// The returned values sum back to total, the even policy compensates
// float rounding on the first shard.
func distribute(total float64, n int, policy DistributionPolicy) []float64 {
	targets := make([]float64, n)

	switch policy {
	case DistributeEven:
		share := total / float64(n)
		for i := range targets {
			targets[i] = share
		}
		// float division can lose a few ulps, park the difference on the
		// first shard so the total is preserved exactly
		var sum float64
		for _, target := range targets {
			sum += target
		}
		targets[0] += total - sum

	default: // DistributeInteger
		base := math.Trunc(total / float64(n))
		for i := range targets {
			targets[i] = base
		}

		// spread the remainder as whole units over the lowest shard indices,
		// any fractional leftover goes to the following shard
		remainder := total - base*float64(n)
		unit := 1.0
		if remainder < 0 {
			unit = -1
		}

		i := 0
		for math.Abs(remainder) >= 1 && i < n {
			targets[i] += unit
			remainder -= unit
			i++
		}
		if remainder != 0 {
			targets[i%n] += remainder
		}
	}

	return targets
}
