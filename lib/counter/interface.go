package counter

import (
	"fmt"

	"github.com/tallykv/tally/lib/store"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// DistributionPolicy selects how RebalanceTo spreads a counter's total
// value over the new shard records.
type DistributionPolicy uint8

const (
	// DistributeInteger gives every shard the truncated integral share of the
	// total and spreads the remainder as whole units over the lowest shard
	// indices. An integral total stays integral on every shard.
	DistributeInteger DistributionPolicy = iota
	// DistributeEven gives every shard the exact fractional share total/n.
	DistributeEven
)

func (p DistributionPolicy) String() string {
	switch p {
	case DistributeInteger:
		return "integer"
	case DistributeEven:
		return "even"
	default:
		return fmt.Sprintf("Unknown(%d)", p)
	}
}

// ParsePolicy converts a policy name ("integer" or "even") into a
// DistributionPolicy.
func ParsePolicy(s string) (DistributionPolicy, error) {
	switch s {
	case "integer":
		return DistributeInteger, nil
	case "even":
		return DistributeEven, nil
	default:
		return DistributeInteger, fmt.Errorf("invalid distribution policy %q, must be one of integer, even", s)
	}
}

// KeyEncoder converts a caller-defined key type into the counter name
// stored in the underlying store.
type KeyEncoder[K comparable] func(key K) string

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

const (
	// DefaultShardCount is the number of shard records a counter is spread over
	// if not configured otherwise.
	DefaultShardCount = 16
	// DefaultReadFromShards is the number of shards sampled by EstimateCount
	// if not configured otherwise.
	DefaultReadFromShards = 1
)

// Config configures a counter instance.
// The zero value is usable: zero fields are replaced by their defaults when
// the counter is created, negative values are rejected.
type Config struct {
	// ShardCount is the number of shard records each counter value is spread
	// over. Must be at least 1. Defaults to DefaultShardCount.
	ShardCount int
	// ReadFromShards is the number of shards sampled by EstimateCount.
	// Must be between 1 and ShardCount. Defaults to DefaultReadFromShards.
	ReadFromShards int
	// Policy selects the value distribution strategy used by Rebalance.
	// Defaults to DistributeInteger.
	Policy DistributionPolicy
	// Source provides the randomness for shard selection and estimation
	// sampling. Defaults to the process-wide fastrand source. Tests can
	// inject a deterministic source here.
	Source Source
}

// DefaultConfig returns the default counter configuration.
func DefaultConfig() Config {
	return Config{
		ShardCount:     DefaultShardCount,
		ReadFromShards: DefaultReadFromShards,
		Policy:         DistributeInteger,
		Source:         DefaultSource(),
	}
}

// withDefaults fills zero fields with their default values.
func (c Config) withDefaults() Config {
	if c.ShardCount == 0 {
		c.ShardCount = DefaultShardCount
	}
	if c.ReadFromShards == 0 {
		c.ReadFromShards = DefaultReadFromShards
	}
	if c.Source == nil {
		c.Source = DefaultSource()
	}
	return c
}

// validate checks the configuration and returns a *store.Error with
// RetCInvalidConfig if any field is out of range.
func (c Config) validate() error {
	if c.ShardCount < 1 {
		return store.NewError(store.RetCInvalidConfig,
			fmt.Sprintf("shard count must be at least 1, got %d", c.ShardCount))
	}
	if c.ReadFromShards < 1 {
		return store.NewError(store.RetCInvalidConfig,
			fmt.Sprintf("read-from shard count must be at least 1, got %d", c.ReadFromShards))
	}
	if c.ReadFromShards > c.ShardCount {
		return store.NewError(store.RetCInvalidConfig,
			fmt.Sprintf("read-from shard count %d exceeds shard count %d", c.ReadFromShards, c.ShardCount))
	}
	if c.Policy != DistributeInteger && c.Policy != DistributeEven {
		return store.NewError(store.RetCInvalidConfig,
			fmt.Sprintf("unknown distribution policy %d", c.Policy))
	}
	return nil
}

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ICounter is the generic interface for sharded counters. A counter's value
// is the sum of up to ShardCount independent shard records, so concurrent
// writers touch different records instead of contending on a single one.
//
// All operations translate into single-record commands against the
// underlying store.IShardStore. Multi-record operations (Rebalance, Reset)
// are sequences of independent commands: readers running concurrently with
// them may observe intermediate states, but no value is ever lost.
type ICounter[K comparable] interface {
	// Add adds delta to a uniformly random shard of the counter and returns
	// the shard index that was selected.
	Add(name K, delta float64) (shard uint32, err error)
	// AddPinned adds delta to the given shard of the counter. The shard index
	// must be below the configured shard count.
	AddPinned(name K, delta float64, shard uint32) (uint32, error)
	// Count returns the exact total of the counter by scanning and summing
	// all of its shard records. A counter with no records counts as 0.
	Count(name K) (float64, error)
	// EstimateCount approximates the total by sampling the configured number
	// of shards (ReadFromShards) and extrapolating. The estimate is unbiased:
	// its expected value over the sampling randomness equals the exact total.
	EstimateCount(name K) (float64, error)
	// EstimateCountN behaves like EstimateCount but samples readFrom shards.
	// Values above the shard count are clamped to the shard count, which
	// makes the estimate exact.
	EstimateCountN(name K, readFrom int) (float64, error)
	// Rebalance redistributes the counter's total value evenly over the
	// configured shard count, preserving the exact total.
	Rebalance(name K) error
	// RebalanceTo behaves like Rebalance but redistributes over the given
	// shard count, e.g. after the configured shard count changed.
	RebalanceTo(name K, shardCount int) error
	// Reset deletes all shard records of the counter. Resetting a counter
	// with no records is a no-op.
	Reset(name K) error
}
