// Package counter implements sharded counters on top of the store.IShardStore
// interface. A counter's total value is spread over a fixed number of shard
// records so that concurrent writers update different records instead of
// contending on a single hot one. The total is recovered by summing the
// records, either exactly (Count) or approximately by sampling (EstimateCount).
//
// The package focuses on:
//   - Write scalability through random or pinned shard selection
//   - Exact aggregation by scan-and-sum
//   - Unbiased sampling-based estimation with a configurable sample size
//   - Value-preserving redistribution when the shard count changes
//
// Key Components:
//
//   - ICounter Interface: The generic counter API. The type parameter is the
//     key type used to name counters; a KeyEncoder converts keys into the
//     string names used by the store. New creates a plain string-keyed
//     counter, NewWithEncoder accepts any comparable key type.
//
//   - Config: Shard count, estimation sample size, distribution policy and
//     randomness source. The zero value selects the defaults (16 shards,
//     1 sampled shard, integer distribution). Invalid configuration is
//     rejected with a RetCInvalidConfig error before the store is touched.
//
//   - Source: The randomness abstraction used for shard selection and
//     estimation sampling. The default is backed by fastrand; tests inject
//     deterministic sources.
//
// Consistency Model:
//
//	The counter relies on exactly one guarantee from the store: Apply is an
//	atomic read-modify-write of a single record. Everything else is built
//	from independent single-record commands:
//
//	- Add/AddPinned issue one Apply and can never lose a delta, regardless
//	  of concurrency.
//
//	- Count and EstimateCount read without locking. Concurrent adds may or
//	  may not be visible, the result is a consistent snapshot only on a
//	  quiet counter.
//
//	- Rebalance and Reset are sequences of Puts and Deletes. They preserve
//	  the total they observed, but adds racing with them can land on a
//	  record that is subsequently overwritten or deleted. They are meant
//	  for quiet or administratively paused counters.
//
// Estimation:
//
//	EstimateCount samples k of the S shards without replacement (partial
//	Fisher-Yates) and returns sampleSum * S/k. Every shard is equally likely
//	to be sampled, so the expected value of the estimate equals the exact
//	total. Missing records read as 0. With k = S the estimate degenerates
//	to the exact sum.
//
// Rebalancing:
//
//	RebalanceTo reads the total and rewrites it over the new shard count,
//	deleting records beyond it. Two policies are available:
//
//	- DistributeInteger (default): every shard receives the truncated
//	  integral share, the remainder is spread as whole units over the lowest
//	  shard indices. Integral totals stay integral per shard, which keeps
//	  per-shard values plausible for discrete quantities such as votes.
//
//	- DistributeEven: every shard receives the exact fractional share
//	  total/n, which minimizes estimation variance afterwards.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(func() shards.ShardDB { return grove.NewGroveDB(nil) })
//	c, err := counter.New(s, counter.Config{ShardCount: 32, ReadFromShards: 4})
//	if err != nil { ... }
//
//	shard, err := c.Add("page:home:visits", 1)
//	total, err := c.Count("page:home:visits")
//	quick, err := c.EstimateCount("page:home:visits")
//
// The same counter works unchanged over the distributed dstore backend, the
// RAFT log then serializes the Apply commands instead of the local engine.
package counter
