package counter

import (
	"github.com/zhangyunhao116/fastrand"
)

// --------------------------------------------------------------------------
// Randomness Source
// --------------------------------------------------------------------------

// Source provides the randomness used for shard selection and estimation
// sampling. Implementations must be safe for concurrent use.
type Source interface {
	// IntN returns a uniformly distributed int in [0, n). n must be > 0.
	IntN(n int) int
}

// fastrandSource is the default Source backed by the process-wide
// per-goroutine fastrand generator.
type fastrandSource struct{}

func (fastrandSource) IntN(n int) int {
	return fastrand.Intn(n)
}

// DefaultSource returns the default randomness source.
func DefaultSource() Source {
	return fastrandSource{}
}

// --------------------------------------------------------------------------
// Sampling
// --------------------------------------------------------------------------

// sampleShards draws k distinct shard indices from [0, n) using a partial
// Fisher-Yates shuffle. Every k-subset is equally likely, which keeps the
// extrapolated estimate unbiased. k must be in [1, n].
func sampleShards(src Source, n, k int) []uint32 {
	indices := make([]uint32, n)
	for i := range indices {
		indices[i] = uint32(i)
	}

	for i := 0; i < k; i++ {
		j := i + src.IntN(n-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices[:k]
}
