package shards

import "io"

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplGrove Implementation = "grove"
)

// Feature represents engine features as bit flags
type Feature uint64

const (
	FeatureApply  Feature = 1 << iota // Support for Apply operations
	FeaturePut                        // Support for Put operations
	FeatureGet                        // Support for Get operations
	FeatureDelete                     // Support for Delete operations
	FeatureScan                       // Support for Scan operations
	FeatureSave                       // Support for Save operations
	FeatureLoad                       // Support for Load operations
)

func (f Feature) String() string {
	switch f {
	case FeatureApply:
		return "Apply"
	case FeaturePut:
		return "Put"
	case FeatureGet:
		return "Get"
	case FeatureDelete:
		return "Delete"
	case FeatureScan:
		return "Scan"
	case FeatureSave:
		return "Save"
	case FeatureLoad:
		return "Load"
	default:
		return "Unknown"
	}
}

// Record is a single shard record of a counter: the shard index and the
// partial value currently stored under it.
type Record struct {
	Shard uint32  `json:"shard"`
	Value float64 `json:"value"`
}

type StoreInfo struct {
	Records           int            `json:"records"`
	DbType            Implementation `json:"db_type"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Engine Interface
// --------------------------------------------------------------------------

// ShardDB defines an interface for shard-record engine implementations.
// An engine stores one float64 value per (counter name, shard index) pair
// and provides atomic read-modify-write on a single record.
// Implementations can vary in their feature support, which can be queried
// with SupportsFeature.
type ShardDB interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Apply atomically adds delta to the record identified by name and shard
	// and returns the resulting value. A missing record is treated as 0, so
	// the first Apply creates the record with value delta. No other writer
	// may observe or interleave with the read-modify-write.
	Apply(name string, shard uint32, delta float64) (newValue float64)

	// Put inserts or overwrites the record identified by name and shard
	// with the given value.
	Put(name string, shard uint32, value float64)

	// Delete removes the record identified by name and shard.
	// Deleting a missing record is a no-op.
	Delete(name string, shard uint32)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get retrieves the value of the record identified by name and shard.
	// The boolean return value indicates whether the record exists.
	Get(name string, shard uint32) (value float64, loaded bool)

	// Scan returns all records stored under the given counter name,
	// ordered by ascending shard index. A counter with no records
	// yields an empty slice.
	Scan(name string) (records []Record)

	// --------------------------------------------------------------------------
	// Persistence Operations
	// --------------------------------------------------------------------------

	// Save persists the current state of the engine to the provided io.Writer.
	Save(w io.Writer) (err error)

	// Load restores the engine state from the data provided by an io.Reader.
	Load(r io.Reader) (err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the engine implementation supports the specified feature.
	// Returns true if the feature is supported, false otherwise.
	// Multiple features can be checked at once using bitwise OR (|) operator.
	SupportsFeature(feature Feature) (ok bool)

	// GetInfo returns information about the engine.
	GetInfo() (info StoreInfo)

	// Close closes the engine.
	Close() (err error)
}
