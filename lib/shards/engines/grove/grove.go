package grove

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/shards/engines/grove/internal"
	"github.com/tallykv/tally/lib/shards/util"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for engine behavior and structure
const (
	magicNum     = "GROVEDB\x00" // File format identifier
	groveVersion = 1             // Engine version
)

// --------------------------------------------------------------------------
// Core Grove engine structure
// --------------------------------------------------------------------------

// groveImpl implements a high-performance shard-record engine with partitioned data
type groveImpl struct {
	numPartitions int                   // Number of partitions
	seed          uint64                // Seed for hash function
	partitions    []*internal.Partition // Array of partitions
}

// DBOptions configures the groveImpl behavior during initialization
type DBOptions struct {
	NumPartitions int // Number of partitions (nil = auto)
}

// DefaultOptions returns the default groveImpl options
func DefaultOptions() *DBOptions {
	return &DBOptions{
		NumPartitions: runtime.NumCPU(), // Auto-determine based on CPU count
	}
}

// --------------------------------------------------------------------------
// Initialization and Setup
// --------------------------------------------------------------------------

// NewGroveDB creates a new GroveDB instance with the specified options (optional)
//
// Thread-safety: This function is not thread-safe and should only be called once
// during initialization.
func NewGroveDB(opts *DBOptions) shards.ShardDB {

	// Generate default options if not provided
	if opts == nil {
		opts = DefaultOptions()
	}

	// At least one partition, partition lookup does a modulo over the slice
	numPartitions := opts.NumPartitions
	if numPartitions < 1 {
		numPartitions = 1
	}

	// Generate a seed for this groveImpl instance
	seed := util.GenerateSeed()

	// Create partitions
	partitions := make([]*internal.Partition, numPartitions)
	for i := 0; i < numPartitions; i++ {
		partitions[i] = internal.NewPartition()
	}

	return &groveImpl{
		numPartitions: numPartitions,
		seed:          seed,
		partitions:    partitions,
	}
}

// --------------------------------------------------------------------------
// Hash Helper Functions
// --------------------------------------------------------------------------

// hashName converts a counter name to a util.UintKey with hashing
// and applies the groveImpl seed to ensure uniqueness between groveImpl instances
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (grove *groveImpl) hashName(name string) util.UintKey {
	return util.HashString(name, grove.seed)
}

// partitionFor returns the partition holding all records of the given counter
func (grove *groveImpl) partitionFor(name string) *internal.Partition {
	return internal.GetPartition(grove.hashName(name), grove.partitions)
}

// --------------------------------------------------------------------------
// Core ShardDB Interface Methods - Write Operations
// --------------------------------------------------------------------------

// Apply atomically adds delta to the record identified by name and shard
// and returns the resulting value. A missing record is created with value delta.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// The read-modify-write is performed atomically via xsync's Compute, no other
// writer of the same record can interleave with it.
func (grove *groveImpl) Apply(name string, shard uint32, delta float64) float64 {
	partition := grove.partitionFor(name)
	key := internal.RecordKey{Name: name, Index: shard}

	var result float64
	partition.Data.Compute(key, func(oldValue float64, _ bool) (float64, bool) {
		// a missing record reads as 0, so the zero value works for both cases
		result = oldValue + delta
		return result, false
	})

	return result
}

// Put inserts or overwrites the record identified by name and shard
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (grove *groveImpl) Put(name string, shard uint32, value float64) {
	partition := grove.partitionFor(name)
	partition.Data.Store(internal.RecordKey{Name: name, Index: shard}, value)
}

// Delete removes the record identified by name and shard.
// Deleting a missing record is a no-op.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (grove *groveImpl) Delete(name string, shard uint32) {
	partition := grove.partitionFor(name)
	partition.Data.Delete(internal.RecordKey{Name: name, Index: shard})
}

// --------------------------------------------------------------------------
// Core ShardDB Interface Methods - Read Operations
// --------------------------------------------------------------------------

// Get retrieves the value of the record identified by name and shard.
// The boolean indicates whether the record exists.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
func (grove *groveImpl) Get(name string, shard uint32) (float64, bool) {
	partition := grove.partitionFor(name)
	return partition.Data.Load(internal.RecordKey{Name: name, Index: shard})
}

// Scan returns all records stored under the given counter name,
// ordered by ascending shard index.
//
// Thread-safety: This method is thread-safe and can be called concurrently.
// Records written concurrently with the scan may or may not be included.
func (grove *groveImpl) Scan(name string) []shards.Record {
	partition := grove.partitionFor(name)

	records := make([]shards.Record, 0)
	partition.Data.Range(func(key internal.RecordKey, value float64) bool {
		if key.Name == name {
			records = append(records, shards.Record{Shard: key.Index, Value: value})
		}
		return true
	})

	sort.Slice(records, func(i, j int) bool {
		return records[i].Shard < records[j].Shard
	})

	return records
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Save persists the engine to the writer
// Concurrent reading and writing is allowed during Save operation
//
// Thread-safety: This function allows concurrent operations with all other functions
// except Load. It takes snapshots of the data without blocking modifications.
func (grove *groveImpl) Save(w io.Writer) error {
	// Use a buffered writer for better performance
	bw := bufio.NewWriterSize(w, 1024*1024) // 1 MB buffer

	// Create snapshots of all records
	type recordToSave struct {
		key   internal.RecordKey
		value float64
	}

	var records []recordToSave

	// Collect snapshots of all partitions
	for _, partition := range grove.partitions {
		partition.Data.Range(func(key internal.RecordKey, value float64) bool {
			records = append(records, recordToSave{key, value})
			return true
		})
	}

	// Write file header
	if _, err := bw.WriteString(magicNum); err != nil {
		return err
	}

	// Write grove version
	if err := binary.Write(bw, binary.LittleEndian, uint8(groveVersion)); err != nil {
		return err
	}

	// Write seed
	if err := binary.Write(bw, binary.LittleEndian, grove.seed); err != nil {
		return err
	}

	// Write total record count
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(records))); err != nil {
		return err
	}

	// Write records
	for _, item := range records {

		// Write name length and name bytes
		nameLen := uint32(len(item.key.Name))
		if err := binary.Write(bw, binary.LittleEndian, nameLen); err != nil {
			return err
		}
		if _, err := bw.WriteString(item.key.Name); err != nil {
			return err
		}

		// Write shard index
		if err := binary.Write(bw, binary.LittleEndian, item.key.Index); err != nil {
			return err
		}

		// Write value (IEEE 754 bits)
		if err := binary.Write(bw, binary.LittleEndian, math.Float64bits(item.value)); err != nil {
			return err
		}
	}

	// Flush buffer to ensure all data is written
	return bw.Flush()
}

// Load restores an engine from the reader
//
// Thread-safety: This function is not thread-safe and should not be called concurrently
func (grove *groveImpl) Load(r io.Reader) error {

	// Use a buffered reader for better performance
	br := bufio.NewReaderSize(r, 1024*1024) // 1 MB buffer

	// Read and verify magic number
	magicBytes := make([]byte, len(magicNum))
	if _, err := io.ReadFull(br, magicBytes); err != nil {
		return err
	}

	if string(magicBytes) != magicNum {
		return fmt.Errorf("invalid file format: magic number mismatch")
	}

	// Read and verify version
	var version uint8
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return err
	}

	if int(version) != groveVersion {
		return fmt.Errorf("unsupported version: %d (expected %d)", version, groveVersion)
	}

	// Read seed
	var seed uint64
	if err := binary.Read(br, binary.LittleEndian, &seed); err != nil {
		return err
	}

	// Recreate empty partitions with the loaded seed
	partitions := make([]*internal.Partition, grove.numPartitions)
	for i := 0; i < grove.numPartitions; i++ {
		partitions[i] = internal.NewPartition()
	}

	grove.partitions = partitions
	grove.seed = seed

	// Read record count
	var recordCount uint64
	if err := binary.Read(br, binary.LittleEndian, &recordCount); err != nil {
		return err
	}

	// Read records
	for i := uint64(0); i < recordCount; i++ {

		// Read name length and name bytes
		var nameLen uint32
		if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
			return err
		}
		nameBytes := make([]byte, nameLen)
		if _, err := io.ReadFull(br, nameBytes); err != nil {
			return err
		}
		name := string(nameBytes)

		// Read shard index
		var shard uint32
		if err := binary.Read(br, binary.LittleEndian, &shard); err != nil {
			return err
		}

		// Read value
		var bits uint64
		if err := binary.Read(br, binary.LittleEndian, &bits); err != nil {
			return err
		}

		// Store the record in the appropriate partition
		partition := grove.partitionFor(name)
		partition.Data.Store(internal.RecordKey{Name: name, Index: shard}, math.Float64frombits(bits))
	}

	return nil
}

// --------------------------------------------------------------------------
// ShardDB Interface Implementation - Features and Metadata
// --------------------------------------------------------------------------

// GetInfo returns statistics about the engine
func (grove *groveImpl) GetInfo() shards.StoreInfo {

	// concurrently collect partition sizes
	wg := sync.WaitGroup{}
	wg.Add(len(grove.partitions))

	partitionSizes := make([]float64, len(grove.partitions))
	for partitionIndex, partition := range grove.partitions {
		go func(i int, p *internal.Partition) {
			defer wg.Done()
			partitionSizes[i] = float64(p.Data.Size())
		}(partitionIndex, partition)
	}

	// wait for all partitions to finish
	wg.Wait()

	records := 0
	for _, size := range partitionSizes {
		records += int(size)
	}

	// Metadata for this specific engine implementation
	meta := &struct {
		PartitionCount        int                    `json:"partition_count"`
		PartitionDistribution util.DistributionStats `json:"partition_distribution"`
	}{
		PartitionCount:        len(grove.partitions),
		PartitionDistribution: util.NewDistributionStats(partitionSizes),
	}

	// features
	supportedFeatures := []shards.Feature{
		shards.FeatureApply, shards.FeaturePut, shards.FeatureDelete,
		shards.FeatureGet, shards.FeatureScan,
		shards.FeatureSave, shards.FeatureLoad,
	}

	return shards.StoreInfo{
		Records:           records,
		DbType:            shards.ImplGrove,
		SupportedFeatures: supportedFeatures,
		Metadata:          meta,
	}
}

// SupportsFeature checks if this implementation supports a specific ShardDB feature
func (grove *groveImpl) SupportsFeature(feature shards.Feature) bool {
	supportedFeatures := shards.FeatureApply |
		shards.FeaturePut |
		shards.FeatureGet |
		shards.FeatureDelete |
		shards.FeatureScan |
		shards.FeatureSave |
		shards.FeatureLoad
	return supportedFeatures&feature == feature
}

// Close releases the engine. The in-memory implementation has nothing to release.
func (grove *groveImpl) Close() error {
	return nil
}
