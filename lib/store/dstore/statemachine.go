package dstore

import (
	"fmt"
	"io"
	"time"

	sm "github.com/lni/dragonboat/v4/statemachine"
	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/lib/store/dstore/internal"
)

// --------------------------------------------------------------------------
// State Machine Implementation
// --------------------------------------------------------------------------

// CounterStateMachine is a state machine implementation for Dragonboat RAFT
type CounterStateMachine struct {
	replicaID uint64
	shardID   uint64
	database  shards.ShardDB // the actual dataStorage
}

// CreateStateMaschineFactory returns a function that can be used by dragonboat to create a new statemachine for a node host
// The factory pattern is used to enable the caller to pass an interchangeable dbFactory
func CreateStateMaschineFactory(dbFactory store.DBFactory) func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
	return func(shardID uint64, replicaID uint64) sm.IConcurrentStateMachine {
		return &CounterStateMachine{
			replicaID: replicaID,
			shardID:   shardID,
			database:  dbFactory(),
		}
	}
}

// Lookup handles read-only queries by mapping each Query operation to the corresponding ShardDB method.
func (fsm *CounterStateMachine) Lookup(itf interface{}) (interface{}, error) {

	// try to parse Query into Query struct
	q, ok := itf.(internal.Query)
	if !ok {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("invalid Query type: %T", itf))
	}

	// Handle different Query types
	switch q.Type {
	case internal.QueryTGet:
		if !fsm.database.SupportsFeature(shards.FeatureGet) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
		}
		val, ok := fsm.database.Get(q.Name, q.Shard)
		return internal.QueryResult{
			Value: val,
			Ok:    ok,
		}, nil
	case internal.QueryTScan:
		if !fsm.database.SupportsFeature(shards.FeatureScan) {
			return nil, store.NewError(store.RetCUnsupportedOperation, "Scan operation is not supported")
		}
		return fsm.database.Scan(q.Name), nil
	case internal.QueryTGetDBInfo:
		return fsm.database.GetInfo(), nil
	default:
		return nil, store.NewError(store.RetCInvalidOperation, fmt.Sprintf("unknown Query operation: %d", q.Type))
	}
}

// Update handles write commands on the ShardDB instance
// All write operations are serialized into []byte and are accessible via the entries struct
func (fsm *CounterStateMachine) Update(entries []sm.Entry) ([]sm.Entry, error) {

	// Nothing to do
	if len(entries) == 0 {
		return entries, nil
	}

	// Stats
	start := time.Now()

	for idx, e := range entries {
		// Handle each entry
		if len(e.Cmd) == 0 {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInvalidOperation), Data: []byte("empty command ignored")}
			continue
		}
		// Deserialize the command
		cmd := internal.Command{}
		err := cmd.Deserialize(e.Cmd)
		if err != nil {
			entries[idx].Result = sm.Result{Value: uint64(store.RetCInternalError), Data: []byte(fmt.Sprintf("failed to deserialize command: %v", err))}
			continue
		}

		// Check if the engine supports the operation
		feat, err := cmd.Type.ToDBFeature()
		if err != nil {
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCInvalidOperation),
				Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
			}
			continue
		}
		if !fsm.database.SupportsFeature(feat) {
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCUnsupportedOperation),
				Data:  []byte(fmt.Sprintf("%s operation is not supported", cmd.Type)),
			}
			continue
		}

		switch cmd.Type {
		case internal.CommandTApply:
			newValue := fsm.database.Apply(cmd.Name, cmd.Shard, cmd.Value)
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCSuccess),
				Data:  internal.EncodeResultValue(newValue),
			}
		case internal.CommandTPut:
			fsm.database.Put(cmd.Name, cmd.Shard, cmd.Value)
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCSuccess),
				Data:  []byte(fmt.Sprintf("put: name=%s shard=%d", cmd.Name, cmd.Shard)),
			}
		case internal.CommandTDelete:
			fsm.database.Delete(cmd.Name, cmd.Shard)
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCSuccess),
				Data:  []byte(fmt.Sprintf("deleted: name=%s shard=%d", cmd.Name, cmd.Shard)),
			}
		default:
			entries[idx].Result = sm.Result{
				Value: uint64(store.RetCInvalidOperation),
				Data:  []byte(fmt.Sprintf("unknown Command operation: %s", cmd.Type)),
			}
		}
	}

	// Log if the update took long
	if elapsed := time.Since(start); elapsed > time.Millisecond {
		log.Infof("Statemachine took long to update. Batch updated %d entries, took %.2fms:", len(entries), float64(elapsed)/float64(time.Millisecond))
	}
	return entries, nil
}

// PrepareSnapshot is not used. We don't need to prepare anything since we use fuzzy snapshotting
func (fsm *CounterStateMachine) PrepareSnapshot() (interface{}, error) {
	return nil, nil
}

// SaveSnapshot saves a fuzzy engine snapshot to the writer
func (fsm *CounterStateMachine) SaveSnapshot(_ interface{}, writer io.Writer, _ sm.ISnapshotFileCollection, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(shards.FeatureSave) {
		return fmt.Errorf("the used ShardDB implementation does not support Save() operations")
	}
	return fsm.database.Save(writer)
}

// RecoverFromSnapshot delegates snapshot recovery to the engine layer.
func (fsm *CounterStateMachine) RecoverFromSnapshot(r io.Reader, _ []sm.SnapshotFile, _ <-chan struct{}) error {
	if !fsm.database.SupportsFeature(shards.FeatureLoad) {
		return fmt.Errorf("the used ShardDB implementation does not support Load() operations")
	}
	return fsm.database.Load(r)
}

// Close performs any necessary cleanup.
func (fsm *CounterStateMachine) Close() error {
	return fsm.database.Close()
}
