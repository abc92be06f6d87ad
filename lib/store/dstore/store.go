package dstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lni/dragonboat/v4"
	"github.com/lni/dragonboat/v4/client"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/lib/store/dstore/internal"
)

var (
	retries = 5
	log     = logger.GetLogger("store")
)

// storeImpl is the concrete implementation of the distributed store.
// It encapsulates a Dragonboat NodeHost which is used to communicate with the state machine.
type storeImpl struct {
	nh      *dragonboat.NodeHost
	shardID uint64
	cs      *client.Session
	timeout time.Duration
}

// NewDistributedStore creates a new distributed store instance which uses raft consensus to ensure strict linearizability
// across multiple nodes.
func NewDistributedStore(nh *dragonboat.NodeHost, shardID uint64, timeout time.Duration) store.IShardStore {
	cs := nh.GetNoOPSession(shardID)
	return &storeImpl{
		nh:      nh,
		shardID: shardID,
		cs:      cs,
		timeout: timeout,
	}
}

// --------------------------------------------------------------------------
// Internal write and read operations (used by interface methods)
// --------------------------------------------------------------------------

// write serializes a Command and sends it via SyncPropose.
// On success it returns the result data produced by the state machine,
// otherwise a *store.Error.
func (s *storeImpl) write(cmd internal.Command) ([]byte, error) {
	for i := 0; i < retries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)

		res, err := s.nh.SyncPropose(ctx, s.cs, cmd.Serialize())
		cancel()

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncPropose: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(s.timeout / 10)
			continue
		}

		if err != nil {
			return nil, store.NewError(store.RetCInternalError, err.Error())
		}
		if res.Value != uint64(store.RetCSuccess) {
			return nil, store.NewError(store.RetCode(res.Value), string(res.Data))
		}
		return res.Data, nil
	}
	return nil, store.NewError(store.RetCInternalError, "timeout")
}

// read is a generic helper function that queries the statemachine
// and attempts to convert the response into the expected type R.
//
// This function uses the SyncRead function (dragonboat) by default to query the state machine.
// If linearizability is not required, the stale parameter can be set to true to use the faster StaleRead function.
//
// If the read operation fails due to a system busy error, the function retries up to 5 times.
//
// It returns the response of type R and an error (nil on success).
func read[R any](r *storeImpl, q internal.Query, stale bool) (R, error) {
	var zero R
	for i := 0; i < retries; i++ {

		var res interface{}
		var err error

		// Query the statemachine, use StaleRead if stale is set otherwise use SyncRead (default)
		if stale {
			res, err = r.nh.StaleRead(r.shardID, q)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
			res, err = r.nh.SyncRead(ctx, r.shardID, q)
			cancel()
		}

		// Check for system busy errors
		if errors.Is(err, dragonboat.ErrSystemBusy) {
			log.Infof("SyncRead: System busy, retrying (%d/%d)...", i+1, retries)
			time.Sleep(r.timeout / 10)
			continue
		}

		if err != nil {
			var rse *store.Error
			if errors.As(err, &rse) {
				return zero, rse
			}
			return zero, store.NewError(store.RetCInternalError, err.Error())
		}

		// The state machine is expected to return the response in the expected type R.
		casted, ok := res.(R)
		if !ok {
			return zero, store.NewError(store.RetCInternalError,
				fmt.Sprintf("unexpected type: received %T, expected %T", res, zero))
		}
		return casted, nil
	}
	return zero, store.NewError(store.RetCInternalError, "timeout")
}

// --------------------------------------------------------------------------
// Interface Methods (docs see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Apply(name string, shard uint32, delta float64) (float64, error) {
	data, err := s.write(internal.Command{
		Type:  internal.CommandTApply,
		Name:  name,
		Shard: shard,
		Value: delta,
	})
	if err != nil {
		return 0, err
	}
	newValue, err := internal.DecodeResultValue(data)
	if err != nil {
		return 0, store.NewError(store.RetCInternalError, err.Error())
	}
	return newValue, nil
}

func (s *storeImpl) Put(name string, shard uint32, value float64) error {
	_, err := s.write(internal.Command{
		Type:  internal.CommandTPut,
		Name:  name,
		Shard: shard,
		Value: value,
	})
	return err
}

func (s *storeImpl) Delete(name string, shard uint32) error {
	_, err := s.write(internal.Command{
		Type:  internal.CommandTDelete,
		Name:  name,
		Shard: shard,
	})
	return err
}

func (s *storeImpl) Get(name string, shard uint32) (float64, bool, error) {
	res, err := read[internal.QueryResult](s, internal.Query{
		Type:  internal.QueryTGet,
		Name:  name,
		Shard: shard,
	}, false)
	if err != nil {
		return 0, false, err
	}
	return res.Value, res.Ok, nil
}

func (s *storeImpl) Scan(name string) ([]shards.Record, error) {
	return read[[]shards.Record](s, internal.Query{
		Type: internal.QueryTScan,
		Name: name,
	}, false)
}

func (s *storeImpl) GetDBInfo() (shards.StoreInfo, error) {
	return read[shards.StoreInfo](
		s,
		internal.Query{
			Type: internal.QueryTGetDBInfo,
		},
		true, // Note: allow for stale reads
	)
}
