package lstore

import (
	"github.com/tallykv/tally/lib/shards"
	"github.com/tallykv/tally/lib/store"
)

type storeImpl struct {
	db shards.ShardDB
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
// This works by using an engine from the shards package directly.
func NewLocalStore(factory store.DBFactory) store.IShardStore {
	return &storeImpl{
		db: factory(),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Apply(name string, shard uint32, delta float64) (float64, error) {
	if !s.db.SupportsFeature(shards.FeatureApply) {
		return 0, store.NewError(store.RetCUnsupportedOperation, "Apply operation is not supported")
	}
	return s.db.Apply(name, shard, delta), nil
}

func (s *storeImpl) Put(name string, shard uint32, value float64) error {
	if !s.db.SupportsFeature(shards.FeaturePut) {
		return store.NewError(store.RetCUnsupportedOperation, "Put operation is not supported")
	}
	s.db.Put(name, shard, value)
	return nil
}

func (s *storeImpl) Delete(name string, shard uint32) error {
	if !s.db.SupportsFeature(shards.FeatureDelete) {
		return store.NewError(store.RetCUnsupportedOperation, "Delete operation is not supported")
	}
	s.db.Delete(name, shard)
	return nil
}

func (s *storeImpl) Get(name string, shard uint32) (float64, bool, error) {
	if !s.db.SupportsFeature(shards.FeatureGet) {
		return 0, false, store.NewError(store.RetCUnsupportedOperation, "Get operation is not supported")
	}
	val, ok := s.db.Get(name, shard)
	return val, ok, nil
}

func (s *storeImpl) Scan(name string) ([]shards.Record, error) {
	if !s.db.SupportsFeature(shards.FeatureScan) {
		return nil, store.NewError(store.RetCUnsupportedOperation, "Scan operation is not supported")
	}
	return s.db.Scan(name), nil
}

func (s *storeImpl) GetDBInfo() (shards.StoreInfo, error) {
	return s.db.GetInfo(), nil
}
