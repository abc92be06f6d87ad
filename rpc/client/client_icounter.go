package client

import (
	"fmt"

	"github.com/tallykv/tally/lib/counter"
	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/rpc/common"
	"github.com/tallykv/tally/rpc/serializer"
	"github.com/tallykv/tally/rpc/transport"
)

// NewRPCCounter creates a new RPC counter client
// The function takes a shard ID, a util, a transport and a serializer as parameters
// It returns a counter.ICounter[string] and an error
func NewRPCCounter(
	shardId uint64,
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (counter.ICounter[string], error) {

	// Connect the transport
	err := transport.Connect(config)
	if err != nil {
		return nil, err
	}

	// Create a new RPC counter
	c := rpcCounter{
		rpcClientAdapter{
			shardId:    shardId,
			config:     config,
			transport:  transport,
			serializer: serializer,
		},
	}

	// Return the RPC counter
	return &c, nil
}

type rpcCounter struct {
	rpcClientAdapter
}

// --------------------------------------------------------------------------
// Interface Methods (docu see the counter package in interface.go)
// --------------------------------------------------------------------------

func (i *rpcCounter) Add(name string, delta float64) (uint32, error) {
	req := common.NewAddRequest(name, delta)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Shard, nil
}

func (i *rpcCounter) AddPinned(name string, delta float64, shard uint32) (uint32, error) {
	req := common.NewAddPinnedRequest(name, delta, shard)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Shard, nil
}

func (i *rpcCounter) Count(name string) (float64, error) {
	req := common.NewCountRequest(name)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (i *rpcCounter) EstimateCount(name string) (float64, error) {
	// A readFrom of 0 lets the server apply its configured default
	req := common.NewEstimateRequest(name, 0)
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (i *rpcCounter) EstimateCountN(name string, readFrom int) (float64, error) {
	// Reject before serializing, a negative value would wrap to a huge uint32
	if readFrom < 1 {
		return 0, store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("read-from shard count must be at least 1, got %d", readFrom))
	}
	req := common.NewEstimateRequest(name, uint32(readFrom))
	resp, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	if err != nil {
		return 0, err
	}
	return resp.Value, nil
}

func (i *rpcCounter) Rebalance(name string) error {
	// A shardCount of 0 lets the server rebalance over its configured shard count
	req := common.NewRebalanceRequest(name, 0)
	_, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcCounter) RebalanceTo(name string, shardCount int) error {
	// Reject before serializing, a negative value would wrap to a huge uint32
	if shardCount < 1 {
		return store.NewError(store.RetCInvalidOperation,
			fmt.Sprintf("rebalance shard count must be at least 1, got %d", shardCount))
	}
	req := common.NewRebalanceRequest(name, uint32(shardCount))
	_, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}

func (i *rpcCounter) Reset(name string) error {
	req := common.NewResetRequest(name)
	_, err := invokeRPCRequest(i.shardId, req, i.transport, i.serializer)
	return err
}
