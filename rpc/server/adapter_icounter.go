package server

import (
	"fmt"

	"github.com/VictoriaMetrics/metrics"
	"github.com/tallykv/tally/lib/counter"
	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/rpc/common"
)

// maxWireShardCount bounds shard counts accepted over the wire. A rebalance
// allocates one target value per shard, so an unchecked uint32 from a buggy
// client could make the server allocate gigabytes. The cap also keeps the
// uint32 to int conversion safe on 32-bit platforms.
const maxWireShardCount = 1 << 16

func NewICounterServerAdapter() IRPCServerAdapter {
	return &iCounterServerAdapterImpl{}
}

type iCounterServerAdapterImpl struct{}

func (adapter *iCounterServerAdapterImpl) Handle(req *common.Message, cnt counter.ICounter[string]) *common.Message {
	// Check for nil counter
	if cnt == nil {
		return common.NewErrorResponse("handler: counter is nil")
	}

	// Count each operation for the metrics endpoint
	metrics.GetOrCreateCounter(fmt.Sprintf(`tally_rpc_requests_total{op=%q}`, req.MsgType.String())).Inc()

	// Handle different message types
	switch req.MsgType {
	case common.MsgTCntAdd:
		var shard uint32
		var err error
		if req.HasShard {
			shard, err = cnt.AddPinned(req.Name, req.Delta, req.Shard)
		} else {
			shard, err = cnt.Add(req.Name, req.Delta)
		}
		return common.NewAddResponse(shard, err)
	case common.MsgTCntCount:
		val, err := cnt.Count(req.Name)
		return common.NewCountResponse(val, err)
	case common.MsgTCntEstimate:
		var val float64
		var err error
		if req.ReadFrom > maxWireShardCount {
			// the counter clamps oversized samples to its shard count anyway
			val, err = cnt.EstimateCountN(req.Name, maxWireShardCount)
		} else if req.ReadFrom > 0 {
			val, err = cnt.EstimateCountN(req.Name, int(req.ReadFrom))
		} else {
			val, err = cnt.EstimateCount(req.Name)
		}
		return common.NewEstimateResponse(val, err)
	case common.MsgTCntRebalance:
		var err error
		if req.ShardCount > maxWireShardCount {
			err = store.NewError(store.RetCInvalidOperation,
				fmt.Sprintf("rebalance shard count %d exceeds the maximum of %d", req.ShardCount, maxWireShardCount))
		} else if req.ShardCount > 0 {
			err = cnt.RebalanceTo(req.Name, int(req.ShardCount))
		} else {
			err = cnt.Rebalance(req.Name)
		}
		return common.NewRebalanceResponse(err)
	case common.MsgTCntReset:
		err := cnt.Reset(req.Name)
		return common.NewResetResponse(err)
	default:
		return common.NewErrorResponse(
			fmt.Sprintf("RPC ICounterAdapter - Unsupported message type: %s", req.MsgType),
		)
	}
}
