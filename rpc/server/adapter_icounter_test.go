package server

import (
	"math"
	"testing"

	"github.com/tallykv/tally/rpc/common"
)

// stubCounter records which counter operations the adapter dispatched.
type stubCounter struct {
	rebalanceToCalls []int
	estimateNCalls   []int
}

func (c *stubCounter) Add(_ string, _ float64) (uint32, error) { return 0, nil }

func (c *stubCounter) AddPinned(_ string, _ float64, shard uint32) (uint32, error) {
	return shard, nil
}

func (c *stubCounter) Count(_ string) (float64, error) { return 0, nil }

func (c *stubCounter) EstimateCount(_ string) (float64, error) { return 0, nil }

func (c *stubCounter) EstimateCountN(_ string, readFrom int) (float64, error) {
	c.estimateNCalls = append(c.estimateNCalls, readFrom)
	return 0, nil
}

func (c *stubCounter) Rebalance(_ string) error { return nil }

func (c *stubCounter) RebalanceTo(_ string, shardCount int) error {
	c.rebalanceToCalls = append(c.rebalanceToCalls, shardCount)
	return nil
}

func (c *stubCounter) Reset(_ string) error { return nil }

// Oversized wire shard counts must never reach the counter: a rebalance
// allocates one target per shard, so a wrapped or hostile uint32 would make
// the server allocate gigabytes.
func TestAdapterRejectsOversizedRebalance(t *testing.T) {
	adapter := NewICounterServerAdapter()
	cnt := &stubCounter{}

	req := common.NewRebalanceRequest("visits", math.MaxUint32)
	resp := adapter.Handle(req, cnt)

	if resp.Ok {
		t.Error("expected a rejected response, got Ok")
	}
	if resp.Err == "" {
		t.Error("expected an error message in the response")
	}
	if resp.MsgType != common.MsgTCntRebalance {
		t.Errorf("expected MsgTCntRebalance, got %v", resp.MsgType)
	}
	if len(cnt.rebalanceToCalls) != 0 {
		t.Errorf("expected no rebalance to be dispatched, got %v", cnt.rebalanceToCalls)
	}
}

// Within the cap the requested shard count is passed through unchanged.
func TestAdapterDispatchesRebalance(t *testing.T) {
	adapter := NewICounterServerAdapter()
	cnt := &stubCounter{}

	resp := adapter.Handle(common.NewRebalanceRequest("visits", 32), cnt)

	if !resp.Ok {
		t.Errorf("expected Ok response, got error: %s", resp.Err)
	}
	if len(cnt.rebalanceToCalls) != 1 || cnt.rebalanceToCalls[0] != 32 {
		t.Errorf("expected one rebalance to 32 shards, got %v", cnt.rebalanceToCalls)
	}
}

// Oversized sample sizes are capped instead of rejected, the counter clamps
// them to its shard count anyway.
func TestAdapterCapsOversizedEstimate(t *testing.T) {
	adapter := NewICounterServerAdapter()
	cnt := &stubCounter{}

	resp := adapter.Handle(common.NewEstimateRequest("visits", math.MaxUint32), cnt)

	if !resp.Ok {
		t.Errorf("expected Ok response, got error: %s", resp.Err)
	}
	if len(cnt.estimateNCalls) != 1 || cnt.estimateNCalls[0] != maxWireShardCount {
		t.Errorf("expected one estimate capped to %d, got %v", maxWireShardCount, cnt.estimateNCalls)
	}
}
