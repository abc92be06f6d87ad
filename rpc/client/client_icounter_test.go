package client

import (
	"errors"
	"testing"

	"github.com/tallykv/tally/lib/store"
	"github.com/tallykv/tally/rpc/common"
	"github.com/tallykv/tally/rpc/serializer"
)

// recordingTransport captures outgoing requests and replies with a canned
// response, so client behavior can be tested without a server.
type recordingTransport struct {
	requests [][]byte
	response []byte
}

func (t *recordingTransport) Connect(_ common.ClientConfig) error { return nil }

func (t *recordingTransport) Send(_ uint64, req []byte) ([]byte, error) {
	t.requests = append(t.requests, req)
	return t.response, nil
}

func (t *recordingTransport) Close() error { return nil }

// newTestCounter wires an RPC counter to a recording transport that always
// answers with the given response message.
func newTestCounter(t *testing.T, response *common.Message) (*recordingTransport, *rpcCounter) {
	t.Helper()

	s := serializer.NewJSONSerializer()
	respBytes, err := s.Serialize(*response)
	if err != nil {
		t.Fatalf("failed to serialize response: %v", err)
	}

	transport := &recordingTransport{response: respBytes}
	cnt := &rpcCounter{
		rpcClientAdapter{
			shardId:    100,
			config:     common.ClientConfig{},
			transport:  transport,
			serializer: s,
		},
	}
	return transport, cnt
}

// Non-positive sample and shard counts must be rejected before anything is
// sent: converted to uint32 they would wrap to values around 4.29e9 and ask
// the server for a multi-billion-shard operation.
func TestRPCCounterRejectsInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		call func(cnt *rpcCounter) error
	}{
		{"EstimateCountN zero", func(cnt *rpcCounter) error {
			_, err := cnt.EstimateCountN("visits", 0)
			return err
		}},
		{"EstimateCountN negative", func(cnt *rpcCounter) error {
			_, err := cnt.EstimateCountN("visits", -1)
			return err
		}},
		{"RebalanceTo zero", func(cnt *rpcCounter) error {
			return cnt.RebalanceTo("visits", 0)
		}},
		{"RebalanceTo negative", func(cnt *rpcCounter) error {
			return cnt.RebalanceTo("visits", -1)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport, cnt := newTestCounter(t, common.NewRebalanceResponse(nil))

			err := tt.call(cnt)
			if err == nil {
				t.Fatal("expected an error, got nil")
			}

			var storeErr *store.Error
			if !errors.As(err, &storeErr) {
				t.Fatalf("expected a *store.Error, got %T: %v", err, err)
			}
			if storeErr.Code != store.RetCInvalidOperation {
				t.Errorf("expected RetCInvalidOperation, got %v", storeErr.Code)
			}

			if len(transport.requests) != 0 {
				t.Errorf("expected no request to be sent, got %d", len(transport.requests))
			}
		})
	}
}

// Valid arguments must reach the wire unchanged.
func TestRPCCounterWireArguments(t *testing.T) {
	s := serializer.NewJSONSerializer()

	t.Run("RebalanceTo", func(t *testing.T) {
		transport, cnt := newTestCounter(t, common.NewRebalanceResponse(nil))

		if err := cnt.RebalanceTo("visits", 4); err != nil {
			t.Fatalf("RebalanceTo failed: %v", err)
		}
		if len(transport.requests) != 1 {
			t.Fatalf("expected one request, got %d", len(transport.requests))
		}

		var req common.Message
		if err := s.Deserialize(transport.requests[0], &req); err != nil {
			t.Fatalf("failed to deserialize request: %v", err)
		}
		if req.MsgType != common.MsgTCntRebalance {
			t.Errorf("expected MsgTCntRebalance, got %v", req.MsgType)
		}
		if req.Name != "visits" {
			t.Errorf("expected name visits, got %s", req.Name)
		}
		if req.ShardCount != 4 {
			t.Errorf("expected shard count 4, got %d", req.ShardCount)
		}
	})

	t.Run("EstimateCountN", func(t *testing.T) {
		transport, cnt := newTestCounter(t, common.NewEstimateResponse(42, nil))

		val, err := cnt.EstimateCountN("visits", 3)
		if err != nil {
			t.Fatalf("EstimateCountN failed: %v", err)
		}
		if val != 42 {
			t.Errorf("expected value 42, got %g", val)
		}
		if len(transport.requests) != 1 {
			t.Fatalf("expected one request, got %d", len(transport.requests))
		}

		var req common.Message
		if err := s.Deserialize(transport.requests[0], &req); err != nil {
			t.Fatalf("failed to deserialize request: %v", err)
		}
		if req.MsgType != common.MsgTCntEstimate {
			t.Errorf("expected MsgTCntEstimate, got %v", req.MsgType)
		}
		if req.ReadFrom != 3 {
			t.Errorf("expected read-from 3, got %d", req.ReadFrom)
		}
	})
}
