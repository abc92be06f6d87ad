package serializer

import (
	"reflect"
	"testing"

	"github.com/tallykv/tally/rpc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Add request
		{
			MsgType: common.MsgTCntAdd,
			Name:    "page-views",
			Delta:   2.5,
		},

		// Add request pinned to a shard
		{
			MsgType:  common.MsgTCntAdd,
			Name:     "page-views",
			Delta:    -1,
			Shard:    7,
			HasShard: true,
		},

		// Count response
		{
			MsgType: common.MsgTCntCount,
			Value:   1234.5,
			Ok:      true,
		},

		// Estimate request
		{
			MsgType:  common.MsgTCntEstimate,
			Name:     "page-views",
			ReadFrom: 4,
		},

		// Rebalance request
		{
			MsgType:    common.MsgTCntRebalance,
			Name:       "page-views",
			ShardCount: 32,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType:    common.MsgTCntAdd,
			Name:       "complete-test-counter",
			Delta:      3.25,
			Shard:      15,
			HasShard:   true,
			ShardCount: 64,
			ReadFrom:   8,
			Value:      99.75,
			Ok:         true,
			Err:        "",
			Meta:       []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				MsgType:    common.MsgTCntAdd,
				Name:       "",
				Delta:      0,
				ShardCount: 0,
				ReadFrom:   0,
				Ok:         false,
				Err:        "",
				Meta:       []byte{},
			},
		},
		{
			name: "Message with empty name but Ok=true",
			msg: common.Message{
				MsgType: common.MsgTCntCount,
				Name:    "",
				Ok:      true,
			},
		},
		{
			name: "Message pinned to shard zero",
			msg: common.Message{
				MsgType:  common.MsgTCntAdd,
				Name:     "test",
				Delta:    1,
				Shard:    0,
				HasShard: true,
			},
		},
		{
			name: "Message with negative delta",
			msg: common.Message{
				MsgType: common.MsgTCntAdd,
				Name:    "test",
				Delta:   -42.5,
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// Verify Name
			if tc.msg.Name != result.Name {
				t.Errorf("Name mismatch: expected '%s', got '%s'", tc.msg.Name, result.Name)
			}

			// Verify Delta
			if tc.msg.Delta != result.Delta {
				t.Errorf("Delta mismatch: expected %v, got %v", tc.msg.Delta, result.Delta)
			}

			// Verify Shard and HasShard
			if tc.msg.HasShard != result.HasShard {
				t.Errorf("HasShard mismatch: expected %v, got %v", tc.msg.HasShard, result.HasShard)
			}
			if tc.msg.Shard != result.Shard {
				t.Errorf("Shard mismatch: expected %d, got %d", tc.msg.Shard, result.Shard)
			}

			// Verify ShardCount
			if tc.msg.ShardCount != result.ShardCount {
				t.Errorf("ShardCount mismatch: expected %d, got %d", tc.msg.ShardCount, result.ShardCount)
			}

			// Verify ReadFrom
			if tc.msg.ReadFrom != result.ReadFrom {
				t.Errorf("ReadFrom mismatch: expected %d, got %d", tc.msg.ReadFrom, result.ReadFrom)
			}

			// Verify Value
			if tc.msg.Value != result.Value {
				t.Errorf("Value mismatch: expected %v, got %v", tc.msg.Value, result.Value)
			}

			// Verify Ok
			if tc.msg.Ok != result.Ok {
				t.Errorf("Ok mismatch: expected %v, got %v", tc.msg.Ok, result.Ok)
			}

			// Verify Err
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}

			// Verify MsgType
			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}

			// Special handling for the meta byte slice that may be nil or empty
			if (tc.msg.Meta == nil) != (result.Meta == nil) {
				t.Errorf("Meta nil/non-nil mismatch: expected %v, got %v", tc.msg.Meta, result.Meta)
			} else if tc.msg.Meta != nil && result.Meta != nil {
				if len(tc.msg.Meta) != len(result.Meta) {
					t.Errorf("Meta length mismatch: expected %d, got %d", len(tc.msg.Meta), len(result.Meta))
				} else {
					for i := 0; i < len(tc.msg.Meta); i++ {
						if tc.msg.Meta[i] != result.Meta[i] {
							t.Errorf("Meta content mismatch at index %d", i)
							break
						}
					}
				}
			}
		})
	}
}

// TestInvalidBinaryData tests how the binary serializer handles corrupt or invalid data
func TestInvalidBinaryData(t *testing.T) {
	serializer := NewBinarySerializer()

	testCases := []struct {
		name        string
		data        []byte
		expectError bool
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectError: true,
		},
		{
			name:        "Too short header",
			data:        []byte{1, 0}, // Message type plus only one flag byte
			expectError: true,
		},
		{
			name:        "Valid header only",
			data:        []byte{1, 0, 0}, // Message type 1, no flags
			expectError: false,
		},
		{
			name:        "Invalid length for name",
			data:        []byte{1, 0, 1, 0, 0, 0, 5, 'a', 'b', 'c'}, // Claims name length 5 but only 3 bytes provided
			expectError: true,
		},
		{
			name:        "Missing delta payload",
			data:        []byte{1, 0, 2}, // Delta flag set but no bytes provided
			expectError: true,
		},
		{
			name:        "Missing shard payload",
			data:        []byte{1, 0, 4, 0, 0}, // Shard flag set but only 2 bytes provided
			expectError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var msg common.Message
			err := serializer.Deserialize(tc.data, &msg)

			if tc.expectError && err == nil {
				t.Errorf("Expected error but got none")
			} else if !tc.expectError && err != nil {
				t.Errorf("Did not expect error but got: %v", err)
			}
		})
	}
}
