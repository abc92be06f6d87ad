package serializer

import (
	"strings"
	"testing"

	"github.com/tallykv/tally/rpc/common"
)

// benchmarkMessages returns a set of messages for targeted benchmarking
func benchmarkMessages() map[string]common.Message {
	return map[string]common.Message{
		"Empty": {
			MsgType: common.MsgTSuccess,
		},
		"SmallNameOnly": {
			MsgType: common.MsgTCntCount,
			Name:    "c",
		},
		"MediumNameOnly": {
			MsgType: common.MsgTCntCount,
			Name:    "medium-length-counter-name-for-testing",
		},
		"LargeNameOnly": {
			MsgType: common.MsgTCntCount,
			Name:    "this-is-a-very-large-counter-name-that-could-be-used-for-per-document-or-per-user-counters-in-some-cases",
		},
		"AddRequest": {
			MsgType: common.MsgTCntAdd,
			Name:    "page-views",
			Delta:   1,
		},
		"PinnedAddRequest": {
			MsgType:  common.MsgTCntAdd,
			Name:     "page-views",
			Delta:    2.5,
			Shard:    12,
			HasShard: true,
		},
		"EstimateRequest": {
			MsgType:  common.MsgTCntEstimate,
			Name:     "page-views",
			ReadFrom: 4,
		},
		"CountResponse": {
			MsgType: common.MsgTCntCount,
			Value:   123456.789,
			Ok:      true,
		},
		"CompleteMessage": {
			MsgType:    common.MsgTCntAdd,
			Name:       "complete-test-counter",
			Delta:      3.25,
			Shard:      15,
			HasShard:   true,
			ShardCount: 64,
			ReadFrom:   8,
			Value:      99.75,
			Ok:         true,
			Err:        "This is a test error message",
			Meta:       []byte("test-meta-data-for-benchmarking"),
		},
		"ErrorMessage": {
			MsgType: common.MsgTError,
			Err:     strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. ", 2),
		},
	}
}

// BenchmarkSerialize benchmarks serialization for all implementations with various message types
func BenchmarkSerialize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					_, err := serializer.Serialize(msg)
					if err != nil {
						b.Fatalf("Failed to serialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDeserialize benchmarks deserialization for all implementations with various message types
func BenchmarkDeserialize(b *testing.B) {
	messages := benchmarkMessages()
	serializedData := make(map[string]map[string][]byte)

	// Pre-serialize all messages with all serializers
	for name, factory := range testSerializers {
		serializer := factory()
		serializedData[name] = make(map[string][]byte)

		for msgName, msg := range messages {
			data, err := serializer.Serialize(msg)
			if err != nil {
				b.Fatalf("Failed to serialize %s with %s: %v", msgName, name, err)
			}
			serializedData[name][msgName] = data
		}
	}

	// Benchmark deserialization
	for name, factory := range testSerializers {
		for msgName := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				serializer := factory()
				data := serializedData[name][msgName]
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					var msg common.Message
					err := serializer.Deserialize(data, &msg)
					if err != nil {
						b.Fatalf("Failed to deserialize: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkSize measures and reports the serialized size for each message type
func BenchmarkSize(b *testing.B) {
	messages := benchmarkMessages()

	for name, factory := range testSerializers {
		serializer := factory()

		for msgName, msg := range messages {
			b.Run(name+"_"+msgName, func(b *testing.B) {
				data, err := serializer.Serialize(msg)
				if err != nil {
					b.Fatalf("Failed to serialize: %v", err)
				}

				// Report the size as a custom metric
				b.ReportMetric(float64(len(data)), "bytes")

				// Minimal loop to satisfy benchmark requirements
				for i := 0; i < b.N; i++ {
					_ = data
				}
			})
		}
	}
}
