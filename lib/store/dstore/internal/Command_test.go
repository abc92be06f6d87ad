package internal

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// TestSizeBytes tests the SizeBytes method
func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		command  Command
		expected int
	}{
		{
			name: "Command with name",
			command: Command{
				Type:  CommandTApply,
				Name:  "visits",
				Shard: 3,
				Value: 1.5,
			},
			expected: 1 + 8 + 4 + 4 + 6, // Type + Value + Shard + NameLen + Name
		},
		{
			name: "Command with empty name",
			command: Command{
				Type:  CommandTDelete,
				Name:  "",
				Shard: 0,
			},
			expected: 1 + 8 + 4 + 4 + 0, // Type + Value + Shard + NameLen + Name
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			size := tt.command.SizeBytes()
			if size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
		})
	}
}

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Standard apply command",
			command: Command{
				Type:  CommandTApply,
				Name:  "visits",
				Shard: 7,
				Value: 2.5,
			},
		},
		{
			name: "Put command with negative value",
			command: Command{
				Type:  CommandTPut,
				Name:  "balance",
				Shard: 0,
				Value: -123.75,
			},
		},
		{
			name: "Delete command without value",
			command: Command{
				Type:  CommandTDelete,
				Name:  "visits",
				Shard: 15,
			},
		},
		{
			name: "Command with empty name",
			command: Command{
				Type:  CommandTApply,
				Name:  "",
				Shard: 1,
				Value: 1,
			},
		},
		{
			name: "Command with max shard index",
			command: Command{
				Type:  CommandTApply,
				Name:  "visits",
				Shard: math.MaxUint32,
				Value: 1,
			},
		},
		{
			name: "Command with extreme values",
			command: Command{
				Type:  CommandTPut,
				Name:  "extreme",
				Shard: 2,
				Value: math.MaxFloat64,
			},
		},
		{
			name: "Command with Unicode name",
			command: Command{
				Type:  CommandTApply,
				Name:  "你好世界", // Hello World in Chinese
				Shard: 4,
				Value: 0.125,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Serialize
			data := tt.command.Serialize()

			// Deserialize into a new command
			var newCommand Command
			err := newCommand.Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			// Compare original and deserialized command
			if newCommand.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", newCommand.Type, tt.command.Type)
			}
			if newCommand.Name != tt.command.Name {
				t.Errorf("Name mismatch: got %q, want %q", newCommand.Name, tt.command.Name)
			}
			if newCommand.Shard != tt.command.Shard {
				t.Errorf("Shard mismatch: got %v, want %v", newCommand.Shard, tt.command.Shard)
			}
			if newCommand.Value != tt.command.Value {
				t.Errorf("Value mismatch: got %v, want %v", newCommand.Value, tt.command.Value)
			}

			// Verify that SizeBytes matches the serialized data length
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectedErr: "data too short for command",
		},
		{
			name:        "Data too short (less than header)",
			data:        []byte{1, 2, 3, 4, 5},
			expectedErr: "data too short for command",
		},
		{
			name: "Invalid name length",
			data: func() []byte {
				data := make([]byte, 17) // Just the header
				data[0] = byte(CommandTApply)
				// Set name length to a large value that exceeds the data
				binary.BigEndian.PutUint32(data[13:17], 1000)
				return data
			}(),
			expectedErr: "data too short for name of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)

			// Check if we got the expected error
			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	// Create a command
	cmd := Command{
		Type:  CommandTApply,
		Name:  "visits",
		Shard: 12345,
		Value: 2.5,
	}

	// Manually create the expected byte array
	expected := make([]byte, cmd.SizeBytes())
	// Type
	expected[0] = byte(CommandTApply)
	// Value
	binary.BigEndian.PutUint64(expected[1:9], math.Float64bits(2.5))
	// Shard
	binary.BigEndian.PutUint32(expected[9:13], 12345)
	// Name length
	binary.BigEndian.PutUint32(expected[13:17], 6) // "visits" length
	// Name
	copy(expected[17:23], "visits")

	// Serialize and compare
	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestResultValueRoundTrip tests encoding and decoding of Apply results
func TestResultValueRoundTrip(t *testing.T) {
	for _, value := range []float64{0, 1, -2.5, math.MaxFloat64, math.SmallestNonzeroFloat64} {
		decoded, err := DecodeResultValue(EncodeResultValue(value))
		if err != nil {
			t.Fatalf("DecodeResultValue() error = %v", err)
		}
		if decoded != value {
			t.Errorf("Result value mismatch: got %v, want %v", decoded, value)
		}
	}

	// invalid lengths must fail
	if _, err := DecodeResultValue([]byte{1, 2, 3}); err == nil {
		t.Errorf("Expected error for short result value")
	}
	if _, err := DecodeResultValue(nil); err == nil {
		t.Errorf("Expected error for nil result value")
	}
}
