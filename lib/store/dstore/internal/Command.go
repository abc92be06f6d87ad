package internal

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tallykv/tally/lib/shards"
)

// CommandType defines the possible operations for the state machine.
type CommandType uint8

const (
	CommandTApply  CommandType = iota // Atomically add a delta to a shard record.
	CommandTPut                       // Insert or overwrite a shard record.
	CommandTDelete                    // Delete a shard record.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTApply:
		return "Apply"
	case CommandTPut:
		return "Put"
	case CommandTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToDBFeature converts a CommandType to the corresponding shards.Feature.
// This can be used for checking if the engine supports a certain operation.
func (ct CommandType) ToDBFeature() (shards.Feature, error) {
	switch ct {
	case CommandTApply:
		return shards.FeatureApply, nil
	case CommandTPut:
		return shards.FeaturePut, nil
	case CommandTDelete:
		return shards.FeatureDelete, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// Command represents a command to be executed by the state machine (a single entry in the raft log)
type Command struct {
	Type  CommandType
	Name  string
	Shard uint32
	Value float64 // delta for Apply, absolute value for Put, unused for Delete
}

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return 1 + 8 + 4 + 4 + len(command.Name) // Type + Value + Shard + NameLen + Name
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 8 bytes for the value (IEEE 754 bits, big endian),
// 4 bytes for the shard index (big endian),
// 4 bytes for name length (big endian),
// N bytes for name data
func (command *Command) Serialize() []byte {
	// Use SizeBytes to calculate the total size needed
	totalSize := command.SizeBytes()

	result := make([]byte, totalSize)

	// Set operation type
	result[0] = byte(command.Type)

	// Set value and shard index
	binary.BigEndian.PutUint64(result[1:9], math.Float64bits(command.Value))
	binary.BigEndian.PutUint32(result[9:13], command.Shard)

	// Set name length (4 bytes, big endian)
	binary.BigEndian.PutUint32(result[13:17], uint32(len(command.Name)))

	// Copy name bytes
	copy(result[17:], command.Name)

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	// Minimum size: 1 (Type) + 8 (Value) + 4 (Shard) + 4 (NameLen) = 17 bytes
	if len(data) < 17 {
		return fmt.Errorf("data too short for command")
	}

	// Extract operation type
	command.Type = CommandType(data[0])

	// Extract value and shard index
	command.Value = math.Float64frombits(binary.BigEndian.Uint64(data[1:9]))
	command.Shard = binary.BigEndian.Uint32(data[9:13])

	// Extract name length
	nameLen := binary.BigEndian.Uint32(data[13:17])

	// Validate name length
	if len(data) < 17+int(nameLen) {
		return fmt.Errorf("data too short for name of length %d", nameLen)
	}

	// Extract name
	command.Name = string(data[17 : 17+nameLen])

	return nil
}

// EncodeResultValue encodes the result of an Apply command (the new record value)
// for transport in a state machine result.
func EncodeResultValue(value float64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, math.Float64bits(value))
	return buf
}

// DecodeResultValue decodes the result of an Apply command.
func DecodeResultValue(data []byte) (float64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("invalid result value length %d", len(data))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data)), nil
}
