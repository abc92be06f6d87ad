package serializer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/tallykv/tally/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasName       uint16 = 1 << 0
	hasDelta      uint16 = 1 << 1
	hasShard      uint16 = 1 << 2
	hasShardCount uint16 = 1 << 3
	hasReadFrom   uint16 = 1 << 4
	hasValue      uint16 = 1 << 5
	hasOk         uint16 = 1 << 6
	hasErr        uint16 = 1 << 7
	hasMeta       uint16 = 1 << 8
)

// headerSize is 1 byte for MsgType plus 2 bytes for the field flags
const headerSize = 3

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags
	var flags uint16 = 0

	// Set position for writing
	pos := headerSize // Start after MsgType and flags

	// Handle Name
	if msg.Name != "" {
		flags |= hasName
		nameBytes := []byte(msg.Name)
		nameLen := len(nameBytes)

		// Write name length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(nameLen))
		pos += 4

		// Write name data
		copy(result[pos:pos+nameLen], nameBytes)
		pos += nameLen
	}

	// Handle Delta
	if msg.Delta != 0 {
		flags |= hasDelta
		binary.BigEndian.PutUint64(result[pos:pos+8], math.Float64bits(msg.Delta))
		pos += 8
	}

	// Handle Shard (shard index 0 is valid, presence is signalled by HasShard)
	if msg.HasShard {
		flags |= hasShard
		binary.BigEndian.PutUint32(result[pos:pos+4], msg.Shard)
		pos += 4
	}

	// Handle ShardCount
	if msg.ShardCount > 0 {
		flags |= hasShardCount
		binary.BigEndian.PutUint32(result[pos:pos+4], msg.ShardCount)
		pos += 4
	}

	// Handle ReadFrom
	if msg.ReadFrom > 0 {
		flags |= hasReadFrom
		binary.BigEndian.PutUint32(result[pos:pos+4], msg.ReadFrom)
		pos += 4
	}

	// Handle Value
	if msg.Value != 0 {
		flags |= hasValue
		binary.BigEndian.PutUint64(result[pos:pos+8], math.Float64bits(msg.Value))
		pos += 8
	}

	// Handle Ok (the flag bit itself carries the value)
	if msg.Ok {
		flags |= hasOk
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		errBytes := []byte(msg.Err)
		errLen := len(errBytes)

		// Write error length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(errLen))
		pos += 4

		// Write error data
		copy(result[pos:pos+errLen], errBytes)
		pos += errLen
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		metaLen := len(msg.Meta)

		// Write meta length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(metaLen))
		pos += 4

		// Write meta data
		if metaLen > 0 {
			copy(result[pos:pos+metaLen], msg.Meta)
			pos += metaLen
		}
	}

	// Set flags after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < headerSize {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := binary.BigEndian.Uint16(data[1:3])

	// Initialize read position
	pos := headerSize

	// Read Name if present
	if flags&hasName != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for name length")
		}

		// Read name length
		nameLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(nameLen) > len(data) {
			return fmt.Errorf("data too short for name data")
		}

		// Read name data
		msg.Name = string(data[pos : pos+int(nameLen)])
		pos += int(nameLen)
	} else {
		msg.Name = ""
	}

	// Read Delta if present
	if flags&hasDelta != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for delta")
		}

		msg.Delta = math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.Delta = 0
	}

	// Read Shard if present
	if flags&hasShard != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for shard")
		}

		msg.Shard = binary.BigEndian.Uint32(data[pos : pos+4])
		msg.HasShard = true
		pos += 4
	} else {
		msg.Shard = 0
		msg.HasShard = false
	}

	// Read ShardCount if present
	if flags&hasShardCount != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for shard count")
		}

		msg.ShardCount = binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
	} else {
		msg.ShardCount = 0
	}

	// Read ReadFrom if present
	if flags&hasReadFrom != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for read from")
		}

		msg.ReadFrom = binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4
	} else {
		msg.ReadFrom = 0
	}

	// Read Value if present
	if flags&hasValue != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for value")
		}

		msg.Value = math.Float64frombits(binary.BigEndian.Uint64(data[pos : pos+8]))
		pos += 8
	} else {
		msg.Value = 0
	}

	// Read Ok from the flag bit
	msg.Ok = flags&hasOk != 0

	// Read Err if present
	if flags&hasErr != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for error length")
		}

		// Read error length
		errLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(errLen) > len(data) {
			return fmt.Errorf("data too short for error data")
		}

		// Read error data
		msg.Err = string(data[pos : pos+int(errLen)])
		pos += int(errLen)
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for meta length")
		}

		// Read meta length
		metaLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(metaLen) > len(data) {
			return fmt.Errorf("data too short for meta data")
		}

		// Read metadata - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if msg.Meta == nil || cap(msg.Meta) < int(metaLen) {
			msg.Meta = make([]byte, metaLen)
		} else {
			msg.Meta = msg.Meta[:metaLen]
		}

		if metaLen > 0 {
			copy(msg.Meta, data[pos:pos+int(metaLen)])
		}
		pos += int(metaLen)
	} else {
		msg.Meta = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := headerSize

	// Add sizes for fields that require length encoding
	if msg.Name != "" {
		size += 4 + len(msg.Name) // 4 bytes for length + name string
	}
	if msg.Delta != 0 {
		size += 8 // float64 bits
	}
	if msg.HasShard {
		size += 4 // uint32
	}
	if msg.ShardCount > 0 {
		size += 4 // uint32
	}
	if msg.ReadFrom > 0 {
		size += 4 // uint32
	}
	if msg.Value != 0 {
		size += 8 // float64 bits
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}
