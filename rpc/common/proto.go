package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Name       string  `json:"name,omitempty"`       // Counter name, used by all counter operations
	Delta      float64 `json:"delta,omitempty"`      // Used for: Add requests
	Shard      uint32  `json:"shard,omitempty"`      // Used for: Add requests (pinned shard), Add responses (chosen shard)
	HasShard   bool    `json:"hasShard,omitempty"`   // True if Shard is set (a shard index of 0 is valid)
	ShardCount uint32  `json:"shardCount,omitempty"` // Used for: Rebalance requests (target shard count, 0 means configured default)
	ReadFrom   uint32  `json:"readFrom,omitempty"`   // Used for: Estimate requests (shards to sample, 0 means configured default)
	Value      float64 `json:"value,omitempty"`      // Used for: Add, Count, Estimate responses

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: responses, true if the operation succeeded
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewAddRequest creates a new Add request. The shard is chosen by the server.
func NewAddRequest(name string, delta float64) *Message {
	return &Message{
		MsgType: MsgTCntAdd,
		Name:    name,
		Delta:   delta,
	}
}

// NewAddPinnedRequest creates a new Add request pinned to a specific shard
func NewAddPinnedRequest(name string, delta float64, shard uint32) *Message {
	return &Message{
		MsgType:  MsgTCntAdd,
		Name:     name,
		Delta:    delta,
		Shard:    shard,
		HasShard: true,
	}
}

// NewAddResponse creates a new Add response containing the shard that was written
func NewAddResponse(shard uint32, err error) *Message {
	msg := &Message{
		MsgType:  MsgTCntAdd,
		Shard:    shard,
		HasShard: true,
		Ok:       err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCountRequest creates a new Count request
func NewCountRequest(name string) *Message {
	return &Message{
		MsgType: MsgTCntCount,
		Name:    name,
	}
}

// NewCountResponse creates a new Count response
func NewCountResponse(value float64, err error) *Message {
	msg := &Message{
		MsgType: MsgTCntCount,
		Value:   value,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewEstimateRequest creates a new Estimate request. A readFrom of 0 means
// the server uses its configured default.
func NewEstimateRequest(name string, readFrom uint32) *Message {
	return &Message{
		MsgType:  MsgTCntEstimate,
		Name:     name,
		ReadFrom: readFrom,
	}
}

// NewEstimateResponse creates a new Estimate response
func NewEstimateResponse(value float64, err error) *Message {
	msg := &Message{
		MsgType: MsgTCntEstimate,
		Value:   value,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewRebalanceRequest creates a new Rebalance request. A shardCount of 0
// means the server rebalances over its configured shard count.
func NewRebalanceRequest(name string, shardCount uint32) *Message {
	return &Message{
		MsgType:    MsgTCntRebalance,
		Name:       name,
		ShardCount: shardCount,
	}
}

// NewRebalanceResponse creates a new Rebalance response
func NewRebalanceResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTCntRebalance,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewResetRequest creates a new Reset request
func NewResetRequest(name string) *Message {
	return &Message{
		MsgType: MsgTCntReset,
		Name:    name,
	}
}

// NewResetResponse creates a new Reset response
func NewResetResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTCntReset,
		Ok:      err == nil,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTCntAdd:
		return "add"
	case MsgTCntCount:
		return "count"
	case MsgTCntEstimate:
		return "estimate"
	case MsgTCntRebalance:
		return "rebalance"
	case MsgTCntReset:
		return "reset"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "add":
		*t = MsgTCntAdd
	case "count":
		*t = MsgTCntCount
	case "estimate":
		*t = MsgTCntEstimate
	case "rebalance":
		*t = MsgTCntRebalance
	case "reset":
		*t = MsgTCntReset
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ICounter operations

	MsgTCntAdd       // Add a delta to a counter
	MsgTCntCount     // Read the exact counter value
	MsgTCntEstimate  // Read a sampled estimate of the counter value
	MsgTCntRebalance // Redistribute a counter over its shards
	MsgTCntReset     // Delete all shards of a counter

	// Custom operations

	MsgTCustom // Custom operation type
)
