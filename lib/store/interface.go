package store

import (
	"fmt"

	"github.com/tallykv/tally/lib/shards"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// DBFactory is a function type that creates a new engine used by the store.
// This is used to abstract the creation of the engine from the store implementation.
type DBFactory func() shards.ShardDB

// IShardStore is the generic interface for interacting with a shard-record store.
// All write operations return only an error (nil on success),
// while read operations return the requested data along with an error (nil on success).
type IShardStore interface {
	// Apply atomically adds delta to the record identified by name and shard and
	// returns the resulting value. A missing record is treated as 0, so the first
	// Apply creates the record with value delta.
	Apply(name string, shard uint32, delta float64) (newValue float64, err error)
	// Put inserts or overwrites the record identified by name and shard.
	Put(name string, shard uint32, value float64) (err error)
	// Delete removes the record identified by name and shard.
	// Deleting a missing record is a no-op, not an error.
	Delete(name string, shard uint32) (err error)
	// Get returns the value of the record identified by name and shard.
	// The boolean return value indicates whether the record exists.
	Get(name string, shard uint32) (value float64, loaded bool, err error)
	// Scan returns all records stored under the given counter name,
	// ordered by ascending shard index.
	Scan(name string) (records []shards.Record, err error)
	// GetDBInfo returns metadata about the engine underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetDBInfo() (info shards.StoreInfo, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCInternalError:
		errorCode = "InternalError"
	case RetCUnsupportedOperation:
		errorCode = "UnsupportedOperation"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	case RetCInvalidConfig:
		errorCode = "InvalidConfig"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("ShardStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new ShardStoreError with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by underlying engine.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCInvalidConfig                       // 4: Invalid configuration.
)
