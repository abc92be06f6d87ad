package internal

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet       QueryType = iota // Retrieve a single shard record.
	QueryTScan                       // Retrieve all shard records of a counter.
	QueryTGetDBInfo                  // Retrieve metadata about the engine underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTScan:
		return "Scan"
	case QueryTGetDBInfo:
		return "GetDBInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or ReadStale
type Query struct {
	Type  QueryType // The type of Query to perform.
	Name  string    // The counter name for the Query (empty for some queries).
	Shard uint32    // The shard index for the Query (only used by QueryTGet).
}

// QueryResult is the result of a QueryTGet operation.
// All other query results are primitive types or predefined structs ([]shards.Record, shards.StoreInfo).
type QueryResult struct {
	Ok    bool
	Value float64
}
