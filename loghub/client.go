package loghub

import "context"

// CursorPosition is a symbolic position within a shard
type CursorPosition string

// Symbolic cursor positions understood by the service
const (
	// CursorBegin addresses the oldest record still retained in a shard
	CursorBegin CursorPosition = "begin"
	// CursorEnd addresses the position just past the newest record
	CursorEnd CursorPosition = "end"
)

// Shard identifies a partition of a log store, the unit of parallel reading.
// The set of shards for a store may grow over time and is re-enumerated on
// demand, never cached indefinitely.
type Shard int

// Cursor is a resumption point within a shard. Time is an approximate,
// service-assigned write time in epoch seconds. Token is the only value
// usable to resume reading; it is not stable across service-side compaction
// and must be re-resolved rather than persisted verbatim across long
// intervals.
type Cursor struct {
	Time  int64
	Token string
}

// HistogramBucket is an approximate record count observed in [From, To)
type HistogramBucket struct {
	From  int64
	To    int64
	Count int64
}

// Histograms is a batch of buckets for one queried time range. Complete is
// false when the service could not cover the full range; callers treat an
// incomplete batch as a degraded estimate, not a failure.
type Histograms struct {
	Complete bool
	Buckets  []HistogramBucket
}

// Client is the narrow capability surface of the remote log store consumed
// by the reader. Implementations are not required to be safe for concurrent
// use; the reader funnels every call through one dedicated worker.
type Client interface {
	ListShards(ctx context.Context, project, store string) ([]Shard, error)
	GetCursor(ctx context.Context, project, store string, shard Shard, pos CursorPosition) (string, error)
	GetCursorTime(ctx context.Context, project, store string, shard Shard, token string) (int64, error)
	GetHistograms(ctx context.Context, project, store string, from, to int64, query, topic string) (Histograms, error)
}

// ClientFactory constructs a concrete Client for a credential/endpoint pair
type ClientFactory func(accessKeyID, accessKeySecret, endpoint string) (Client, error)
