// Package loghub implements the offset reader and histogram rate limiter
// for a shard-partitioned, append-only log store.
//
// A Reader drives micro-batch or continuous consumption without overrunning
// a per-cycle record budget: it enumerates shards, resolves symbolic
// positions ("earliest", "latest") into concrete (time, token) cursors, and
// computes safe ending positions from coarse histogram sampling instead of
// exact record counts.
//
// The remote client is consumed through the narrow Client capability
// interface and is neither reentrant nor interruption-safe, so every remote
// call is funneled through one dedicated worker goroutine per Reader, with
// a bounded fixed-interval retry discipline around each logical operation.
// Client handles are shared process-wide through pkg/clientpool, keyed by
// (accessKeyID, endpoint).
//
// Typical use from a host engine:
//
//	reader, err := loghub.NewReader(conf, factory)
//	if err != nil { ... }
//	defer reader.Close()
//
//	start, _ := reader.FetchEarliestOffsets(ctx)
//	for {
//		end, err := reader.RateLimit(ctx, offset, maxRecordsPerCycle)
//		// read [offset, end), checkpoint, advance
//	}
//
// Positions are checkpointed by the host engine; this package persists
// nothing.
package loghub
