package loghub

import "context"

// ListShards enumerates the store's shards. The shard set may grow over
// time, so results are never cached; call again before each cycle that
// needs the current set.
func (r *Reader) ListShards(ctx context.Context) ([]Shard, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return dispatch(r.disp, ctx, func(wctx context.Context) ([]Shard, error) {
		return withRetriesResult(r.disp, wctx, "ListShards", func() ([]Shard, error) {
			return r.listShards(wctx)
		})
	})
}

// FetchEarliestOffsets resolves the earliest readable position of every
// shard, enumerating shards first. Enumeration and resolution share one
// retry scope: a failure on any shard aborts and retries the whole batch.
func (r *Reader) FetchEarliestOffsets(ctx context.Context) (map[Shard]Cursor, error) {
	return r.fetchOffsets(ctx, "FetchEarliestOffsets", CursorBegin, nil)
}

// FetchEarliestOffsetsFor is FetchEarliestOffsets over a pre-supplied shard
// set, avoiding re-enumeration when shards are already known
func (r *Reader) FetchEarliestOffsetsFor(ctx context.Context, shards []Shard) (map[Shard]Cursor, error) {
	return r.fetchOffsets(ctx, "FetchEarliestOffsetsFor", CursorBegin, shards)
}

// FetchLatestOffsets resolves the latest position of every shard
func (r *Reader) FetchLatestOffsets(ctx context.Context) (map[Shard]Cursor, error) {
	return r.fetchOffsets(ctx, "FetchLatestOffsets", CursorEnd, nil)
}

// FetchLatestOffsetsFor is FetchLatestOffsets over a pre-supplied shard set
func (r *Reader) FetchLatestOffsetsFor(ctx context.Context, shards []Shard) (map[Shard]Cursor, error) {
	return r.fetchOffsets(ctx, "FetchLatestOffsetsFor", CursorEnd, shards)
}

func (r *Reader) fetchOffsets(ctx context.Context, op string, pos CursorPosition, shards []Shard) (map[Shard]Cursor, error) {
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	return dispatch(r.disp, ctx, func(wctx context.Context) (map[Shard]Cursor, error) {
		return withRetriesResult(r.disp, wctx, op, func() (map[Shard]Cursor, error) {
			return r.resolveOffsets(wctx, pos, shards)
		})
	})
}

// listShards performs the raw enumeration call. Must run on the worker.
func (r *Reader) listShards(ctx context.Context) ([]Shard, error) {
	r.metrics.call("ListShards")
	return r.client.ListShards(ctx, r.conf.project, r.conf.store)
}

// resolveOffsets resolves the given symbolic position for every shard,
// enumerating shards when none are supplied. Runs inside the caller's retry
// scope; the first failing shard aborts the batch.
func (r *Reader) resolveOffsets(ctx context.Context, pos CursorPosition, shards []Shard) (map[Shard]Cursor, error) {
	if shards == nil {
		var err error
		shards, err = r.listShards(ctx)
		if err != nil {
			return nil, err
		}
	}

	offsets := make(map[Shard]Cursor, len(shards))
	for _, shard := range shards {
		cursor, err := r.resolvePosition(ctx, shard, pos)
		if err != nil {
			return nil, err
		}
		offsets[shard] = cursor
	}
	return offsets, nil
}

// resolvePosition translates a symbolic position into a concrete cursor:
// first the opaque token, then the service-assigned time for that token.
func (r *Reader) resolvePosition(ctx context.Context, shard Shard, pos CursorPosition) (Cursor, error) {
	r.metrics.call("GetCursor")
	token, err := r.client.GetCursor(ctx, r.conf.project, r.conf.store, shard, pos)
	if err != nil {
		return Cursor{}, err
	}

	r.metrics.call("GetCursorTime")
	t, err := r.client.GetCursorTime(ctx, r.conf.project, r.conf.store, shard, token)
	if err != nil {
		return Cursor{}, err
	}

	return Cursor{Time: t, Token: token}, nil
}
