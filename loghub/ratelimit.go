package loghub

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	sdkerrors "github.com/uncleGen/aliyun-spark-sdk/errors"
)

const (
	// lowLagThreshold is the backlog age, in seconds, under which the
	// whole backlog is consumed without a histogram estimate
	lowLagThreshold = 60

	fineBucketWidth   = 60
	coarseBucketWidth = 300
	maxFineWindow     = 300
	maxCoarseWindow   = 21600

	// maxIncompleteRetries bounds the immediate re-queries of a histogram
	// range the service reports as incomplete
	maxIncompleteRetries = 10

	histogramQuery = ""
	histogramTopic = "*"
)

// RateLimit computes, for the given starting position and per-cycle record
// budget, the farthest ending position (epoch seconds) that keeps the cycle
// under budget. Exact counting would require scanning the store; histogram
// sampling trades bounded statistical error for a handful of range queries.
//
// When the backlog is at most a minute old the budget is not applied: the
// minimum latest position across shards is returned and everything
// currently available is consumed. On the histogram path maxRecords must be
// positive; passing it as zero or negative there is a caller contract
// violation. The returned position is always >= startOffset.
func (r *Reader) RateLimit(ctx context.Context, startOffset int64, maxRecords int) (int64, error) {
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	if r.metrics != nil {
		timer := prometheus.NewTimer(r.metrics.rateLimitDuration)
		defer timer.ObserveDuration()
	}
	return dispatch(r.disp, ctx, func(wctx context.Context) (int64, error) {
		return withRetriesResult(r.disp, wctx, "RateLimit", func() (int64, error) {
			return r.rateLimit(wctx, startOffset, maxRecords)
		})
	})
}

// rateLimit runs on the worker, inside one retry scope. It must not
// re-enter withRetries: the retry lock is already held.
func (r *Reader) rateLimit(ctx context.Context, startOffset int64, maxRecords int) (int64, error) {
	lag := r.clock.Now().Unix() - startOffset

	if lag <= lowLagThreshold {
		return r.minLatestOffset(ctx, startOffset)
	}

	if maxRecords <= 0 {
		return 0, sdkerrors.WrapContract(sdkerrors.ErrMissingBudget, "Reader", "RateLimit", "validate budget")
	}

	if r.histCache == nil || maxCoveredTime(r.histCache) <= startOffset {
		buckets, err := r.selectRange(ctx, startOffset, lag)
		if err != nil {
			return 0, err
		}
		r.histCache = buckets
	}

	var total int64
	end := startOffset
	for _, b := range r.histCache {
		if b.From < startOffset {
			continue
		}
		if total >= int64(maxRecords) {
			break
		}
		total += b.Count
		end = b.To
	}

	if end < startOffset {
		return 0, endBeforeStart("RateLimit", end, startOffset)
	}
	return end, nil
}

// minLatestOffset resolves the latest position of every shard and returns
// the minimum time across them: with a small backlog the reader consumes
// everything currently available.
func (r *Reader) minLatestOffset(ctx context.Context, startOffset int64) (int64, error) {
	latest, err := r.resolveOffsets(ctx, CursorEnd, nil)
	if err != nil {
		return 0, err
	}
	if len(latest) == 0 {
		return 0, sdkerrors.WrapIntegrity(sdkerrors.ErrNoShards, "Reader", "RateLimit", "resolve latest offsets")
	}

	first := true
	var end int64
	for _, cursor := range latest {
		if first || cursor.Time < end {
			end = cursor.Time
			first = false
		}
	}

	if end < startOffset {
		return 0, endBeforeStart("RateLimit", end, startOffset)
	}
	return end, nil
}

// selectRange queries consecutive histogram buckets covering the unread
// window behind startOffset. Far backlogs use coarse 300s buckets over at
// most six hours; near backlogs use fine 60s buckets over at most five
// minutes, keeping resolution high near the frontier without inflating call
// volume further back.
func (r *Reader) selectRange(ctx context.Context, startOffset, lag int64) ([]HistogramBucket, error) {
	width := int64(fineBucketWidth)
	window := min(lag, maxFineWindow)
	if lag > maxFineWindow {
		width = coarseBucketWidth
		window = min(lag, maxCoarseWindow)
	}
	count := window / width

	var buckets []HistogramBucket
	for i := int64(0); i < count; i++ {
		b0 := startOffset + i*width
		b1 := b0 + width
		h, err := r.queryHistograms(ctx, b0, b1)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, h.Buckets...)
	}

	if err := validateMonotonic(buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

// queryHistograms fetches one bucket range, re-querying immediately while
// the service reports the batch incomplete. A batch still incomplete after
// the bounded re-queries is tolerated: the estimate degrades, the operation
// does not fail.
func (r *Reader) queryHistograms(ctx context.Context, from, to int64) (Histograms, error) {
	var h Histograms
	for attempt := 0; attempt <= maxIncompleteRetries; attempt++ {
		if r.metrics != nil {
			r.metrics.histogramQueries.Inc()
		}
		var err error
		h, err = r.client.GetHistograms(ctx, r.conf.project, r.conf.store, from, to, histogramQuery, histogramTopic)
		if err != nil {
			return Histograms{}, err
		}
		if h.Complete {
			return h, nil
		}
	}

	r.logger.Warn("histogram batch still incomplete, using approximate counts",
		"from", from,
		"to", to,
		"requeries", maxIncompleteRetries)
	if r.metrics != nil {
		r.metrics.incompleteHistograms.Inc()
	}
	return h, nil
}

// validateMonotonic enforces the service's temporal-ordering promise on a
// concatenated bucket array. A non-increasing fromTime is a data-integrity
// violation, never retried.
func validateMonotonic(buckets []HistogramBucket) error {
	for i := 1; i < len(buckets); i++ {
		if buckets[i].From <= buckets[i-1].From {
			return sdkerrors.WrapIntegrity(
				fmt.Errorf("%w: bucket %d fromTime %d does not advance past %d",
					sdkerrors.ErrNonMonotonic, i, buckets[i].From, buckets[i-1].From),
				"Reader", "selectRange", "validate histogram ordering")
		}
	}
	return nil
}

// maxCoveredTime returns the greatest toTime covered by cached buckets
func maxCoveredTime(buckets []HistogramBucket) int64 {
	var max int64
	for _, b := range buckets {
		if b.To > max {
			max = b.To
		}
	}
	return max
}

func endBeforeStart(op string, end, start int64) error {
	return sdkerrors.WrapIntegrity(
		fmt.Errorf("%w: end %d < start %d", sdkerrors.ErrEndBeforeStart, end, start),
		"Reader", op, "validate end offset")
}
