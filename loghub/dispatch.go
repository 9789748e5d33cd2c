package loghub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	sdkerrors "github.com/uncleGen/aliyun-spark-sdk/errors"
	"github.com/uncleGen/aliyun-spark-sdk/pkg/retry"
)

// workerKey marks contexts handed to tasks running on a dispatcher's worker
type workerKey struct{}

// dispatcher funnels every remote-client call onto one dedicated worker
// goroutine. The remote client is neither reentrant nor safe to call from
// multiple goroutines, so tasks are serialized on the worker, and retry
// sequences additionally hold an instance lock so concurrent logical calls
// into the same reader never interleave attempts.
type dispatcher struct {
	tasks   chan func(context.Context)
	root    context.Context
	cancel  context.CancelFunc
	stopped chan struct{}

	retryMu       sync.Mutex
	maxAttempts   int
	retryInterval time.Duration

	logger  *slog.Logger
	metrics *readerMetrics
}

func newDispatcher(maxAttempts int, retryInterval time.Duration, logger *slog.Logger, metrics *readerMetrics) *dispatcher {
	root, cancel := context.WithCancel(context.Background())
	d := &dispatcher{
		tasks:         make(chan func(context.Context)),
		root:          root,
		cancel:        cancel,
		stopped:       make(chan struct{}),
		maxAttempts:   maxAttempts,
		retryInterval: retryInterval,
		logger:        logger,
		metrics:       metrics,
	}
	go d.loop()
	return d
}

// loop is the dedicated worker. It exits once the root context is canceled
// and any raced-in tasks have been drained; queued callers are never left
// blocked on a reply that will not come.
func (d *dispatcher) loop() {
	defer close(d.stopped)
	ctx := context.WithValue(d.root, workerKey{}, d)
	for {
		select {
		case <-d.root.Done():
			for {
				select {
				case fn := <-d.tasks:
					fn(ctx)
				default:
					return
				}
			}
		case fn := <-d.tasks:
			fn(ctx)
		}
	}
}

// close stops the worker and interrupts any in-flight retry sequence
func (d *dispatcher) close() {
	d.cancel()
	<-d.stopped
}

// onWorker reports whether ctx belongs to a task running on this
// dispatcher's worker
func (d *dispatcher) onWorker(ctx context.Context) bool {
	v, _ := ctx.Value(workerKey{}).(*dispatcher)
	return v == d
}

// dispatch runs fn on d's worker and blocks until it completes. The wait on
// the worker is unbounded; cancellation of the caller's ctx propagates into
// the running task rather than abandoning it. A call already on the worker
// executes inline, so nested operations cannot deadlock.
func dispatch[T any](d *dispatcher, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	if d.onWorker(ctx) {
		return fn(ctx)
	}

	var zero T
	if d.root.Err() != nil {
		return zero, sdkerrors.WrapContract(sdkerrors.ErrReaderClosed, "dispatcher", "dispatch", "submit task")
	}

	type result struct {
		val T
		err error
	}
	reply := make(chan result, 1)
	task := func(wctx context.Context) {
		mctx, cancel := context.WithCancel(wctx)
		stop := context.AfterFunc(ctx, cancel)
		v, err := fn(mctx)
		stop()
		cancel()
		reply <- result{v, err}
	}

	select {
	case d.tasks <- task:
	case <-d.root.Done():
		return zero, sdkerrors.WrapContract(sdkerrors.ErrReaderClosed, "dispatcher", "dispatch", "submit task")
	}

	res := <-reply
	return res.val, res.err
}

// withRetries wraps a remote call in the bounded fixed-interval retry
// discipline. It must run on the dispatcher's worker; invocation elsewhere
// is an illegal state, not a data error. The retry lock is held for the
// whole sequence. Only transient failures are retried; exhaustion re-raises
// the last failure verbatim, and cancellation aborts immediately with a
// distinct interruption error.
func (d *dispatcher) withRetries(ctx context.Context, op string, fn func() error) error {
	if !d.onWorker(ctx) {
		return sdkerrors.WrapContract(sdkerrors.ErrOffWorker, "dispatcher", op, "enforce worker affinity")
	}

	d.retryMu.Lock()
	defer d.retryMu.Unlock()

	return retry.Do(ctx, retry.Config{
		MaxAttempts: d.maxAttempts,
		Interval:    d.retryInterval,
		Retryable:   sdkerrors.IsRetryable,
		OnRetry: func(attempt int, err error) {
			d.logger.Warn("remote call failed, retrying",
				"op", op,
				"attempt", attempt,
				"maxAttempts", d.maxAttempts,
				"error", err)
			if d.metrics != nil {
				d.metrics.retries.Inc()
			}
		},
	}, fn)
}

// withRetriesResult is withRetries for calls that produce a value
func withRetriesResult[T any](d *dispatcher, ctx context.Context, op string, fn func() (T, error)) (T, error) {
	var result T
	err := d.withRetries(ctx, op, func() error {
		var innerErr error
		result, innerErr = fn()
		return innerErr
	})
	return result, err
}
