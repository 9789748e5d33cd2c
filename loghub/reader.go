package loghub

import (
	"log/slog"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	sdkerrors "github.com/uncleGen/aliyun-spark-sdk/errors"
	"github.com/uncleGen/aliyun-spark-sdk/pkg/clientpool"
)

// defaultPool is the process-wide client pool shared by readers that do not
// supply their own. Entries live until evicted or process exit.
var defaultPool = clientpool.New[Client]()

// DefaultPool returns the shared process-wide client pool
func DefaultPool() *clientpool.Pool[Client] {
	return defaultPool
}

// Reader reads offset boundaries from a shard-partitioned, append-only log
// store in bounded increments. It enumerates shards, resolves symbolic
// positions to concrete cursors, and computes, for a starting position and
// a per-cycle record budget, the farthest safe ending position using
// histogram sampling.
//
// All remote calls are funneled through one dedicated worker goroutine; the
// public methods block until the worker completes them. A Reader must not
// be used after Close.
type Reader struct {
	id     string
	conf   readerConfig
	client Client
	pool   *clientpool.Pool[Client]
	disp   *dispatcher

	clock   clock.Clock
	logger  *slog.Logger
	metrics *readerMetrics

	// histCache is only touched from the dispatcher worker, which
	// serializes access; no lock needed.
	histCache []HistogramBucket

	closed atomic.Bool
}

type readerOptions struct {
	pool       *clientpool.Pool[Client]
	clock      clock.Clock
	logger     *slog.Logger
	registerer prometheus.Registerer
}

// Option configures a Reader
type Option func(*readerOptions)

// WithPool uses an isolated client pool instead of the shared default.
// Tests use this to avoid cross-test handle sharing.
func WithPool(pool *clientpool.Pool[Client]) Option {
	return func(o *readerOptions) { o.pool = pool }
}

// WithClock injects the time source used for lag computation
func WithClock(c clock.Clock) Option {
	return func(o *readerOptions) { o.clock = c }
}

// WithLogger sets the structured logger for the reader
func WithLogger(logger *slog.Logger) Option {
	return func(o *readerOptions) { o.logger = logger }
}

// WithRegisterer enables Prometheus metrics on the given registerer
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *readerOptions) { o.registerer = reg }
}

// NewReader validates the configuration eagerly, obtains the remote-client
// handle from the pool, and starts the dedicated worker. Construction fails
// fast with an error naming the first missing required key.
func NewReader(conf map[string]string, factory ClientFactory, opts ...Option) (*Reader, error) {
	cfg, err := parseConfig(conf)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, sdkerrors.WrapConfig(sdkerrors.ErrInvalidConfig, "Reader", "NewReader", "require client factory")
	}

	options := readerOptions{
		pool:   defaultPool,
		clock:  clock.New(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&options)
	}

	client, err := options.pool.GetOrCreate(
		cfg.accessKeyID, cfg.accessKeySecret, cfg.endpoint,
		clientpool.Factory[Client](factory),
	)
	if err != nil {
		return nil, sdkerrors.WrapTransient(err, "Reader", "NewReader", "create client")
	}

	var metrics *readerMetrics
	if options.registerer != nil {
		metrics = newReaderMetrics(options.registerer)
	}

	id := uuid.NewString()
	logger := options.logger.With(
		"reader", id,
		"project", cfg.project,
		"store", cfg.store,
	)

	r := &Reader{
		id:      id,
		conf:    cfg,
		client:  client,
		pool:    options.pool,
		clock:   options.clock,
		logger:  logger,
		metrics: metrics,
	}
	r.disp = newDispatcher(cfg.maxAttempts, cfg.retryInterval, logger, metrics)

	logger.Debug("created loghub reader", "endpoint", cfg.endpoint)
	return r, nil
}

// ID returns the reader's instance identifier, used in log attributes
func (r *Reader) ID() string {
	return r.id
}

// Close stops the dedicated worker, interrupts any in-flight retry
// sequence, and releases the reference to the remote client. The pooled
// handle itself stays alive for other readers. Close is idempotent; any
// other method called after Close fails with ErrReaderClosed.
func (r *Reader) Close() error {
	if !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	r.disp.close()
	r.client = nil
	r.logger.Debug("closed loghub reader")
	return nil
}

func (r *Reader) checkOpen() error {
	if r.closed.Load() {
		return sdkerrors.WrapContract(sdkerrors.ErrReaderClosed, "Reader", "checkOpen", "reject call")
	}
	return nil
}
