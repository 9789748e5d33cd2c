// Package clientpool provides a keyed pool of remote-client handles shared
// across reader instances in a process.
package clientpool

import (
	"sync"
	"sync/atomic"
)

// Factory constructs a client handle for a credential/endpoint pair. The
// secret is consumed only at construction time; it does not participate in
// pool keying.
type Factory[T any] func(accessKeyID, accessKeySecret, endpoint string) (T, error)

// Statistics tracks pool usage with atomic counters
type Statistics struct {
	hits    atomic.Int64
	misses  atomic.Int64
	creates atomic.Int64
}

// Hits returns the number of lookups served from the pool
func (s *Statistics) Hits() int64 { return s.hits.Load() }

// Misses returns the number of lookups that required creation
func (s *Statistics) Misses() int64 { return s.misses.Load() }

// Creates returns the number of handles constructed by the factory
func (s *Statistics) Creates() int64 { return s.creates.Load() }

// Pool is a process-wide cache of client handles keyed by
// (accessKeyID, endpoint). Entries live until explicitly removed; there is
// no automatic expiry. Lookups are safe for concurrent use across reader
// instances; all mutating operations serialize on one lock.
//
// The key deliberately excludes the secret: the same (accessKeyID, endpoint)
// pair always yields the same live handle even if callers present a
// different secret later. Rotating a secret for a fixed pair requires
// evicting the entry first.
type Pool[T any] struct {
	mu      sync.RWMutex
	clients map[string]T
	stats   *Statistics
	metrics *poolMetrics
}

// Option configures a Pool
type Option[T any] func(*Pool[T])

// New creates an empty pool
func New[T any](opts ...Option[T]) *Pool[T] {
	p := &Pool[T]{
		clients: make(map[string]T),
		stats:   &Statistics{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func key(accessKeyID, endpoint string) string {
	return accessKeyID + "@" + endpoint
}

// GetOrCreate returns the pooled handle for (accessKeyID, endpoint),
// constructing and storing one via the factory if absent. The secret is
// only used when a new handle is constructed.
func (p *Pool[T]) GetOrCreate(accessKeyID, accessKeySecret, endpoint string, factory Factory[T]) (T, error) {
	k := key(accessKeyID, endpoint)

	p.mu.RLock()
	client, ok := p.clients[k]
	p.mu.RUnlock()
	if ok {
		p.hit()
		return client, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another caller may have created the handle while we waited for the lock
	if client, ok = p.clients[k]; ok {
		p.hit()
		return client, nil
	}

	p.miss()
	client, err := factory(accessKeyID, accessKeySecret, endpoint)
	if err != nil {
		var zero T
		return zero, err
	}
	p.clients[k] = client
	p.created(len(p.clients))
	return client, nil
}

// Set inserts or overrides the handle for (accessKeyID, endpoint).
// Intended for tests.
func (p *Pool[T]) Set(accessKeyID, endpoint string, client T) {
	p.mu.Lock()
	p.clients[key(accessKeyID, endpoint)] = client
	size := len(p.clients)
	p.mu.Unlock()
	p.resized(size)
}

// Delete removes the handle for (accessKeyID, endpoint), reporting whether
// an entry existed. Intended for tests and secret rotation.
func (p *Pool[T]) Delete(accessKeyID, endpoint string) bool {
	k := key(accessKeyID, endpoint)
	p.mu.Lock()
	_, ok := p.clients[k]
	delete(p.clients, k)
	size := len(p.clients)
	p.mu.Unlock()
	p.resized(size)
	return ok
}

// Clear removes every entry. Intended for tests.
func (p *Pool[T]) Clear() {
	p.mu.Lock()
	p.clients = make(map[string]T)
	p.mu.Unlock()
	p.resized(0)
}

// Size returns the current number of pooled handles
func (p *Pool[T]) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}

// Keys returns the keys of all pooled handles
func (p *Pool[T]) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.clients))
	for k := range p.clients {
		keys = append(keys, k)
	}
	return keys
}

// Stats returns pool usage statistics
func (p *Pool[T]) Stats() *Statistics {
	return p.stats
}

func (p *Pool[T]) hit() {
	p.stats.hits.Add(1)
	if p.metrics != nil {
		p.metrics.hits.Inc()
	}
}

func (p *Pool[T]) miss() {
	p.stats.misses.Add(1)
	if p.metrics != nil {
		p.metrics.misses.Inc()
	}
}

func (p *Pool[T]) created(size int) {
	p.stats.creates.Add(1)
	if p.metrics != nil {
		p.metrics.creates.Inc()
		p.metrics.size.Set(float64(size))
	}
}

func (p *Pool[T]) resized(size int) {
	if p.metrics != nil {
		p.metrics.size.Set(float64(size))
	}
}
