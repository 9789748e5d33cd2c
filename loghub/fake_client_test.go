package loghub

import (
	"context"
	"fmt"
	"sync"
)

// fakeClient is a scriptable in-memory Client for tests. Cursor tokens are
// synthesized from the shard and position so GetCursorTime can resolve them
// without real service state.
type fakeClient struct {
	mu sync.Mutex

	shards []Shard
	begin  map[Shard]int64 // earliest time per shard
	end    map[Shard]int64 // latest time per shard

	// histogramFn scripts GetHistograms per queried range
	histogramFn func(from, to int64) (Histograms, error)

	// errFn, when set, is consulted before every call; a non-nil return
	// fails the call
	errFn func(op string) error

	calls     map[string]int
	lastQuery string
	lastTopic string
}

func newFakeClient(shards ...Shard) *fakeClient {
	f := &fakeClient{
		shards: shards,
		begin:  make(map[Shard]int64),
		end:    make(map[Shard]int64),
		calls:  make(map[string]int),
	}
	return f
}

func (f *fakeClient) setRange(shard Shard, earliest, latest int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begin[shard] = earliest
	f.end[shard] = latest
}

func (f *fakeClient) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeClient) record(op string) error {
	f.mu.Lock()
	f.calls[op]++
	errFn := f.errFn
	f.mu.Unlock()
	if errFn != nil {
		return errFn(op)
	}
	return nil
}

func (f *fakeClient) ListShards(_ context.Context, _, _ string) ([]Shard, error) {
	if err := f.record("ListShards"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Shard(nil), f.shards...), nil
}

func (f *fakeClient) GetCursor(_ context.Context, _, _ string, shard Shard, pos CursorPosition) (string, error) {
	if err := f.record("GetCursor"); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d", pos, shard), nil
}

func (f *fakeClient) GetCursorTime(_ context.Context, _, _ string, shard Shard, token string) (int64, error) {
	if err := f.record("GetCursorTime"); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch token {
	case fmt.Sprintf("%s-%d", CursorBegin, shard):
		return f.begin[shard], nil
	case fmt.Sprintf("%s-%d", CursorEnd, shard):
		return f.end[shard], nil
	}
	return 0, fmt.Errorf("unknown token %q for shard %d", token, shard)
}

func (f *fakeClient) GetHistograms(_ context.Context, _, _ string, from, to int64, query, topic string) (Histograms, error) {
	if err := f.record("GetHistograms"); err != nil {
		return Histograms{}, err
	}
	f.mu.Lock()
	f.lastQuery = query
	f.lastTopic = topic
	histogramFn := f.histogramFn
	f.mu.Unlock()
	if histogramFn == nil {
		return Histograms{Complete: true}, nil
	}
	return histogramFn(from, to)
}

// factoryFor returns a ClientFactory that always yields the given client
func factoryFor(c Client) ClientFactory {
	return func(_, _, _ string) (Client, error) {
		return c, nil
	}
}

// testConf returns a valid configuration with fast retries
func testConf() map[string]string {
	return map[string]string{
		KeyProject:         "test-project",
		KeyStore:           "test-store",
		KeyAccessKeyID:     "test-key",
		KeyAccessKeySecret: "test-secret",
		KeyEndpoint:        "cn-hangzhou.example.com",
		KeyRetryIntervalMs: "1",
	}
}
