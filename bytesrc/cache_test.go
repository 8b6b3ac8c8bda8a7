package bytesrc

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

// TestChunkCacheBoundsConcurrentFetches drives more concurrent chunk misses
// than maxConcurrent allows and asserts the in-flight fetch count never
// exceeds the configured bound.
func TestChunkCacheBoundsConcurrentFetches(t *testing.T) {
	var inFlight, maxSeen int64
	fetch := func(ctx context.Context, idx uint64) ([]byte, error) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			cur := atomic.LoadInt64(&maxSeen)
			if n <= cur || atomic.CompareAndSwapInt64(&maxSeen, cur, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt64(&inFlight, -1)
		return []byte{byte(idx)}, nil
	}

	o := defaultOptions()
	o.maxConcurrent = 2
	cache := newChunkCache(16, o, fetch)

	errs := make(chan error, 8)
	for i := uint64(0); i < 8; i++ {
		i := i
		go func() {
			_, err := cache.getChunk(context.Background(), i)
			errs <- err
		}()
	}
	for i := 0; i < 8; i++ {
		assert.NoError(t, <-errs)
	}
	assert.True(t, atomic.LoadInt64(&maxSeen) <= 2)
}

// TestChunkCacheTimeoutCancelsSlowFetch asserts a fetch slower than the
// configured timeout is canceled via its context.
func TestChunkCacheTimeoutCancelsSlowFetch(t *testing.T) {
	fetch := func(ctx context.Context, idx uint64) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	o := defaultOptions()
	o.timeout = 0.01 // 10ms
	cache := newChunkCache(16, o, fetch)

	_, err := cache.getChunk(context.Background(), 0)
	assert.Error(t, err)
}
