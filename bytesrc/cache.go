package bytesrc

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// A chunkFetcher fetches the raw bytes of chunk index idx (the range
// [idx*chunkSize, (idx+1)*chunkSize) clamped to the source size).
type chunkFetcher func(ctx context.Context, idx uint64) ([]byte, error)

// chunkCache decomposes reads into chunk-aligned fetches, coalesces
// concurrent fetches of the same chunk, and retains fetched chunks under an
// LRU policy bounded by a byte budget.
type chunkCache struct {
	chunkSize uint64
	fetch     chunkFetcher
	sem       *semaphore.Weighted
	timeout   time.Duration

	mu      sync.Mutex
	entries *lru.Cache[uint64, []byte]
	budget  int64
	used    int64

	group singleflight.Group
}

// newChunkCache builds a chunk cache whose underlying fetches are bounded to
// o.maxConcurrent outstanding requests and each given o.timeout to complete.
func newChunkCache(chunkSize uint64, o *options, fetch chunkFetcher) *chunkCache {
	// size is advisory; real eviction is byte-budget driven in put below.
	entries, _ := lru.New[uint64, []byte](1 << 20)
	maxConcurrent := o.maxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	c := &chunkCache{
		chunkSize: chunkSize,
		fetch:     fetch,
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		timeout:   time.Duration(o.timeout * float64(time.Second)),
		entries:   entries,
		budget:    o.cacheBudget,
	}
	return c
}

// Read returns exactly length bytes starting at offset by covering the
// minimal set of chunks, fetching any that are missing.
func (c *chunkCache) Read(ctx context.Context, offset, length uint64) ([]byte, error) {
	if length == 0 {
		return nil, nil
	}
	firstChunk := offset / c.chunkSize
	lastChunk := (offset + length - 1) / c.chunkSize

	out := make([]byte, 0, length)
	for idx := firstChunk; idx <= lastChunk; idx++ {
		chunk, err := c.getChunk(ctx, idx)
		if err != nil {
			return nil, err
		}
		chunkStart := idx * c.chunkSize
		lo := uint64(0)
		if offset > chunkStart {
			lo = offset - chunkStart
		}
		hi := uint64(len(chunk))
		chunkEnd := chunkStart + uint64(len(chunk))
		wantEnd := offset + length
		if wantEnd < chunkEnd {
			hi = wantEnd - chunkStart
		}
		if lo > hi || lo > uint64(len(chunk)) {
			return nil, fmt.Errorf("bytesrc: chunk %d too short for requested range", idx)
		}
		out = append(out, chunk[lo:hi]...)
	}
	if uint64(len(out)) != length {
		return nil, &TruncatedError{Requested: length, Got: uint64(len(out))}
	}
	return out, nil
}

func (c *chunkCache) getChunk(ctx context.Context, idx uint64) ([]byte, error) {
	c.mu.Lock()
	if chunk, ok := c.entries.Get(idx); ok {
		c.mu.Unlock()
		chunkCacheHits.Inc()
		return chunk, nil
	}
	c.mu.Unlock()
	chunkCacheMisses.Inc()

	key := fmt.Sprintf("%d", idx)
	v, err, _ := c.group.Do(key, func() (any, error) {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer c.sem.Release(1)

		fetchCtx := ctx
		var cancel context.CancelFunc
		if c.timeout > 0 {
			fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		start := time.Now()
		chunk, err := c.fetch(fetchCtx, idx)
		fetchLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		fetchBytes.Add(float64(len(chunk)))
		c.put(idx, chunk)
		return chunk, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *chunkCache) put(idx uint64, chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(idx, chunk)
	c.used += int64(len(chunk))
	for c.used > c.budget && c.entries.Len() > 1 {
		_, evicted, ok := c.entries.RemoveOldest()
		if !ok {
			break
		}
		c.used -= int64(len(evicted))
	}
}
