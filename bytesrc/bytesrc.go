// Package bytesrc provides a uniform random-access byte fetcher over local
// files and remote object stores, with a bounded chunked read cache.
package bytesrc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// A ByteSource is a uniform random-access byte fetcher.
type ByteSource interface {
	// ReadRange returns exactly length bytes starting at offset, or an error.
	ReadRange(ctx context.Context, offset, length uint64) ([]byte, error)
	// Size returns the total byte length of the source.
	Size(ctx context.Context) (uint64, error)
	// Close releases any resources held by the source.
	Close() error
}

// An Option configures a ByteSource at Open time.
type Option func(*options)

type options struct {
	chunkSizeLocal  uint64
	chunkSizeRemote uint64
	cacheBudget     int64
	maxConcurrent   int
	timeout         float64 // seconds
}

func defaultOptions() *options {
	return &options{
		chunkSizeLocal:  16 << 10,
		chunkSizeRemote: 1 << 20,
		cacheBudget:     64 << 20,
		maxConcurrent:   8,
		timeout:         30,
	}
}

// WithChunkSize overrides the chunk size used for local and remote sources.
func WithChunkSize(local, remote uint64) Option {
	return func(o *options) {
		o.chunkSizeLocal = local
		o.chunkSizeRemote = remote
	}
}

// WithCacheBudget sets the maximum number of bytes retained by the chunk cache.
func WithCacheBudget(bytes int64) Option {
	return func(o *options) {
		o.cacheBudget = bytes
	}
}

// WithMaxConcurrent sets the maximum number of outstanding requests per source.
func WithMaxConcurrent(n int) Option {
	return func(o *options) {
		o.maxConcurrent = n
	}
}

// WithTimeout bounds how long a single chunk fetch may take before it is
// canceled. A zero or negative value disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d.Seconds()
	}
}

var errUnsupportedScheme = errors.New("bytesrc: unsupported URL scheme")

// Open recognizes a URL and returns the backend ByteSource for it. Recognized
// forms: a bare filesystem path, file://path, http(s)://host/path,
// /vsis3/bucket/key, and /vsigs/bucket/key.
func Open(ctx context.Context, rawURL string, opts ...Option) (ByteSource, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	switch {
	case strings.HasPrefix(rawURL, "/vsis3/"):
		return newS3Source(ctx, strings.TrimPrefix(rawURL, "/vsis3/"), o)
	case strings.HasPrefix(rawURL, "/vsigs/"):
		return newGCSSource(ctx, strings.TrimPrefix(rawURL, "/vsigs/"), o)
	case strings.HasPrefix(rawURL, "http://"), strings.HasPrefix(rawURL, "https://"):
		return newHTTPSource(ctx, rawURL, o)
	case strings.HasPrefix(rawURL, "file://"):
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, fmt.Errorf("bytesrc: parsing %q: %w", rawURL, err)
		}
		return newFileSource(u.Path, o)
	default:
		return newFileSource(rawURL, o)
	}
}
