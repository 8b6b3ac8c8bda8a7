package bytesrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// retryBackoffs is the fixed backoff ladder from spec: 3 attempts at
// 100ms, 400ms, 1.6s.
var retryBackoffs = []time.Duration{
	100 * time.Millisecond,
	400 * time.Millisecond,
	1600 * time.Millisecond,
}

// httpSource reads a remote object over HTTP(S) Range requests.
type httpSource struct {
	url    string
	client *http.Client
	size   uint64
	cache  *chunkCache
}

func newHTTPSource(ctx context.Context, url string, o *options) (*httpSource, error) {
	s := &httpSource{
		url:    url,
		client: &http.Client{Timeout: time.Duration(o.timeout * float64(time.Second))},
	}
	size, err := s.discoverSize(ctx)
	if err != nil {
		return nil, err
	}
	s.size = size
	s.cache = newChunkCache(o.chunkSizeRemote, o, s.fetchChunk)
	return s, nil
}

// discoverSize issues a HEAD request, falling back to a zero-length ranged
// GET that reads Content-Range if HEAD is unsupported.
func (s *httpSource) discoverSize(ctx context.Context) (uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := s.client.Do(req)
	if err == nil {
		defer resp.Body.Close()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if resp.ContentLength >= 0 {
				return uint64(resp.ContentLength), nil
			}
		}
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err = s.client.Do(req)
	if err != nil {
		return 0, &TransportError{URL: s.url, Reason: err.Error()}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return 0, &TransportError{Status: resp.StatusCode, URL: s.url}
	}
	cr := resp.Header.Get("Content-Range")
	if cr == "" {
		return uint64(resp.ContentLength), nil
	}
	var start, end, total int64
	if _, err := fmt.Sscanf(cr, "bytes %d-%d/%d", &start, &end, &total); err != nil {
		return 0, fmt.Errorf("bytesrc: parsing Content-Range %q: %w", cr, err)
	}
	return uint64(total), nil
}

func (s *httpSource) fetchChunk(ctx context.Context, idx uint64) ([]byte, error) {
	start := idx * s.cache.chunkSize
	if start >= s.size {
		return nil, &OutOfRangeError{Offset: start, Size: s.size}
	}
	end := start + s.cache.chunkSize
	if end > s.size {
		end = s.size
	}
	return s.rangeGetWithRetry(ctx, start, end-start)
}

func (s *httpSource) rangeGetWithRetry(ctx context.Context, offset, length uint64) ([]byte, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		body, err := s.rangeGet(ctx, offset, length)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if _, ok := err.(*OutOfRangeError); ok {
			return nil, err
		}
		if attempt >= len(retryBackoffs) {
			return nil, lastErr
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryBackoffs[attempt]):
		}
	}
}

func (s *httpSource) rangeGet(ctx context.Context, offset, length uint64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: s.url, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
		if offset >= s.size {
			return nil, &OutOfRangeError{Offset: offset, Size: s.size}
		}
	}
	if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
		return nil, &TransportError{Status: resp.StatusCode, URL: s.url}
	}

	buf := make([]byte, length)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &TransportError{URL: s.url, Reason: err.Error()}
	}
	if uint64(n) != length {
		return nil, &TransportError{URL: s.url, Reason: "truncated response body"}
	}
	return buf, nil
}

func (s *httpSource) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	if offset >= s.size {
		return nil, &OutOfRangeError{Offset: offset, Size: s.size}
	}
	if offset+length > s.size {
		return nil, &TruncatedError{Requested: length, Got: s.size - offset}
	}
	return s.cache.Read(ctx, offset, length)
}

func (s *httpSource) Size(ctx context.Context) (uint64, error) {
	return s.size, nil
}

func (s *httpSource) Close() error {
	return nil
}
