package bytesrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cogtile/cogtile/gcsauth"
)

// gcsSource reads an object from Google Cloud Storage via /vsigs/bucket/key,
// authenticating with a service account bearer token minted by gcsauth.
type gcsSource struct {
	bucket string
	key    string
	auth   gcsauth.Authenticator
	client *http.Client
	size   uint64
	cache  *chunkCache
}

func newGCSSource(ctx context.Context, path string, o *options) (*gcsSource, error) {
	bucket, key, ok := strings.Cut(path, "/")
	if !ok {
		return nil, fmt.Errorf("bytesrc: malformed /vsigs/ path %q, expected bucket/key", path)
	}
	auth, err := gcsauth.NewFromEnv(os.Getenv("GOOGLE_SERVICE_ACCOUNT_CONTENT"))
	if err != nil {
		return nil, err
	}
	s := &gcsSource{
		bucket: bucket,
		key:    key,
		auth:   auth,
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

func (s *gcsSource) objectURL() string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucket, s.key)
}

func (s *gcsSource) discoverSize(ctx context.Context) (uint64, error) {
	resp, err := s.do(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
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

// do issues a ranged GET, retrying once on a 401/403. The retry asks the
// Authenticator for a token again; it does not force a refresh, so it sends
// the same cached token unless that token is within a minute of expiring.
func (s *gcsSource) do(ctx context.Context, offset, length uint64) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		token, err := s.auth.Token(ctx)
		if err != nil {
			return nil, &AuthError{URL: s.objectURL(), Reason: err.Error()}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.objectURL(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		if length > 0 {
			req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
		} else {
			req.Header.Set("Range", "bytes=0-0")
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return nil, &TransportError{URL: s.objectURL(), Reason: err.Error()}
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			lastErr = &AuthError{URL: s.objectURL(), Reason: fmt.Sprintf("status %d", resp.StatusCode)}
			continue
		}
		if resp.StatusCode == http.StatusRequestedRangeNotSatisfiable {
			resp.Body.Close()
			return nil, &OutOfRangeError{Offset: offset, Size: s.size}
		}
		if resp.StatusCode != http.StatusPartialContent && resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &TransportError{Status: resp.StatusCode, URL: s.objectURL()}
		}
		return resp, nil
	}
	return nil, lastErr
}

func (s *gcsSource) fetchChunk(ctx context.Context, idx uint64) ([]byte, error) {
	start := idx * s.cache.chunkSize
	if start >= s.size {
		return nil, &OutOfRangeError{Offset: start, Size: s.size}
	}
	end := start + s.cache.chunkSize
	if end > s.size {
		end = s.size
	}
	length := end - start

	resp, err := s.do(ctx, start, length)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf := make([]byte, length)
	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &TransportError{URL: s.objectURL(), Reason: err.Error()}
	}
	if uint64(n) != length {
		return nil, &TransportError{URL: s.objectURL(), Reason: "truncated response body"}
	}
	return buf, nil
}

func (s *gcsSource) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	if offset >= s.size {
		return nil, &OutOfRangeError{Offset: offset, Size: s.size}
	}
	if offset+length > s.size {
		return nil, &TruncatedError{Requested: length, Got: s.size - offset}
	}
	return s.cache.Read(ctx, offset, length)
}

func (s *gcsSource) Size(ctx context.Context) (uint64, error) {
	return s.size, nil
}

func (s *gcsSource) Close() error {
	return nil
}
