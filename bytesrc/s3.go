package bytesrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// s3Source reads an object from an S3-compatible store via /vsis3/bucket/key,
// honouring the same environment variables as GDAL's VSIS3 driver.
type s3Source struct {
	client *minio.Client
	bucket string
	key    string
	size   uint64
	cache  *chunkCache
}

func newS3Source(ctx context.Context, path string, o *options) (*s3Source, error) {
	bucket, key, ok := strings.Cut(path, "/")
	if !ok {
		return nil, fmt.Errorf("bytesrc: malformed /vsis3/ path %q, expected bucket/key", path)
	}

	endpoint := os.Getenv("AWS_S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	useSSL := os.Getenv("AWS_HTTPS") != "NO"
	virtualHosting := os.Getenv("AWS_VIRTUAL_HOSTING") != "FALSE"

	var creds *credentials.Credentials
	if os.Getenv("AWS_NO_SIGN_REQUEST") == "YES" {
		creds = credentials.NewAnonymous()
	} else {
		creds = credentials.NewStaticV4(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			os.Getenv("AWS_SESSION_TOKEN"),
		)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        creds,
		Secure:       useSSL,
		BucketLookup: lookupStyle(virtualHosting),
	})
	if err != nil {
		return nil, err
	}

	s := &s3Source{client: client, bucket: bucket, key: key}
	info, err := client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		status := minio.ToErrorResponse(err).StatusCode
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, &AuthError{URL: path, Reason: err.Error()}
		}
		return nil, &TransportError{Status: status, URL: path, Reason: err.Error()}
	}
	s.size = uint64(info.Size)
	s.cache = newChunkCache(o.chunkSizeRemote, o, s.fetchChunk)
	return s, nil
}

func lookupStyle(virtualHosting bool) minio.BucketLookupType {
	if virtualHosting {
		return minio.BucketLookupDNS
	}
	return minio.BucketLookupPath
}

func (s *s3Source) fetchChunk(ctx context.Context, idx uint64) ([]byte, error) {
	start := idx * s.cache.chunkSize
	if start >= s.size {
		return nil, &OutOfRangeError{Offset: start, Size: s.size}
	}
	end := start + s.cache.chunkSize
	if end > s.size {
		end = s.size
	}
	length := end - start

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(int64(start), int64(end-1)); err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, s.key, opts)
	if err != nil {
		return nil, &TransportError{URL: s.bucket + "/" + s.key, Reason: err.Error()}
	}
	defer obj.Close()

	buf := make([]byte, length)
	n, err := io.ReadFull(obj, buf)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &TransportError{URL: s.bucket + "/" + s.key, Reason: err.Error()}
	}
	if uint64(n) != length {
		return nil, &TransportError{URL: s.bucket + "/" + s.key, Reason: "truncated response body"}
	}
	return buf, nil
}

func (s *s3Source) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	if offset >= s.size {
		return nil, &OutOfRangeError{Offset: offset, Size: s.size}
	}
	if offset+length > s.size {
		return nil, &TruncatedError{Requested: length, Got: s.size - offset}
	}
	return s.cache.Read(ctx, offset, length)
}

func (s *s3Source) Size(ctx context.Context) (uint64, error) {
	return s.size, nil
}

func (s *s3Source) Close() error {
	return nil
}
