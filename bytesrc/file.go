package bytesrc

import (
	"context"
	"io"
	"os"
)

// fileSource reads from a local filesystem path.
type fileSource struct {
	file  *os.File
	size  uint64
	cache *chunkCache
}

func newFileSource(path string, o *options) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	s := &fileSource{
		file: f,
		size: uint64(info.Size()),
	}
	s.cache = newChunkCache(o.chunkSizeLocal, o, s.fetchChunk)
	return s, nil
}

func (s *fileSource) fetchChunk(ctx context.Context, idx uint64) ([]byte, error) {
	start := idx * s.cache.chunkSize
	if start >= s.size {
		return nil, &OutOfRangeError{Offset: start, Size: s.size}
	}
	end := start + s.cache.chunkSize
	if end > s.size {
		end = s.size
	}
	buf := make([]byte, end-start)
	n, err := s.file.ReadAt(buf, int64(start))
	if err != nil && err != io.EOF {
		return nil, err
	}
	if uint64(n) != end-start {
		return nil, &TruncatedError{Requested: end - start, Got: uint64(n)}
	}
	return buf, nil
}

func (s *fileSource) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	if offset >= s.size {
		return nil, &OutOfRangeError{Offset: offset, Size: s.size}
	}
	if offset+length > s.size {
		return nil, &TruncatedError{Requested: length, Got: s.size - offset}
	}
	return s.cache.Read(ctx, offset, length)
}

func (s *fileSource) Size(ctx context.Context) (uint64, error) {
	return s.size, nil
}

func (s *fileSource) Close() error {
	return s.file.Close()
}
