package decode

import (
	"context"

	"github.com/maypok86/otter/v2"
)

// tileKey identifies one decoded tile within an open Cog.
type tileKey struct {
	IFDIndex int
	Col, Row int
}

// Cache memoizes decoded PixelBlocks, keyed by (ifd, col, row), bounded by
// entry count rather than bytes since every entry here is already a fixed,
// known-size PixelBlock.
type Cache struct {
	cache *otter.Cache[tileKey, *PixelBlock]
}

// NewCache returns a Cache retaining up to maxEntries decoded tiles.
func NewCache(maxEntries int) (*Cache, error) {
	c, err := otter.New(&otter.Options[tileKey, *PixelBlock]{
		MaximumSize: maxEntries,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{cache: c}, nil
}

// GetOrDecode returns the decoded tile at (ifdIndex, col, row), decoding and
// caching it via decodeFn on a miss.
func (c *Cache) GetOrDecode(ctx context.Context, ifdIndex, col, row int, decodeFn func(context.Context) (*PixelBlock, error)) (*PixelBlock, error) {
	key := tileKey{IFDIndex: ifdIndex, Col: col, Row: row}
	return c.cache.Get(ctx, key, otter.LoaderFunc[tileKey, *PixelBlock](
		func(ctx context.Context, _ tileKey) (*PixelBlock, error) {
			return decodeFn(ctx)
		},
	))
}
