// Package decode implements the per-tile decoder pipeline: fetch compressed
// bytes, decompress, reverse the predictor transform, and resolve samples to
// RGBA8 through the IFD's photometric interpretation.
package decode

import (
	"context"

	"github.com/cogtile/cogtile/bytesrc"
	"github.com/cogtile/cogtile/cog"
)

// Decoder runs the decode pipeline for one open Cog, memoizing results in an
// internal Cache.
type Decoder struct {
	source bytesrc.ByteSource
	cache  *Cache
}

// NewDecoder returns a Decoder reading tiles from source, caching up to
// cacheEntries decoded tiles.
func NewDecoder(source bytesrc.ByteSource, cacheEntries int) (*Decoder, error) {
	cache, err := NewCache(cacheEntries)
	if err != nil {
		return nil, err
	}
	return &Decoder{source: source, cache: cache}, nil
}

// Tile returns the decoded, photometrically-resolved RGBA8 PixelBlock for
// tile (col, row) of ifd. A tile with TileByteCounts==0 (a sparse/nodata
// tile, which COG writers use in place of storing nodata pixels) decodes to
// a Sparse PixelBlock without touching the ByteSource.
func (d *Decoder) Tile(ctx context.Context, ifdIndex int, ifd *cog.Ifd, col, row int) (*PixelBlock, error) {
	return d.cache.GetOrDecode(ctx, ifdIndex, col, row, func(ctx context.Context) (*PixelBlock, error) {
		return d.decodeTile(ctx, ifdIndex, ifd, col, row)
	})
}

func (d *Decoder) decodeTile(ctx context.Context, ifdIndex int, ifd *cog.Ifd, col, row int) (*PixelBlock, error) {
	idx := ifd.TileIndex(col, row)
	if idx < 0 || idx >= len(ifd.TileByteCounts) {
		return nil, decodeErr(ifdIndex, col, row, "tile index %d out of range", idx)
	}

	byteCount := ifd.TileByteCounts[idx]
	if byteCount == 0 {
		return &PixelBlock{
			Width:           ifd.TileWidth,
			Height:          ifd.TileLength,
			SamplesPerPixel: ifd.SamplesPerPixel,
			BitsPerSample:   int(firstOr(ifd.BitsPerSample, 8)),
			SampleFormat:    ifd.SampleFormat,
			Sparse:          true,
		}, nil
	}

	offset := ifd.TileOffsets[idx]
	raw, err := d.source.ReadRange(ctx, offset, byteCount)
	if err != nil {
		return nil, decodeErr(ifdIndex, col, row, "reading %d bytes at %d: %v", byteCount, offset, err)
	}

	bitsPerSample := int(firstOr(ifd.BitsPerSample, 8))
	uncompressedSize := ifd.TileWidth * ifd.TileLength * ifd.SamplesPerPixel * bitsPerSample / 8

	raw2, err := decompress(ifd.Compression, raw, ifd.JPEGTables, uncompressedSize, ifd.SamplesPerPixel)
	if err != nil {
		return nil, decodeErr(ifdIndex, col, row, "decompressing: %v", err)
	}

	// JPEG tiles arrive already expanded to 8-bit RGB/grey samples by the
	// standard library decoder and never carry a TIFF predictor.
	if ifd.Compression != cog.CompressionJPEG {
		if err := undoPredictor(ifd.Predictor, raw2, ifd.TileWidth, ifd.TileLength, ifd.SamplesPerPixel, bitsPerSample); err != nil {
			return nil, decodeErr(ifdIndex, col, row, "undoing predictor: %v", err)
		}
	}

	rgba, err := applyPhotometric(ifd.Photometric, raw2, ifd.TileWidth, ifd.TileLength, ifd.SamplesPerPixel, bitsPerSample, ifd.ColorMap, ifd.NoData)
	if err != nil {
		return nil, decodeErr(ifdIndex, col, row, "applying photometric interpretation: %v", err)
	}

	return &PixelBlock{
		Width:           ifd.TileWidth,
		Height:          ifd.TileLength,
		SamplesPerPixel: 4,
		BitsPerSample:   8,
		SampleFormat:    1,
		Data:            rgba,
	}, nil
}

func firstOr(v []uint16, fallback uint16) uint16 {
	if len(v) == 0 {
		return fallback
	}
	return v[0]
}
