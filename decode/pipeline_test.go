package decode

import (
	"bytes"
	"context"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/klauspost/compress/zlib"

	"github.com/cogtile/cogtile/cog"
)

// memSource is a minimal in-memory bytesrc.ByteSource for pipeline tests.
type memSource struct {
	data []byte
}

func (m *memSource) ReadRange(_ context.Context, offset, length uint64) ([]byte, error) {
	return m.data[offset : offset+length], nil
}
func (m *memSource) Size(_ context.Context) (uint64, error) { return uint64(len(m.data)), nil }
func (m *memSource) Close() error                           { return nil }

func TestDecodeSparseTileYieldsNoData(t *testing.T) {
	ifd := &cog.Ifd{
		Width: 16, Height: 16, TileWidth: 16, TileLength: 16,
		BitsPerSample: []uint16{8}, SamplesPerPixel: 1, SampleFormat: 1,
		Compression: cog.CompressionNone, Photometric: cog.PhotometricBlackIsZero,
		TileOffsets: []uint64{0}, TileByteCounts: []uint64{0},
	}
	src := &memSource{}
	d, err := NewDecoder(src, 8)
	assert.NoError(t, err)

	block, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	assert.True(t, block.Sparse)
	assert.Equal(t, 0, len(block.Data))
}

func TestDecodeNoneCompressedTileAppliesPhotometric(t *testing.T) {
	tileData := bytes.Repeat([]byte{0x80}, 4*4)
	ifd := &cog.Ifd{
		Width: 4, Height: 4, TileWidth: 4, TileLength: 4,
		BitsPerSample: []uint16{8}, SamplesPerPixel: 1, SampleFormat: 1,
		Compression: cog.CompressionNone, Photometric: cog.PhotometricBlackIsZero,
		TileOffsets: []uint64{0}, TileByteCounts: []uint64{uint64(len(tileData))},
	}
	src := &memSource{data: tileData}
	d, err := NewDecoder(src, 8)
	assert.NoError(t, err)

	block, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	assert.False(t, block.Sparse)
	assert.Equal(t, 4, block.SamplesPerPixel)
	assert.Equal(t, byte(0x80), block.Data[0])
	assert.Equal(t, byte(0xff), block.Data[3])
}

func TestDecodeNoDataSampleIsTransparent(t *testing.T) {
	// Single-band 2x1 tile: one real pixel (0x01), one nodata pixel (0x00).
	tileData := []byte{0x01, 0x00}
	nodata := 0.0
	ifd := &cog.Ifd{
		Width: 2, Height: 1, TileWidth: 2, TileLength: 1,
		BitsPerSample: []uint16{8}, SamplesPerPixel: 1, SampleFormat: 1,
		Compression: cog.CompressionNone, Photometric: cog.PhotometricBlackIsZero,
		TileOffsets: []uint64{0}, TileByteCounts: []uint64{uint64(len(tileData))},
		NoData: &nodata,
	}
	src := &memSource{data: tileData}
	d, err := NewDecoder(src, 8)
	assert.NoError(t, err)

	block, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0xff), block.Data[3]) // pixel 0 (value 0x01): opaque
	assert.Equal(t, byte(0x00), block.Data[7]) // pixel 1 (value 0x00 == nodata): transparent
}

func TestDecodeDeflateTile(t *testing.T) {
	raw := bytes.Repeat([]byte{0x11, 0x22}, 8) // 4x4 single-band, 16 bytes
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	_, err := zw.Write(raw)
	assert.NoError(t, err)
	assert.NoError(t, zw.Close())

	ifd := &cog.Ifd{
		Width: 4, Height: 4, TileWidth: 4, TileLength: 4,
		BitsPerSample: []uint16{8}, SamplesPerPixel: 1, SampleFormat: 1,
		Compression: cog.CompressionDeflate, Photometric: cog.PhotometricBlackIsZero,
		TileOffsets: []uint64{0}, TileByteCounts: []uint64{uint64(compressed.Len())},
	}
	src := &memSource{data: compressed.Bytes()}
	d, err := NewDecoder(src, 8)
	assert.NoError(t, err)

	block, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, byte(0x11), block.Data[0])
}

func TestDecodeTileCachesResult(t *testing.T) {
	tileData := bytes.Repeat([]byte{0x01}, 4*4)
	ifd := &cog.Ifd{
		Width: 4, Height: 4, TileWidth: 4, TileLength: 4,
		BitsPerSample: []uint16{8}, SamplesPerPixel: 1, SampleFormat: 1,
		Compression: cog.CompressionNone, Photometric: cog.PhotometricBlackIsZero,
		TileOffsets: []uint64{0}, TileByteCounts: []uint64{uint64(len(tileData))},
	}
	src := &memSource{data: tileData}
	d, err := NewDecoder(src, 8)
	assert.NoError(t, err)

	b1, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	b2, err := d.Tile(context.Background(), 0, ifd, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, b1, b2)
}
