package tileextract

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cogtile/cogtile/bytesrc"
	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/decode"
	"github.com/cogtile/cogtile/proj"
)

// tagSpec is one TIFF directory entry to embed in a synthetic fixture.
type tagSpec struct {
	code  uint16
	typ   uint16
	count uint32
	value []byte
}

func u16(vs ...uint16) []byte {
	buf := make([]byte, 2*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

func u32(vs ...uint32) []byte {
	buf := make([]byte, 4*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint32(buf[i*4:], v)
	}
	return buf
}

func f64(vs ...float64) []byte {
	buf := make([]byte, 8*len(vs))
	for i, v := range vs {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// buildTiledTIFF assembles a single-IFD classic little-endian tiled TIFF
// with the required COG tags plus whatever extra tags are passed, appending
// tileData at the offset recorded in TileOffsets.
func buildTiledTIFF(t *testing.T, extra []tagSpec, tileData []byte) []byte {
	t.Helper()

	entries := []tagSpec{
		{256, 3, 1, u16(16)},
		{257, 3, 1, u16(16)},
		{258, 3, 1, u16(8)},
		{259, 3, 1, u16(1)},
		{262, 3, 1, u16(1)},
		{277, 3, 1, u16(1)},
		{284, 3, 1, u16(1)},
		{322, 3, 1, u16(16)},
		{323, 3, 1, u16(16)},
		{324, 4, 1, nil},
		{325, 4, 1, u32(uint32(len(tileData)))},
	}
	entries = append(entries, extra...)

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(42))
	binary.Write(&buf, binary.LittleEndian, uint32(8))

	entryCount := uint16(len(entries))
	binary.Write(&buf, binary.LittleEndian, entryCount)
	entriesSize := 12 * len(entries)
	extraStart := 8 + 2 + entriesSize + 4
	extraBuf := &bytes.Buffer{}

	tileOffsetPos := -1
	for i, e := range entries {
		if e.code == 324 {
			tileOffsetPos = i
		}
		binary.Write(&buf, binary.LittleEndian, e.code)
		binary.Write(&buf, binary.LittleEndian, e.typ)
		binary.Write(&buf, binary.LittleEndian, e.count)
		if len(e.value) <= 4 && e.code != 324 {
			field := make([]byte, 4)
			copy(field, e.value)
			buf.Write(field)
		} else if e.code == 324 {
			buf.Write(make([]byte, 4))
		} else {
			off := uint32(extraStart + extraBuf.Len())
			binary.Write(&buf, binary.LittleEndian, off)
			extraBuf.Write(e.value)
		}
	}
	binary.Write(&buf, binary.LittleEndian, uint32(0))
	extraBuf.Write(tileData)

	out := buf.Bytes()
	tileOffset := uint32(extraStart + extraBuf.Len() - len(tileData))
	if tileOffsetPos >= 0 {
		pos := 10 + tileOffsetPos*12 + 8
		binary.LittleEndian.PutUint32(out[pos:pos+4], tileOffset)
	}
	out = append(out, extraBuf.Bytes()...)
	return out
}

func openFixture(t *testing.T, data []byte) bytesrc.ByteSource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f.tif")
	assert.NoError(t, os.WriteFile(path, data, 0o644))
	src, err := bytesrc.Open(context.Background(), path)
	assert.NoError(t, err)
	return src
}

func TestExtractFullTileFromAlignedSingleTileRaster(t *testing.T) {
	z, x, y := 10, 0, 0
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	scaleX := (maxX - minX) / 16
	scaleY := (maxY - minY) / 16

	tileData := bytes.Repeat([]byte{0x40}, 16*16)
	extra := []tagSpec{
		{33550, 12, 3, f64(scaleX, scaleY, 0)},
		{33922, 12, 6, f64(0, 0, 0, minX, maxY, 0)},
	}
	data := buildTiledTIFF(t, extra, tileData)
	src := openFixture(t, data)
	defer src.Close()

	c, err := cog.Open(context.Background(), src)
	assert.NoError(t, err)

	decoder, err := decode.NewDecoder(src, 8)
	assert.NoError(t, err)
	transforms := proj.NewManager()
	ex := NewExtractor(c, decoder, transforms)

	out, err := ex.Extract(context.Background(), z, x, y)
	assert.NoError(t, err)
	assert.Equal(t, tileSize, out.Width)
	assert.Equal(t, byte(0x40), out.Pix[0])
	assert.Equal(t, byte(0xff), out.Pix[3])

	center := (128*tileSize + 128) * 4
	assert.Equal(t, byte(0x40), out.Pix[center])
}

func TestExtractNoOverlapReturnsError(t *testing.T) {
	tileData := bytes.Repeat([]byte{0x01}, 16*16)
	// Tiny raster anchored far from any realistic tile request at z=10.
	extra := []tagSpec{
		{33550, 12, 3, f64(1, 1, 0)},
		{33922, 12, 6, f64(0, 0, 0, 1e9, 1e9, 0)},
	}
	data := buildTiledTIFF(t, extra, tileData)
	src := openFixture(t, data)
	defer src.Close()

	c, err := cog.Open(context.Background(), src)
	assert.NoError(t, err)
	decoder, err := decode.NewDecoder(src, 8)
	assert.NoError(t, err)
	ex := NewExtractor(c, decoder, proj.NewManager())

	_, err = ex.Extract(context.Background(), 10, 0, 0)
	assert.Error(t, err)
}

func TestSelectOverviewPicksOnlyIFDWhenSingle(t *testing.T) {
	z, x, y := 10, 0, 0
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	scaleX := (maxX - minX) / 16
	scaleY := (maxY - minY) / 16
	tileData := bytes.Repeat([]byte{0x01}, 16*16)
	extra := []tagSpec{
		{33550, 12, 3, f64(scaleX, scaleY, 0)},
		{33922, 12, 6, f64(0, 0, 0, minX, maxY, 0)},
	}
	data := buildTiledTIFF(t, extra, tileData)
	src := openFixture(t, data)
	defer src.Close()

	c, err := cog.Open(context.Background(), src)
	assert.NoError(t, err)

	idx, err := SelectOverview(c, z, x, y, 3857, proj.NewManager())
	assert.NoError(t, err)
	assert.Equal(t, 0, idx)
}
