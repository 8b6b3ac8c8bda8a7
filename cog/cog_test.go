package cog_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cogtile/cogtile/bytesrc"
	"github.com/cogtile/cogtile/cog"
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

// buildTiledTIFF assembles a single-IFD classic little-endian TIFF with the
// required COG tags plus whatever extra tags are passed, and appends
// tileData at the offset recorded in TileOffsets.
func buildTiledTIFF(t *testing.T, extra []tagSpec, tileData []byte) []byte {
	t.Helper()

	entries := []tagSpec{
		{256, 3, 1, u16(16)},            // ImageWidth
		{257, 3, 1, u16(16)},            // ImageLength
		{258, 3, 1, u16(8)},             // BitsPerSample
		{259, 3, 1, u16(1)},             // Compression = None
		{262, 3, 1, u16(1)},             // Photometric = BlackIsZero
		{277, 3, 1, u16(1)},             // SamplesPerPixel
		{284, 3, 1, u16(1)},             // PlanarConfiguration
		{322, 3, 1, u16(16)},            // TileWidth
		{323, 3, 1, u16(16)},            // TileLength
		{324, 4, 1, nil},                // TileOffsets (patched below)
		{325, 4, 1, u32(uint32(len(tileData)))}, // TileByteCounts
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
			// placeholder; patched after we know the tile data offset.
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

func TestOpenValidatesRequiredTags(t *testing.T) {
	tileData := bytes.Repeat([]byte{0x2a}, 16*16)
	data := buildTiledTIFF(t, nil, tileData)
	src := openFixture(t, data)
	defer src.Close()

	c, err := cog.Open(context.Background(), src)
	assert.NoError(t, err)
	assert.Equal(t, 1, len(c.Ifds))

	ifd := c.Primary()
	assert.Equal(t, 16, ifd.Width)
	assert.Equal(t, 16, ifd.Height)
	// Invariant: TileOffsets.len == TileByteCounts.len == tilesAcross*tilesDown.
	expected := ifd.TilesAcross() * ifd.TilesDown()
	assert.Equal(t, expected, len(ifd.TileOffsets))
	assert.Equal(t, expected, len(ifd.TileByteCounts))
}

func TestOpenRejectsMissingTileLayout(t *testing.T) {
	tileData := bytes.Repeat([]byte{0}, 16*16)
	data := buildTiledTIFF(t, nil, tileData)
	// Recode the TileWidth entry (index 7) as an unrelated tag, so the IFD
	// no longer declares a tile layout.
	binary.LittleEndian.PutUint16(data[10+7*12:], 321)
	src := openFixture(t, data)
	defer src.Close()

	_, err := cog.Open(context.Background(), src)
	assert.Error(t, err)
	var notTiled *cog.NotTiledError
	assert.True(t, errors.As(err, &notTiled))
	assert.Equal(t, 0, notTiled.IFDIndex)
}

func TestParseGeoKeysRejectsShortDirectory(t *testing.T) {
	_, err := cog.ParseGeoKeys([]uint16{1, 1, 0}, nil, nil)
	assert.Error(t, err)
}

func TestParseGeoKeysExtractsProjectedCS(t *testing.T) {
	// Directory header: version=1, revision=1, minor=0, numberOfKeys=1.
	// One key: ProjectedCSTypeGeoKey(3072), location=0, count=1, value=32633.
	dir := []uint16{1, 1, 0, 1, 3072, 0, 1, 32633}
	keys, err := cog.ParseGeoKeys(dir, nil, nil)
	assert.NoError(t, err)
	assert.Equal(t, 32633, keys.Params[cog.GeoKeyProjectedCSType])
}
