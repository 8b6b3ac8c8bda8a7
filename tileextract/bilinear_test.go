package tileextract

import (
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/decode"
)

// block4x4 returns a single 4x4 RGBA PixelBlock that is a single tile
// covering the whole (4, 4) IFD, with band 0 set to v and bands 1-3 fixed.
func block4x4(v byte) *decode.PixelBlock {
	data := make([]byte, 4*4*4)
	for i := 0; i < 16; i++ {
		data[i*4+0] = v
		data[i*4+1] = 0
		data[i*4+2] = 0
		data[i*4+3] = 0xff
	}
	return &decode.PixelBlock{Width: 4, Height: 4, SamplesPerPixel: 4, BitsPerSample: 8, Data: data}
}

func ifd4x4() *cog.Ifd {
	return &cog.Ifd{Width: 4, Height: 4, TileWidth: 4, TileLength: 4}
}

func TestResampleBilinearCorners(t *testing.T) {
	ifd := ifd4x4()
	blocks := map[TileCoord]*decode.PixelBlock{{0, 0}: block4x4(0x80)}

	r, _, _, a, ok := resampleBilinear(ifd, blocks, 0, 0)
	assert.True(t, ok)
	assert.Equal(t, byte(0x80), r)
	assert.Equal(t, byte(0xff), a)
}

func TestResampleBilinearMidpointBlendsNeighbours(t *testing.T) {
	ifd := ifd4x4()
	data := make([]byte, 4*4*4)
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			idx := (row*4 + col) * 4
			if col < 2 {
				data[idx] = 0
			} else {
				data[idx] = 200
			}
			data[idx+3] = 0xff
		}
	}
	block := &decode.PixelBlock{Width: 4, Height: 4, SamplesPerPixel: 4, BitsPerSample: 8, Data: data}
	blocks := map[TileCoord]*decode.PixelBlock{{0, 0}: block}

	r, _, _, _, ok := resampleBilinear(ifd, blocks, 1.5, 1.0)
	assert.True(t, ok)
	assert.Equal(t, byte(100), r)
}

func TestResampleBilinearMissingNeighbourFallsBack(t *testing.T) {
	ifd := ifd4x4()
	blocks := map[TileCoord]*decode.PixelBlock{{0, 0}: block4x4(0x40)}

	r, _, _, _, ok := resampleBilinear(ifd, blocks, 3.9, 3.9)
	assert.True(t, ok)
	assert.Equal(t, byte(0x40), r)
}

func TestResampleBilinearAllMissingReturnsNotOK(t *testing.T) {
	ifd := ifd4x4()
	_, _, _, _, ok := resampleBilinear(ifd, map[TileCoord]*decode.PixelBlock{}, 1, 1)
	assert.False(t, ok)
}
