package tileextract

import (
	"math"

	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/decode"
)

// sampleBlocks looks up the decoded RGBA sample at source pixel (col, row),
// resolving which tile it falls in from blocks. ok is false for sparse tiles,
// missing tiles, or out-of-bounds coordinates.
func sampleBlocks(ifd *cog.Ifd, blocks map[TileCoord]*decode.PixelBlock, col, row int) (r, g, b, a byte, ok bool) {
	if col < 0 || col >= ifd.Width || row < 0 || row >= ifd.Height {
		return 0, 0, 0, 0, false
	}
	tc := TileCoord{Col: col / ifd.TileWidth, Row: row / ifd.TileLength}
	block, found := blocks[tc]
	if !found || block.Sparse {
		return 0, 0, 0, 0, false
	}
	localCol, localRow := col%ifd.TileWidth, row%ifd.TileLength
	idx := (localRow*block.Width + localCol) * 4
	return block.Data[idx], block.Data[idx+1], block.Data[idx+2], block.Data[idx+3], true
}

// resampleBilinear samples the four source pixels surrounding fractional
// coordinate (col, row) and blends them by distance. Unlike nearest-neighbour resampling, a missing or sparse neighbour falls
// back to its nearest present corner rather than dropping the whole pixel.
//
// This is not used by Extractor.Extract; it exists for callers that want
// smoother output than the baseline nearest-neighbour resampler.
func resampleBilinear(ifd *cog.Ifd, blocks map[TileCoord]*decode.PixelBlock, col, row float64) (r, g, b, a byte, ok bool) {
	x0 := int(math.Floor(col))
	y0 := int(math.Floor(row))
	x1, y1 := x0+1, y0+1
	dx, dy := col-float64(x0), row-float64(y0)

	r00, g00, b00, a00, ok00 := sampleBlocks(ifd, blocks, x0, y0)
	r10, g10, b10, a10, ok10 := sampleBlocks(ifd, blocks, x1, y0)
	r01, g01, b01, a01, ok01 := sampleBlocks(ifd, blocks, x0, y1)
	r11, g11, b11, a11, ok11 := sampleBlocks(ifd, blocks, x1, y1)
	if !ok00 && !ok10 && !ok01 && !ok11 {
		return 0, 0, 0, 0, false
	}

	blend := func(v00, v10, v01, v11 float64) byte {
		sum := v00*(1-dx)*(1-dy) + v10*dx*(1-dy) + v01*(1-dx)*dy + v11*dx*dy
		if sum < 0 {
			sum = 0
		}
		if sum > 255 {
			sum = 255
		}
		return byte(sum + 0.5)
	}

	nearestR, nearestG, nearestB, nearestA := pickNearest(
		dx, dy,
		[4]byte{r00, r10, r01, r11}, [4]byte{g00, g10, g01, g11},
		[4]byte{b00, b10, b01, b11}, [4]byte{a00, a10, a01, a11},
		[4]bool{ok00, ok10, ok01, ok11},
	)
	r00b, g00b, b00b, a00b := orElse(r00, ok00, nearestR), orElse(g00, ok00, nearestG), orElse(b00, ok00, nearestB), orElse(a00, ok00, nearestA)
	r10b, g10b, b10b, a10b := orElse(r10, ok10, nearestR), orElse(g10, ok10, nearestG), orElse(b10, ok10, nearestB), orElse(a10, ok10, nearestA)
	r01b, g01b, b01b, a01b := orElse(r01, ok01, nearestR), orElse(g01, ok01, nearestG), orElse(b01, ok01, nearestB), orElse(a01, ok01, nearestA)
	r11b, g11b, b11b, a11b := orElse(r11, ok11, nearestR), orElse(g11, ok11, nearestG), orElse(b11, ok11, nearestB), orElse(a11, ok11, nearestA)

	r = blend(float64(r00b), float64(r10b), float64(r01b), float64(r11b))
	g = blend(float64(g00b), float64(g10b), float64(g01b), float64(g11b))
	b = blend(float64(b00b), float64(b10b), float64(b01b), float64(b11b))
	a = blend(float64(a00b), float64(a10b), float64(a01b), float64(a11b))
	return r, g, b, a, true
}

func orElse(v byte, present bool, fallback byte) byte {
	if present {
		return v
	}
	return fallback
}

// pickNearest returns the channel values of whichever corner is closest to
// (dx, dy) and present, for use as a fallback at missing corners.
func pickNearest(dx, dy float64, rs, gs, bs, as [4]byte, present [4]bool) (byte, byte, byte, byte) {
	corners := [4][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	best := -1
	bestDist := math.MaxFloat64
	for i, c := range corners {
		if !present[i] {
			continue
		}
		d := (dx-c[0])*(dx-c[0]) + (dy-c[1])*(dy-c[1])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return 0, 0, 0, 0
	}
	return rs[best], gs[best], bs[best], as[best]
}
