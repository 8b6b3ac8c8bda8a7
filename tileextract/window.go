package tileextract

import (
	"math"

	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/proj"
)

// PixelWindow is an axis-aligned bounding box in an IFD's pixel space,
// already padded and clipped to the image.
type PixelWindow struct {
	ColMin, RowMin int
	ColMax, RowMax int // exclusive
}

// Empty reports whether the window covers no pixels.
func (w PixelWindow) Empty() bool {
	return w.ColMax <= w.ColMin || w.RowMax <= w.RowMin
}

// ComputeWindow maps the four corners of web-mercator tile (z, x, y) into
// ifd's pixel space, returning their axis-aligned bounding box padded by one
// pixel on each side and clipped to the image bounds.
func ComputeWindow(ifd *cog.Ifd, z, x, y, outputEPSG int, transforms *proj.Manager) (PixelWindow, error) {
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	corners := [4][2]float64{
		{minX, minY}, {minX, maxY}, {maxX, minY}, {maxX, maxY},
	}

	srcEPSG := ifd.Geo.EPSG
	if srcEPSG == 0 {
		srcEPSG = outputEPSG
	}
	toSrc, err := transforms.Get(outputEPSG, srcEPSG)
	if err != nil {
		return PixelWindow{}, err
	}

	colMin, rowMin := math.MaxFloat64, math.MaxFloat64
	colMax, rowMax := -math.MaxFloat64, -math.MaxFloat64
	for _, c := range corners {
		srcX, srcY, err := toSrc.Forward(c[0], c[1])
		if err != nil {
			return PixelWindow{}, err
		}
		col, row, ok := ifd.Geo.Transform.Inverse(srcX, srcY)
		if !ok {
			return PixelWindow{}, errSingularTransform
		}
		colMin, colMax = minF(colMin, col), maxF(colMax, col)
		rowMin, rowMax = minF(rowMin, row), maxF(rowMax, row)
	}

	w := PixelWindow{
		ColMin: clampInt(int(colMin)-1, 0, ifd.Width),
		RowMin: clampInt(int(rowMin)-1, 0, ifd.Height),
		ColMax: clampInt(int(colMax)+2, 0, ifd.Width),
		RowMax: clampInt(int(rowMax)+2, 0, ifd.Height),
	}
	return w, nil
}

// TileIndices returns the set of source TileCoords whose tile footprint
// intersects w.
func TileIndices(ifd *cog.Ifd, w PixelWindow) []TileCoord {
	if w.Empty() {
		return nil
	}
	colStart := w.ColMin / ifd.TileWidth
	colEnd := (w.ColMax - 1) / ifd.TileWidth
	rowStart := w.RowMin / ifd.TileLength
	rowEnd := (w.RowMax - 1) / ifd.TileLength

	var out []TileCoord
	for row := rowStart; row <= rowEnd; row++ {
		for col := colStart; col <= colEnd; col++ {
			out = append(out, TileCoord{Col: col, Row: row})
		}
	}
	return out
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
