package tileextract

import (
	"errors"
	"math"

	"github.com/cogtile/cogtile/cog"
	"github.com/cogtile/cogtile/proj"
)

var errSingularTransform = errors.New("tileextract: singular affine transform")

// SelectOverview picks the IFD of c best matching the ground resolution a
// web-mercator tile at zoom z demands, mirroring GDAL's "best overview"
// heuristic: the finest IFD whose resolution is still at or coarser than
// needed, tie-broken toward the coarser (larger-footprint) candidate, or
// the full-resolution IFD when every overview is finer than needed.
func SelectOverview(c *cog.Cog, z, x, y int, outputEPSG int, transforms *proj.Manager) (int, error) {
	target := groundResolution(z)
	centerX, centerY := tileCenter(z, x, y)

	best := -1
	var bestRes float64
	for i, ifd := range c.Ifds {
		res, err := effectiveResolution(ifd, centerX, centerY, outputEPSG, transforms)
		if err != nil {
			continue
		}
		if res >= target {
			if best == -1 || res <= bestRes {
				best = i
				bestRes = res
			}
		}
	}
	if best == -1 {
		return 0, nil
	}
	return best, nil
}

func tileCenter(z, x, y int) (float64, float64) {
	minX, minY, maxX, maxY := TileBounds(z, x, y)
	return (minX + maxX) / 2, (minY + maxY) / 2
}

// effectiveResolution estimates ifd's ground sample distance in outputEPSG
// units at (centerX, centerY) (given in outputEPSG), by composing the IFD's
// pixel->model affine transform with the src CRS -> outputEPSG projection,
// per spec.md's overview-selection rule.
func effectiveResolution(ifd *cog.Ifd, centerX, centerY float64, outputEPSG int, transforms *proj.Manager) (float64, error) {
	srcEPSG := ifd.Geo.EPSG
	if srcEPSG == 0 {
		// Unknown CRS: assume the source already matches the output CRS.
		srcEPSG = outputEPSG
	}

	toSrc, err := transforms.Get(outputEPSG, srcEPSG)
	if err != nil {
		return 0, err
	}
	srcX, srcY, err := toSrc.Forward(centerX, centerY)
	if err != nil {
		return 0, err
	}

	col, row, ok := ifd.Geo.Transform.Inverse(srcX, srcY)
	if !ok {
		return 0, errSingularTransform
	}
	neighborX, neighborY := ifd.Geo.Transform.Forward(col+1, row)

	toOut, err := transforms.Get(srcEPSG, outputEPSG)
	if err != nil {
		return 0, err
	}
	outX0, outY0, err := toOut.Forward(srcX, srcY)
	if err != nil {
		return 0, err
	}
	outX1, outY1, err := toOut.Forward(neighborX, neighborY)
	if err != nil {
		return 0, err
	}

	return math.Hypot(outX1-outX0, outY1-outY0), nil
}
