package tileextract

import "github.com/cogtile/cogtile/proj"

const tileSize = 256

// TileBounds returns the web-mercator (EPSG:3857) bounding box of XYZ tile
// (z, x, y): minX, minY, maxX, maxY in meters.
func TileBounds(z, x, y int) (minX, minY, maxX, maxY float64) {
	worldSize := proj.EquatorCircumference
	tilesPerSide := float64(uint64(1) << uint(z))
	tileMeters := worldSize / tilesPerSide

	minX = -worldSize/2 + float64(x)*tileMeters
	maxX = minX + tileMeters
	maxY = worldSize/2 - float64(y)*tileMeters
	minY = maxY - tileMeters
	return minX, minY, maxX, maxY
}

// groundResolution returns the meters-per-pixel of a 256x256 web-mercator
// tile at zoom z.
func groundResolution(z int) float64 {
	tilesPerSide := float64(uint64(1) << uint(z))
	return (proj.EquatorCircumference / tilesPerSide) / tileSize
}
