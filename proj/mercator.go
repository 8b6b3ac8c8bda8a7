package proj

import "math"

// earthRadius is the WGS84 spherical-mercator radius used by web-mercator
// (EPSG:3857), in meters. Matches the constant GDAL and every XYZ tile
// server derives its ground-resolution table from.
const earthRadius = 6378137.0

// EquatorCircumference is 2*pi*earthRadius, the web-mercator world extent
// at zoom 0 in source units (meters); the tile extractor derives per-zoom
// ground resolution from it.
const EquatorCircumference = 2 * math.Pi * earthRadius

// lonLatToMercator converts EPSG:4326 degrees to EPSG:3857 meters using the
// closed-form spherical projection, avoiding a PROJ pipeline for this single
// extremely common pair.
func lonLatToMercator(lon, lat float64) (x, y float64) {
	x = lon * math.Pi / 180 * earthRadius
	clampedLat := math.Max(math.Min(lat, 85.05112878), -85.05112878)
	latRad := clampedLat * math.Pi / 180
	y = math.Log(math.Tan(math.Pi/4+latRad/2)) * earthRadius
	return x, y
}

// mercatorToLonLat is the inverse of lonLatToMercator.
func mercatorToLonLat(x, y float64) (lon, lat float64) {
	lon = x / earthRadius * 180 / math.Pi
	lat = (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}
