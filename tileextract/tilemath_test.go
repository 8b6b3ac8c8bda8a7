package tileextract

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestTileBoundsZoomZeroCoversWholeWorld(t *testing.T) {
	minX, minY, maxX, maxY := TileBounds(0, 0, 0)
	half := EquatorCircumferenceHalf()
	assert.True(t, math.Abs(minX+half) < 1e-6)
	assert.True(t, math.Abs(maxX-half) < 1e-6)
	assert.True(t, math.Abs(minY+half) < 1e-6)
	assert.True(t, math.Abs(maxY-half) < 1e-6)
}

func TestTileBoundsZoomOneQuadrants(t *testing.T) {
	// Tile (0,0) at z=1 is the top-left quadrant: minX negative, maxY positive.
	minX, minY, maxX, maxY := TileBounds(1, 0, 0)
	assert.True(t, minX < 0)
	assert.True(t, maxY > 0)
	assert.True(t, maxX <= 0+1e-6)
	assert.True(t, minY >= 0-1e-6)
}

func TestGroundResolutionHalvesPerZoom(t *testing.T) {
	r0 := groundResolution(0)
	r1 := groundResolution(1)
	assert.True(t, math.Abs(r0/2-r1) < 1e-9)
}

func EquatorCircumferenceHalf() float64 {
	minX, _, maxX, _ := TileBounds(0, 0, 0)
	return (maxX - minX) / 2
}
