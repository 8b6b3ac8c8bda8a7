package tileextract

import "fmt"

// NoOverlapError is returned when the requested tile shares no area with
// the source raster's bounds.
type NoOverlapError struct {
	Z, X, Y int
}

func (e *NoOverlapError) Error() string {
	return fmt.Sprintf("tileextract: tile z=%d x=%d y=%d does not overlap the source raster", e.Z, e.X, e.Y)
}
