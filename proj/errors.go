package proj

import "fmt"

// ProjectionError wraps a failure from the underlying PROJ library (an
// unrecognized EPSG code, an unsupported transform pipeline).
type ProjectionError struct {
	Src, Dst int
	Reason   string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("proj: EPSG:%d -> EPSG:%d: %s", e.Src, e.Dst, e.Reason)
}
