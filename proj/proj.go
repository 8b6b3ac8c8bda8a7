// Package proj adapts go-proj's CRS-to-CRS transforms behind a minimal
// forward/inverse surface, caching the (expensive to construct) PJ pipeline
// per (src, dst) EPSG pair.
package proj

import (
	"fmt"
	"sync"

	"github.com/twpayne/go-proj/v11"
)

// kind distinguishes the three ways a Transform can be realized.
type kind int

const (
	kindIdentity kind = iota
	kindMercatorForward // src=4326, dst=3857
	kindMercatorInverse // src=3857, dst=4326
	kindProj
)

// A Transform maps coordinates between two CRSes identified by EPSG code.
type Transform struct {
	src, dst int
	kind     kind
	pj       *proj.PJ // set only when kind == kindProj.
}

// Forward maps a coordinate from src to dst.
func (t *Transform) Forward(x, y float64) (float64, float64, error) {
	switch t.kind {
	case kindIdentity:
		return x, y, nil
	case kindMercatorForward:
		mx, my := lonLatToMercator(x, y)
		return mx, my, nil
	case kindMercatorInverse:
		lon, lat := mercatorToLonLat(x, y)
		return lon, lat, nil
	default:
		coords := [][]float64{{y, x}} // go-proj's CRSToCRS expects (lat, lon) order for geographic ends.
		if err := t.pj.ForwardFloat64Slices(coords); err != nil {
			return 0, 0, &ProjectionError{Src: t.src, Dst: t.dst, Reason: err.Error()}
		}
		return coords[0][1], coords[0][0], nil
	}
}

// Inverse maps a coordinate from dst back to src.
func (t *Transform) Inverse(x, y float64) (float64, float64, error) {
	switch t.kind {
	case kindIdentity:
		return x, y, nil
	case kindMercatorForward:
		lon, lat := mercatorToLonLat(x, y)
		return lon, lat, nil
	case kindMercatorInverse:
		mx, my := lonLatToMercator(x, y)
		return mx, my, nil
	default:
		coords := [][]float64{{y, x}}
		if err := t.pj.InverseFloat64Slices(coords); err != nil {
			return 0, 0, &ProjectionError{Src: t.dst, Dst: t.src, Reason: err.Error()}
		}
		return coords[0][1], coords[0][0], nil
	}
}

// A Manager caches Transforms per (src, dst) EPSG pair, since constructing a
// PJ pipeline is too expensive to repeat per tile.
type Manager struct {
	mu         sync.RWMutex
	transforms map[[2]int]*Transform
}

// NewManager returns an empty transform cache.
func NewManager() *Manager {
	return &Manager{transforms: make(map[[2]int]*Transform)}
}

// Get returns the cached Transform for (src, dst), creating it on first use.
func (m *Manager) Get(src, dst int) (*Transform, error) {
	key := [2]int{src, dst}

	m.mu.RLock()
	t, ok := m.transforms[key]
	m.mu.RUnlock()
	if ok {
		return t, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.transforms[key]; ok {
		return t, nil
	}

	t, err := m.create(src, dst)
	if err != nil {
		return nil, err
	}
	m.transforms[key] = t
	return t, nil
}

func (m *Manager) create(src, dst int) (*Transform, error) {
	switch {
	case src == dst:
		return &Transform{src: src, dst: dst, kind: kindIdentity}, nil
	case src == 4326 && dst == 3857:
		return &Transform{src: src, dst: dst, kind: kindMercatorForward}, nil
	case src == 3857 && dst == 4326:
		return &Transform{src: src, dst: dst, kind: kindMercatorInverse}, nil
	}

	pj, err := proj.NewCRSToCRS(fmt.Sprintf("epsg:%d", src), fmt.Sprintf("epsg:%d", dst), nil)
	if err != nil {
		return nil, &ProjectionError{Src: src, Dst: dst, Reason: err.Error()}
	}
	return &Transform{src: src, dst: dst, kind: kindProj, pj: pj}, nil
}
