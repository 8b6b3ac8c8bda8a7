package proj

import (
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func TestMercatorRoundTrip(t *testing.T) {
	m := NewManager()
	tr, err := m.Get(4326, 3857)
	assert.NoError(t, err)

	x, y, err := tr.Forward(13.405, 52.52) // Berlin
	assert.NoError(t, err)
	lon, lat, err := tr.Inverse(x, y)
	assert.NoError(t, err)

	assert.True(t, math.Abs(lon-13.405) < 1e-6)
	assert.True(t, math.Abs(lat-52.52) < 1e-6)
}

func TestOriginMapsToZero(t *testing.T) {
	m := NewManager()
	tr, err := m.Get(4326, 3857)
	assert.NoError(t, err)

	x, y, err := tr.Forward(0, 0)
	assert.NoError(t, err)
	assert.True(t, math.Abs(x) < 1e-9)
	assert.True(t, math.Abs(y) < 1e-9)
}

func TestIdentityTransform(t *testing.T) {
	m := NewManager()
	tr, err := m.Get(3857, 3857)
	assert.NoError(t, err)
	x, y, err := tr.Forward(123.4, 567.8)
	assert.NoError(t, err)
	assert.Equal(t, 123.4, x)
	assert.Equal(t, 567.8, y)
}

func TestManagerCachesTransform(t *testing.T) {
	m := NewManager()
	a, err := m.Get(4326, 3857)
	assert.NoError(t, err)
	b, err := m.Get(4326, 3857)
	assert.NoError(t, err)
	assert.True(t, a == b)
}
