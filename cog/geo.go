package cog

import (
	"github.com/cogtile/cogtile/tiff"
)

// GeoKey identifiers recognized when recovering a CRS from a GeoKey
// directory. Only the keys this reader needs are named; the rest of the
// directory is parsed but ignored.
type GeoKey uint16

const (
	GeoKeyGeographicType GeoKey = 2048
	GeoKeyProjectedCSType GeoKey = 3072
)

// Affine is a 2D affine pixel->model transform:
//
//	X = A*col + B*row + C
//	Y = D*col + E*row + F
type Affine struct {
	A, B, C float64
	D, E, F float64
}

// Forward maps a pixel coordinate to model (CRS) space.
func (a Affine) Forward(col, row float64) (x, y float64) {
	return a.A*col + a.B*row + a.C, a.D*col + a.E*row + a.F
}

// Inverse maps a model (CRS) space coordinate back to pixel space. ok is
// false if the transform is singular (zero determinant).
func (a Affine) Inverse(x, y float64) (col, row float64, ok bool) {
	det := a.A*a.E - a.B*a.D
	if det == 0 {
		return 0, 0, false
	}
	px, py := x-a.C, y-a.F
	col = (a.E*px - a.B*py) / det
	row = (a.A*py - a.D*px) / det
	return col, row, true
}

// GeoInfo carries the geospatial metadata recovered from an IFD's GeoTIFF
// tags: the pixel->model affine transform and, if resolvable, an EPSG code.
type GeoInfo struct {
	Transform Affine
	EPSG      int // 0 if unresolved.
}

// parseGeoInfo builds a GeoInfo from the raw GeoTIFF tags on an IFD. Per
// the spec's tie-break rule, ModelTransformation takes precedence over
// ModelPixelScale+ModelTiepoint when both are present. An invalid or absent
// GeoKey directory degrades to EPSG 0 ("unknown CRS") rather than failing
// the load.
func parseGeoInfo(raw *tiff.IFD) GeoInfo {
	info := GeoInfo{}

	if t, ok := raw.Tag(tagModelTransformation); ok {
		if vals, err := t.Floats(); err == nil && len(vals) >= 8 {
			// Row-major 4x4; use columns 0, 1 and 3 (the translation) of the
			// first two rows.
			info.Transform = Affine{
				A: vals[0], B: vals[1], C: vals[3],
				D: vals[4], E: vals[5], F: vals[7],
			}
			info.EPSG = extractEPSG(raw)
			return info
		}
	}

	var scale, tiepoint []float64
	if t, ok := raw.Tag(tagModelPixelScale); ok {
		scale, _ = t.Floats()
	}
	if t, ok := raw.Tag(tagModelTiepoint); ok {
		tiepoint, _ = t.Floats()
	}
	if len(scale) >= 2 && len(tiepoint) >= 6 {
		sx, sy := scale[0], scale[1]
		i, j, x0, y0 := tiepoint[0], tiepoint[1], tiepoint[3], tiepoint[4]
		// X = X0 + (col-i)*sx ; Y = Y0 - (row-j)*sy
		info.Transform = Affine{
			A: sx, B: 0, C: x0 - i*sx,
			D: 0, E: -sy, F: y0 + j*sy,
		}
	}

	info.EPSG = extractEPSG(raw)
	return info
}

func extractEPSG(raw *tiff.IFD) int {
	t, ok := raw.Tag(tagGeoKeyDirectory)
	if !ok {
		return 0
	}
	dirVals, err := t.Uints()
	if err != nil || len(dirVals) < 4 {
		return 0
	}
	directory := make([]uint16, len(dirVals))
	for i, v := range dirVals {
		directory[i] = uint16(v)
	}

	var doubleParams []float64
	if dt, ok := raw.Tag(tagGeoDoubleParams); ok {
		doubleParams, _ = dt.Floats()
	}
	var asciiParams []byte
	if at, ok := raw.Tag(tagGeoAsciiParams); ok {
		asciiParams = at.Bytes()
	}

	keys, err := ParseGeoKeys(directory, doubleParams, asciiParams)
	if err != nil {
		return 0
	}
	if v, ok := keys.Params[GeoKeyProjectedCSType]; ok && v > 0 && v < 32767 {
		return v
	}
	if v, ok := keys.Params[GeoKeyGeographicType]; ok && v > 0 && v < 32767 {
		return v
	}
	return 0
}

// ParsedGeoKeys is the decoded contents of a GeoKeyDirectory.
type ParsedGeoKeys struct {
	Params       map[GeoKey]int
	DoubleParams map[GeoKey]float64
	ASCIIParams  map[GeoKey]string
}

// ParseGeoKeys decodes a GeoKeyDirectory tag (plus its associated
// GeoDoubleParams/GeoAsciiParams tags) into a ParsedGeoKeys. An invalid
// directory (bad version, truncated key list) returns an error; the caller
// is expected to degrade to "unknown CRS" rather than fail the whole load.
func ParseGeoKeys(directory []uint16, doubleParams []float64, asciiParams []byte) (*ParsedGeoKeys, error) {
	if len(directory) < 4 {
		return nil, errGeoKeyParse
	}
	if directory[0] != 1 {
		return nil, errGeoKeyParse
	}
	numberOfKeys := int(directory[3])
	if len(directory) < 4+4*numberOfKeys {
		return nil, errGeoKeyParse
	}

	keys := &ParsedGeoKeys{
		Params:       make(map[GeoKey]int),
		DoubleParams: make(map[GeoKey]float64),
		ASCIIParams:  make(map[GeoKey]string),
	}
	for i := range numberOfKeys {
		entry := directory[4+4*i : 4+4*(i+1)]
		key := GeoKey(entry[0])
		location := entry[1]
		count := int(entry[2])
		valueOffset := int(entry[3])
		switch location {
		case 0:
			keys.Params[key] = valueOffset
		case tagGeoDoubleParams:
			if count == 1 && valueOffset < len(doubleParams) {
				keys.DoubleParams[key] = doubleParams[valueOffset]
			}
		case tagGeoAsciiParams:
			end := valueOffset + count
			if end <= len(asciiParams) {
				keys.ASCIIParams[key] = string(asciiParams[valueOffset:end])
			}
		}
	}
	return keys, nil
}
