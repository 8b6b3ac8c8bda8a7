package cog

import (
	"fmt"

	"github.com/cogtile/cogtile/tiff"
)

// An Ifd is a validated, typed view of a single tiled TIFF IFD: the
// geometry, band layout, compression, and GeoTIFF metadata needed by the
// decoder and tile extractor.
type Ifd struct {
	Width, Height         int
	TileWidth, TileLength int
	BitsPerSample         []uint16
	SamplesPerPixel       int
	PlanarConfiguration   int
	Compression           Compression
	Photometric           Photometric
	Predictor             Predictor
	SampleFormat          int
	ColorMap              []uint16
	JPEGTables            []byte
	NoData                *float64
	TileOffsets           []uint64
	TileByteCounts        []uint64
	Geo                   GeoInfo
}

// TilesAcross returns the number of tiles spanning the image width.
func (ifd *Ifd) TilesAcross() int {
	return (ifd.Width + ifd.TileWidth - 1) / ifd.TileWidth
}

// TilesDown returns the number of tiles spanning the image height.
func (ifd *Ifd) TilesDown() int {
	return (ifd.Height + ifd.TileLength - 1) / ifd.TileLength
}

// TileIndex returns the flat index into TileOffsets/TileByteCounts for
// tile (col, row).
func (ifd *Ifd) TileIndex(col, row int) int {
	return row*ifd.TilesAcross() + col
}

// PixelSizeX returns the pixel width in CRS units, derived from the affine
// transform.
func (ifd *Ifd) PixelSizeX() float64 {
	return ifd.Geo.Transform.A
}

// PixelSizeY returns the pixel height in CRS units (positive).
func (ifd *Ifd) PixelSizeY() float64 {
	y := ifd.Geo.Transform.E
	if y < 0 {
		y = -y
	}
	return y
}

func buildIfd(index int, raw *tiff.IFD, prev *Ifd) (*Ifd, error) {
	if _, ok := raw.Tag(tagTileWidth); !ok {
		return nil, &NotTiledError{IFDIndex: index}
	}
	for _, code := range requiredPrimaryTags {
		if _, ok := raw.Tag(code); !ok {
			return nil, &MissingTagError{IFDIndex: index, Tag: code}
		}
	}

	ifd := &Ifd{}

	width, err := mustUint(raw, tagImageWidth, index)
	if err != nil {
		return nil, err
	}
	height, err := mustUint(raw, tagImageLength, index)
	if err != nil {
		return nil, err
	}
	ifd.Width, ifd.Height = int(width), int(height)

	tw, err := mustUint(raw, tagTileWidth, index)
	if err != nil {
		return nil, err
	}
	tl, err := mustUint(raw, tagTileLength, index)
	if err != nil {
		return nil, err
	}
	ifd.TileWidth, ifd.TileLength = int(tw), int(tl)

	if bps, ok := raw.Tag(tagBitsPerSample); ok {
		vals, err := bps.Uints()
		if err != nil {
			return nil, err
		}
		ifd.BitsPerSample = make([]uint16, len(vals))
		for i, v := range vals {
			ifd.BitsPerSample[i] = uint16(v)
		}
	}

	spp, err := mustUint(raw, tagSamplesPerPixel, index)
	if err != nil {
		return nil, err
	}
	ifd.SamplesPerPixel = int(spp)

	planar, err := mustUint(raw, tagPlanarConfiguration, index)
	if err != nil {
		return nil, err
	}
	ifd.PlanarConfiguration = int(planar)

	compr, err := mustUint(raw, tagCompression, index)
	if err != nil {
		return nil, err
	}
	ifd.Compression = Compression(compr)

	photo, err := mustUint(raw, tagPhotometricInterpretation, index)
	if err != nil {
		return nil, err
	}
	ifd.Photometric = Photometric(photo)

	ifd.Predictor = PredictorNone
	if t, ok := raw.Tag(tagPredictor); ok {
		v, err := t.Uint()
		if err != nil {
			return nil, err
		}
		ifd.Predictor = Predictor(v)
	}

	if t, ok := raw.Tag(tagSampleFormat); ok {
		v, err := t.Uint()
		if err != nil {
			return nil, err
		}
		ifd.SampleFormat = int(v)
	} else {
		ifd.SampleFormat = 1 // unsigned integer, the TIFF default.
	}

	if t, ok := raw.Tag(tagColorMap); ok {
		vals, err := t.Uints()
		if err != nil {
			return nil, err
		}
		ifd.ColorMap = make([]uint16, len(vals))
		for i, v := range vals {
			ifd.ColorMap[i] = uint16(v)
		}
	}

	if t, ok := raw.Tag(tagJPEGTables); ok {
		ifd.JPEGTables = t.Bytes()
	}

	if t, ok := raw.Tag(tagGDALNoData); ok {
		s, err := t.ASCIIString()
		if err == nil {
			if v, ok := parseNoData(s); ok {
				ifd.NoData = &v
			}
		}
	}

	offsetsTag, ok := raw.Tag(tagTileOffsets)
	if !ok {
		return nil, &MissingTagError{IFDIndex: index, Tag: tagTileOffsets}
	}
	offsets, err := offsetsTag.Uints()
	if err != nil {
		return nil, err
	}
	countsTag, ok := raw.Tag(tagTileByteCounts)
	if !ok {
		return nil, &MissingTagError{IFDIndex: index, Tag: tagTileByteCounts}
	}
	counts, err := countsTag.Uints()
	if err != nil {
		return nil, err
	}
	ifd.TileOffsets = offsets
	ifd.TileByteCounts = counts

	expected := ifd.TilesAcross() * ifd.TilesDown()
	if len(offsets) != expected || len(counts) != expected {
		return nil, &TileCountMismatchError{IFDIndex: index, Expected: expected, Got: len(offsets)}
	}

	ifd.Geo = parseGeoInfo(raw)

	if prev != nil && (ifd.Width >= prev.Width || ifd.Height >= prev.Height) {
		return nil, &InconsistentOverviewError{IFDIndex: index}
	}

	return ifd, nil
}

func mustUint(raw *tiff.IFD, code uint16, index int) (uint64, error) {
	t, ok := raw.Tag(code)
	if !ok {
		return 0, &MissingTagError{IFDIndex: index, Tag: code}
	}
	return t.Uint()
}

func parseNoData(s string) (float64, bool) {
	var v float64
	n, err := fmt.Sscan(s, &v)
	if err != nil || n != 1 {
		return 0, false
	}
	return v, true
}
