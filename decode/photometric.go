package decode

import "github.com/cogtile/cogtile/cog"

// applyPhotometric interprets raw sample data under the IFD's photometric
// scheme, returning RGBA8 output of width*height*4 bytes. WhiteIsZero and
// BlackIsZero map a single band to a grey ramp; RGB and YCbCr (already
// decoded to RGB triples by the JPEG step) pass through; Palette resolves
// each index through colorMap. When nodata is non-nil, a pixel whose raw
// band-0 sample equals *nodata is written fully transparent (alpha=0),
// regardless of what the photometric interpretation would otherwise draw.
func applyPhotometric(photo cog.Photometric, data []byte, width, height, samplesPerPixel, bitsPerSample int, colorMap []uint16, nodata *float64) ([]byte, error) {
	out := make([]byte, width*height*4)

	switch photo {
	case cog.PhotometricWhiteIsZero, cog.PhotometricBlackIsZero:
		invert := photo == cog.PhotometricWhiteIsZero
		bytesPerSample := bitsPerSample / 8
		for i := 0; i < width*height; i++ {
			raw := sampleAt(data, i*samplesPerPixel, bytesPerSample, bitsPerSample)
			v := raw
			if invert {
				v = maxSampleValue(bitsPerSample) - v
			}
			g := scaleTo8Bit(v, bitsPerSample)
			out[i*4+0] = g
			out[i*4+1] = g
			out[i*4+2] = g
			out[i*4+3] = alphaFor(raw, nodata)
		}

	case cog.PhotometricRGB, cog.PhotometricYCbCr:
		bytesPerSample := bitsPerSample / 8
		for i := 0; i < width*height; i++ {
			raw := sampleAt(data, i*samplesPerPixel+0, bytesPerSample, bitsPerSample)
			r := scaleTo8Bit(raw, bitsPerSample)
			g := scaleTo8Bit(sampleAt(data, i*samplesPerPixel+1, bytesPerSample, bitsPerSample), bitsPerSample)
			b := scaleTo8Bit(sampleAt(data, i*samplesPerPixel+2, bytesPerSample, bitsPerSample), bitsPerSample)
			out[i*4+0] = r
			out[i*4+1] = g
			out[i*4+2] = b
			switch {
			case alphaFor(raw, nodata) == 0:
				out[i*4+3] = 0
			case samplesPerPixel >= 4:
				out[i*4+3] = scaleTo8Bit(sampleAt(data, i*samplesPerPixel+3, bytesPerSample, bitsPerSample), bitsPerSample)
			default:
				out[i*4+3] = 0xff
			}
		}

	case cog.PhotometricPalette:
		bytesPerSample := bitsPerSample / 8
		n := len(colorMap) / 3
		for i := 0; i < width*height; i++ {
			raw := sampleAt(data, i*samplesPerPixel, bytesPerSample, bitsPerSample)
			idx := int(raw)
			if idx >= n {
				idx = n - 1
			}
			out[i*4+0] = byte(colorMap[idx] >> 8)
			out[i*4+1] = byte(colorMap[n+idx] >> 8)
			out[i*4+2] = byte(colorMap[2*n+idx] >> 8)
			out[i*4+3] = alphaFor(raw, nodata)
		}

	default:
		return nil, errUnsupportedPhotometric(photo)
	}

	return out, nil
}

// alphaFor returns 0 when raw matches the IFD's declared nodata value,
// otherwise fully opaque.
func alphaFor(raw uint32, nodata *float64) byte {
	if nodata != nil && float64(raw) == *nodata {
		return 0
	}
	return 0xff
}

func sampleAt(data []byte, sampleIndex, bytesPerSample, bitsPerSample int) uint32 {
	off := sampleIndex * bytesPerSample
	var v uint32
	for i := 0; i < bytesPerSample; i++ {
		v |= uint32(data[off+i]) << (8 * i)
	}
	return v
}

func maxSampleValue(bitsPerSample int) uint32 {
	return (uint32(1) << uint(bitsPerSample)) - 1
}

func scaleTo8Bit(v uint32, bitsPerSample int) byte {
	if bitsPerSample == 8 {
		return byte(v)
	}
	max := maxSampleValue(bitsPerSample)
	return byte((v * 255) / max)
}
