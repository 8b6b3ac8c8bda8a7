package decode

import (
	"encoding/binary"
	"fmt"

	"github.com/cogtile/cogtile/cog"
)

// undoPredictor reverses a predictor transform in place, row by row, per
// the TIFF 6.0 predictor extension. data holds width*height*samplesPerPixel
// samples of bitsPerSample bits each, chunky (interleaved).
func undoPredictor(predictor cog.Predictor, data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	switch predictor {
	case cog.PredictorNone:
		return nil
	case cog.PredictorHorizontal:
		return undoHorizontalPredictor(data, width, height, samplesPerPixel, bitsPerSample)
	case cog.PredictorFloatingPoint:
		return undoFloatingPointPredictor(data, width, height, samplesPerPixel, bitsPerSample)
	default:
		return fmt.Errorf("decode: unsupported predictor %s", predictor)
	}
}

// undoHorizontalPredictor reverses the running-difference encoding applied
// per scanline: each sample after the first samplesPerPixel in a row holds
// (value - value[samplesPerPixel back]); this restores absolute values by
// cumulative sum, independently within each row.
func undoHorizontalPredictor(data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	rowSamples := width * samplesPerPixel
	switch bitsPerSample {
	case 8:
		rowBytes := rowSamples
		for r := 0; r < height; r++ {
			row := data[r*rowBytes : (r+1)*rowBytes]
			for k := samplesPerPixel; k < len(row); k++ {
				row[k] += row[k-samplesPerPixel]
			}
		}
	case 16:
		rowBytes := rowSamples * 2
		for r := 0; r < height; r++ {
			row := data[r*rowBytes : (r+1)*rowBytes]
			for k := samplesPerPixel; k < rowSamples; k++ {
				cur := binary.LittleEndian.Uint16(row[k*2:])
				prev := binary.LittleEndian.Uint16(row[(k-samplesPerPixel)*2:])
				binary.LittleEndian.PutUint16(row[k*2:], cur+prev)
			}
		}
	case 32:
		rowBytes := rowSamples * 4
		for r := 0; r < height; r++ {
			row := data[r*rowBytes : (r+1)*rowBytes]
			for k := samplesPerPixel; k < rowSamples; k++ {
				cur := binary.LittleEndian.Uint32(row[k*4:])
				prev := binary.LittleEndian.Uint32(row[(k-samplesPerPixel)*4:])
				binary.LittleEndian.PutUint32(row[k*4:], cur+prev)
			}
		}
	default:
		return fmt.Errorf("decode: horizontal predictor unsupported for %d-bit samples", bitsPerSample)
	}
	return nil
}

// undoFloatingPointPredictor reverses libtiff's floating-point predictor:
// each row is stored as bytesPerSample byte-planes of width*samplesPerPixel
// bytes each (all most-significant bytes of every sample, then all
// second-most-significant bytes, and so on), horizontally differenced byte-by-byte across the
// whole plane run, then transposed back into per-sample big-endian runs
// which are finally byte-swapped into native (little-endian) order.
func undoFloatingPointPredictor(data []byte, width, height, samplesPerPixel, bitsPerSample int) error {
	if bitsPerSample != 32 {
		return fmt.Errorf("decode: floating-point predictor only supports 32-bit samples, got %d", bitsPerSample)
	}
	bytesPerSample := bitsPerSample / 8
	rowSamples := width * samplesPerPixel
	rowBytes := rowSamples * bytesPerSample

	tmp := make([]byte, rowBytes)
	for r := 0; r < height; r++ {
		row := data[r*rowBytes : (r+1)*rowBytes]

		// Undo the horizontal byte-level difference across the whole row.
		for k := 1; k < rowBytes; k++ {
			row[k] += row[k-1]
		}

		// De-interleave byte-planes: row is laid out plane-major
		// (plane 0 = byte 0 of every sample, plane 1 = byte 1, ...);
		// tmp becomes sample-major big-endian.
		for s := 0; s < rowSamples; s++ {
			for b := 0; b < bytesPerSample; b++ {
				tmp[s*bytesPerSample+b] = row[b*rowSamples+s]
			}
		}

		// Each sample's bytesPerSample run in tmp is big-endian; convert to
		// native order in place back into row.
		for s := 0; s < rowSamples; s++ {
			be := tmp[s*bytesPerSample : (s+1)*bytesPerSample]
			for b := 0; b < bytesPerSample; b++ {
				row[s*bytesPerSample+b] = be[bytesPerSample-1-b]
			}
		}
	}
	return nil
}
