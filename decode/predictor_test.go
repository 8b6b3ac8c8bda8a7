package decode

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cogtile/cogtile/cog"
)

// applyHorizontalPredictor is the forward transform, used only by tests to
// build round-trip fixtures; real COG tiles arrive pre-encoded.
func applyHorizontalPredictor(data []byte, width, height, samplesPerPixel int) {
	rowBytes := width * samplesPerPixel
	for r := 0; r < height; r++ {
		row := data[r*rowBytes : (r+1)*rowBytes]
		for k := len(row) - 1; k >= samplesPerPixel; k-- {
			row[k] -= row[k-samplesPerPixel]
		}
	}
}

func TestUndoHorizontalPredictorRoundTrip(t *testing.T) {
	width, height, spp := 4, 3, 2
	original := make([]byte, width*height*spp)
	for i := range original {
		original[i] = byte(i * 7 % 251)
	}

	encoded := append([]byte(nil), original...)
	applyHorizontalPredictor(encoded, width, height, spp)

	err := undoPredictor(cog.PredictorHorizontal, encoded, width, height, spp, 8)
	assert.NoError(t, err)
	assert.Equal(t, original, encoded)
}

func TestUndoHorizontalPredictor16Bit(t *testing.T) {
	width, height, spp := 3, 2, 1
	original := []uint16{100, 2000, 500, 10, 60000, 7}
	raw := make([]byte, len(original)*2)
	for i, v := range original {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}

	rowSamples := width * spp
	encoded := append([]byte(nil), raw...)
	for r := 0; r < height; r++ {
		for k := rowSamples - 1; k >= spp; k-- {
			cur := binary.LittleEndian.Uint16(encoded[(r*rowSamples+k)*2:])
			prev := binary.LittleEndian.Uint16(encoded[(r*rowSamples+k-spp)*2:])
			binary.LittleEndian.PutUint16(encoded[(r*rowSamples+k)*2:], cur-prev)
		}
	}

	err := undoPredictor(cog.PredictorHorizontal, encoded, width, height, spp, 16)
	assert.NoError(t, err)
	assert.Equal(t, raw, encoded)
}

func TestUndoFloatingPointPredictorRoundTrip(t *testing.T) {
	width, height, spp := 4, 2, 1
	values := []float32{1.5, -2.25, 100.125, 0, 3.0, 4.75, -8.5, 16.0625}

	raw := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}

	encoded := encodeFloatingPointPredictor(raw, width, height, spp)

	err := undoPredictor(cog.PredictorFloatingPoint, encoded, width, height, spp, 32)
	assert.NoError(t, err)
	assert.Equal(t, raw, encoded)
}

// encodeFloatingPointPredictor is the forward transform (the inverse of
// undoFloatingPointPredictor), used only to build the round-trip fixture
// above.
func encodeFloatingPointPredictor(data []byte, width, height, samplesPerPixel int) []byte {
	bytesPerSample := 4
	rowSamples := width * samplesPerPixel
	rowBytes := rowSamples * bytesPerSample
	out := make([]byte, len(data))

	tmp := make([]byte, rowBytes)
	for r := 0; r < height; r++ {
		row := data[r*rowBytes : (r+1)*rowBytes]
		outRow := out[r*rowBytes : (r+1)*rowBytes]

		// Native (little-endian) samples -> big-endian runs.
		for s := 0; s < rowSamples; s++ {
			le := row[s*bytesPerSample : (s+1)*bytesPerSample]
			for b := 0; b < bytesPerSample; b++ {
				tmp[s*bytesPerSample+b] = le[bytesPerSample-1-b]
			}
		}

		// Transpose sample-major big-endian runs into plane-major order.
		for s := 0; s < rowSamples; s++ {
			for b := 0; b < bytesPerSample; b++ {
				outRow[b*rowSamples+s] = tmp[s*bytesPerSample+b]
			}
		}

		// Difference across the whole plane-major row, reversed (since
		// undo accumulates forward via +=).
		for k := rowBytes - 1; k >= 1; k-- {
			outRow[k] -= outRow[k-1]
		}
	}
	return out
}
