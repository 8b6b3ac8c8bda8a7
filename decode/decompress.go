package decode

import (
	"bytes"
	"image"
	"image/jpeg"
	"io"

	"github.com/klauspost/compress/zlib"
	"golang.org/x/image/tiff/lzw"

	"github.com/cogtile/cogtile/cog"
)

// decompress expands a raw compressed tile payload to its uncompressed size
// (tileWidth*tileLength*samplesPerPixel*bitsPerSample/8 bytes), per the
// scheme named by compression. jpegTables, if non-empty, is the shared
// quantization/Huffman table segment every JPEG-compressed tile in the IFD
// is missing and must be reassembled with.
func decompress(compression cog.Compression, raw, jpegTables []byte, uncompressedSize int, samplesPerPixel int) ([]byte, error) {
	switch compression {
	case cog.CompressionNone:
		if len(raw) != uncompressedSize {
			return nil, errSizeMismatch(uncompressedSize, len(raw))
		}
		return raw, nil

	case cog.CompressionDeflate, cog.CompressionDeflate2:
		zr, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		out := make([]byte, uncompressedSize)
		if _, err := io.ReadFull(zr, out); err != nil {
			return nil, err
		}
		return out, nil

	case cog.CompressionLZW:
		lr := lzw.NewReader(bytes.NewReader(raw), lzw.MSB, 8)
		defer lr.Close()
		out := make([]byte, uncompressedSize)
		if _, err := io.ReadFull(lr, out); err != nil {
			return nil, err
		}
		return out, nil

	case cog.CompressionJPEG:
		return decodeJPEGTile(raw, jpegTables, uncompressedSize, samplesPerPixel)

	default:
		return nil, errUnsupportedCompression(compression)
	}
}

// decodeJPEGTile reassembles a full JPEG stream from a tile's abbreviated
// payload (SOS segment onward, per the TIFF/JPEG spec) and the IFD-level
// JPEGTables segment (SOI through the last DHT/DQT marker before SOS), then
// decodes it with the standard library decoder.
func decodeJPEGTile(raw, jpegTables []byte, uncompressedSize, samplesPerPixel int) ([]byte, error) {
	var full []byte
	if len(jpegTables) > 2 {
		// jpegTables begins with its own SOI/EOI; splice out the EOI (last
		// two bytes) and append the tile's own segments.
		full = append(full, jpegTables[:len(jpegTables)-2]...)
		full = append(full, raw...)
	} else {
		full = raw
	}

	img, err := jpeg.Decode(bytes.NewReader(full))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, uncompressedSize)
	switch px := img.(type) {
	case *image.Gray:
		b := px.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			out = append(out, px.Pix[(y-b.Min.Y)*px.Stride:(y-b.Min.Y)*px.Stride+b.Dx()]...)
		}
	case *image.YCbCr:
		b := px.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, _ := px.At(x, y).RGBA()
				out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
			}
		}
	default:
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				r, g, bl, a := img.At(x, y).RGBA()
				switch samplesPerPixel {
				case 1:
					out = append(out, byte(r>>8))
				case 4:
					out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8), byte(a>>8))
				default:
					out = append(out, byte(r>>8), byte(g>>8), byte(bl>>8))
				}
			}
		}
	}
	if len(out) != uncompressedSize {
		return nil, errSizeMismatch(uncompressedSize, len(out))
	}
	return out, nil
}
