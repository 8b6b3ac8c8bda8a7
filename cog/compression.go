package cog

import "fmt"

// A Compression identifies a TIFF tile compression scheme.
type Compression uint16

const (
	CompressionNone     Compression = 1
	CompressionCCITT1D  Compression = 2
	CompressionCCITT3   Compression = 3
	CompressionCCITT4   Compression = 4
	CompressionLZW      Compression = 5
	CompressionJPEGOld  Compression = 6
	CompressionJPEG     Compression = 7
	CompressionDeflate  Compression = 8
	CompressionPackBits Compression = 32773
	CompressionDeflate2 Compression = 32946
	CompressionZstd     Compression = 50000
	CompressionWebP     Compression = 50001
	CompressionLERC     Compression = 50002
)

// Supported reports whether this reader can decode tiles compressed with c.
// None, Deflate, and JPEG are mandated by the spec; LZW is supported as a
// documented extension (see SPEC_FULL.md §4.4).
func (c Compression) Supported() bool {
	switch c {
	case CompressionNone, CompressionDeflate, CompressionDeflate2, CompressionJPEG, CompressionLZW:
		return true
	default:
		return false
	}
}

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionCCITT1D:
		return "CCITT1D"
	case CompressionCCITT3:
		return "CCITTFax3"
	case CompressionCCITT4:
		return "CCITTFax4"
	case CompressionLZW:
		return "LZW"
	case CompressionJPEGOld:
		return "JPEG-old"
	case CompressionJPEG:
		return "JPEG"
	case CompressionDeflate, CompressionDeflate2:
		return "Deflate"
	case CompressionPackBits:
		return "PackBits"
	case CompressionZstd:
		return "Zstd"
	case CompressionWebP:
		return "WebP"
	case CompressionLERC:
		return "LERC"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(c))
	}
}

// A Predictor identifies a reversible pre-compression transform.
type Predictor uint16

const (
	PredictorNone            Predictor = 1
	PredictorHorizontal      Predictor = 2
	PredictorFloatingPoint   Predictor = 3
)

func (p Predictor) String() string {
	switch p {
	case PredictorNone:
		return "None"
	case PredictorHorizontal:
		return "Horizontal"
	case PredictorFloatingPoint:
		return "FloatingPoint"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(p))
	}
}

// A Photometric identifies how decoded samples map to colour.
type Photometric uint16

const (
	PhotometricWhiteIsZero Photometric = 0
	PhotometricBlackIsZero Photometric = 1
	PhotometricRGB         Photometric = 2
	PhotometricPalette     Photometric = 3
	PhotometricYCbCr       Photometric = 6
)

func (p Photometric) String() string {
	switch p {
	case PhotometricWhiteIsZero:
		return "WhiteIsZero"
	case PhotometricBlackIsZero:
		return "BlackIsZero"
	case PhotometricRGB:
		return "RGB"
	case PhotometricPalette:
		return "Palette"
	case PhotometricYCbCr:
		return "YCbCr"
	default:
		return fmt.Sprintf("Unknown(%d)", uint16(p))
	}
}
