package decode

import (
	"fmt"

	"github.com/cogtile/cogtile/cog"
)

// DecodeError is a per-tile decode failure (bad compressed stream, size
// mismatch, unsupported predictor). Per the spec, the tile extractor
// catches this, substitutes nodata for the affected pixels, and continues.
type DecodeError struct {
	IFDIndex int
	Col, Row int
	Reason   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode: tile (ifd=%d, col=%d, row=%d): %s", e.IFDIndex, e.Col, e.Row, e.Reason)
}

func decodeErr(ifdIndex, col, row int, format string, args ...any) error {
	return &DecodeError{IFDIndex: ifdIndex, Col: col, Row: row, Reason: fmt.Sprintf(format, args...)}
}

func errSizeMismatch(want, got int) error {
	return fmt.Errorf("decode: expected %d decompressed bytes, got %d", want, got)
}

func errUnsupportedCompression(c cog.Compression) error {
	return fmt.Errorf("decode: unsupported compression %s", c)
}

func errUnsupportedPhotometric(p cog.Photometric) error {
	return fmt.Errorf("decode: unsupported photometric interpretation %s", p)
}
