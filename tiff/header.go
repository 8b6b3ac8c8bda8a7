package tiff

import (
	"context"
	"encoding/binary"

	"github.com/cogtile/cogtile/bytesrc"
)

const (
	magicClassic = 42
	magicBigTiff = 43
)

// A Header is the fixed-size TIFF/BigTIFF prologue: byte order, variant,
// and the offset of the first IFD.
type Header struct {
	ByteOrder      binary.ByteOrder
	BigTiff        bool
	FirstIFDOffset uint64
}

// OffsetWidth returns 4 for classic TIFF and 8 for BigTIFF, the width the
// parser must commit to for every offset-bearing tag in the file.
func (h *Header) OffsetWidth() uint64 {
	if h.BigTiff {
		return 8
	}
	return 4
}

// EntryCountWidth returns 2 for classic TIFF and 8 for BigTIFF.
func (h *Header) EntryCountWidth() uint64 {
	if h.BigTiff {
		return 8
	}
	return 2
}

// EntrySize returns the fixed size of one IFD directory entry: 12 bytes for
// classic TIFF, 20 bytes for BigTIFF.
func (h *Header) EntrySize() uint64 {
	if h.BigTiff {
		return 20
	}
	return 12
}

// ParseHeader reads and validates the 16-byte TIFF/BigTIFF header (16 bytes
// is enough to cover either variant).
func ParseHeader(ctx context.Context, src bytesrc.ByteSource) (*Header, error) {
	buf, err := src.ReadRange(ctx, 0, 16)
	if err != nil {
		return nil, err
	}

	var bo binary.ByteOrder
	switch string(buf[0:2]) {
	case "II":
		bo = binary.LittleEndian
	case "MM":
		bo = binary.BigEndian
	default:
		return nil, malformed("invalid byte-order marker %q", buf[0:2])
	}

	magic := bo.Uint16(buf[2:4])
	h := &Header{ByteOrder: bo}
	switch magic {
	case magicClassic:
		h.BigTiff = false
		h.FirstIFDOffset = uint64(bo.Uint32(buf[4:8]))
	case magicBigTiff:
		h.BigTiff = true
		offsetByteSize := bo.Uint16(buf[4:6])
		if offsetByteSize != 8 {
			return nil, malformed("unexpected BigTIFF offset byte size %d", offsetByteSize)
		}
		if constant := bo.Uint16(buf[6:8]); constant != 0 {
			return nil, malformed("unexpected BigTIFF constant %d", constant)
		}
		h.FirstIFDOffset = bo.Uint64(buf[8:16])
	default:
		return nil, malformed("invalid magic number %d", magic)
	}
	return h, nil
}
