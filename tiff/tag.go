package tiff

import (
	"encoding/binary"
	"fmt"
)

// A Tag is a single resolved TIFF directory entry: its code, field type,
// value count, and the raw value bytes (always resolved, never an
// unresolved file offset).
type Tag struct {
	Code  uint16
	Type  FieldType
	Count uint64
	raw   []byte
	order binary.ByteOrder
}

// Uints decodes an integer-typed tag into a slice of uint64, widening as
// necessary. RATIONAL values are not valid here; use Floats.
func (t *Tag) Uints() ([]uint64, error) {
	size := t.Type.Size()
	if size == 0 {
		return nil, fmt.Errorf("tiff: tag %d: cannot decode %s as integer", t.Code, t.Type)
	}
	out := make([]uint64, t.Count)
	for i := range out {
		chunk := t.raw[uint64(i)*size : uint64(i+1)*size]
		switch t.Type {
		case TypeByte, TypeSByte, TypeUndefined, TypeASCII:
			out[i] = uint64(chunk[0])
		case TypeShort, TypeSShort:
			out[i] = uint64(t.order.Uint16(chunk))
		case TypeLong, TypeSLong:
			out[i] = uint64(t.order.Uint32(chunk))
		case TypeLong8, TypeSLong8, TypeIFD8:
			out[i] = t.order.Uint64(chunk)
		default:
			return nil, fmt.Errorf("tiff: tag %d: cannot decode %s as integer", t.Code, t.Type)
		}
	}
	return out, nil
}

// Uint returns the tag's single integer value. It is an error for Count to
// be anything other than 1.
func (t *Tag) Uint() (uint64, error) {
	if t.Count != 1 {
		return 0, fmt.Errorf("tiff: tag %d: expected a single value, got %d", t.Code, t.Count)
	}
	vs, err := t.Uints()
	if err != nil {
		return 0, err
	}
	return vs[0], nil
}

// Floats decodes a tag into a slice of float64, supporting FLOAT, DOUBLE,
// RATIONAL, SRATIONAL, and widening any integer type.
func (t *Tag) Floats() ([]float64, error) {
	switch t.Type {
	case TypeFloat:
		out := make([]float64, t.Count)
		for i := range out {
			out[i] = float64(float32FromBits(t.order.Uint32(t.raw[i*4 : i*4+4])))
		}
		return out, nil
	case TypeDouble:
		out := make([]float64, t.Count)
		for i := range out {
			out[i] = float64FromBits(t.order.Uint64(t.raw[i*8 : i*8+8]))
		}
		return out, nil
	case TypeRational:
		out := make([]float64, t.Count)
		for i := range out {
			num := t.order.Uint32(t.raw[i*8 : i*8+4])
			den := t.order.Uint32(t.raw[i*8+4 : i*8+8])
			out[i] = ratio(float64(num), float64(den))
		}
		return out, nil
	case TypeSRational:
		out := make([]float64, t.Count)
		for i := range out {
			num := int32(t.order.Uint32(t.raw[i*8 : i*8+4]))
			den := int32(t.order.Uint32(t.raw[i*8+4 : i*8+8]))
			out[i] = ratio(float64(num), float64(den))
		}
		return out, nil
	default:
		ints, err := t.Uints()
		if err != nil {
			return nil, fmt.Errorf("tiff: tag %d: cannot decode %s as float: %w", t.Code, t.Type, err)
		}
		out := make([]float64, len(ints))
		for i, v := range ints {
			out[i] = float64(v)
		}
		return out, nil
	}
}

func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ASCIIString decodes an ASCII tag, dropping a single trailing NUL if
// present (TIFF ASCII values are NUL-terminated).
func (t *Tag) ASCIIString() (string, error) {
	if t.Type != TypeASCII {
		return "", fmt.Errorf("tiff: tag %d: not ASCII (%s)", t.Code, t.Type)
	}
	s := t.raw
	if n := len(s); n > 0 && s[n-1] == 0 {
		s = s[:n-1]
	}
	return string(s), nil
}

// Bytes returns the tag's raw value bytes, for UNDEFINED payloads such as
// JPEGTables.
func (t *Tag) Bytes() []byte {
	return t.raw
}
