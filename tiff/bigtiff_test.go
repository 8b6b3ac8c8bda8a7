package tiff_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/cogtile/cogtile/tiff"
)

// TestBigTiffLargeEntryCountReadsAllEntries pins the boundary behaviour of a
// BigTIFF IFD with entry_count = 0x10001: the whole directory is read (a
// 16-bit entry count would truncate it to a single entry). 0x10001 entries
// outnumber the 65536 distinct tag codes, so the last entry necessarily
// repeats code 1; reaching it is what yields the DuplicateTagError.
func TestBigTiffLargeEntryCountReadsAllEntries(t *testing.T) {
	const entryCount = 0x10001

	var buf bytes.Buffer
	buf.WriteString("II")
	binary.Write(&buf, binary.LittleEndian, uint16(43))
	binary.Write(&buf, binary.LittleEndian, uint16(8))
	binary.Write(&buf, binary.LittleEndian, uint16(0))
	binary.Write(&buf, binary.LittleEndian, uint64(16))

	binary.Write(&buf, binary.LittleEndian, uint64(entryCount))
	for i := 0; i < entryCount; i++ {
		binary.Write(&buf, binary.LittleEndian, uint16(i+1)) // codes 1..0xFFFF, then 0, then 1 again
		binary.Write(&buf, binary.LittleEndian, uint16(tiff.TypeShort))
		binary.Write(&buf, binary.LittleEndian, uint64(1))
		binary.Write(&buf, binary.LittleEndian, uint16(7))
		buf.Write(make([]byte, 6)) // pad the 20-byte BigTIFF entry
	}
	binary.Write(&buf, binary.LittleEndian, uint64(0))

	src := openBytes(t, buf.Bytes())
	defer src.Close()

	h, err := tiff.ParseHeader(context.Background(), src)
	assert.NoError(t, err)
	_, err = tiff.ReadIFDs(context.Background(), src, h)
	assert.Error(t, err)
	var dup *tiff.DuplicateTagError
	assert.True(t, errors.As(err, &dup))
	assert.Equal(t, uint16(1), dup.Code)
}
