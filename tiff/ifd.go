package tiff

import (
	"context"
	"sort"

	"github.com/cogtile/cogtile/bytesrc"
)

// An IFD is an ordered Image File Directory: a tag dictionary keyed by code,
// plus the file offset of the next IFD (0 terminates the chain).
type IFD struct {
	Tags       map[uint16]*Tag
	NextOffset uint64
}

// Tag returns the tag with the given code, if present.
func (ifd *IFD) Tag(code uint16) (*Tag, bool) {
	t, ok := ifd.Tags[code]
	return t, ok
}

// rawEntry is one fixed-width directory entry before offset resolution.
type rawEntry struct {
	code     uint16
	typ      FieldType
	count    uint64
	inline   []byte // populated if the value fits inline
	offset   uint64 // populated if the value is offset-resident
	external bool
}

// ReadIFDs walks the IFD chain starting at h.FirstIFDOffset until a next
// offset of 0 terminates it.
func ReadIFDs(ctx context.Context, src bytesrc.ByteSource, h *Header) ([]*IFD, error) {
	var ifds []*IFD
	offset := h.FirstIFDOffset
	seen := map[uint64]bool{}
	for offset != 0 {
		if seen[offset] {
			return nil, malformed("IFD chain contains a cycle at offset %d", offset)
		}
		seen[offset] = true

		ifd, next, err := readOneIFD(ctx, src, h, offset)
		if err != nil {
			return nil, err
		}
		ifds = append(ifds, ifd)
		offset = next
	}
	if len(ifds) == 0 {
		return nil, malformed("no IFDs found")
	}
	return ifds, nil
}

func readOneIFD(ctx context.Context, src bytesrc.ByteSource, h *Header, offset uint64) (*IFD, uint64, error) {
	countWidth := h.EntryCountWidth()
	countBuf, err := src.ReadRange(ctx, offset, countWidth)
	if err != nil {
		return nil, 0, err
	}
	var entryCount uint64
	if h.BigTiff {
		entryCount = h.ByteOrder.Uint64(countBuf)
	} else {
		entryCount = uint64(h.ByteOrder.Uint16(countBuf))
	}

	entrySize := h.EntrySize()
	entriesOffset := offset + countWidth
	entriesBuf, err := src.ReadRange(ctx, entriesOffset, entryCount*entrySize)
	if err != nil {
		return nil, 0, err
	}

	nextOffsetPos := entriesOffset + entryCount*entrySize
	nextBuf, err := src.ReadRange(ctx, nextOffsetPos, h.OffsetWidth())
	if err != nil {
		return nil, 0, err
	}
	var nextOffset uint64
	if h.BigTiff {
		nextOffset = h.ByteOrder.Uint64(nextBuf)
	} else {
		nextOffset = uint64(h.ByteOrder.Uint32(nextBuf))
	}

	entries := make([]rawEntry, entryCount)
	for i := range entries {
		buf := entriesBuf[uint64(i)*entrySize : uint64(i+1)*entrySize]
		entries[i] = parseEntry(buf, h)
	}

	if err := resolveOffsetResidentEntries(ctx, src, h, entries); err != nil {
		return nil, 0, err
	}

	tags := make(map[uint16]*Tag, len(entries))
	for _, e := range entries {
		if _, dup := tags[e.code]; dup {
			return nil, 0, &DuplicateTagError{Code: e.code}
		}
		value := e.inline
		tags[e.code] = &Tag{Code: e.code, Type: e.typ, Count: e.count, raw: value, order: h.ByteOrder}
	}

	return &IFD{Tags: tags, NextOffset: nextOffset}, nextOffset, nil
}

func parseEntry(buf []byte, h *Header) rawEntry {
	bo := h.ByteOrder
	code := bo.Uint16(buf[0:2])
	typ := FieldType(bo.Uint16(buf[2:4]))

	var count uint64
	var valueField []byte
	if h.BigTiff {
		count = bo.Uint64(buf[4:12])
		valueField = buf[12:20]
	} else {
		count = uint64(bo.Uint32(buf[4:8]))
		valueField = buf[8:12]
	}

	payloadSize := count * typ.Size()
	offsetWidth := h.OffsetWidth()

	e := rawEntry{code: code, typ: typ, count: count}
	if typ.Size() != 0 && payloadSize <= offsetWidth {
		// Inline: the value occupies the leading bytes of the value field,
		// left-justified regardless of byte order (per the TIFF 6.0 spec).
		e.inline = append([]byte(nil), valueField[:payloadSize]...)
	} else {
		e.external = true
		if h.BigTiff {
			e.offset = bo.Uint64(valueField)
		} else {
			e.offset = uint64(bo.Uint32(valueField))
		}
	}
	return e
}

// resolveOffsetResidentEntries fetches the value bytes for every entry whose
// value is stored externally. Entries are sorted by offset and adjacent or
// overlapping payloads are coalesced into a single range read, amortizing
// round trips against the byte source.
func resolveOffsetResidentEntries(ctx context.Context, src bytesrc.ByteSource, h *Header, entries []rawEntry) error {
	type pending struct {
		idx   int
		start uint64
		end   uint64
	}
	var work []pending
	for i := range entries {
		if !entries[i].external {
			continue
		}
		size := entries[i].count * entries[i].typ.Size()
		work = append(work, pending{idx: i, start: entries[i].offset, end: entries[i].offset + size})
	}
	if len(work) == 0 {
		return nil
	}
	sort.Slice(work, func(a, b int) bool { return work[a].start < work[b].start })

	i := 0
	for i < len(work) {
		j := i
		groupEnd := work[i].end
		for j+1 < len(work) && work[j+1].start <= groupEnd {
			j++
			if work[j].end > groupEnd {
				groupEnd = work[j].end
			}
		}
		groupStart := work[i].start
		buf, err := src.ReadRange(ctx, groupStart, groupEnd-groupStart)
		if err != nil {
			return err
		}
		for k := i; k <= j; k++ {
			lo := work[k].start - groupStart
			hi := work[k].end - groupStart
			entries[work[k].idx].inline = append([]byte(nil), buf[lo:hi]...)
		}
		i = j + 1
	}
	return nil
}
