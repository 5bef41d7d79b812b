package format

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/meigma/qgenie/internal/bundletype"
)

// recordFixedSize is the size of a TOC record excluding the name bytes.
const recordFixedSize = 2 + 8 + 8 + 8 + 4

// Decode decodes the header and every entry of the bundle b.
//
// The first entry is always the configuration section addressed by the
// header; TOC entries follow in the order they are stored. Duplicate names
// are returned as stored.
func Decode(b []byte) (Header, []Entry, error) {
	h, err := DecodeHeader(b)
	if err != nil {
		return h, nil, err
	}
	limit := uint64(len(b) - FooterSize)

	cfg := Entry{
		Name:       bundletype.ConfigName,
		Offset:     h.ConfigOffset,
		CompLength: h.ConfigLength,
	}
	if err := checkRange(&cfg, limit); err != nil {
		return h, nil, err
	}
	cfg.RawLength, cfg.RawKnown = contentSize(b[cfg.Offset : cfg.Offset+cfg.CompLength])

	if h.TOCOffset < uint64(HeaderSize) || h.TOCOffset > limit {
		return h, nil, fmt.Errorf("%w: toc offset %d outside [%d, %d]", ErrFormat, h.TOCOffset, HeaderSize, limit)
	}

	entries := []Entry{cfg}
	r := tocReader{buf: b[:limit], off: int(h.TOCOffset)} //nolint:gosec // bounded by limit
	for r.off < len(r.buf) {
		e, err := r.next()
		if err != nil {
			return h, nil, err
		}
		if err := checkRange(&e, limit); err != nil {
			return h, nil, err
		}
		entries = append(entries, e)
	}
	return h, entries, nil
}

// checkRange verifies that the entry's payload lies inside [0, limit).
func checkRange(e *Entry, limit uint64) error {
	end, ok := e.End()
	if !ok || end > limit {
		return fmt.Errorf("%w: %s: payload [%d, +%d) exceeds data region of %d bytes",
			ErrFormat, e.Name, e.Offset, e.CompLength, limit)
	}
	return nil
}

// contentSize returns the decompressed size declared by the zstd frame
// header of payload, if any.
func contentSize(payload []byte) (uint64, bool) {
	if len(payload) == 0 {
		return 0, true
	}
	var fh zstd.Header
	if err := fh.Decode(payload); err != nil || fh.Skippable || !fh.HasFCS {
		return 0, false
	}
	return fh.FrameContentSize, true
}

// tocReader walks TOC records with bounds checks on every field.
type tocReader struct {
	buf []byte
	off int
}

func (r *tocReader) take(n int, what string) ([]byte, error) {
	if n > len(r.buf)-r.off {
		return nil, fmt.Errorf("%w: truncated toc: %s at offset %d needs %d bytes, %d remain",
			ErrFormat, what, r.off, n, len(r.buf)-r.off)
	}
	p := r.buf[r.off : r.off+n]
	r.off += n
	return p, nil
}

func (r *tocReader) next() (Entry, error) {
	var e Entry
	start := r.off
	p, err := r.take(2, "name length")
	if err != nil {
		return e, err
	}
	nameLen := int(binary.LittleEndian.Uint16(p))
	name, err := r.take(nameLen, "name")
	if err != nil {
		return e, err
	}
	p, err = r.take(recordFixedSize-2, fmt.Sprintf("record %q", name))
	if err != nil {
		return e, err
	}
	e.Name = string(name)
	e.Offset = binary.LittleEndian.Uint64(p[0:])
	e.CompLength = binary.LittleEndian.Uint64(p[8:])
	e.RawLength = binary.LittleEndian.Uint64(p[16:])
	e.CRC32 = binary.LittleEndian.Uint32(p[24:])
	e.RawKnown = true
	e.HasCRC32 = true
	if e.Name == "" {
		return e, fmt.Errorf("%w: empty entry name in record at offset %d", ErrFormat, start)
	}
	return e, nil
}
