// Package bundletype holds the types shared by the bundle decoder, the
// section extractor, and the public qgenie package.
package bundletype

// ConfigName is the file name of the header-addressed configuration section.
const ConfigName = "config.json"

// Header is the fixed-size header at the start of every bundle.
type Header struct {
	// Version is the container format version.
	Version uint16

	// Reserved holds the four reserved header bytes as stored.
	Reserved [4]byte

	// ConfigOffset is the byte offset of the compressed configuration section.
	ConfigOffset uint64

	// ConfigLength is the compressed size of the configuration section.
	ConfigLength uint64

	// TOCOffset is the byte offset of the first table-of-contents record.
	TOCOffset uint64
}

// Entry describes one independently compressed section of a bundle.
type Entry struct {
	// Name is the output file name relative to the extraction directory.
	Name string

	// Offset is the byte offset of the compressed payload in the bundle.
	Offset uint64

	// CompLength is the size in bytes of the compressed payload.
	CompLength uint64

	// RawLength is the expected decompressed size.
	// Only meaningful when RawKnown is true.
	RawLength uint64

	// RawKnown reports whether RawLength was declared. TOC entries always
	// declare it; the configuration entry does only when its zstd frame
	// header carries a content size.
	RawKnown bool

	// CRC32 is the declared IEEE checksum of the compressed payload.
	// Only meaningful when HasCRC32 is true.
	CRC32 uint32

	// HasCRC32 is false for the synthetic configuration entry.
	HasCRC32 bool
}

// End returns Offset+CompLength, or false if the sum overflows.
func (e *Entry) End() (uint64, bool) {
	end := e.Offset + e.CompLength
	if end < e.Offset {
		return 0, false
	}
	return end, true
}
