// Package format decodes the QGENIE1 bundle container.
//
// A bundle is laid out as:
//
//	magic[7]="QGENIE1" version:u16 reserved[4]
//	configOffset:u64 configLength:u64 tocOffset:u64
//	[section data]
//	TOC records: nameLen:u16 name[nameLen] offset:u64 compLength:u64 rawLength:u64 crc32:u32
//	globalCrc32:u32
//
// All integers are little-endian. The trailing CRC32 covers every byte that
// precedes it. Decoding never trusts a declared offset or length: every
// range is checked against the bytes that precede the footer.
package format
