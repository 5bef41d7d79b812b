package qgenie

import "github.com/meigma/qgenie/internal/bundletype"

// ConfigName is the output file name of the configuration section.
const ConfigName = bundletype.ConfigName

// Re-export bundle types from bundletype.
type (
	// Header is the fixed-size header at the start of every bundle.
	Header = bundletype.Header

	// Entry describes one compressed section of a bundle.
	Entry = bundletype.Entry
)

// Stats summarizes an unpack.
type Stats struct {
	// Extracted is the number of sections decompressed to disk.
	Extracted int

	// Skipped is the number of sections whose output already existed with
	// the expected size.
	Skipped int

	// Bytes is the number of decompressed bytes written.
	Bytes uint64
}
