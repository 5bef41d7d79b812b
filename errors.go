package qgenie

import (
	"github.com/meigma/qgenie/internal/bundletype"
	"github.com/meigma/qgenie/internal/pool"
)

// Errors re-exported from bundletype.
var (
	// ErrIO is returned when the bundle or an output file cannot be opened, mapped, or written.
	ErrIO = bundletype.ErrIO

	// ErrFormat is returned when the bundle header or table of contents is malformed.
	ErrFormat = bundletype.ErrFormat

	// ErrIntegrity is returned when the whole-file checksum, or a per-entry
	// checksum in strict mode, does not match.
	ErrIntegrity = bundletype.ErrIntegrity

	// ErrDecompression is returned when a section's compressed stream is corrupt,
	// truncated, or decodes to an unexpected size.
	ErrDecompression = bundletype.ErrDecompression

	// ErrUnsafePath is returned when an entry name would resolve outside the
	// output directory. It also matches ErrFormat.
	ErrUnsafePath = bundletype.ErrUnsafePath
)

// AggregateError collects the failures of every section that could not be
// extracted. It unwraps to each failure, so errors.Is works on it directly.
type AggregateError = pool.AggregateError
