package bundletype

import (
	"errors"
	"fmt"
)

// Sentinel errors for bundle operations.
var (
	// ErrIO is returned when the bundle or an output file cannot be opened, mapped, or written.
	ErrIO = errors.New("qgenie: i/o error")

	// ErrFormat is returned when the bundle header or table of contents is malformed.
	ErrFormat = errors.New("qgenie: malformed bundle")

	// ErrIntegrity is returned when a stored checksum does not match the computed one.
	ErrIntegrity = errors.New("qgenie: checksum mismatch")

	// ErrDecompression is returned when a section's compressed stream is corrupt or truncated.
	ErrDecompression = errors.New("qgenie: decompression failed")

	// ErrUnsafePath is returned when an entry name would resolve outside the output directory.
	// It also matches ErrFormat.
	ErrUnsafePath = fmt.Errorf("%w: unsafe entry name", ErrFormat)
)
