package format

import (
	"encoding/binary"
	"fmt"

	"github.com/meigma/qgenie/internal/bundletype"
)

// Container constants.
const (
	// Magic identifies a bundle.
	Magic = "QGENIE1"

	// Version is the only supported container version.
	Version uint16 = 1

	// HeaderSize is the size of the fixed header in bytes.
	HeaderSize = len(Magic) + 2 + 4 + 8 + 8 + 8

	// FooterSize is the size of the trailing whole-file CRC32.
	FooterSize = 4

	// MinSize is the smallest well-formed bundle.
	MinSize = HeaderSize + FooterSize
)

// Header field offsets.
const (
	versionOff      = len(Magic)
	reservedOff     = versionOff + 2
	configOffsetOff = reservedOff + 4
	configLengthOff = configOffsetOff + 8
	tocOffsetOff    = configLengthOff + 8
)

// Re-export shared types.
type (
	Header = bundletype.Header
	Entry  = bundletype.Entry
)

// Re-export sentinel errors.
var (
	ErrFormat    = bundletype.ErrFormat
	ErrIntegrity = bundletype.ErrIntegrity
)

// DecodeHeader decodes the fixed header at the start of b.
//
// b must be the whole bundle, footer included, so that a bundle too short to
// hold both header and footer is rejected here.
func DecodeHeader(b []byte) (Header, error) {
	var h Header
	if len(b) < MinSize {
		return h, fmt.Errorf("%w: bundle too short (%d bytes, need at least %d)", ErrFormat, len(b), MinSize)
	}
	if string(b[:len(Magic)]) != Magic {
		return h, fmt.Errorf("%w: bad magic %q", ErrFormat, b[:len(Magic)])
	}
	h.Version = binary.LittleEndian.Uint16(b[versionOff:])
	if h.Version != Version {
		return h, fmt.Errorf("%w: unsupported version %d", ErrFormat, h.Version)
	}
	copy(h.Reserved[:], b[reservedOff:configOffsetOff])
	h.ConfigOffset = binary.LittleEndian.Uint64(b[configOffsetOff:])
	h.ConfigLength = binary.LittleEndian.Uint64(b[configLengthOff:])
	h.TOCOffset = binary.LittleEndian.Uint64(b[tocOffsetOff:])
	return h, nil
}
