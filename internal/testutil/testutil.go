// Package testutil builds bundles for tests.
//
// It mirrors the container layout independently of internal/format so that
// decoder tests do not validate the decoder against itself.
package testutil

import (
	"encoding/binary"
	"hash/crc32"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
)

const (
	magic      = "QGENIE1"
	version    = 1
	headerSize = 37
)

// Section is one TOC entry of a test bundle.
type Section struct {
	Name string
	Data []byte

	// Payload, when non-nil, is stored instead of the compressed Data.
	// RawLength is still declared as len(Data).
	Payload []byte

	// BadCRC stores a per-entry checksum that does not match the payload.
	BadCRC bool
}

// Bundle describes a bundle to build.
type Bundle struct {
	Config   []byte
	Sections []Section

	// ConfigPayload, when non-nil, is stored instead of the compressed Config.
	ConfigPayload []byte

	// Magic overrides the header magic when non-empty.
	Magic string

	// Version overrides the header version when non-zero.
	Version uint16

	// Trailer is appended after the TOC, before the footer.
	Trailer []byte
}

// Build encodes the bundle with a valid footer.
func (b *Bundle) Build(tb testing.TB) []byte {
	tb.Helper()

	out := make([]byte, headerSize)
	m := b.Magic
	if m == "" {
		m = magic
	}
	copy(out, m)
	v := b.Version
	if v == 0 {
		v = version
	}
	binary.LittleEndian.PutUint16(out[7:], v)

	cfg := b.ConfigPayload
	if cfg == nil {
		cfg = Compress(tb, b.Config)
	}
	binary.LittleEndian.PutUint64(out[13:], uint64(len(out)))
	binary.LittleEndian.PutUint64(out[21:], uint64(len(cfg)))
	out = append(out, cfg...)

	type placed struct {
		offset, length uint64
		crc            uint32
	}
	places := make([]placed, len(b.Sections))
	for i, s := range b.Sections {
		payload := s.Payload
		if payload == nil {
			payload = Compress(tb, s.Data)
		}
		crc := crc32.ChecksumIEEE(payload)
		if s.BadCRC {
			crc = ^crc
		}
		places[i] = placed{offset: uint64(len(out)), length: uint64(len(payload)), crc: crc}
		out = append(out, payload...)
	}

	binary.LittleEndian.PutUint64(out[29:], uint64(len(out)))
	for i, s := range b.Sections {
		out = binary.LittleEndian.AppendUint16(out, uint16(len(s.Name))) //nolint:gosec // test names are short
		out = append(out, s.Name...)
		out = binary.LittleEndian.AppendUint64(out, places[i].offset)
		out = binary.LittleEndian.AppendUint64(out, places[i].length)
		out = binary.LittleEndian.AppendUint64(out, uint64(len(s.Data)))
		out = binary.LittleEndian.AppendUint32(out, places[i].crc)
	}
	out = append(out, b.Trailer...)

	out = append(out, 0, 0, 0, 0)
	Reseal(out)
	return out
}

// Write builds the bundle into dir and returns its path.
func (b *Bundle) Write(tb testing.TB, dir string) string {
	tb.Helper()
	return WriteFile(tb, dir, b.Build(tb))
}

// WriteFile writes raw bundle bytes into dir and returns the path.
func WriteFile(tb testing.TB, dir string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, "bundle.qgb")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		tb.Fatalf("write bundle: %v", err)
	}
	return path
}

// Reseal recomputes the footer checksum of data in place.
func Reseal(data []byte) {
	body := data[:len(data)-4]
	binary.LittleEndian.PutUint32(data[len(data)-4:], crc32.ChecksumIEEE(body))
}

// Compress returns data as a single zstd frame that declares its content
// size. The encoder only writes the size field for small inputs when the
// frame is marked single segment, so that is forced here.
func Compress(tb testing.TB, data []byte) []byte {
	tb.Helper()
	enc, err := zstd.NewWriter(nil, zstd.WithZeroFrames(true), zstd.WithSingleSegment(true))
	if err != nil {
		tb.Fatalf("zstd.NewWriter: %v", err)
	}
	defer enc.Close()
	out := enc.EncodeAll(data, nil)

	var fh zstd.Header
	if err := fh.Decode(out); err != nil || !fh.HasFCS || fh.FrameContentSize != uint64(len(data)) {
		tb.Fatalf("zstd frame for %d bytes does not declare its size (err=%v, hasFCS=%t)", len(data), err, fh.HasFCS)
	}
	return out
}

// FrameWithoutSize returns data as a zstd frame of raw blocks whose header
// omits the content size. The decoder only learns the size by decoding.
func FrameWithoutSize(data []byte) []byte {
	const (
		frameMagic = 0xFD2FB528
		maxBlock   = 128 << 10
	)
	out := binary.LittleEndian.AppendUint32(nil, frameMagic)
	// Descriptor: no content size, not single segment, no checksum.
	// Window descriptor: exponent 7, a 128 KiB window.
	out = append(out, 0x00, 7<<3)
	for {
		n := min(len(data), maxBlock)
		last := n == len(data)
		h := uint32(n) << 3 //nolint:gosec // n <= maxBlock
		if last {
			h |= 1
		}
		out = append(out, byte(h), byte(h>>8), byte(h>>16))
		out = append(out, data[:n]...)
		data = data[n:]
		if last {
			return out
		}
	}
}

// RandomBytes returns n pseudo-random bytes from a fixed seed.
func RandomBytes(seed uint64, n int) []byte {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // test data
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(r.Uint32())
	}
	return b
}
