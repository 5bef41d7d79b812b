// Package extract writes bundle sections into an output directory.
package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/meigma/qgenie/internal/bundletype"
)

// writeBufferSize bounds each write to the destination file.
const writeBufferSize = 1 << 20

// Re-export shared types and errors.
type Entry = bundletype.Entry

var (
	ErrIO            = bundletype.ErrIO
	ErrDecompression = bundletype.ErrDecompression
	ErrUnsafePath    = bundletype.ErrUnsafePath
)

// Extractor decompresses sections into files under one directory.
//
// All file operations go through an os.Root, so even a name that slipped
// past SafeName cannot escape the directory. An Extractor is safe for
// concurrent use as long as each call targets a different entry name.
type Extractor struct {
	dir           string
	root          *os.Root
	decoders      *decoderPool
	removePartial bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithRemovePartial removes the destination file when extraction fails.
// By default a failed section leaves whatever was written in place.
func WithRemovePartial(enabled bool) Option {
	return func(x *Extractor) {
		x.removePartial = enabled
	}
}

// WithMaxDecoderMemory limits the memory used by each zstd decoder.
// Set limit to 0 to disable the limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(x *Extractor) {
		x.decoders = newDecoderPool(limit)
	}
}

// New creates dir if needed and returns an Extractor writing into it.
// The caller must Close the Extractor.
func New(dir string, opts ...Option) (*Extractor, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("%w: create output directory: %w", ErrIO, err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: open output directory: %w", ErrIO, err)
	}
	x := &Extractor{
		dir:      dir,
		root:     root,
		decoders: newDecoderPool(0),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x, nil
}

// Dir returns the output directory.
func (x *Extractor) Dir() string {
	return x.dir
}

// Close releases the output directory handle.
func (x *Extractor) Close() error {
	return x.root.Close()
}

// ShouldExtract reports whether the entry needs to be written.
//
// An entry is considered already extracted when a regular file with its
// name exists and has exactly the expected decompressed size. Content is
// not inspected. When the entry does not declare its size and the file
// exists, the payload is decoded into a counter to learn the size; nothing
// is written.
func (x *Extractor) ShouldExtract(bundle []byte, e *Entry) bool {
	info, err := x.root.Stat(filepath.FromSlash(e.Name))
	if err != nil || !info.Mode().IsRegular() {
		return true
	}
	size := uint64(info.Size()) //nolint:gosec // size of a regular file is non-negative
	if e.RawKnown {
		return size != e.RawLength
	}
	n, err := x.decodedSize(bundle, e)
	if err != nil {
		// Let Extract report the failure.
		return true
	}
	return size != n
}

// decodedSize decodes the entry's payload and returns its length.
func (x *Extractor) decodedSize(bundle []byte, e *Entry) (uint64, error) {
	end, ok := e.End()
	if !ok || end > uint64(len(bundle)) {
		return 0, fmt.Errorf("%w: %s: payload outside bundle", ErrDecompression, e.Name)
	}
	if e.CompLength == 0 {
		return 0, nil
	}
	dec, release, err := x.decoders.get(bytes.NewReader(bundle[e.Offset:end]))
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDecompression, e.Name, err)
	}
	defer release()
	cw := &countingWriter{w: io.Discard}
	if _, err := dec.WriteTo(cw); err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrDecompression, e.Name, err)
	}
	return cw.n, nil
}

// Extract decompresses the entry's payload from bundle into its file and
// returns the number of bytes written.
//
// The destination is truncated and written in place; on failure it is left
// partially written unless WithRemovePartial is set.
func (x *Extractor) Extract(bundle []byte, e *Entry) (uint64, error) {
	if err := SafeName(e.Name); err != nil {
		return 0, err
	}
	end, ok := e.End()
	if !ok || end > uint64(len(bundle)) {
		return 0, fmt.Errorf("%w: %s: payload outside bundle", ErrDecompression, e.Name)
	}
	payload := bundle[e.Offset:end]

	name := filepath.FromSlash(e.Name)
	if dir := filepath.Dir(name); dir != "." {
		if err := x.root.MkdirAll(dir, 0o750); err != nil {
			return 0, fmt.Errorf("%w: %s: create directory: %w", ErrIO, e.Name, err)
		}
	}
	f, err := x.root.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrIO, e.Name, err)
	}

	n, err := x.write(f, payload, e)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: %s: close: %w", ErrIO, e.Name, cerr)
	}
	if err != nil && x.removePartial {
		_ = x.root.Remove(name) //nolint:errcheck // best-effort cleanup
	}
	return n, err
}

func (x *Extractor) write(f *os.File, payload []byte, e *Entry) (uint64, error) {
	out := &countingWriter{w: f}
	bw := bufio.NewWriterSize(out, writeBufferSize)

	if len(payload) > 0 {
		dec, release, err := x.decoders.get(bytes.NewReader(payload))
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %v", ErrDecompression, e.Name, err)
		}
		_, err = dec.WriteTo(bw)
		release()
		if err != nil {
			if out.err != nil {
				return out.n, fmt.Errorf("%w: %s: %w", ErrIO, e.Name, out.err)
			}
			return out.n, fmt.Errorf("%w: %s: %v", ErrDecompression, e.Name, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return out.n, fmt.Errorf("%w: %s: %w", ErrIO, e.Name, err)
	}

	if e.RawKnown && out.n != e.RawLength {
		return out.n, fmt.Errorf("%w: %s: size mismatch (got %d bytes, want %d)",
			ErrDecompression, e.Name, out.n, e.RawLength)
	}
	return out.n, nil
}

// countingWriter counts bytes written and remembers the first write error
// so it can be told apart from a decode error.
type countingWriter struct {
	w   io.Writer
	n   uint64
	err error
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n) //nolint:gosec // n is non-negative per io.Writer
	if err != nil && cw.err == nil {
		cw.err = err
	}
	return n, err
}
