package qgenie

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/meigma/qgenie/internal/extract"
	"github.com/meigma/qgenie/internal/format"
	"github.com/meigma/qgenie/internal/mmap"
	"github.com/meigma/qgenie/internal/pool"
)

// Unpacker extracts bundles. It is safe for concurrent use; each Unpack
// call runs its own worker pool.
type Unpacker struct {
	workers          int
	logger           *slog.Logger
	progress         ProgressFunc
	verifyEntries    bool
	removePartial    bool
	maxDecoderMemory uint64
}

// NewUnpacker creates an Unpacker with the given options.
func NewUnpacker(opts ...Option) *Unpacker {
	u := &Unpacker{}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Unpack extracts every section of the bundle at bundlePath into outputDir
// using a default Unpacker configured with opts.
func Unpack(bundlePath, outputDir string, opts ...Option) error {
	_, err := NewUnpacker(opts...).Unpack(bundlePath, outputDir)
	return err
}

// UnpackConfig unpacks the bundle and returns the contents of the extracted
// configuration file.
func UnpackConfig(bundlePath, outputDir string, opts ...Option) ([]byte, error) {
	if err := Unpack(bundlePath, outputDir, opts...); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(outputDir, ConfigName))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, ConfigName, err)
	}
	return data, nil
}

func (u *Unpacker) log() *slog.Logger {
	if u.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.logger
}

func (u *Unpacker) emit(ev ProgressEvent) {
	if u.progress != nil {
		u.progress(ev)
	}
}

// Unpack extracts every section of the bundle at bundlePath into outputDir.
//
// The bundle is fully validated before outputDir is touched: a checksum
// mismatch, a malformed table of contents, or an unsafe entry name fails
// without creating or writing anything. Sections are then decompressed
// concurrently; sections already present with the expected size are
// skipped. If any section fails, the others still run to completion and
// the failures are returned together as an *AggregateError.
//
// When several entries share a name, only the last one is extracted.
func (u *Unpacker) Unpack(bundlePath, outputDir string) (Stats, error) {
	var stats Stats
	start := time.Now()

	b, err := openBundle(bundlePath)
	if err != nil {
		return stats, err
	}
	defer b.Close()

	entries, err := u.validate(b.Bytes())
	if err != nil {
		return stats, err
	}
	entries = lastByName(entries)
	if err := checkNames(entries); err != nil {
		return stats, err
	}

	var xopts []extract.Option
	if u.removePartial {
		xopts = append(xopts, extract.WithRemovePartial(true))
	}
	if u.maxDecoderMemory != 0 {
		xopts = append(xopts, extract.WithMaxDecoderMemory(u.maxDecoderMemory))
	}
	x, err := extract.New(outputDir, xopts...)
	if err != nil {
		return stats, err
	}
	defer x.Close()

	p := pool.New(u.workers)
	defer p.Close()

	var (
		filesDone atomic.Int64
		bytesDone atomic.Uint64
		extracted atomic.Int64
		total     = len(entries)
	)
	progress := func(name string, skipped bool) {
		u.emit(ProgressEvent{
			Stage:      StageExtracting,
			Path:       name,
			Skipped:    skipped,
			BytesDone:  bytesDone.Load(),
			FilesDone:  int(filesDone.Add(1)),
			FilesTotal: total,
		})
	}

	u.log().Debug("extracting bundle",
		"path", bundlePath,
		"output", outputDir,
		"entries", total,
		"workers", p.Workers())

	data := b.Bytes()
	for i := range entries {
		e := &entries[i]
		if !x.ShouldExtract(data, e) {
			u.log().Debug("skipping entry", "name", e.Name, "size", e.RawLength)
			stats.Skipped++
			progress(e.Name, true)
			continue
		}
		u.log().Debug("scheduling entry", "name", e.Name, "compressed", e.CompLength)
		err := p.Submit(func() error {
			n, err := x.Extract(data, e)
			bytesDone.Add(n)
			if err == nil {
				extracted.Add(1)
			}
			progress(e.Name, false)
			return err
		})
		if err != nil {
			return stats, fmt.Errorf("submit %s: %w", e.Name, err)
		}
	}

	err = p.Drain()
	stats.Extracted = int(extracted.Load())
	stats.Bytes = bytesDone.Load()
	if err != nil {
		u.log().Error("unpack failed", "path", bundlePath, "error", err)
		return stats, err
	}

	u.log().Info("unpacked bundle",
		"path", bundlePath,
		"extracted", stats.Extracted,
		"skipped", stats.Skipped,
		"bytes", stats.Bytes,
		"duration", time.Since(start))
	return stats, nil
}

// validate checks the whole-file checksum, decodes the table of contents,
// and in strict mode verifies every per-entry checksum.
func (u *Unpacker) validate(data []byte) ([]Entry, error) {
	u.emit(ProgressEvent{Stage: StageValidating})
	if err := format.Validate(data); err != nil {
		return nil, err
	}

	u.emit(ProgressEvent{Stage: StageDecoding})
	_, entries, err := format.Decode(data)
	if err != nil {
		return nil, err
	}

	if u.verifyEntries {
		u.emit(ProgressEvent{Stage: StageVerifyingEntries, FilesTotal: len(entries)})
		if err := format.VerifyEntries(data, entries, u.workers); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// Verify checks the bundle at bundlePath without extracting it.
func (u *Unpacker) Verify(bundlePath string) error {
	b, err := openBundle(bundlePath)
	if err != nil {
		return err
	}
	defer b.Close()

	entries, err := u.validate(b.Bytes())
	if err != nil {
		return err
	}
	if err := checkNames(lastByName(entries)); err != nil {
		return err
	}
	u.log().Debug("verified bundle", "path", bundlePath, "entries", len(entries), "strict", u.verifyEntries)
	return nil
}

// Verify checks the bundle at bundlePath without extracting it. The
// whole-file checksum and the table of contents are always checked;
// WithVerifyEntryChecksums additionally checks every section payload.
func Verify(bundlePath string, opts ...Option) error {
	return NewUnpacker(opts...).Verify(bundlePath)
}

// openBundle maps the bundle read-only.
func openBundle(path string) (*mmap.File, error) {
	b, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open bundle: %w", ErrIO, err)
	}
	return b, nil
}

// checkNames rejects unsafe names and names that would need the same path
// to be both a file and a directory, such as "a" and "a/b".
func checkNames(entries []Entry) error {
	files := make(map[string]struct{}, len(entries))
	for i := range entries {
		if err := extract.SafeName(entries[i].Name); err != nil {
			return err
		}
		files[entries[i].Name] = struct{}{}
	}
	for i := range entries {
		name := entries[i].Name
		for j := strings.IndexByte(name, '/'); j >= 0; j = nextSlash(name, j) {
			if _, ok := files[name[:j]]; ok {
				return fmt.Errorf("%w: %q is both a file and a directory", ErrFormat, name[:j])
			}
		}
	}
	return nil
}

func nextSlash(name string, after int) int {
	if j := strings.IndexByte(name[after+1:], '/'); j >= 0 {
		return after + 1 + j
	}
	return -1
}

// lastByName drops every entry whose name appears again later, keeping the
// stored order of the survivors.
func lastByName(entries []Entry) []Entry {
	last := make(map[string]int, len(entries))
	for i := range entries {
		last[entries[i].Name] = i
	}
	if len(last) == len(entries) {
		return entries
	}
	out := make([]Entry, 0, len(last))
	for i := range entries {
		if last[entries[i].Name] == i {
			out = append(out, entries[i])
		}
	}
	return out
}
