package qgenie

import (
	"log/slog"
)

// Option configures an Unpacker.
type Option func(*Unpacker)

// WithWorkers sets the number of sections decompressed concurrently.
// Values <= 0 use runtime.GOMAXPROCS(0), which is the default.
func WithWorkers(n int) Option {
	return func(u *Unpacker) {
		u.workers = n
	}
}

// WithLogger sets the logger for unpack operations.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Unpacker) {
		u.logger = logger
	}
}

// WithProgress sets a callback to receive progress updates.
// The callback is invoked from worker goroutines and must be safe for
// concurrent use.
func WithProgress(fn ProgressFunc) Option {
	return func(u *Unpacker) {
		u.progress = fn
	}
}

// WithVerifyEntryChecksums verifies the stored CRC32 of every section
// payload before anything is written. The whole-file checksum is always
// verified; this additionally pinpoints which section is damaged.
func WithVerifyEntryChecksums(enabled bool) Option {
	return func(u *Unpacker) {
		u.verifyEntries = enabled
	}
}

// WithRemovePartial removes the output file of a section that fails to
// extract. By default a failed section leaves a partially written file,
// which the next Unpack re-extracts because its size will not match.
func WithRemovePartial(enabled bool) Option {
	return func(u *Unpacker) {
		u.removePartial = enabled
	}
}

// WithMaxDecoderMemory limits the memory each zstd decoder may allocate.
// Zero means no limit.
func WithMaxDecoderMemory(limit uint64) Option {
	return func(u *Unpacker) {
		u.maxDecoderMemory = limit
	}
}
