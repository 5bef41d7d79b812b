// Package qgenie unpacks model bundles into a directory of plain files.
//
// A bundle is a single file holding a compressed configuration document and
// any number of independently zstd-compressed sections, each described by a
// table-of-contents record. A trailing CRC32 covers the whole file.
//
// Unpacking validates the checksum, decodes the table of contents, and
// decompresses every section on a fixed pool of workers. Sections whose
// output file already exists with the expected size are skipped, so a
// repeated Unpack of the same bundle does no decompression work.
//
// # Quick Start
//
//	if err := qgenie.Unpack("model.qgb", "/data/model"); err != nil {
//	    return err
//	}
//
// Use [NewUnpacker] for statistics, logging, and progress:
//
//	u := qgenie.NewUnpacker(
//	    qgenie.WithWorkers(4),
//	    qgenie.WithLogger(logger),
//	)
//	stats, err := u.Unpack("model.qgb", "/data/model")
//
// # Errors
//
// Failures match one of [ErrIO], [ErrFormat], [ErrIntegrity], or
// [ErrDecompression] with errors.Is. Section failures are collected into an
// [*AggregateError] after all scheduled work has finished.
package qgenie
