package qgenie

import "github.com/meigma/qgenie/internal/bundletype"

// Re-export progress types from bundletype.
type (
	// ProgressEvent represents a progress update during unpack or verify.
	ProgressEvent = bundletype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = bundletype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = bundletype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageValidating indicates the whole-file checksum is being computed.
	StageValidating = bundletype.StageValidating

	// StageDecoding indicates the header and table of contents are being decoded.
	StageDecoding = bundletype.StageDecoding

	// StageVerifyingEntries indicates per-entry checksums are being verified.
	StageVerifyingEntries = bundletype.StageVerifyingEntries

	// StageExtracting indicates sections are being decompressed to disk.
	StageExtracting = bundletype.StageExtracting
)
